package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/georgestephanis/support-widget/pkg/config"
	"github.com/georgestephanis/support-widget/pkg/logging"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type rootOptions struct {
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "supportctl",
		Short:         "Operator tool for the support widget service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (text|json|yaml)", opts.output)
			}
			config.LoadEnv(logging.NewLogger())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text|json|yaml")

	rootCmd.AddCommand(newTokenCmd(opts))
	rootCmd.AddCommand(newNonceCmd(opts))
	rootCmd.AddCommand(newRecipientsCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))

	return rootCmd
}

// render writes v as json or yaml, or calls text for the default format.
func (o *rootOptions) render(w io.Writer, v interface{}, text func(io.Writer) error) error {
	switch o.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

func secretFlag(cmd *cobra.Command, flag, envKey string) ([]byte, error) {
	v, _ := cmd.Flags().GetString(flag)
	if v == "" {
		v = config.GetEnv(envKey, "")
	}
	if v == "" {
		return nil, fmt.Errorf("--%s or %s is required", flag, envKey)
	}
	return []byte(v), nil
}
