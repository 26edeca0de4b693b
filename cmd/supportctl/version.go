package main

import (
	"fmt"
	"io"

	"github.com/georgestephanis/support-widget/pkg/version"

	"github.com/spf13/cobra"
)

func newVersionCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			return root.render(cmd.OutOrStdout(), info, func(w io.Writer) error {
				fmt.Fprintf(w, "supportctl\n")
				fmt.Fprintf(w, " - version: %s\n", info.Version)
				fmt.Fprintf(w, " - git: %s\n", version.GetShortCommit())
				fmt.Fprintf(w, " - built: %s\n", info.BuildDate)
				return nil
			})
		},
	}
}
