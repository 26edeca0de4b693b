package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/georgestephanis/support-widget/internal/recipients"
	"github.com/georgestephanis/support-widget/internal/site"
	"github.com/georgestephanis/support-widget/pkg/auth"

	"github.com/spf13/cobra"
)

type recipientRow struct {
	Key        string `json:"key" yaml:"key"`
	Label      string `json:"label" yaml:"label"`
	Address    string `json:"address" yaml:"address"`
	Capability string `json:"capability,omitempty" yaml:"capability,omitempty"`
	Default    bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

func newRecipientsCmd(root *rootOptions) *cobra.Command {
	var user auth.User

	cmd := &cobra.Command{
		Use:   "recipients",
		Short: "List the recipients a user would be offered",
		Long:  "List the recipients a user would be offered, using the same environment as the service (ADMIN_EMAIL, MAINTAINER_EMAIL, SUPPORT_*).",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := recipients.FromEnv()
			if err != nil {
				return err
			}

			eligible := registry.Eligible(user, site.FromEnv())
			def := registry.Default(eligible, user)

			rows := make([]recipientRow, 0, len(eligible))
			for _, r := range eligible {
				rows = append(rows, recipientRow{
					Key:        r.Key,
					Label:      r.Label,
					Address:    r.Address,
					Capability: r.Capability,
					Default:    r.Key == def,
				})
			}

			return root.render(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				if len(rows) == 0 {
					_, err := fmt.Fprintln(w, "No recipients available.")
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tLABEL\tADDRESS\tCAPABILITY\tDEFAULT")
				for _, r := range rows {
					capability := r.Capability
					if capability == "" {
						capability = "-"
					}
					marker := ""
					if r.Default {
						marker = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Key, r.Label, r.Address, capability, marker)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&user.Role, "role", "subscriber", "role to evaluate")
	cmd.Flags().StringSliceVar(&user.Capabilities, "cap", nil, "extra capability grants")

	return cmd
}
