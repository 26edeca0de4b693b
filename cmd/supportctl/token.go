package main

import (
	"fmt"
	"io"
	"time"

	"github.com/georgestephanis/support-widget/internal/widget"
	"github.com/georgestephanis/support-widget/pkg/auth"
	"github.com/georgestephanis/support-widget/pkg/config"
	"github.com/georgestephanis/support-widget/pkg/nonce"

	"github.com/spf13/cobra"
)

type tokenOutput struct {
	Token     string    `json:"token" yaml:"token"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

func (t tokenOutput) text(w io.Writer) error {
	_, err := fmt.Fprintln(w, t.Token)
	return err
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		user auth.User
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a dashboard session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := secretFlag(cmd, "secret", "JWT_SECRET")
			if err != nil {
				return err
			}
			if user.ID == "" {
				return fmt.Errorf("--id is required")
			}
			if _, ok := auth.RoleCapabilities(user.Role); !ok && user.Role != "" {
				return fmt.Errorf("unknown role %q", user.Role)
			}

			token, err := auth.GenerateJWT(user, secret, ttl)
			if err != nil {
				return err
			}
			out := tokenOutput{Token: token, ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second)}
			return root.render(cmd.OutOrStdout(), out, out.text)
		},
	}

	cmd.Flags().String("secret", "", "session signing secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&user.ID, "id", "", "user id")
	cmd.Flags().StringVar(&user.Email, "email", "", "user email, used as Reply-To")
	cmd.Flags().StringVar(&user.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&user.Role, "role", "administrator", "role: administrator|editor|author|contributor|subscriber")
	cmd.Flags().StringSliceVar(&user.Capabilities, "cap", nil, "extra capability grants")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultSessionTTL, "token lifetime")

	return cmd
}

func newNonceCmd(root *rootOptions) *cobra.Command {
	var (
		userID string
		action string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "nonce",
		Short: "Mint a form token for scripted submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := nonceSecret(cmd)
			if err != nil {
				return err
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			token, err := nonce.NewManager(secret, ttl, nil).Create(action, userID)
			if err != nil {
				return err
			}
			out := tokenOutput{Token: token, ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second)}
			return root.render(cmd.OutOrStdout(), out, out.text)
		},
	}

	cmd.Flags().String("secret", "", "form token secret (default $NONCE_SECRET, else derived from $JWT_SECRET)")
	cmd.Flags().StringVar(&userID, "user", "", "user id the token is bound to")
	cmd.Flags().StringVar(&action, "action", widget.Action, "action the token is bound to")
	cmd.Flags().DurationVar(&ttl, "ttl", nonce.DefaultTTL, "token lifetime")

	return cmd
}

// nonceSecret mirrors the service: an explicit form secret wins, otherwise
// the key is derived from the session secret.
func nonceSecret(cmd *cobra.Command) ([]byte, error) {
	if secret, err := secretFlag(cmd, "secret", "NONCE_SECRET"); err == nil {
		return secret, nil
	}
	session := config.GetEnv("JWT_SECRET", "")
	if session == "" {
		return nil, fmt.Errorf("--secret, NONCE_SECRET or JWT_SECRET is required")
	}
	return nonce.DeriveKey([]byte(session))
}
