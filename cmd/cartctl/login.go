package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var phone, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with phone and password and print a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			snap, err := a.session.Login(ctx, phone, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "export %s_TOKEN=%s\n", envPrefix, a.session.Token())
			fmt.Fprintf(out, "# cart: %d item(s), %s\n", snap.ItemCount, snap.FormattedTotal())
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "registered phone number")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("phone")
	cmd.MarkFlagRequired("password")
	return cmd
}
