package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-provider/internal/display"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke EMAIL",
	Short: "Remove the authorization of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		c, err := mount(cmd, "/settings/provider")
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Revoke(cmd.Context(), email); err != nil {
			return fmt.Errorf("revoke %s: %w", email, err)
		}

		out := cmd.OutOrStdout()
		display.SuccessMsg(out, "Authorization of %s removed", email)
		display.Authorizations(out, c.Snapshot().Authorizations)
		return nil
	},
}
