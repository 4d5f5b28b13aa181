package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-provider/internal/display"
	"github.com/hal9000y/gmail-provider/internal/provider"
	"github.com/hal9000y/gmail-provider/internal/settings"
)

var (
	authYes  bool
	authNo   bool
	requestQ bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Confirm or dismiss the pending authorization request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if authYes && authNo {
			return errors.New("--yes and --no are mutually exclusive")
		}

		c, err := mount(cmd, provider.AuthRoute)
		if err != nil {
			return err
		}
		defer c.Close()

		snap := c.Snapshot()
		if snap.State != settings.StateAuthDialogOpen || snap.Pending == nil {
			return errors.New("no pending authorization request")
		}

		out := cmd.OutOrStdout()
		display.Dialog(out, snap.Message)

		confirmed := authYes
		if !authYes && !authNo {
			fmt.Fprint(out, "Continue? [y/N] ")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			answer := strings.ToLower(strings.TrimSpace(line))
			confirmed = answer == "y" || answer == "yes"
		}

		if !confirmed {
			if err := c.DismissAuthorization(cmd.Context()); err != nil {
				return fmt.Errorf("dismiss authorization: %w", err)
			}
			display.SuccessMsg(out, "Authorization request of %s dismissed", snap.Pending.Email)
			return nil
		}

		if err := c.ConfirmAuthorization(cmd.Context()); err != nil {
			return fmt.Errorf("confirm authorization: %w", err)
		}
		display.SuccessMsg(out, "Authorization of %s started, finish it in the browser", snap.Pending.Email)
		return nil
	},
}

var requestCmd = &cobra.Command{
	Use:   "request EMAIL SCOPE",
	Short: "Stage an authorization request (SCOPE is read or send)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := provider.ParseScope(args[1])
		if err != nil {
			return err
		}

		var resp provider.RequestAuthorizationResponse
		req := provider.RequestAuthorizationRequest{Email: args[0], Scope: scope}
		if err := ch.Send(cmd.Context(), provider.OpRequestAuthorization, req, &resp); err != nil {
			return fmt.Errorf("request authorization: %w", err)
		}

		out := cmd.OutOrStdout()
		if requestQ {
			fmt.Fprintln(out, resp.CorrelationID)
			return nil
		}
		display.SuccessMsg(out, "Authorization of %s staged as %s", args[0], resp.CorrelationID)
		fmt.Fprintln(out, display.Muted.Render("Run 'provider-settings auth' to confirm it"))
		return nil
	},
}

func init() {
	authCmd.Flags().BoolVarP(&authYes, "yes", "y", false, "confirm without prompting")
	authCmd.Flags().BoolVar(&authNo, "no", false, "dismiss without prompting")
	requestCmd.Flags().BoolVarP(&requestQ, "quiet", "q", false, "print only the correlation id")
}
