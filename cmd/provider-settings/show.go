package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-provider/internal/display"
	"github.com/hal9000y/gmail-provider/internal/settings"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the Gmail integration flag and authorized accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mount(cmd, "/settings/provider")
		if err != nil {
			return err
		}
		defer c.Close()

		display.Settings(cmd.OutOrStdout(), c.Snapshot())
		return nil
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the Gmail integration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIntegration(cmd, true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the Gmail integration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIntegration(cmd, false)
	},
}

func setIntegration(cmd *cobra.Command, enabled bool) error {
	c, err := mount(cmd, "/settings/provider")
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Snapshot().Preferences.GmailIntegration == enabled {
		display.SuccessMsg(cmd.OutOrStdout(), "Gmail integration already %s", onOff(enabled))
		return nil
	}

	err = c.SetGmailIntegration(enabled)
	if errors.Is(err, settings.ErrIntegrationLocked) {
		return fmt.Errorf("mail.google.com is not in the watch list, the integration cannot be changed")
	}
	if err != nil {
		return err
	}

	if err := c.Save(cmd.Context()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	display.SuccessMsg(cmd.OutOrStdout(), "Gmail integration %s", onOff(enabled))
	return nil
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
