// Provider settings CLI shows and changes the Gmail provider settings held by
// the backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-provider/internal/channel"
	"github.com/hal9000y/gmail-provider/internal/config"
	"github.com/hal9000y/gmail-provider/internal/display"
	"github.com/hal9000y/gmail-provider/internal/settings"
)

var (
	backendURL string
	ch         *channel.MCP
)

var rootCmd = &cobra.Command{
	Use:           "provider-settings",
	Short:         "Manage the Gmail provider settings",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !needsBackend(cmd) {
			return nil
		}

		if backendURL == "" {
			cfg, err := config.LoadSettings()
			if err != nil {
				return fmt.Errorf("config.LoadSettings failed: %w", err)
			}
			backendURL = cfg.BackendURL
		}

		var err error
		ch, err = channel.DialHTTP(cmd.Context(), backendURL)
		if err != nil {
			return fmt.Errorf("connect to %s: %w", backendURL, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if ch != nil {
			_ = ch.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "",
		"backend MCP endpoint (default $PROVIDER_BACKEND_URL or "+config.DefaultBackendURL+")")

	rootCmd.AddCommand(showCmd, enableCmd, disableCmd, revokeCmd, authCmd, requestCmd)
}

// needsBackend reports whether cmd talks to the backend. Help and the shell
// completion commands work offline.
func needsBackend(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

// mount loads the settings view for routePath. The caller closes the controller.
func mount(cmd *cobra.Command, routePath string) (*settings.Controller, error) {
	c := settings.NewController(ch)
	if err := c.Mount(cmd.Context(), routePath); err != nil {
		c.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		display.ErrorMsg(os.Stderr, "%v", err)
		stop()
		os.Exit(1)
	}
}
