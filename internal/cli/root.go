// Package cli provides CLI commands for the VITAL application.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/vital/internal/config"
	"github.com/example/vital/internal/ctxutil"
	"github.com/example/vital/internal/wire"
)

var (
	configPath string
	debugMode  bool
)

// AddGlobalFlags registers the flags shared by every command.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $VITAL_CONFIG_PATH or ./vital.yaml)")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// Bootstrap loads the configuration and hands it to the wiring layer.
// Should be used as the root command's PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	wire.Configure(cfg, debugMode)
	return nil
}

// NewContext creates a context carrying the system actor.
// CLI commands should use this instead of context.Background() directly.
func NewContext() context.Context {
	return ctxutil.WithActorID(context.Background(), ctxutil.SystemActor)
}
