package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/vital/internal/config"
	"github.com/example/vital/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the VITAL config and database",
		Long: `Write a default config file if none exists and create the database
schema. With --seed, development fixtures are loaded as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			seed, _ := cmd.Flags().GetBool("seed")

			path := resolvedConfigPath()
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if err := config.SaveConfig(path, cfg); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Wrote default config to %s\n", path)
			} else {
				fmt.Fprintf(out, "Using config %s\n", path)
			}

			dbPath := cfg.Database.Path
			if dbPath == "" {
				if dbPath, err = db.DefaultPath(); err != nil {
					return err
				}
			}
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Database initialized at %s\n", dbPath)

			if seed {
				if err := db.SeedFixtures(database); err != nil {
					return fmt.Errorf("failed to seed fixtures: %w", err)
				}
				fmt.Fprintln(out, "✓ Development fixtures loaded")
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  vital issue list")
			fmt.Fprintln(out, "  vital serve --sweep-interval 1h")
			return nil
		},
	}

	cmd.Flags().Bool("seed", false, "Load development fixtures")
	return cmd
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		return p
	}
	return config.DefaultPath
}
