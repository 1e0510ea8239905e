package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/utils"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
)

var (
	configPath  string
	reset       bool
	writeConfig string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo users, projects and comments",
	Long: `Seed the Innovators Hub database with demo data.

Creates an admin, a supervisor, three students, sample projects in
mixed review states and a few comments. Existing accounts with the
same email are left untouched unless --reset is given.

Examples:
  # Add demo data next to existing records
  seed

  # Wipe users, projects and comments first
  seed --reset --config ./config.yaml

  # Also write the effective configuration as a starting config file
  seed --write-config ./config.local.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		if writeConfig != "" {
			if err := cfg.WriteFile(writeConfig); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", writeConfig)
		}
		utils.SetBcryptCost(cfg.Security.BcryptCost)

		if err := models.InitDB(&cfg.Database); err != nil {
			return err
		}
		if err := models.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		summary, err := seed(cmd.Context(), models.GetDB(), reset)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d projects, %d comments\n\n",
			summary.Users, summary.Projects, summary.Comments)
		fmt.Fprintln(cmd.OutOrStdout(), "Test credentials:")
		for _, u := range demoUsers {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %-24s %s\n", u.Role, u.Email, u.Password)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "delete existing users, projects and comments first")
	rootCmd.Flags().StringVar(&writeConfig, "write-config", "", "write the effective configuration to this path (must not exist)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
