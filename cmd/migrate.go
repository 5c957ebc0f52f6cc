package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhil/modportal/internal/config"
	"github.com/nikhil/modportal/internal/database"
	"github.com/nikhil/modportal/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			cfg, err := loadConfig(cmd, (*config.Config).ValidateDB)
			if err != nil {
				return err
			}
			log := logger.NewLogger("migrate")
			defer log.Sync()

			db, err := database.Open(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			switch direction {
			case "up":
				err = database.Migrate(db)
			case "down":
				err = database.Rollback(db)
			default:
				return fmt.Errorf("unknown direction %q", direction)
			}
			if err != nil {
				return err
			}
			log.Info("Migrations applied", "direction", direction)
			return nil
		},
	}
	addDBFlags(cmd)
	return cmd
}

func addDBFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-host", "127.0.0.1", "database host")
	cmd.Flags().String("db-port", "3306", "database port")
	cmd.Flags().String("db-name", "", "database name")
}
