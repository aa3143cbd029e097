package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eslsoft/skillswap/internal/adapter/db"
	appserver "github.com/eslsoft/skillswap/internal/app/server"
	"github.com/eslsoft/skillswap/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DBDriver == config.DriverMemory {
			return fmt.Errorf("nothing to migrate for DB_DRIVER=%s", cfg.DBDriver)
		}
		drv, err := appserver.OpenDriver(cfg)
		if err != nil {
			return err
		}
		defer drv.Close()

		if err := db.Migrate(cmd.Context(), drv); err != nil {
			return err
		}
		cmd.Println("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
