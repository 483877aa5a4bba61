package main

import (
	"ballot-app-go/internal/config"
	"ballot-app-go/internal/db"
	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := commonRun()
			if err != nil {
				return err
			}

			gormDB, err := db.Open(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(gormDB) }()

			// sqlite stores are built from the models on open.
			if cfg.DB.Driver == config.DriverSQLite {
				log.Info("migrate: sqlite schema is managed automatically")
				return nil
			}

			applied, err := db.Migrate(gormDB, dir, log)
			if err != nil {
				return err
			}
			log.Info("migrate: done", "applied", applied)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default: nearest ./migrations)")
	return cmd
}
