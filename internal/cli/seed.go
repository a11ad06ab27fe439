package cli

import (
	"globetrotter/internal/dataset"
	"globetrotter/internal/domain"
	"globetrotter/internal/infra/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads destinations into Postgres, migrating first.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load destinations into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var destinations []domain.Destination
			if file != "" {
				destinations, err = dataset.LoadFile(file)
			} else {
				destinations, err = dataset.Default()
			}
			if err != nil {
				return err
			}

			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := migrateDB(ctx, db, logger); err != nil {
				return err
			}
			n, err := postgres.NewSeeder(db).Seed(ctx, destinations)
			if err != nil {
				return err
			}
			logger.Info("destinations seeded", zap.Int("count", n))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML dataset to load instead of the built-in one")
	return cmd
}
