package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Run: func(_ *cobra.Command, _ []string) {
		migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate() {
	ctx := context.Background()

	logger, config := setup(componentCLI)

	s, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		logger.Fatal("migrating the database", zap.Error(err))
	}

	logger.Info("schema is up to date")
}
