package cmd

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/talent"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the shortlist pipeline and candidate counts by status",
	Run: func(_ *cobra.Command, _ []string) {
		status()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func status() {
	ctx := context.Background()

	logger, config := setup(componentCLI)

	steps := filtering.DefaultSteps()
	for _, name := range config.Shortlist.Disable {
		filtering.DisableByName(steps, name, "disabled in config")
	}
	if cfg, err := shortlistConfig(config); err == nil {
		for _, step := range steps {
			if step.IsEnabled() {
				if err := step.Validate(cfg); err != nil {
					logger.Warn("shortlist step is misconfigured", zap.String("name", step.Name()), zap.Error(err))
				}
			}
		}
	} else {
		logger.Warn("shortlist config is invalid", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(filtering.Describe(steps), "", "  ")
	logger.Info("shortlist pipeline\n" + string(pretty))

	s, err := openStore(ctx, config, logger)
	if err != nil {
		if errors.Is(err, errNotConfigured) {
			logger.Info("database is not configured, skipping candidate counts")
			return
		}
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer s.Close()

	counts, err := s.StatusCounts(ctx)
	if err != nil {
		logger.Fatal("counting candidates", zap.Error(err))
	}

	for _, st := range []talent.Status{talent.StatusPending, talent.StatusShortlisted, talent.StatusRejected, talent.StatusAccepted} {
		logger.Info("candidates", zap.String("status", string(st)), zap.Int("count", counts[st]))
	}
}
