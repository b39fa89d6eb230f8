package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the recruiter assistant a question about a scored pool",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ask(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("pool", "p", "", "scored pool file written by the score command")
	askCmd.Flags().String("requirement-id", "", "load the pool of this requirement from the database")
}

func ask(cmd *cobra.Command, question string) {
	ctx := context.Background()

	logger, config := setup(componentCLI)

	poolFile, _ := cmd.Flags().GetString("pool")
	requirementID, _ := cmd.Flags().GetString("requirement-id")

	var dashboard *ai.Context
	if poolFile == "" && requirementID == "" {
		dashboard = ai.NewContext(nil, nil, nil)
	} else {
		req, pool, s, err := loadRequirementPool(ctx, config, poolFile, requirementID, logger)
		if err != nil {
			logger.Fatal("loading the pool", zap.Error(err))
		}
		if s != nil {
			s.Close()
		}
		dashboard = ai.NewContext(req, pool, insightsFor(pool))
	}

	if err := askAndPrint(ctx, newAssistant(ctx, config.AI, logger), question, dashboard, logger); err != nil {
		logger.Fatal("asking the assistant", zap.Error(err))
	}
}
