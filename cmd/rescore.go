package cmd

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/worker"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore [requirement-id]",
	Short: "Ask the workers to rescore every candidate against a requirement",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		rescore(args[0])
	},
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}

func rescore(rawID string) {
	ctx := context.Background()

	logger, config := setup(componentCLI)

	id, err := uuid.Parse(rawID)
	if err != nil {
		logger.Fatal("parsing the requirement id", zap.Error(err))
	}

	publisher, err := dialBroker(config, logger)
	if err != nil {
		logger.Fatal("connecting to rabbitmq", zap.Error(err))
	}
	defer publisher.Close()

	queue := config.RabbitMQ.Worker.Queue
	if queue == "" {
		queue = worker.RequirementsQueue
	}

	if err := worker.DeclareQueue(publisher.Connection(), queue); err != nil {
		logger.Fatal("declaring the queue", zap.Error(err))
	}

	// The default exchange routes by queue name.
	msg := worker.Message{RequirementID: id.String(), PublishedAt: time.Now().UTC()}
	if err := publisher.Publish(ctx, "", queue, msg); err != nil {
		logger.Fatal("publishing the rescoring request", zap.Error(err))
	}

	logger.Info("rescoring requested", zap.String("requirement_id", id.String()), zap.String("queue", queue))
}
