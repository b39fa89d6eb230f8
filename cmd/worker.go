package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/notify"
	"github.com/spigell/talent-matcher/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume rescoring requests from RabbitMQ",
	Run: func(_ *cobra.Command, _ []string) {
		runWorker()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup(componentWorker)

	logger.Info("starting the worker", zap.String("version", version))

	s, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err),
			zap.String("hint", "set database.dsn, database.dsn-file or DATABASE_URL"),
		)
	}
	defer s.Close()

	publisher, err := dialBroker(config, logger)
	if err != nil {
		logger.Fatal("connecting to rabbitmq", zap.Error(err),
			zap.String("hint", "set rabbitmq.url, rabbitmq.url-file or RABBITMQ_URL"),
		)
	}
	defer publisher.Close()

	handler := worker.NewHandler(worker.Deps{
		Repository: s,
		Events:     notify.NewNotifier(publisher, logger),
		Matcher:    matching.NewMatcher(logger),
		Analyzer:   fairness.NewAnalyzer(logger),
		Documents:  newDocumentLoader(ctx, config, logger),
		Logger:     logger,
	}, config.RabbitMQ.Worker.ScoringWorkers)

	consumer := worker.NewConsumer(publisher.Connection(), handler, config.RabbitMQ.Worker, logger)
	if err := consumer.Run(ctx); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}

	logger.Info("worker stopped")
}
