package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/ai/gemini"
	"github.com/spigell/talent-matcher/internal/document"
	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/notify"
	"github.com/spigell/talent-matcher/internal/secrets"
	"github.com/spigell/talent-matcher/internal/store"
	"github.com/spigell/talent-matcher/internal/talent"
)

var errNotConfigured = errors.New("not configured")

func resolveDSN(config *Config) (string, error) {
	dsn, err := secrets.Load(secrets.Source{
		Name:  "database dsn",
		File:  config.Database.DSNFile,
		Env:   "DATABASE_URL",
		Value: config.Database.DSN,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", errNotConfigured, err)
	}
	return dsn, nil
}

func resolveBrokerURL(config *Config) (string, error) {
	url, err := secrets.Load(secrets.Source{
		Name:  "rabbitmq url",
		File:  config.RabbitMQ.URLFile,
		Env:   "RABBITMQ_URL",
		Value: config.RabbitMQ.URL,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", errNotConfigured, err)
	}
	return url, nil
}

func openStore(ctx context.Context, config *Config, log *zap.Logger) (*store.Store, error) {
	dsn, err := resolveDSN(config)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return store.New(db, log), nil
}

func dialBroker(config *Config, log *zap.Logger) (*notify.AMQPPublisher, error) {
	url, err := resolveBrokerURL(config)
	if err != nil {
		return nil, err
	}

	publisher, err := notify.DialAMQP(url, log)
	if err != nil {
		return nil, err
	}
	if err := publisher.DeclareExchanges(); err != nil {
		publisher.Close()
		return nil, err
	}
	return publisher, nil
}

// newDocumentLoader returns a loader for local and S3 resumes. S3 is skipped
// when the AWS configuration cannot be loaded.
func newDocumentLoader(ctx context.Context, config *Config, log *zap.Logger) *document.Loader {
	client, err := document.NewS3Client(ctx, config.Storage.S3Endpoint)
	if err != nil {
		log.Warn("s3 resumes are disabled", zap.Error(err))
		return document.NewLoader(nil, log)
	}
	return document.NewLoader(client, log)
}

// newAssistant builds the configured assistant. Any problem falls back to the
// assistant that explains it is not configured.
func newAssistant(ctx context.Context, config *AIConfig, log *zap.Logger) ai.Assistant {
	if config == nil || !config.Enabled {
		return ai.NotConfigured()
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider != "" && provider != "gemini" {
		log.Warn("unsupported ai provider", zap.String("provider", config.Provider))
		return ai.NotConfigured()
	}

	gc := config.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gc.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: gc.APIKey,
	})
	if err != nil {
		log.Warn("ai assistant is disabled", zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY"),
		)
		return ai.NotConfigured()
	}

	genLogger := log.With(
		zap.String("provider", "gemini"),
		zap.Int("ai_retry_attempts", gc.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, gc.Model, gc.MaxRetries, genLogger)
	if err != nil {
		log.Warn("ai assistant is disabled", zap.Error(err))
		return ai.NotConfigured()
	}

	assistant := gemini.NewAssistant(generator, gc.MaxLogLength, log)
	assistant.SetPromptOverrides(gemini.PromptOverrides{
		Tone:             gc.Tone,
		UserInstructions: gc.Instructions,
	})
	return assistant
}

// loadRequirementPool reads a scored pool either from a file written by the
// score command or from the database by requirement id.
func loadRequirementPool(ctx context.Context, config *Config, poolFile, requirementID string, log *zap.Logger) (*talent.Requirement, *talent.Pool, *store.Store, error) {
	if poolFile != "" {
		pool, err := talent.LoadPool(poolFile)
		if err != nil {
			return nil, nil, nil, err
		}

		var req *talent.Requirement
		if config.Requirement != "" {
			if req, err = talent.LoadRequirement(config.Requirement); err != nil {
				return nil, nil, nil, err
			}
		}
		return req, pool, nil, nil
	}

	if requirementID == "" {
		return nil, nil, nil, errors.New("either --pool or --requirement-id is required")
	}
	id, err := uuid.Parse(requirementID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("requirement id: %w", err)
	}

	s, err := openStore(ctx, config, log)
	if err != nil {
		return nil, nil, nil, err
	}

	req, err := s.GetRequirement(ctx, id)
	if err != nil {
		s.Close()
		return nil, nil, nil, err
	}
	pool, err := s.LoadPool(ctx, id)
	if err != nil {
		s.Close()
		return nil, nil, nil, err
	}
	return req, pool, s, nil
}

func insightsFor(pool *talent.Pool) *fairness.Insights {
	return fairness.BuildInsights(matching.DefaultTaxonomy(), pool)
}
