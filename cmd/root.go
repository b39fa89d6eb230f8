package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/worker"
)

const (
	app       = "talent-matcher"
	envPrefix = "TALENT_MATCHER"

	componentCLI    = "cli"
	componentWorker = "worker"
)

// envKeys can be set as TALENT_MATCHER_<KEY> with dashes and dots as underscores.
var envKeys = []string{
	"requirement",
	"candidates",
	"exclude-file",
	"scoring.workers",
	"database.dsn",
	"database.dsn-file",
	"rabbitmq.url",
	"rabbitmq.url-file",
	"rabbitmq.worker.consumers",
	"storage.s3-endpoint",
	"ai.enabled",
	"ai.gemini.api-key-file",
	"ai.gemini.model",
}

type Config struct {
	Requirement string           `mapstructure:"requirement"`
	Candidates  string           `mapstructure:"candidates"`
	ExcludeFile string           `mapstructure:"exclude-file"`
	Scoring     *ScoringConfig   `mapstructure:"scoring"`
	Shortlist   *ShortlistConfig `mapstructure:"shortlist"`
	Database    *DatabaseConfig  `mapstructure:"database"`
	RabbitMQ    *RabbitMQConfig  `mapstructure:"rabbitmq"`
	Storage     *StorageConfig   `mapstructure:"storage"`
	AI          *AIConfig        `mapstructure:"ai"`
}

type ScoringConfig struct {
	Workers int `mapstructure:"workers"`
}

type ShortlistConfig struct {
	MinimumScore    float64  `mapstructure:"minimum-score"`
	Top             int      `mapstructure:"top"`
	ExcludeStatuses []string `mapstructure:"exclude-statuses"`
	Disable         []string `mapstructure:"disable"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

type RabbitMQConfig struct {
	URL     string        `mapstructure:"url"`
	URLFile string        `mapstructure:"url-file"`
	Worker  worker.Config `mapstructure:"worker"`
}

type StorageConfig struct {
	S3Endpoint string `mapstructure:"s3-endpoint"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
	Tone         string `mapstructure:"tone"`
	Instructions string `mapstructure:"instructions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-matcher scores candidates against job requirements and audits the pools for bias",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env file is fine, the environment may be set by other means.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			log.Fatalf("binding %s environment variable: %v", key, err)
		}
	}

	viper.SetDefault("shortlist.minimum-score", 0.5)
	viper.SetDefault("shortlist.top", 10)
	viper.SetDefault("shortlist.exclude-statuses", []string{"rejected"})

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without a config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting can come from flags or the environment, so only an
	// explicitly requested config file is mandatory.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}
	if config.Shortlist == nil {
		config.Shortlist = &ShortlistConfig{}
	}
	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.RabbitMQ == nil {
		config.RabbitMQ = &RabbitMQConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}

	return config, nil
}

// newLogger builds the process logger from the persistent flags.
func newLogger(component string) *zap.Logger {
	l, err := logger.New(logger.Options{
		JSON:      viper.GetBool("json"),
		Debug:     viper.GetBool("debug"),
		Component: component,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// setup returns the logger tagged with the component and the parsed config.
// A broken config is fatal.
func setup(component string) (*zap.Logger, *Config) {
	l := newLogger(component)

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	return l, config
}
