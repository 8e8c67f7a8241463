package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-portal/internal/scheduler"
	"github.com/spigell/job-portal/internal/server"
)

const (
	app = "job-portal"
)

type Config struct {
	AI          *AIConfig         `mapstructure:"ai"`
	Email       *EmailConfig      `mapstructure:"email"`
	Database    *DatabaseConfig   `mapstructure:"database"`
	Server      *server.Config    `mapstructure:"server"`
	Sweep       *scheduler.Config `mapstructure:"sweep"`
	FrontendURL string            `mapstructure:"frontend-url"`
}

type AIConfig struct {
	Provider           string        `mapstructure:"provider"`
	RequireKey         bool          `mapstructure:"require-key"`
	MaxTokens          int           `mapstructure:"max-tokens"`
	Temperature        *float64      `mapstructure:"temperature"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InlineSystemPrompt *bool         `mapstructure:"inline-system-prompt"`
	RequestsPerMinute  int           `mapstructure:"requests-per-minute"`
	RequestsPerDay     int           `mapstructure:"requests-per-day"`
	Claude             *VendorConfig `mapstructure:"claude"`
	OpenAI             *VendorConfig `mapstructure:"openai"`
	OpenRouter         *VendorConfig `mapstructure:"openrouter"`
	Gemini             *VendorConfig `mapstructure:"gemini"`
}

type VendorConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	// SiteURL and SiteName are sent as OpenRouter attribution headers.
	SiteURL  string `mapstructure:"site-url"`
	SiteName string `mapstructure:"site-name"`
}

type EmailConfig struct {
	APIKey        string        `mapstructure:"api-key"`
	APIKeyFile    string        `mapstructure:"api-key-file"`
	BaseURL       string        `mapstructure:"base-url"`
	FromEmail     string        `mapstructure:"from-email"`
	FromName      string        `mapstructure:"from-name"`
	TestRecipient string        `mapstructure:"test-recipient"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// SweepPause spaces out emails sent by one sweep.
	SweepPause time.Duration `mapstructure:"sweep-pause"`
}

type DatabaseConfig struct {
	DSN           string        `mapstructure:"dsn"`
	Debug         bool          `mapstructure:"debug"`
	SlowThreshold time.Duration `mapstructure:"slow-threshold"`
}

var envBindings = map[string]string{
	"ai.provider":           "AI_PROVIDER",
	"ai.claude.api-key":     "ANTHROPIC_API_KEY",
	"ai.openai.api-key":     "OPENAI_API_KEY",
	"ai.openrouter.api-key": "OPENROUTER_API_KEY",
	"ai.gemini.api-key":     "GEMINI_API_KEY",
	"email.api-key":         "RESEND_API_KEY",
	"email.test-recipient":  "TEST_EMAIL_RECIPIENT",
	"database.dsn":          "DATABASE_DSN",
	"frontend-url":          "FRONTEND_URL",
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-portal serves the AI assistant and notification pipeline of the job portal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("frontend-url", "http://localhost:3000")
	viper.SetDefault("database.dsn", "job-portal.db")
	viper.SetDefault("server.addr", server.DefaultAddr)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-portal.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
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

	// Without an explicit --config a missing file is fine: env and defaults
	// are enough to run against the mock provider.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Email == nil {
		config.Email = &EmailConfig{}
	}
	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Server == nil {
		config.Server = &server.Config{}
	}
	if config.Sweep == nil {
		config.Sweep = &scheduler.Config{}
	}

	return config, nil
}
