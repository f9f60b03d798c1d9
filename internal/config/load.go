package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (BENCHKEEP_DATA_FILE, ...).
const EnvPrefix = "BENCHKEEP"

// Load initializes the configuration from file and environment variables.
// A missing config file is not an error; defaults and environment apply.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	// Slack tokens are commonly exported without the prefix.
	if os.Getenv("SLACK_BOT_USER_TOKEN") != "" {
		viper.SetDefault("notifications.slack.token", os.Getenv("SLACK_BOT_USER_TOKEN"))
	}
	if os.Getenv("SLACK_WEBHOOK_URL") != "" {
		viper.SetDefault("notifications.slack.webhook_url", os.Getenv("SLACK_WEBHOOK_URL"))
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// SetDefaults registers the default value of every known key.
func SetDefaults() {
	viper.SetDefault("data_file", "dev/bench/data.js")
	viper.SetDefault("repo_url", "")
	viper.SetDefault("manifest", "benchkeep.yaml")
	viper.SetDefault("threshold", "200%")
	viper.SetDefault("max_items", 0)
	viper.SetDefault("command_timeout", 30*time.Minute)
	viper.SetDefault("store.type", "")
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("port", 8080)
	viper.SetDefault("metrics_port", 2112)
	viper.SetDefault("pushgateway_url", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")
	viper.SetDefault("notifications.slack.enabled", false)
	viper.SetDefault("notifications.slack.channel", "#general")
	viper.SetDefault("notifications.slack.token", "")
	viper.SetDefault("notifications.slack.webhook_url", "")
}

// Settings is a typed snapshot of the loaded configuration.
type Settings struct {
	DataFile       string
	RepoURL        string
	Manifest       string
	Threshold      string
	MaxItems       int
	CommandTimeout time.Duration
	StoreType      string
	StoreDSN       string
	Port           int
	MetricsPort    int
	PushgatewayURL string
	Verbose        bool
	LogFile        string
	Slack          SlackSettings
}

// SlackSettings holds alert destinations.
type SlackSettings struct {
	Enabled    bool
	Channel    string
	Token      string
	WebhookURL string
}

// Current reads the active viper state into Settings.
func Current() Settings {
	return Settings{
		DataFile:       viper.GetString("data_file"),
		RepoURL:        viper.GetString("repo_url"),
		Manifest:       viper.GetString("manifest"),
		Threshold:      viper.GetString("threshold"),
		MaxItems:       viper.GetInt("max_items"),
		CommandTimeout: durationOrSeconds("command_timeout"),
		StoreType:      viper.GetString("store.type"),
		StoreDSN:       viper.GetString("store.dsn"),
		Port:           viper.GetInt("port"),
		MetricsPort:    viper.GetInt("metrics_port"),
		PushgatewayURL: viper.GetString("pushgateway_url"),
		Verbose:        viper.GetBool("verbose"),
		LogFile:        viper.GetString("log_file"),
		Slack: SlackSettings{
			Enabled:    viper.GetBool("notifications.slack.enabled"),
			Channel:    viper.GetString("notifications.slack.channel"),
			Token:      viper.GetString("notifications.slack.token"),
			WebhookURL: viper.GetString("notifications.slack.webhook_url"),
		},
	}
}

// durationOrSeconds accepts either a duration or a bare number of seconds.
func durationOrSeconds(key string) time.Duration {
	switch v := viper.Get(key).(type) {
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	default:
		return viper.GetDuration(key)
	}
}
