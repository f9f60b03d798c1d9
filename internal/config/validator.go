package config

import (
	"fmt"
	"net/url"

	"benchkeep/internal/benchmark"

	"github.com/spf13/viper"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errors []string

	if viper.IsSet("command_timeout") {
		if timeout := durationOrSeconds("command_timeout"); timeout <= 0 {
			errors = append(errors, fmt.Sprintf("command_timeout must be positive, got: %v", timeout))
		}
	}

	if viper.IsSet("max_items") {
		if n := viper.GetInt("max_items"); n < 0 {
			errors = append(errors, fmt.Sprintf("max_items must not be negative, got: %d", n))
		}
	}

	if viper.IsSet("threshold") {
		if _, err := benchmark.ParseThreshold(viper.GetString("threshold")); err != nil {
			errors = append(errors, fmt.Sprintf("threshold is invalid: %v", err))
		}
	}

	for _, key := range []string{"port", "metrics_port"} {
		if viper.IsSet(key) {
			port := viper.GetInt(key)
			if port < 1 || port > 65535 {
				errors = append(errors, fmt.Sprintf("%s must be between 1 and 65535, got: %d", key, port))
			}
		}
	}

	if raw := viper.GetString("pushgateway_url"); raw != "" {
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("pushgateway_url must be an http(s) URL, got: %q", raw))
		}
	}

	switch t := viper.GetString("store.type"); t {
	case "", "sqlite":
	case "postgres":
		if viper.GetString("store.dsn") == "" {
			errors = append(errors, "store.dsn is required when store.type is postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("store.type must be sqlite or postgres, got: %q", t))
	}

	if viper.GetBool("notifications.slack.enabled") &&
		viper.GetString("notifications.slack.token") == "" &&
		viper.GetString("notifications.slack.webhook_url") == "" {
		errors = append(errors, "notifications.slack requires a token or webhook_url when enabled")
	}

	if len(errors) > 0 {
		errorMsg := errors[0]
		for i := 1; i < len(errors); i++ {
			errorMsg += "\n  " + errors[i]
		}
		return fmt.Errorf("configuration validation failed:\n  %s", errorMsg)
	}

	return nil
}
