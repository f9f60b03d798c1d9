package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Config selects the alert destinations. Empty values disable a destination.
type Config struct {
	SlackToken   string
	SlackChannel string
	WebhookURL   string
}

// Manager fans an alert out to every configured notifier.
type Manager struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewManager builds a manager from config. A manager with no notifiers is valid
// and drops every message.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger}
	if cfg.SlackToken != "" {
		m.notifiers = append(m.notifiers, NewSlackBotNotifier(cfg.SlackToken, cfg.SlackChannel))
	}
	if cfg.WebhookURL != "" {
		m.notifiers = append(m.notifiers, NewSlackNotifier(cfg.WebhookURL))
	}
	return m
}

// Add registers an additional notifier.
func (m *Manager) Add(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Enabled reports whether any notifier is configured.
func (m *Manager) Enabled() bool {
	return len(m.notifiers) > 0
}

// Notify sends message to every notifier and joins their errors.
func (m *Manager) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, message); err != nil {
			m.logger.Warn("Failed to send notification", "notifier", fmt.Sprintf("%T", n), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyAlert sends a regression report for a suite.
func (m *Manager) NotifyAlert(ctx context.Context, suite, report string) error {
	if !m.Enabled() {
		m.logger.Debug("No notifiers configured, skipping alert", "suite", suite)
		return nil
	}
	m.logger.Info("Sending performance alert", "suite", suite, "notifiers", len(m.notifiers))
	return m.Notify(ctx, report)
}
