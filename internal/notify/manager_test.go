package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, message string) error {
	r.messages = append(r.messages, message)
	return r.err
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(Config{}, nil)
	assert.False(t, m.Enabled())
	assert.NoError(t, m.NotifyAlert(context.Background(), "Go Benchmark", "report"))
}

func TestManager_FromConfig(t *testing.T) {
	m := NewManager(Config{SlackToken: "xoxb", WebhookURL: "http://example.invalid"}, nil)
	assert.True(t, m.Enabled())
	assert.Len(t, m.notifiers, 2)
}

func TestManager_NotifyAlert(t *testing.T) {
	ok := &recordingNotifier{}
	bad := &recordingNotifier{err: errors.New("boom")}

	m := NewManager(Config{}, nil)
	m.Add(ok)
	m.Add(bad)

	err := m.NotifyAlert(context.Background(), "Go Benchmark", "regression report")
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"regression report"}, ok.messages)
	assert.Equal(t, []string{"regression report"}, bad.messages)
}
