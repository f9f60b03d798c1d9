package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Run("Defaults Without Config File", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())

		require.NoError(t, Load(""))

		s := Current()
		assert.Equal(t, "dev/bench/data.js", s.DataFile)
		assert.Equal(t, "200%", s.Threshold)
		assert.Equal(t, 30*time.Minute, s.CommandTimeout)
		assert.Equal(t, 2112, s.MetricsPort)
		assert.Equal(t, "#general", s.Slack.Channel)
		assert.NoFileExists(t, "config.yaml")
	})

	t.Run("Load From Env", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())
		t.Setenv("BENCHKEEP_DATA_FILE", "bench/data.js")
		t.Setenv("BENCHKEEP_STORE_TYPE", "sqlite")

		require.NoError(t, Load(""))
		assert.Equal(t, "bench/data.js", Current().DataFile)
		assert.Equal(t, "sqlite", Current().StoreType)
	})

	t.Run("Slack Token Fallback", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())
		t.Setenv("SLACK_BOT_USER_TOKEN", "xoxb-1")

		require.NoError(t, Load(""))
		assert.Equal(t, "xoxb-1", Current().Slack.Token)
	})

	t.Run("Explicit Config File", func(t *testing.T) {
		viper.Reset()
		dir := t.TempDir()
		path := filepath.Join(dir, "bench.yaml")
		require.NoError(t, os.WriteFile(path, []byte("threshold: 150%\nmax_items: 20\ncommand_timeout: 90\n"), 0644))

		require.NoError(t, Load(path))
		s := Current()
		assert.Equal(t, "150%", s.Threshold)
		assert.Equal(t, 20, s.MaxItems)
		assert.Equal(t, 90*time.Second, s.CommandTimeout)
	})

	t.Run("Missing Explicit Config File", func(t *testing.T) {
		viper.Reset()
		err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
