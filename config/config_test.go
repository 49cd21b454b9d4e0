package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/calendar"
	"github.com/kilianp07/rota/core/rotation"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `store:
  driver: memory
rotation:
  seed: 42
  short_roster: wrap
  cursor_policy: random
calendar:
  start: "02.03.2026"
  end: "06.03.2026"
roster:
  participants:
    - rollNo: "A1"
      name: "Ada"
auth:
  password: "secret"
  token_ttl: 30m
metrics:
  sinks:
    - type: "nop"
mqtt:
  broker: "tcp://localhost:1883"
  qos: 1
audit:
  enabled: true
  backend: sqlite
  path: audit.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"store.driver", cfg.Store.Driver, "memory"},
		{"rotation.seed", cfg.Rotation.Seed, int64(42)},
		{"rotation.short_roster", cfg.Rotation.ShortRoster, rotation.ShortRosterWrap},
		{"rotation.cursor_policy", cfg.Rotation.CursorPolicy, rotation.CursorRandom},
		{"rotation.catalog", cfg.Rotation.Catalog.Size(), 15},
		{"calendar.weekdays", len(cfg.Calendar.Weekdays), 5},
		{"roster", cfg.Roster.Participants[0].ID, "A1"},
		{"auth.password", cfg.Auth.Password, "secret"},
		{"auth.token_ttl", cfg.Auth.TokenTTL, 30 * time.Minute},
		{"http.addr", cfg.HTTP.Addr, ":3000"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "rota/schedule"},
		{"audit.backend", cfg.Audit.Backend, "sqlite"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"store":{"driver":"memory"},"http":{"addr":":3000"}}`)
	t.Setenv("K_HTTP__ADDR", ":8088")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.HTTP.Addr)
}

func TestLoadExample(t *testing.T) {
	cfg, err := Load("example.yaml")
	require.NoError(t, err)
	dates, err := calendar.Expand(cfg.Calendar)
	require.NoError(t, err)
	assert.Len(t, dates, 14)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "prometheus", cfg.Metrics.Sinks[0].Type)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"driver":   "store:\n  driver: postgres\n",
		"policy":   "rotation:\n  short_roster: stretch\n",
		"calendar": "calendar:\n  start: \"2026-03-02\"\n  end: \"06.03.2026\"\n",
		"audit":    "audit:\n  enabled: true\n  backend: kafka\n",
		"roster":   "roster:\n  participants:\n    - name: nobody\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)
}
