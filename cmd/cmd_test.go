package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/model"
)

// writeConfig returns the roster file and the configuration file paths.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	var roster strings.Builder
	for i := 1; i <= 16; i++ {
		fmt.Fprintf(&roster, "  - roll_no: \"R%02d\"\n    name: \"Student %d\"\n", i, i)
	}
	rosterPath := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(rosterPath, []byte(roster.String()), 0o644))

	cfg := fmt.Sprintf(`store:
  driver: sqlite
  path: %q
rotation:
  seed: 3
calendar:
  start: "02.03.2026"
  end: "04.03.2026"
`, filepath.Join(dir, "rota.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return rosterPath, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	exportFormat = "table"
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLIWorkflow(t *testing.T) {
	rosterPath, cfg := writeConfig(t)

	out, err := execute(t, "-c", cfg, "roster", "import", rosterPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 16 participants")

	out, err = execute(t, "-c", cfg, "generate", "02.03.2026")
	require.NoError(t, err)
	assert.Contains(t, out, "1 sessions")
	assert.Contains(t, out, "TMOD")

	out, err = execute(t, "-c", cfg, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "2 sessions, 1 skipped")

	out, err = execute(t, "-c", cfg, "generate", "03.03.2026")
	require.NoError(t, err)
	assert.Contains(t, out, "No new days to generate.")

	out, err = execute(t, "-c", cfg, "schedule", "ls", "--format", "json")
	require.NoError(t, err)
	var entries []model.AssignmentEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "02.03.2026", entries[0].Date)

	out, err = execute(t, "-c", cfg, "schedule", "ls", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, 1+3*model.DefaultCatalog.Size(), strings.Count(out, "\n"))

	out, err = execute(t, "-c", cfg, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "sessions 3")

	out, err = execute(t, "-c", cfg, "roster", "ls")
	require.NoError(t, err)
	assert.Equal(t, 16, strings.Count(out, "\n"))
}

func TestGenerateRejectsBadDate(t *testing.T) {
	rosterPath, cfg := writeConfig(t)
	_, err := execute(t, "-c", cfg, "roster", "import", rosterPath)
	require.NoError(t, err)
	_, err = execute(t, "-c", cfg, "generate", "2026-03-02")
	assert.Error(t, err)
}
