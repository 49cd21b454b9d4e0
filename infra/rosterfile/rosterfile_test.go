package rosterfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/model"
)

func TestDecodeYAMLList(t *testing.T) {
	data := `- roll_no: "23CS001"
  name: Ada
- roll_no: "23CS002"
  name: Linus
`
	ps, err := Decode([]byte(data), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []model.Participant{{ID: "23CS001", Name: "Ada"}, {ID: "23CS002", Name: "Linus"}}, ps)
}

func TestDecodeYAMLDocument(t *testing.T) {
	data := `participants:
  - roll_no: A1
    name: Grace
`
	ps, err := Decode([]byte(data), FormatYAML)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "A1", ps[0].ID)
}

func TestDecodeJSON(t *testing.T) {
	ps, err := Decode([]byte(`[{"rollNo":"1","name":"a"},{"rollNo":"2","name":"b"}]`), FormatJSON)
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	ps, err = Decode([]byte(`{"participants":[{"rollNo":"9","name":"z"}]}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "9", ps[0].ID)
}

func TestDecodeIndentedYAMLList(t *testing.T) {
	data := []byte("  - roll_no: \"R01\"\n    name: \"Ada\"\n  - roll_no: \"R02\"\n    name: \"Bo\"\n")
	ps, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []model.Participant{{ID: "R01", Name: "Ada"}, {ID: "R02", Name: "Bo"}}, ps)
}

func TestDecodeRejectsInvalidRosters(t *testing.T) {
	_, err := Decode([]byte(`[{"rollNo":"1"},{"rollNo":"1"}]`), FormatJSON)
	assert.ErrorContains(t, err, "duplicate")
	_, err = Decode([]byte(`[{"name":"nobody"}]`), FormatJSON)
	assert.Error(t, err)
	_, err = Decode([]byte(`[unclosed`), FormatYAML)
	assert.Error(t, err)
	_, err = Decode(nil, Format("csv"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yml")
	require.NoError(t, os.WriteFile(path, []byte("- roll_no: X\n  name: Y\n"), 0o644))
	ps, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Participant{{ID: "X", Name: "Y"}}, ps)

	_, err = Load(filepath.Join(dir, "roster.txt"))
	assert.Error(t, err)
	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
