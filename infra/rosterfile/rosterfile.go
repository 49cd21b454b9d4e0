// Package rosterfile reads participant lists from YAML or JSON files.
package rosterfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rota/core/model"
)

// Format identifies the encoding of a roster document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

type document struct {
	Participants []model.Participant `json:"participants" yaml:"participants"`
}

// Load reads the roster at path. The format follows the file extension.
func Load(path string) ([]model.Participant, error) {
	var f Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f = FormatYAML
	case ".json":
		f = FormatJSON
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ps, err := Decode(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// Decode parses a roster. Both a bare list and a document with a
// "participants" key are accepted. Every participant must have a roll number
// and roll numbers must be unique.
func Decode(data []byte, f Format) ([]model.Participant, error) {
	var ps []model.Participant
	trimmed := bytes.TrimSpace(data)
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &ps); err != nil {
			var doc document
			if derr := yaml.Unmarshal(data, &doc); derr != nil {
				return nil, fmt.Errorf("decode yaml roster: %w", err)
			}
			ps = doc.Participants
		}
	case FormatJSON:
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var doc document
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, fmt.Errorf("decode json roster: %w", err)
			}
			ps = doc.Participants
		} else if err := json.Unmarshal(trimmed, &ps); err != nil {
			return nil, fmt.Errorf("decode json roster: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", f)
	}

	seen := make(map[string]struct{}, len(ps))
	for i, p := range ps {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("participant %d: %w", i+1, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate roll number %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return ps, nil
}
