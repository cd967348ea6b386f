package content

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// Default returns the embedded sample table.
func Default() (*Table, error) {
	t, err := ParseYAML(defaultTable)
	if err != nil {
		return nil, fmt.Errorf("parse embedded table: %w", err)
	}
	return t, nil
}

// Load reads a table from disk. YAML files use the native layout; JSON files
// may use either the native layout or the flat layout where each partner
// mixes locations, answer categories and flavor pools under one object.
// An empty path loads the embedded default.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content table: %w", err)
	}

	var t *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		t, err = ParseJSON(data)
	default:
		t, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// ParseYAML decodes a table in the native layout.
func ParseYAML(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseJSON decodes a table in either JSON layout.
func ParseJSON(data []byte) (*Table, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}

	if _, native := top["partners"]; native {
		var t Table
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	}
	return parseFlat(top)
}

// flat partner keys that are not locations or answer categories.
var flatPartnerKeys = map[string]bool{
	"outcome": true, "leadin": true, "neutral": true, "disliked": true,
	"closing": true, "displayName": true, "image": true, "background": true, "colors": true,
}

func parseFlat(top map[string]json.RawMessage) (*Table, error) {
	t := &Table{Partners: make(map[string]Partner)}

	for key, raw := range top {
		switch key {
		case "questions":
			if err := json.Unmarshal(raw, &t.Questions); err != nil {
				return nil, fmt.Errorf("questions: %w", err)
			}
		case "redoLeadin":
			if err := json.Unmarshal(raw, &t.RedoLeadIn); err != nil {
				return nil, fmt.Errorf("redoLeadin: %w", err)
			}
		default:
			p, err := parseFlatPartner(raw)
			if err != nil {
				return nil, fmt.Errorf("partner %q: %w", key, err)
			}
			t.Partners[key] = *p
		}
	}
	return t, nil
}

func parseFlatPartner(raw json.RawMessage) (*Partner, error) {
	// Known fields first; the rest is classified by shape.
	var p Partner
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	p.Locations = make(map[string]Location)
	p.Answers = make(map[string]map[string]AnswerEntry)
	p.Closeness = make(map[string]Closeness)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	for key, value := range fields {
		if flatPartnerKeys[key] {
			continue
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(value, &probe); err != nil {
			return nil, fmt.Errorf("%s: expected an object: %w", key, err)
		}

		_, hasStart := probe["start"]
		_, hasEnd := probe["end"]
		_, hasIdeal := probe["ideal"]
		switch {
		case hasStart || hasEnd:
			var loc Location
			if err := json.Unmarshal(value, &loc); err != nil {
				return nil, fmt.Errorf("location %s: %w", key, err)
			}
			p.Locations[key] = loc
		case hasIdeal:
			var c Closeness
			if err := json.Unmarshal(value, &c); err != nil {
				return nil, fmt.Errorf("closeness %s: %w", key, err)
			}
			p.Closeness[key] = c
		default:
			var entries map[string]AnswerEntry
			if err := json.Unmarshal(value, &entries); err != nil {
				return nil, fmt.Errorf("answers %s: %w", key, err)
			}
			p.Answers[key] = entries
		}
	}
	return &p, nil
}
