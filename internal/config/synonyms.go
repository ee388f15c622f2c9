package config

import (
	"fmt"
	"os"

	"github.com/dlacroix/wmslite/internal/ingest"
	"gopkg.in/yaml.v3"
)

// LoadSynonyms reads a YAML file extending the built-in header-synonym
// table and returns the merged table. The file maps canonical field names to
// extra header synonyms, already in normalized form:
//
//	item:
//	  - articleno
//	qty:
//	  - stockcount
//
// Built-in synonyms keep their priority; file entries are appended after
// them. Unknown field names are rejected so typos fail fast.
func LoadSynonyms(path string) (ingest.SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse synonyms file %s: %w", path, err)
	}

	known := make(map[ingest.Field]bool)
	for _, f := range ingest.Fields() {
		known[f] = true
	}

	extra := make(map[ingest.Field][]string, len(raw))
	for name, syns := range raw {
		field := ingest.Field(name)
		if !known[field] {
			return nil, fmt.Errorf("synonyms file %s: unknown field %q", path, name)
		}
		for _, syn := range syns {
			if n := ingest.Normalize(syn); n != syn {
				return nil, fmt.Errorf("synonyms file %s: %q is not normalized (want %q)", path, syn, n)
			}
		}
		extra[field] = syns
	}

	return ingest.DefaultSynonyms().Extend(extra), nil
}
