package ingest

import (
	"fmt"
	"strings"
)

// Field is a canonical column in the item/location schema.
type Field string

const (
	FieldItem        Field = "item"
	FieldQty         Field = "qty"
	FieldBin         Field = "bin"
	FieldDescription Field = "description"
	FieldType        Field = "type"
)

// fieldOrder fixes the iteration order for detection and fallback prompts.
// A header can satisfy at most one field: the first one that claims it.
var fieldOrder = []Field{FieldItem, FieldQty, FieldBin, FieldDescription, FieldType}

// Fields returns the canonical fields in their fixed iteration order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

// FieldMapping maps canonical fields to source header names for one role.
// It is partial: not every field is required for every role. Callers cache
// mappings per role so repeat imports with the same layout skip resolution;
// the engine treats a caller-supplied mapping as immutable input and returns
// an updated copy.
type FieldMapping map[Field]string

// Clone returns an independent copy of the mapping.
func (m FieldMapping) Clone() FieldMapping {
	out := make(FieldMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SynonymTable lists, per canonical field, the normalized header names that
// auto-detect to that field. Matching is first-match-wins in list order.
type SynonymTable map[Field][]string

// DefaultSynonyms returns the built-in synonym table. The table is an
// explicit ordered list rather than anything smarter: header-name matching
// only, no content sniffing.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		FieldItem:        {"sku", "item", "itemid", "part", "code"},
		FieldQty:         {"qty", "quantity", "qtyoh", "onhand", "qte"},
		FieldBin:         {"bin", "location", "userbinid", "locationname"},
		FieldDescription: {"desc", "shortdesc", "displayline", "description"},
		FieldType:        {"type", "locationtype", "bintype"},
	}
}

// Extend returns a table with extra synonyms appended after the built-in
// ones, keeping the built-ins' priority.
func (t SynonymTable) Extend(extra map[Field][]string) SynonymTable {
	out := make(SynonymTable, len(t))
	for f, syns := range t {
		out[f] = append(append([]string(nil), syns...), extra[f]...)
	}
	return out
}

// RequiredFields returns the fields a role cannot sanitize without.
func RequiredFields(role Role) []Field {
	if role == RoleLocations {
		return []Field{FieldBin}
	}
	return []Field{FieldItem, FieldQty}
}

// FallbackFunc resolves a field that auto-detection missed. It receives the
// available headers and returns the chosen header, or ok=false to leave the
// field unmapped. Hosts plug in an interactive prompt; tests and headless
// callers use NoFallback or MapFallback.
type FallbackFunc func(field Field, headers []string) (string, bool)

// NoFallback never answers. Resolution fails when a required field is
// missing and no prior mapping covers it.
func NoFallback(Field, []string) (string, bool) { return "", false }

// MapFallback answers from a fixed set of field->header choices.
func MapFallback(answers map[Field]string) FallbackFunc {
	return func(field Field, _ []string) (string, bool) {
		h, ok := answers[field]
		return h, ok
	}
}

// MappingIncompleteError reports required fields that stayed unmapped after
// detection, the prior mapping, and the fallback all had their chance.
// Sanitizing with an all-empty required field would silently corrupt the
// consolidation, so the import for that role is aborted instead.
type MappingIncompleteError struct {
	Role    Role
	Missing []Field
}

func (e *MappingIncompleteError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("mapping for %s is missing required fields: %s", e.Role, strings.Join(names, ", "))
}

// Detect auto-detects a mapping from headers alone. For each field, in field
// order, the first header whose normalized form appears in the field's
// synonym list wins; a header already claimed by an earlier field is skipped.
func (t SynonymTable) Detect(headers []string) FieldMapping {
	mapping := make(FieldMapping)
	used := make(map[string]bool, len(headers))

	for _, field := range fieldOrder {
		synonyms := t[field]
		for _, h := range headers {
			if used[h] {
				continue
			}
			n := Normalize(h)
			for _, syn := range synonyms {
				if n == syn {
					mapping[field] = h
					used[h] = true
					break
				}
			}
			if _, ok := mapping[field]; ok {
				break
			}
		}
	}

	return mapping
}

// Resolve produces the field mapping to sanitize a dataset with. A non-empty
// prior mapping is reused as-is; otherwise the mapping is auto-detected from
// the headers. If any required field for the role is then still unmapped,
// the fallback is consulted for every unmapped field (required or not), and
// answers are accepted only when they name an available header. The merged
// mapping is returned for the caller to persist; MappingIncompleteError is
// returned when a required field could not be resolved.
func (t SynonymTable) Resolve(role Role, headers []string, prior FieldMapping, fallback FallbackFunc) (FieldMapping, error) {
	var mapping FieldMapping
	if len(prior) > 0 {
		mapping = prior.Clone()
	} else {
		mapping = t.Detect(headers)
	}

	if missing := missingRequired(role, mapping); len(missing) > 0 && fallback != nil {
		available := make(map[string]bool, len(headers))
		for _, h := range headers {
			available[h] = true
		}
		for _, field := range fieldOrder {
			if mapping[field] != "" {
				continue
			}
			if choice, ok := fallback(field, headers); ok && available[choice] {
				mapping[field] = choice
			}
		}
	}

	if missing := missingRequired(role, mapping); len(missing) > 0 {
		return mapping, &MappingIncompleteError{Role: role, Missing: missing}
	}
	return mapping, nil
}

func missingRequired(role Role, mapping FieldMapping) []Field {
	var missing []Field
	for _, f := range RequiredFields(role) {
		if mapping[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
