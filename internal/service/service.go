// Package service wires the ingest engine to the state store. It owns the
// import pipeline (parse, resolve mapping, sanitize, persist, reconsolidate)
// and the read-side queries the web handlers and CLI expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/dlacroix/wmslite/internal/logging"
	"github.com/dlacroix/wmslite/internal/store"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

const settingThreshold = "threshold"

// Service coordinates imports and queries over one store.
type Service struct {
	store            *store.Store
	parser           *ingest.Parser
	synonyms         ingest.SynonymTable
	defaultThreshold decimal.Decimal
}

// New returns a Service using the given synonym table and default worklist
// threshold. A threshold saved through SetThreshold takes precedence over the
// default.
func New(st *store.Store, synonyms ingest.SynonymTable, defaultThreshold int) *Service {
	return &Service{
		store:            st,
		parser:           ingest.NewParser(),
		synonyms:         synonyms,
		defaultThreshold: decimal.NewFromInt(int64(defaultThreshold)),
	}
}

// ImportRequest carries one uploaded dataset through the pipeline.
type ImportRequest struct {
	Role     ingest.Role
	Filename string
	Payload  []byte

	// Fallback resolves columns that auto-detection and the cached mapping
	// both miss. Nil means no fallback: a required field that stays unmapped
	// aborts the import with MappingIncompleteError.
	Fallback ingest.FallbackFunc
}

// ImportResult summarizes a completed import.
type ImportResult struct {
	Role        ingest.Role         `json:"role"`
	Filename    string              `json:"filename"`
	RowCount    int                 `json:"rowCount"`
	Mapping     ingest.FieldMapping `json:"mapping"`
	Diagnostics []ingest.Diagnostic `json:"diagnostics,omitempty"`
}

// Import runs the full pipeline for one uploaded file: parse the payload,
// resolve the column mapping (cached mapping first, then detection, then the
// request's fallback), sanitize, persist the dataset and mapping, and rebuild
// the consolidated view. Diagnostics are logged and returned; they never fail
// the import.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	log := logging.WithFields(ctx, "role", req.Role, "file", req.Filename)

	kind, err := ingest.KindForFilename(req.Filename)
	if err != nil {
		return nil, err
	}
	table, err := s.parser.Parse(req.Payload, kind)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Filename, err)
	}

	prior, err := s.store.Mapping(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	mapping, err := s.synonyms.Resolve(req.Role, table.Headers, prior, req.Fallback)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Role: req.Role, Filename: req.Filename, Mapping: mapping}

	if req.Role == ingest.RoleLocations {
		rows := ingest.SanitizeLocations(table.Records, mapping)
		if err := s.store.SaveLocations(ctx, rows); err != nil {
			return nil, err
		}
		result.RowCount = len(rows)
	} else {
		rows, diags := ingest.Sanitize(req.Role, table.Records, mapping)
		for _, d := range diags {
			log.Warn("non-numeric quantity coerced to zero", "item", d.Item, "raw", d.Raw)
		}
		if err := s.store.SaveStockRows(ctx, req.Role, rows); err != nil {
			return nil, err
		}
		result.RowCount = len(rows)
		result.Diagnostics = diags
	}

	if err := s.store.SaveMapping(ctx, req.Role, mapping); err != nil {
		return nil, err
	}
	if err := s.reconsolidate(ctx); err != nil {
		return nil, err
	}

	if err := s.store.AppendHistory(ctx, "import", map[string]any{
		"role":        req.Role,
		"filename":    req.Filename,
		"rows":        result.RowCount,
		"diagnostics": len(result.Diagnostics),
	}); err != nil {
		log.Warn("history append failed", "error", err)
	}

	log.Info("import complete", "rows", result.RowCount, "diagnostics", len(result.Diagnostics))
	return result, nil
}

// reconsolidate rebuilds the consolidated view from the stored datasets.
func (s *Service) reconsolidate(ctx context.Context) error {
	inventory, err := s.store.StockRows(ctx, ingest.RoleInventory)
	if err != nil {
		return err
	}
	reception, err := s.store.StockRows(ctx, ingest.RoleReception)
	if err != nil {
		return err
	}
	locations, err := s.store.Locations(ctx)
	if err != nil {
		return err
	}
	return s.store.SaveConsolidated(ctx, ingest.Consolidate(inventory, reception, locations))
}

// Results returns the consolidated view in first-seen order.
func (s *Service) Results(ctx context.Context) ([]ingest.ConsolidatedItem, error) {
	return s.store.Consolidated(ctx)
}

// Worklist returns the consolidated items strictly below the active threshold.
func (s *Service) Worklist(ctx context.Context) ([]ingest.ConsolidatedItem, error) {
	items, err := s.store.Consolidated(ctx)
	if err != nil {
		return nil, err
	}
	threshold, err := s.Threshold(ctx)
	if err != nil {
		return nil, err
	}
	return ingest.SelectBelowThreshold(items, threshold), nil
}

// Threshold returns the active worklist threshold: the saved setting when one
// exists, the configured default otherwise.
func (s *Service) Threshold(ctx context.Context) (decimal.Decimal, error) {
	v, ok, err := s.store.Setting(ctx, settingThreshold)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return s.defaultThreshold, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("stored threshold %q: %w", v, err)
	}
	return d, nil
}

// SetThreshold persists a new worklist threshold. It must be positive.
func (s *Service) SetThreshold(ctx context.Context, threshold decimal.Decimal) error {
	if !threshold.IsPositive() {
		return fmt.Errorf("threshold must be positive, got %s", threshold)
	}
	if err := s.store.SetSetting(ctx, settingThreshold, threshold.String()); err != nil {
		return err
	}
	return s.store.AppendHistory(ctx, "set_threshold", map[string]string{"threshold": threshold.String()})
}

// Summary is the dashboard view of the current state.
type Summary struct {
	InventoryItems    int             `json:"inventoryItems"`
	ReceptionItems    int             `json:"receptionItems"`
	ConsolidatedItems int             `json:"consolidatedItems"`
	WorklistItems     int             `json:"worklistItems"`
	ExcludedItems     int             `json:"excludedItems"`
	Threshold         decimal.Decimal `json:"threshold"`
}

// Summarize computes dataset counts and the worklist size. ExcludedItems
// counts distinct item keys present in the datasets but filtered out of the
// consolidated view by the zero-quantity rules.
func (s *Service) Summarize(ctx context.Context) (*Summary, error) {
	inventory, err := s.store.StockRows(ctx, ingest.RoleInventory)
	if err != nil {
		return nil, err
	}
	reception, err := s.store.StockRows(ctx, ingest.RoleReception)
	if err != nil {
		return nil, err
	}
	consolidated, err := s.store.Consolidated(ctx)
	if err != nil {
		return nil, err
	}
	threshold, err := s.Threshold(ctx)
	if err != nil {
		return nil, err
	}

	invKeys := make(map[string]bool)
	for _, r := range inventory {
		invKeys[r.Item] = true
	}
	recKeys := make(map[string]bool)
	allKeys := make(map[string]bool, len(invKeys))
	for k := range invKeys {
		allKeys[k] = true
	}
	for _, r := range reception {
		recKeys[r.Item] = true
		allKeys[r.Item] = true
	}

	return &Summary{
		InventoryItems:    len(invKeys),
		ReceptionItems:    len(recKeys),
		ConsolidatedItems: len(consolidated),
		WorklistItems:     len(ingest.SelectBelowThreshold(consolidated, threshold)),
		ExcludedItems:     len(allKeys) - len(consolidated),
		Threshold:         threshold,
	}, nil
}

// LookupItem returns the consolidated entry for one item key. The key is
// matched after the same trim and upper-case treatment sanitization applies.
func (s *Service) LookupItem(ctx context.Context, key string) (*ingest.ConsolidatedItem, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	items, err := s.store.Consolidated(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Item == key {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("item %s: %w", key, ErrNotFound)
}

// LookupBin returns every consolidated item holding stock in the given bin,
// matched on normalized bin names.
func (s *Service) LookupBin(ctx context.Context, bin string) ([]ingest.ConsolidatedItem, error) {
	want := ingest.Normalize(bin)
	items, err := s.store.Consolidated(ctx)
	if err != nil {
		return nil, err
	}

	inBin := func(entries []ingest.BinQty) bool {
		for _, e := range entries {
			if ingest.Normalize(e.Bin) == want {
				return true
			}
		}
		return false
	}

	var out []ingest.ConsolidatedItem
	for _, it := range items {
		if inBin(it.InventoryBins) || inBin(it.ReceptionBins) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Mappings returns the cached column mapping per role.
func (s *Service) Mappings(ctx context.Context) (map[ingest.Role]ingest.FieldMapping, error) {
	return s.store.Mappings(ctx)
}

// History returns recent actions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]store.HistoryEntry, error) {
	return s.store.History(ctx, limit)
}

// ImportedAt returns the last import time per dataset role.
func (s *Service) ImportedAt(ctx context.Context) (map[ingest.Role]string, error) {
	times, err := s.store.ImportedAt(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[ingest.Role]string, len(times))
	for role, t := range times {
		out[role] = t.Format("2006-01-02 15:04:05")
	}
	return out, nil
}

// ParseThreshold parses a user-supplied threshold string.
func ParseThreshold(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid threshold %q", v)
	}
	return d, nil
}
