// Package ingest turns user-authored inventory spreadsheets into a
// consolidated per-item view and a below-threshold relocation worklist.
// This package has no storage or UI dependencies and can be used by any host.
//
// Data flows strictly one way: raw bytes -> records -> resolved mapping ->
// sanitized rows -> consolidation -> threshold selection. Each step is a pure
// function of its inputs; callers own persistence and presentation.
package ingest

import (
	"errors"
	"fmt"
)

// Role designates which canonical schema a dataset sanitizes against.
type Role string

const (
	RoleInventory Role = "inventory"
	RoleReception Role = "reception"
	RoleLocations Role = "locations"
)

// ParseRole validates a role string from an external source (URL, flag).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInventory, RoleReception, RoleLocations:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown dataset role %q", s)
}

// ErrUnsupportedFormat is returned when a payload's declared kind or file
// extension matches neither the CSV nor the spreadsheet dialect.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrSpreadsheetCodec is returned when spreadsheet parsing is requested but
// no spreadsheet decoder is configured. The import fails; the rest of the
// application is unaffected.
var ErrSpreadsheetCodec = errors.New("spreadsheet codec unavailable")
