package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Store.Path != "wmslite.db" {
		t.Errorf("Store.Path = %q, want wmslite.db", cfg.Store.Path)
	}
	if cfg.Import.Threshold != 20 {
		t.Errorf("Threshold = %d, want 20", cfg.Import.Threshold)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("IMPORT_THRESHOLD", "35")
	t.Setenv("STORE_PATH", "/tmp/test.db")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Import.Threshold != 35 {
		t.Errorf("Threshold = %d, want 35", cfg.Import.Threshold)
	}
	if cfg.Store.Path != "/tmp/test.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "bad port", key: "SERVER_PORT", value: "70000", want: "SERVER_PORT"},
		{name: "non numeric port", key: "SERVER_PORT", value: "web", want: "invalid integer"},
		{name: "zero threshold", key: "IMPORT_THRESHOLD", value: "0", want: "IMPORT_THRESHOLD"},
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose", want: "LOG_LEVEL"},
		{name: "bad duration", key: "SERVER_READ_TIMEOUT", value: "soon", want: "invalid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigStringMasksNothingSensitive(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cfg.String()
	if !strings.Contains(s, "Threshold: 20") {
		t.Errorf("String() = %q", s)
	}
}

func TestLoadSynonyms(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("extends builtin table", func(t *testing.T) {
		path := write("ok.yaml", "item:\n  - articleno\nqty:\n  - stockcount\n")
		table, err := LoadSynonyms(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := table.Detect([]string{"Article No", "Stock Count"})
		if m["item"] != "Article No" || m["qty"] != "Stock Count" {
			t.Errorf("extended synonyms not applied: %v", m)
		}
		// Built-ins still work.
		m = table.Detect([]string{"SKU", "Qty"})
		if m["item"] != "SKU" {
			t.Errorf("builtin synonyms lost: %v", m)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		path := write("bad_field.yaml", "warehouse:\n  - wh\n")
		if _, err := LoadSynonyms(path); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("unnormalized synonym rejected", func(t *testing.T) {
		path := write("bad_syn.yaml", "item:\n  - Article No\n")
		if _, err := LoadSynonyms(path); err == nil {
			t.Fatal("expected error for unnormalized synonym")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSynonyms(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
