package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dlacroix/wmslite/internal/ingest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestConsolidateCommand(t *testing.T) {
	dir := t.TempDir()
	inv := writeFile(t, dir, "inv.csv", "SKU,Qty,Bin\nA100,5,R1-01\nB200,100,R2-02\n")
	rec := writeFile(t, dir, "rec.csv", "Item,Quantity,Location\nA100,10,DOCK\n")
	loc := writeFile(t, dir, "loc.csv", "Location Name,Location Type\nR1-01,Rack\nDOCK,Dock\n")

	out, _, err := runCmd(t, "consolidate", "--inventory", inv, "--reception", rec, "--locations", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "A100") || !strings.Contains(out, "Rack, Dock") {
		t.Errorf("output missing consolidated row:\n%s", out)
	}
	if !strings.Contains(out, "2 items consolidated, 1 below threshold 20") {
		t.Errorf("summary line missing:\n%s", out)
	}
}

func TestConsolidateWorklistOnly(t *testing.T) {
	dir := t.TempDir()
	inv := writeFile(t, dir, "inv.csv", "SKU,Qty\nLOW,5\nHIGH,100\n")

	out, _, err := runCmd(t, "consolidate", "--inventory", inv, "--worklist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "HIGH") || !strings.Contains(out, "LOW") {
		t.Errorf("worklist output wrong:\n%s", out)
	}
}

func TestConsolidateMapOverride(t *testing.T) {
	dir := t.TempDir()
	inv := writeFile(t, dir, "inv.csv", "SKU,Stock Count\nA100,5\n")

	// Without the override the qty column is unresolvable.
	if _, _, err := runCmd(t, "consolidate", "--inventory", inv); err == nil {
		t.Fatal("expected mapping error without override")
	}

	out, _, err := runCmd(t, "consolidate", "--inventory", inv, "--map", "qty=Stock Count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "A100") {
		t.Errorf("output = %s", out)
	}
}

func TestConsolidateDiagnosticsGoToStderr(t *testing.T) {
	dir := t.TempDir()
	inv := writeFile(t, dir, "inv.csv", "SKU,Qty\nA100,abc\n")

	out, errOut, err := runCmd(t, "consolidate", "--inventory", inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut, "non-numeric quantity") {
		t.Errorf("stderr = %q", errOut)
	}
	// Zero-quantity only item nets to zero and is excluded.
	if !strings.Contains(out, "0 items consolidated") {
		t.Errorf("stdout = %q", out)
	}
}

func TestConsolidateWritesFiles(t *testing.T) {
	dir := t.TempDir()
	inv := writeFile(t, dir, "inv.csv", "SKU,Qty\nA100,5\n")
	csvOut := filepath.Join(dir, "out.csv")
	xlsxOut := filepath.Join(dir, "out.xlsx")

	_, _, err := runCmd(t, "consolidate", "--inventory", inv, "--csv", csvOut, "--xlsx", xlsxOut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(csvOut)
	if err != nil {
		t.Fatal(err)
	}
	table, err := ingest.ParseCSV(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Records) != 1 || table.Records[0]["Item"] != "A100" {
		t.Errorf("csv output = %v", table.Records)
	}

	if info, err := os.Stat(xlsxOut); err != nil || info.Size() == 0 {
		t.Errorf("xlsx output missing: %v", err)
	}
}

func TestConsolidateFlagValidation(t *testing.T) {
	if _, _, err := runCmd(t, "consolidate"); err == nil {
		t.Error("expected error with no input files")
	}
	if _, _, err := runCmd(t, "consolidate", "--inventory", "x.csv", "--threshold", "0"); err == nil {
		t.Error("expected error for zero threshold")
	}
	if _, _, err := runCmd(t, "consolidate", "--inventory", "x.csv", "--map", "bogus"); err == nil {
		t.Error("expected error for malformed --map")
	}
	if _, _, err := runCmd(t, "consolidate", "--inventory", "x.csv", "--map", "warehouse=W"); err == nil {
		t.Error("expected error for unknown --map field")
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "wmslite") {
		t.Errorf("output = %q", out)
	}
}
