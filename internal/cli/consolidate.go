package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dlacroix/wmslite/internal/export"
	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type consolidateOptions struct {
	inventoryFile string
	receptionFile string
	locationsFile string
	threshold     int
	mapOverrides  []string
	worklistOnly  bool
	csvOut        string
	xlsxOut       string
}

func newConsolidateCmd() *cobra.Command {
	opts := &consolidateOptions{}

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge inventory and reception files into a consolidated view",
		Example: `  wmslite consolidate --inventory inv.csv --reception rec.xlsx
  wmslite consolidate --inventory inv.csv --locations bins.csv --threshold 50
  wmslite consolidate --inventory inv.csv --map qty="Stock Count" --csv out.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsolidate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.inventoryFile, "inventory", "", "inventory export file (.csv, .xlsx, .xls)")
	cmd.Flags().StringVar(&opts.receptionFile, "reception", "", "reception export file")
	cmd.Flags().StringVar(&opts.locationsFile, "locations", "", "bin-to-location-type reference file")
	cmd.Flags().IntVar(&opts.threshold, "threshold", 20, "worklist threshold: items strictly below it are selected")
	cmd.Flags().StringArrayVar(&opts.mapOverrides, "map", nil, "column override as field=header, repeatable (fields: item, qty, bin, description, type)")
	cmd.Flags().BoolVar(&opts.worklistOnly, "worklist", false, "print only the below-threshold worklist")
	cmd.Flags().StringVar(&opts.csvOut, "csv", "", "write the consolidated view to this CSV file")
	cmd.Flags().StringVar(&opts.xlsxOut, "xlsx", "", "write worklist and consolidated sheets to this xlsx file")

	return cmd
}

func runConsolidate(cmd *cobra.Command, opts *consolidateOptions) error {
	if opts.inventoryFile == "" && opts.receptionFile == "" {
		return fmt.Errorf("at least one of --inventory or --reception is required")
	}
	if opts.threshold <= 0 {
		return fmt.Errorf("--threshold must be positive")
	}

	overrides, err := parseMapOverrides(opts.mapOverrides)
	if err != nil {
		return err
	}

	parser := ingest.NewParser()
	synonyms := ingest.DefaultSynonyms()
	fallback := ingest.MapFallback(overrides)

	loadStock := func(role ingest.Role, path string) ([]ingest.StockRow, error) {
		if path == "" {
			return nil, nil
		}
		table, err := parseFile(parser, path)
		if err != nil {
			return nil, err
		}
		mapping, err := synonyms.Resolve(role, table.Headers, nil, fallback)
		if err != nil {
			return nil, err
		}
		rows, diags := ingest.Sanitize(role, table.Records, mapping)
		for _, d := range diags {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: non-numeric quantity %q for %s, using 0\n", role, d.Raw, d.Item)
		}
		return rows, nil
	}

	inventory, err := loadStock(ingest.RoleInventory, opts.inventoryFile)
	if err != nil {
		return err
	}
	reception, err := loadStock(ingest.RoleReception, opts.receptionFile)
	if err != nil {
		return err
	}

	var locations []ingest.LocationRow
	if opts.locationsFile != "" {
		table, err := parseFile(parser, opts.locationsFile)
		if err != nil {
			return err
		}
		mapping, err := synonyms.Resolve(ingest.RoleLocations, table.Headers, nil, fallback)
		if err != nil {
			return err
		}
		locations = ingest.SanitizeLocations(table.Records, mapping)
	}

	consolidated := ingest.Consolidate(inventory, reception, locations)
	worklist := ingest.SelectBelowThreshold(consolidated, decimal.NewFromInt(int64(opts.threshold)))

	display := consolidated
	if opts.worklistOnly {
		display = worklist
	}
	printItems(cmd, display)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d items consolidated, %d below threshold %d\n",
		len(consolidated), len(worklist), opts.threshold)

	if opts.csvOut != "" {
		if err := writeCSVFile(opts.csvOut, display); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.csvOut)
	}
	if opts.xlsxOut != "" {
		if err := writeWorkbookFile(opts.xlsxOut, worklist, consolidated); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.xlsxOut)
	}
	return nil
}

// parseMapOverrides turns repeated field=header flags into fallback answers.
func parseMapOverrides(raw []string) (map[ingest.Field]string, error) {
	known := make(map[ingest.Field]bool)
	for _, f := range ingest.Fields() {
		known[f] = true
	}

	overrides := make(map[ingest.Field]string, len(raw))
	for _, entry := range raw {
		name, header, ok := strings.Cut(entry, "=")
		if !ok || header == "" {
			return nil, fmt.Errorf("invalid --map %q, want field=header", entry)
		}
		field := ingest.Field(name)
		if !known[field] {
			return nil, fmt.Errorf("invalid --map field %q", name)
		}
		overrides[field] = header
	}
	return overrides, nil
}

func parseFile(parser *ingest.Parser, path string) (*ingest.Table, error) {
	kind, err := ingest.KindForFilename(path)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	table, err := parser.Parse(payload, kind)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

// printItems renders a fixed-width table of consolidated items.
func printItems(cmd *cobra.Command, items []ingest.ConsolidatedItem) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tQTY INV\tQTY REC\tQTY TOTAL\tBINS\tTYPES\tDESCRIPTION")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.Item,
			it.QtyInventoryTotal.String(),
			it.QtyReceptionTotal.String(),
			it.QtyTotal.String(),
			formatBins(it),
			it.LocationTypes,
			it.Description,
		)
	}
	w.Flush()
}

func formatBins(it ingest.ConsolidatedItem) string {
	var parts []string
	for _, b := range append(append([]ingest.BinQty(nil), it.InventoryBins...), it.ReceptionBins...) {
		parts = append(parts, fmt.Sprintf("%s (%s)", b.Bin, b.Qty.String()))
	}
	return strings.Join(parts, ", ")
}

func writeCSVFile(path string, items []ingest.ConsolidatedItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteItemsCSV(f, items); err != nil {
		return err
	}
	return f.Close()
}

func writeWorkbookFile(path string, worklist, consolidated []ingest.ConsolidatedItem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteWorkbook(f, worklist, consolidated); err != nil {
		return err
	}
	return f.Close()
}
