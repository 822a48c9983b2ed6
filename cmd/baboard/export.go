package main

import (
	"context"
	"fmt"
	"os"

	"baboard/internal/export"
	"baboard/internal/store"

	"github.com/spf13/cobra"
)

var (
	exportDBPath string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entry history as CSV",
	Long: `Dump the full entry history from the board database as CSV.

Writes to stdout unless --out is given.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDBPath, "db", getEnvOrDefault("BABOARD_DB_PATH", "./baboard.db"), "Path to SQLite database")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := store.Open(exportDBPath)
	if err != nil {
		return fmt.Errorf("failed to open board database: %w", err)
	}
	defer st.Close()

	records, err := st.LoadHistory(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteCSV(out, records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d history records\n", len(records))
	return nil
}
