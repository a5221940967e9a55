package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/cli"
	"github.com/Veraticus/cashmind/internal/config"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/ofx"
)

const importBatchSize = 100

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from bank files",
	}

	ofxCmd := &cobra.Command{
		Use:   "ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX files exported from your bank.

Categories are inferred from the bank's description. Transactions already
stored are skipped, so the same file can be imported twice safely.`,
		Example: `  cashmind import ofx ~/Descargas/galicia_marzo.ofx
  cashmind import ofx "~/Descargas/*.qfx"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}
	ofxCmd.Flags().BoolP("dry-run", "d", false, "Preview the import without saving")

	cmd.AddCommand(ofxCmd)
	return cmd
}

// expandFiles resolves globs, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		pattern = config.ExpandPath(pattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("No files found matching pattern", "pattern", pattern)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseOFXFiles parses every file and drops transactions repeated across files.
// Files that fail to parse are logged and skipped.
func parseOFXFiles(ctx context.Context, parser *ofx.Parser, files []string) ([]model.Transaction, error) {
	seen := make(map[string]bool)
	var all []model.Transaction

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		stmt, err := parser.Parse(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, txn := range stmt.Transactions {
			if seen[txn.Hash] {
				continue
			}
			seen[txn.Hash] = true
			all = append(all, txn)
			added++
		}
		slog.Info("Processed file",
			"file", filepath.Base(path),
			"accounts", strings.Join(stmt.Accounts, ","),
			"found", len(stmt.Transactions),
			"added", added,
			"skipped", stmt.Skipped)
	}
	return all, nil
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	txns, err := parseOFXFiles(ctx, ofx.NewParser(slog.Default()), files)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No se encontraron movimientos para importar"))
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, cli.RenderBox("Vista previa", importSummary(txns)))
		fmt.Fprintln(out, cli.RenderTransactions(txns))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	bar := cli.NewProgressBar(out, len(txns), "Importando")
	inserted := 0
	for i := 0; i < len(txns); i += importBatchSize {
		batch := txns[i:min(i+importBatchSize, len(txns))]
		n, err := store.SaveTransactions(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to save transactions: %w", err)
		}
		inserted += n
		_ = bar.Add(len(batch))
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Importados %d movimientos (%d ya existían)", inserted, len(txns)-inserted)))
	return nil
}

func importSummary(txns []model.Transaction) string {
	income, expenses := decimal.Zero, decimal.Zero
	oldest, newest := txns[0].Date, txns[0].Date
	for _, txn := range txns {
		if txn.Type == model.TypeIncome {
			income = income.Add(txn.Amount)
		} else {
			expenses = expenses.Add(txn.Amount)
		}
		if txn.Date.Before(oldest) {
			oldest = txn.Date
		}
		if txn.Date.After(newest) {
			newest = txn.Date
		}
	}

	return fmt.Sprintf("Movimientos: %d\nPeríodo: %s a %s\nIngresos: %s\nGastos: %s",
		len(txns),
		oldest.Format(model.DateLayout),
		newest.Format(model.DateLayout),
		chat.FormatDecimal(income),
		chat.FormatDecimal(expenses))
}
