package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/riskcalc/internal/render"
	"github.com/rustyeddy/riskcalc/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recent calculations",
	Long: `List, replay and export the last 20 calculations. Entries are
numbered from 1, newest first.

Examples:
  riskcalc history list
  riskcalc history show 2
  riskcalc history refill 2
  riskcalc history export --format xlsx --out history.xlsx`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored calculations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <n>",
	Short: "Show the form and summary of entry n",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyRefillCmd = &cobra.Command{
	Use:   "refill <n>",
	Short: "Recalculate entry n from its stored form",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRefill,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored calculations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history as CSV or XLSX",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

var (
	exportFormat string
	exportOut    string
	refillJSON   bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRefillCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)

	historyRefillCmd.Flags().BoolVar(&refillJSON, "json", false, "print the result as JSON")
	historyExportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv|xlsx")
	historyExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (csv defaults to stdout)")
}

// entryIndex converts the 1-based number users see to a store index.
func entryIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("entry number must be a positive integer, got %q", arg)
	}
	return n - 1, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	svc, err := openService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	entries, err := svc.History(cmd.Context())
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	render.History(cmd.OutOrStdout(), entries)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	idx, err := entryIndex(args[0])
	if err != nil {
		return err
	}

	svc, err := openService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	e, err := svc.Entry(cmd.Context(), idx)
	if err != nil {
		return fmt.Errorf("history entry %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	render.HistoryFrom(out, []journal.Entry{e}, idx+1)
	render.Form(out, e.FormData)
	return nil
}

func runHistoryRefill(cmd *cobra.Command, args []string) error {
	idx, err := entryIndex(args[0])
	if err != nil {
		return err
	}

	svc, err := openService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	form, err := svc.Refill(cmd.Context(), idx)
	if err != nil {
		return fmt.Errorf("history entry %s: %w", args[0], err)
	}

	res, err := svc.Calculate(cmd.Context(), form)
	if err != nil {
		return describeCalcError(err)
	}
	return printResult(cmd.OutOrStdout(), res, refillJSON)
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	svc, err := openService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.ClearHistory(cmd.Context()); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ History cleared")
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	svc, err := openService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	entries, err := svc.History(cmd.Context())
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	switch exportFormat {
	case "csv":
		if exportOut == "" {
			return journal.WriteCSV(cmd.OutOrStdout(), entries)
		}
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		if err := journal.WriteCSV(f, entries); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	case "xlsx":
		if exportOut == "" {
			return fmt.Errorf("--out is required for xlsx export")
		}
		if err := journal.WriteXLSX(exportOut, entries); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q (want csv or xlsx)", exportFormat)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d entries to %s\n", len(entries), exportOut)
	return nil
}
