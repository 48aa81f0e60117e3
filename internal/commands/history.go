package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"parking_api_testing/internal/reporter"
	"parking_api_testing/internal/storage"
)

var (
	historyPath  string
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored runs, or the records of one run",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyPath, "history", "", "SQLite history database (defaults to history_path from the config)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the records of this run id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := historyPath
	if path == "" {
		path = cfg.HistoryPath
	}
	if path == "" {
		return fmt.Errorf("no history database configured; set history_path or pass --history")
	}

	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyRun != "" {
		return printRunRecords(cmd.Context(), store, historyRun, cmd.OutOrStdout())
	}
	return printRuns(cmd.Context(), store, historyLimit, cmd.OutOrStdout())
}

func printRuns(ctx context.Context, store *storage.SQLiteStore, limit int, out io.Writer) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tPLAN\tBASE URL\tREQUESTS\tSKIPPED\tERRORS\t4XX/5XX\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Plan, r.BaseURL,
			r.Requests, r.Skipped, r.Errors, r.Failed, r.Duration)
	}
	return w.Flush()
}

func printRunRecords(ctx context.Context, store *storage.SQLiteStore, runID string, out io.Writer) error {
	records, err := store.Results(ctx, runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("run %s has no stored records", runID)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMETHOD\tENDPOINT\tSTATUS\tDESCRIPTION\tRESPONSE")
	for _, rec := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.Number, rec.Method, rec.Endpoint, rec.Status(), rec.Description, truncate(reporter.FormatResponse(rec.Response), 60))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
