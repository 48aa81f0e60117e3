package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking_api_testing/internal/config"
	"parking_api_testing/internal/model"
	"parking_api_testing/internal/reporter"
	"parking_api_testing/internal/runner"
	"parking_api_testing/internal/scenario"
	"parking_api_testing/internal/storage"
)

var (
	runBaseURL     string
	runPlan        string
	runCasesPath   string
	runCasesSheet  string
	runReportPath  string
	runExcelPath   string
	runHistoryPath string
	runTimeout     time.Duration
	runRPS         float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the endpoint smoke tests",
	Long: `Run sends the scripted sequence of requests (registration, login, profile,
parking lots, vehicles, sessions, reservations, payments, billing, logout and error
cases) and records the outcome of every call. Steps that need a session token are
skipped when the corresponding login did not return one.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "Base URL of the parking API")
	runCmd.Flags().StringVar(&runPlan, "plan", "", "Built-in plan to run (full, simple)")
	runCmd.Flags().StringVar(&runCasesPath, "cases", "", "Excel case sheet to run instead of a built-in plan")
	runCmd.Flags().StringVar(&runCasesSheet, "sheet", "", "Sheet name inside the case workbook")
	runCmd.Flags().StringVar(&runReportPath, "report", "", "Path of the text report")
	runCmd.Flags().StringVar(&runExcelPath, "excel", "", "Also add a result sheet to this workbook")
	runCmd.Flags().StringVar(&runHistoryPath, "history", "", "Also store the run in this SQLite database")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Per-request timeout (0 keeps the configured value)")
	runCmd.Flags().Float64Var(&runRPS, "rps", 0, "Maximum requests per second (0 keeps the configured value)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runSmoke(ctx, cfg, cmd.OutOrStdout(), logger, time.Now)
	return err
}

func applyRunFlags(cfg *config.Config) {
	if runBaseURL != "" {
		cfg.BaseURL = strings.TrimRight(runBaseURL, "/")
	}
	if runPlan != "" {
		cfg.Plan = runPlan
	}
	if runCasesPath != "" {
		cfg.CasesPath = runCasesPath
	}
	if runCasesSheet != "" {
		cfg.CasesSheet = runCasesSheet
	}
	if runReportPath != "" {
		cfg.ReportPath = runReportPath
	}
	if runExcelPath != "" {
		cfg.ExcelPath = runExcelPath
	}
	if runHistoryPath != "" {
		cfg.HistoryPath = runHistoryPath
	}
	if runTimeout > 0 {
		cfg.Timeout = runTimeout
	}
	if runRPS > 0 {
		cfg.RequestsPerSecond = runRPS
	}
}

type smokeOutcome struct {
	Records []model.Record
	Summary scenario.Summary
	RunID   string
}

// runSmoke executes the plan and persists the results. Only a plan that cannot
// be loaded is an error; report and history failures are logged.
func runSmoke(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger, now func() time.Time) (smokeOutcome, error) {
	plan, err := selectPlan(cfg)
	if err != nil {
		return smokeOutcome{}, err
	}

	fmt.Fprintln(out, "🚀 Testing Parking API Endpoints")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	logger.Info("starting run", "plan", plan.Name, "base_url", cfg.BaseURL, "steps", len(plan.Steps))

	started := now()
	r := runner.New(cfg, out, logger)
	exec := scenario.NewExecutor(r, out, cfg.TokenField, logger)

	summary, err := exec.Execute(ctx, plan)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return smokeOutcome{}, err
		}
		logger.Warn("run interrupted, reporting partial results", "executed", summary.Executed)
	}
	duration := now().Sub(started)
	records := r.Results()

	rep := reporter.New(out)
	rep.PrintSummary(records, summary.Skipped, duration)

	if err := rep.WriteText(cfg.ReportPath, records, now()); err != nil {
		logger.Error("failed to write text report", "path", cfg.ReportPath, "error", err)
	}
	if cfg.ExcelPath != "" {
		if err := rep.WriteExcel(cfg.ExcelPath, records, duration, now()); err != nil {
			logger.Error("failed to write excel report", "path", cfg.ExcelPath, "error", err)
		}
	}

	outcome := smokeOutcome{Records: records, Summary: summary}
	if cfg.HistoryPath != "" {
		run := storage.NewRun(plan.Name, cfg.BaseURL, started)
		run.Duration = duration
		run.Skipped = summary.Skipped
		if err := saveHistory(context.WithoutCancel(ctx), cfg.HistoryPath, run, records); err != nil {
			logger.Error("failed to store run history", "path", cfg.HistoryPath, "error", err)
		} else {
			outcome.RunID = run.ID
			logger.Info("run stored", "id", run.ID, "path", cfg.HistoryPath)
		}
	}
	return outcome, nil
}

func selectPlan(cfg *config.Config) (scenario.Plan, error) {
	if cfg.CasesPath != "" {
		plan, err := scenario.LoadSheet(cfg.CasesPath, cfg.CasesSheet, cfg.HeaderRow)
		if err != nil {
			return scenario.Plan{}, fmt.Errorf("load case sheet: %w", err)
		}
		return plan, nil
	}

	accounts := scenario.Accounts{User: cfg.Accounts.User, Admin: cfg.Accounts.Admin}
	if cfg.Plan == config.PlanSimple {
		return scenario.Simple(accounts), nil
	}
	return scenario.Full(accounts), nil
}

func saveHistory(ctx context.Context, path string, run storage.Run, records []model.Record) error {
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(ctx, run, records)
}
