package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"parking_api_testing/internal/config"
	"parking_api_testing/internal/scenario"
)

var (
	casesSheet string
	casesPlan  string
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Work with Excel case sheets",
}

var casesExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Write the configured built-in plan as an editable case sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.CasesPath = ""
		if casesPlan != "" {
			cfg.Plan = casesPlan
		}
		if cfg.Plan != config.PlanFull && cfg.Plan != config.PlanSimple {
			return config.NewConfigError("plan must be full or simple")
		}
		plan, err := selectPlan(cfg)
		if err != nil {
			return err
		}
		if err := scenario.WriteSheetTemplate(args[0], casesSheet, plan); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cases of plan %q to %s (sheet %s)\n", len(plan.Steps), plan.Name, args[0], casesSheet)
		return nil
	},
}

func init() {
	casesExportCmd.Flags().StringVar(&casesSheet, "sheet", "Sheet1", "Sheet name to write")
	casesExportCmd.Flags().StringVar(&casesPlan, "plan", "", "Built-in plan to export (full, simple)")
	casesCmd.AddCommand(casesExportCmd)
}
