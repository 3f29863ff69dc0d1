package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pacekit/tempo/pkg/cli"
	"pacekit/tempo/pkg/pacing"
)

var statusFlags struct {
	output string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current quota utilization and pacing posture",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusFlags.output, "output", "o", "text", "output format (text, json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(statusFlags.output))
	if err != nil {
		return err
	}

	app, err := newApp(configPath(), false)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cli.SetupSignalHandler()
	decision := app.orchestrator.Check(ctx, uuid.NewString())

	return formatter.FormatTo(os.Stdout, decisionReport{decision})
}

// decisionReport renders a decision as a human-readable report while
// staying a plain Decision for JSON output.
type decisionReport struct {
	*pacing.Decision
}

func (r decisionReport) String() string {
	var sb strings.Builder

	if r.ShouldThrottle {
		fmt.Fprintf(&sb, "Throttling: %ds delay (%s, %s window, %.1f%% over allowance)\n",
			r.DelaySeconds, r.Strategy, r.ConstrainedWindow, r.DeviationPct)
	} else {
		sb.WriteString("No throttling needed\n")
	}

	for _, status := range []*pacing.WindowStatus{r.Short, r.Long} {
		if status == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n%s window:\n", status.Kind)
		fmt.Fprintf(&sb, "  utilization:    %6.1f%%\n", status.UtilizationPct)
		fmt.Fprintf(&sb, "  safe allowance: %6.1f%%\n", status.SafeAllowancePct)
		fmt.Fprintf(&sb, "  overage:        %6.1f%%\n", status.OveragePct)
		fmt.Fprintf(&sb, "  elapsed:        %6.1fh\n", status.ElapsedHours)
		fmt.Fprintf(&sb, "  remaining:      %6.1fh\n", status.RemainingHours)
		if status.Frozen {
			sb.WriteString("  accrual frozen (weekend)\n")
		}
	}

	fmt.Fprintf(&sb, "\nvalid until %s", r.ValidUntil.Local().Format("15:04:05"))

	return sb.String()
}
