package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pacekit/tempo/pkg/cli"
)

var runFlags struct {
	session string
	output  string
	wait    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Perform one pacing check and print the decision",
	Long: `Perform one pacing check and print the decision.

Within a poll interval the cached decision is replayed without hitting
the upstream usage endpoint, so run can be called before every unit of
work. With --wait the process sleeps out the computed delay before
exiting, which makes it usable directly as a pre-work gate:

  tempo run --wait --session "$SESSION_ID" && do-work`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.session, "session", "s", "", "session identifier (default: random)")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "json", "output format (json, text)")
	runCmd.Flags().BoolVar(&runFlags.wait, "wait", false, "sleep out the computed delay before exiting")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(runFlags.output))
	if err != nil {
		return err
	}

	app, err := newApp(configPath(), false)
	if err != nil {
		return err
	}
	defer app.Close()

	sessionID := runFlags.session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := cli.SetupSignalHandler()
	decision := app.orchestrator.Check(ctx, sessionID)

	if err := formatter.FormatTo(os.Stdout, decisionReport{decision}); err != nil {
		return err
	}

	if runFlags.wait && decision.ShouldThrottle {
		app.logger.Info("throttling",
			"session_id", sessionID,
			"delay_seconds", decision.DelaySeconds,
			"strategy", decision.Strategy,
		)
		select {
		case <-time.After(decision.Delay()):
		case <-ctx.Done():
		}
	}

	return nil
}
