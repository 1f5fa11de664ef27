package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrison/docsync/internal/config"
	"github.com/harrison/docsync/internal/history"
)

// NewHistoryCommand creates and returns the history subcommand
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <document>",
		Short: "Show recorded sync runs of a document",
		Long: `Show the most recent sync runs recorded for a document.

Runs are recorded when history is enabled in .docsync/config.yaml:

  history:
    enabled: true
    keep_runs: 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			examples, _ := cmd.Flags().GetBool("examples")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return s.history(ctx, args[0], limit, examples, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int("limit", 10, "Maximum number of runs to show (0 = all)")
	cmd.Flags().Bool("examples", false, "Show per-example results of the latest run")

	return cmd
}

// history prints the recorded runs of path to out.
func (s *settings) history(ctx context.Context, path string, limit int, examples bool, out io.Writer) error {
	dbPath := config.ResolvePath(s.root, s.cfg.History.DBPath)
	if !fileExists(dbPath) {
		fmt.Fprintf(out, "No history recorded (enable history in %s/config.yaml)\n", config.DirName)
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	key := historyKey(s.root, path)
	runs, err := store.RecentRuns(ctx, key, limit)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded for %s\n", key)
		return nil
	}

	fmt.Fprintf(out, "%s: %d %s\n", key, len(runs), plural(len(runs), "run"))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tEXAMPLES\tCHANGED\tRAISED\tUNEXPECTED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Examples, run.Changed, run.Raised, run.Suppressed,
			run.Duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !examples {
		return nil
	}

	results, err := store.RunExamples(ctx, runs[0].ID)
	if err != nil {
		return fmt.Errorf("failed to load examples: %w", err)
	}
	fmt.Fprintf(out, "\nLatest run %s:\n", shortID(runs[0].ID))
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSTATUS\tERROR")
	for _, res := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", res.Line, resultStatus(res), res.ErrorSummary)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func resultStatus(res history.ExampleResult) string {
	switch {
	case res.Suppressed:
		return "unexpected"
	case res.Changed:
		return "changed"
	default:
		return "ok"
	}
}
