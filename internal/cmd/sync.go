package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/docsync/internal/calc"
	"github.com/harrison/docsync/internal/config"
	"github.com/harrison/docsync/internal/display"
	"github.com/harrison/docsync/internal/executor"
	"github.com/harrison/docsync/internal/filelock"
	"github.com/harrison/docsync/internal/generator"
	"github.com/harrison/docsync/internal/history"
	"github.com/harrison/docsync/internal/logger"
	"github.com/harrison/docsync/internal/models"
	"github.com/harrison/docsync/internal/watch"
)

// ErrOutOfDate is returned by sync --check when a document would change.
var ErrOutOfDate = errors.New("documents are out of date")

// syncMode selects what sync does with a regenerated document.
type syncMode struct {
	write bool
	check bool
	diff  bool
	jobs  int // Documents synced concurrently
}

// NewSyncCommand creates and returns the sync subcommand
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <document-or-directory>...",
		Short: "Execute examples and regenerate documents",
		Long: `Execute every example of the given documents against a fresh session per
document and regenerate each document with the captured output.

Directories are scanned recursively for files with a configured extension.
Without flags the regenerated documents are printed to stdout.

Examples:
  docsync sync README.md              # Print the regenerated document
  docsync sync --write docs/          # Rewrite documents in place
  docsync sync --check docs/          # Exit 1 when a document is stale
  docsync sync --diff README.md       # Show what would change
  docsync sync --write --watch docs/  # Rewrite documents whenever they are saved
  docsync sync -j 4 --check docs/     # Check documents four at a time
  docsync sync --unexpected NameError README.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSync,
	}

	cmd.Flags().Bool("write", false, "Rewrite documents in place")
	cmd.Flags().Bool("check", false, "Exit with an error when a document would change")
	cmd.Flags().Bool("diff", false, "Print a unified diff of the changes")
	cmd.Flags().Bool("watch", false, "Keep running and sync documents again when they change")
	cmd.Flags().IntP("jobs", "j", 1, "Number of documents synced concurrently")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}

	var mode syncMode
	mode.write, _ = cmd.Flags().GetBool("write")
	mode.check, _ = cmd.Flags().GetBool("check")
	mode.diff, _ = cmd.Flags().GetBool("diff")
	mode.jobs, _ = cmd.Flags().GetInt("jobs")
	if mode.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", mode.jobs)
	}
	if mode.write && mode.check {
		return fmt.Errorf("--write and --check cannot be used together")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	watching, _ := cmd.Flags().GetBool("watch")
	if !watching {
		return s.sync(ctx, args, mode, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.syncOnChange(ctx, args, mode, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// sync processes every document named by args. Regenerated text and diffs
// go to out, log output and warnings to errOut.
func (s *settings) sync(ctx context.Context, args []string, mode syncMode, out, errOut io.Writer) error {
	docs, err := s.collectDocuments(args)
	if err != nil {
		return err
	}

	sy, err := s.newSyncer(mode, out, errOut)
	if err != nil {
		return err
	}
	defer sy.Close()

	for _, scanErr := range docs.Errors {
		sy.log.LogWarn(scanErr.Error())
	}
	return sy.all(ctx, docs.Files)
}

// syncOnChange syncs every document named by args, then syncs each document
// again whenever it changes, until ctx is done.
func (s *settings) syncOnChange(ctx context.Context, args []string, mode syncMode, out, errOut io.Writer) error {
	docs, err := s.collectDocuments(args)
	if err != nil {
		return err
	}

	sy, err := s.newSyncer(mode, out, errOut)
	if err != nil {
		return err
	}
	defer sy.Close()

	w, err := watch.New(args, s.cfg.Extensions, excludedDirs)
	if err != nil {
		return fmt.Errorf("failed to watch documents: %w", err)
	}
	defer w.Close()

	if err := sy.all(ctx, docs.Files); err != nil {
		sy.log.LogWarn(err.Error())
	}
	sy.log.LogInfo(fmt.Sprintf("Watching %d %s for changes", len(docs.Files), plural(len(docs.Files), "document")))

	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-w.Changes():
			if _, err := sy.document(ctx, path, sy.out); err != nil {
				sy.log.LogError(err.Error())
			}
			sy.prune(ctx)
		case err := <-w.Errors():
			sy.log.LogWarn(fmt.Sprintf("watch: %v", err))
		}
	}
}

// syncer carries the collaborators shared by every document of a sync.
type syncer struct {
	*settings
	mode    syncMode
	runner  *executor.Runner
	gen     *generator.Generator
	dialect models.Dialect
	store   *history.Store
	console *logger.ConsoleLogger
	fileLog *logger.FileLogger
	log     logger.Logger
	out     io.Writer
	errOut  io.Writer
}

func (s *settings) newSyncer(mode syncMode, out, errOut io.Writer) (*syncer, error) {
	dialect := s.cfg.DialectOf()
	sy := &syncer{
		settings: s,
		mode:     mode,
		gen:      generator.New(dialect),
		dialect:  dialect,
		console:  s.consoleLogger(errOut),
		out:      out,
		errOut:   errOut,
	}

	var err error
	if s.cfg.FileLog {
		sy.fileLog, err = logger.NewFileLoggerWithLevel(config.ResolvePath(s.root, s.cfg.LogDir), s.cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		sy.log = logger.NewMultiLogger(sy.console, sy.fileLog)
	} else {
		sy.log = logger.NewMultiLogger(sy.console)
	}

	if s.cfg.History.Enabled {
		sy.store, err = history.Open(config.ResolvePath(s.root, s.cfg.History.DBPath))
		if err != nil {
			sy.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
	}

	sy.runner = executor.NewRunner(calc.New(),
		executor.WithDialect(dialect),
		executor.WithClassifier(executor.NewKindClassifier(s.cfg.UnexpectedKinds)),
		executor.WithLogger(sy.log),
	)
	return sy, nil
}

// Close releases the run log and the history database.
func (sy *syncer) Close() {
	if sy.fileLog != nil {
		sy.fileLog.Close()
	}
	if sy.store != nil {
		sy.store.Close()
	}
}

// all syncs files, up to mode.jobs at a time, each in its own session.
// Document output is written in file order. A failing document does not
// stop the others.
func (sy *syncer) all(ctx context.Context, files []string) error {
	type result struct {
		out     bytes.Buffer
		changed bool
		err     error
	}
	results := make([]result, len(files))

	var g errgroup.Group
	g.SetLimit(max(sy.mode.jobs, 1))
	var done atomic.Int64
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			res := &results[i]
			out := sy.out
			if sy.mode.jobs > 1 {
				out = &res.out
			}
			res.changed, res.err = sy.document(ctx, path, out)
			if res.err != nil {
				sy.log.LogError(res.err.Error())
			}
			sy.console.LogProgress(int(done.Add(1)), len(files))
			return nil
		})
	}
	g.Wait()

	var failed, stale int
	for i := range results {
		res := &results[i]
		if sy.mode.jobs > 1 {
			if _, err := res.out.WriteTo(sy.out); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if res.err != nil {
			failed++
		}
		if res.changed {
			stale++
		}
	}
	sy.prune(ctx)

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	if sy.mode.check && stale > 0 {
		return fmt.Errorf("%d of %d: %w", stale, len(files), ErrOutOfDate)
	}
	return nil
}

func (sy *syncer) prune(ctx context.Context) {
	if sy.store == nil || sy.cfg.History.KeepRuns <= 0 {
		return
	}
	if _, err := sy.store.Prune(ctx, sy.cfg.History.KeepRuns); err != nil {
		sy.log.LogWarn(fmt.Sprintf("failed to prune history: %v", err))
	}
}

// document syncs one document, writing regenerated text or diffs to out,
// and reports whether its regenerated text differs from the file.
func (sy *syncer) document(ctx context.Context, path string, out io.Writer) (bool, error) {
	doc, original, err := loadDocument(path, sy.parserOptions())
	if err != nil {
		display.ParseWarning(path, err).Display(sy.errOut, sy.useColor(sy.errOut))
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Options.Skip {
		sy.log.LogInfo(fmt.Sprintf("Skipping %s (front matter)", path))
		return false, nil
	}

	started := time.Now()
	summary := sy.runner.Run(doc)
	regenerated := sy.gen.Generate(doc)
	changed := regenerated != string(original)

	if sy.store != nil {
		run := history.NewRun(doc, summary, started, sy.dialect)
		run.Path = historyKey(sy.root, path)
		if err := sy.store.RecordRun(ctx, run); err != nil {
			sy.log.LogWarn(fmt.Sprintf("failed to record history for %s: %v", path, err))
		}
	}

	if sy.mode.diff && changed {
		diff, err := generator.UnifiedDiff(path, string(original), regenerated)
		if err != nil {
			return changed, fmt.Errorf("failed to diff %s: %w", path, err)
		}
		if sy.useColor(sy.out) {
			diff = display.ColorDiff(diff)
		}
		fmt.Fprint(out, diff)
	}

	switch {
	case sy.mode.write:
		if !changed {
			return false, nil
		}
		if err := filelock.Rewrite(path, original, []byte(regenerated)); err != nil {
			return changed, fmt.Errorf("failed to write %s: %w", path, err)
		}
		sy.log.LogInfo(fmt.Sprintf("Updated %s", path))
	case sy.mode.check:
		if changed {
			sy.log.LogWarn(fmt.Sprintf("%s is out of date", path))
		}
	case !sy.mode.diff:
		fmt.Fprint(out, regenerated)
	}
	return changed, nil
}
