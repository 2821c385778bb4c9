package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/sbat/internal/config"
	"github.com/harrison/sbat/internal/fileutil"
	"github.com/harrison/sbat/internal/history"
	"github.com/harrison/sbat/internal/logger"
	"github.com/harrison/sbat/internal/watch"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-or-directory>...",
		Short: "Validate one or more configuration documents",
		Long: `Parse and validate configuration documents, checking for:
  - Missing sections and fields
  - Wrong value types, unknown enumeration values and out-of-range numbers
  - Start date after end date
  - Inconsistent stage settings (e.g. recession on baseflow with baseflow disabled)
  - Unknown keys (warnings, or errors with --strict)

Directories are scanned for .yml, .yaml, .json, .toml and .hcl files
(subdirectories too with --recursive).

Every run is recorded in the validation history unless disabled in the
settings. With --watch the documents are validated again whenever they
change, until interrupted.

Exit code: 0 if valid, 1 if errors found`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runValidate,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("strict", false, "Report unknown keys as errors")
	cmd.Flags().Bool("watch", false, "Validate again whenever a document changes")
	cmd.Flags().BoolP("quiet", "q", false, "Only print documents with problems")
	cmd.Flags().BoolP("recursive", "r", false, "Scan directories recursively")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	watching, _ := cmd.Flags().GetBool("watch")
	recursive, _ := cmd.Flags().GetBool("recursive")

	paths, err := fileutil.ExpandPaths(args, recursive)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	console := newConsole(cmd, s)
	// Quiet runs skip the loader's per-document tracing.
	var trace logger.Logger = console
	if quiet {
		trace = logger.NewNoOpLogger()
	}
	v := &validator{
		loader: newLoader(s, trace),
		out:    cmd.OutOrStdout(),
		log:    console,
		quiet:  quiet,
		colors: newPalette(cmd, s),
	}

	if s.History.Enabled {
		dbPath, err := s.HistoryDBPath()
		if err == nil {
			v.store, err = history.Open(dbPath)
		}
		if err != nil {
			console.LogWarn(fmt.Sprintf("validation history disabled: %v", err))
		} else {
			console.LogDebug("recording validation runs in " + v.store.Path())
			defer v.store.Close()
		}
	}

	failed := v.validateAll(ctx, paths)
	if watching {
		return v.watch(ctx, paths)
	}
	if failed > 0 {
		return fmt.Errorf("validation failed with %d error(s)", failed)
	}
	return nil
}

// validator validates documents and prints one result block per document.
type validator struct {
	loader *config.Loader
	out    io.Writer
	log    logger.Logger
	store  *history.Store
	quiet  bool
	colors palette
}

// validateAll validates every path and returns the total error count.
func (v *validator) validateAll(ctx context.Context, paths []string) int {
	failed := 0
	for _, path := range paths {
		failed += v.validate(ctx, path)
	}
	if failed > 0 {
		fmt.Fprintf(v.out, "\nFound %d validation error(s)!\n", failed)
	} else if !v.quiet {
		fmt.Fprintf(v.out, "\n%s\n", v.colors.ok(fmt.Sprintf("✓ %d document(s) valid", len(paths))))
	}
	return failed
}

// validate checks one document and returns its error count. An unreadable
// file counts as one error.
func (v *validator) validate(ctx context.Context, path string) int {
	report, err := v.loader.Check(path)
	if err != nil {
		fmt.Fprintf(v.out, "%s\n", v.colors.fail("✗ Failed to read "+path))
		fmt.Fprintf(v.out, "  Error: %v\n", err)
		return 1
	}

	previous := v.record(ctx, report)
	errs, warnings := report.Errors(), report.Warnings()

	if len(errs) == 0 {
		if v.quiet && len(warnings) == 0 {
			return 0
		}
		fmt.Fprintf(v.out, "%s %s\n", v.colors.ok("✓ "+path+" is valid"),
			v.colors.muted(fmt.Sprintf("(%s, %d warning(s))", report.Format, len(warnings))))
	} else {
		fmt.Fprintf(v.out, "%s %s\n", v.colors.fail("✗ "+path+" is invalid"),
			v.colors.muted(fmt.Sprintf("(%s, %d error(s), %d warning(s))", report.Format, len(errs), len(warnings))))
	}

	for _, issue := range report.Issues {
		mark := v.colors.fail("✗")
		if issue.Severity == config.SeverityWarning {
			mark = v.colors.warn("⚠")
		}
		fmt.Fprintf(v.out, "  %s %s %s\n", mark, issue.Error(), v.colors.muted("("+issue.Kind.String()+")"))
	}

	if previous != nil && previous.Valid != report.Valid() {
		status := "fixed"
		if previous.Valid {
			status = "broken"
		}
		fmt.Fprintf(v.out, "  %s\n", v.colors.bold(fmt.Sprintf("%s since the run of %s",
			status, previous.CreatedAt.Local().Format("2006-01-02 15:04:05"))))
	}
	return len(errs)
}

// record stores report in the history and returns the run recorded before it.
func (v *validator) record(ctx context.Context, report *config.Report) *history.Run {
	if v.store == nil {
		return nil
	}
	run := history.NewRun(report)
	previous, err := v.store.Latest(ctx, run.ConfigPath)
	if err != nil {
		v.log.LogWarn(fmt.Sprintf("read validation history: %v", err))
	}
	if err := v.store.Record(ctx, run); err != nil {
		v.log.LogWarn(fmt.Sprintf("record validation run: %v", err))
	} else {
		v.log.LogDebug(fmt.Sprintf("recorded run %s for %s", run.RunID, run.ConfigPath))
	}
	return previous
}

// watch validates a document again each time it changes, until ctx is done.
func (v *validator) watch(ctx context.Context, paths []string) error {
	w, err := watch.New(ctx, paths...)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	v.log.LogInfo(fmt.Sprintf("watching %d document(s), press Ctrl+C to stop", len(paths)))
	errs := w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			v.log.LogWarn(fmt.Sprintf("watch: %v", err))
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			fmt.Fprintln(v.out)
			if event.Op == watch.Removed {
				fmt.Fprintf(v.out, "%s\n", v.colors.warn("⚠ "+event.Path+" was removed"))
				continue
			}
			v.log.LogDebug(fmt.Sprintf("%s %s", event.Path, event.Op))
			if n := v.validate(ctx, event.Path); n > 0 {
				fmt.Fprintf(v.out, "\nFound %d validation error(s)!\n", n)
			}
		}
	}
}
