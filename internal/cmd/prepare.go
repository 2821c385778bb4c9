package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/sbat/internal/logger"
	"github.com/harrison/sbat/internal/workspace"
)

// NewPrepareCommand creates the 'sbat prepare' command
func NewPrepareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare <config>",
		Short: "Create the output workspace of a model run",
		Long: `Validate a configuration and create its output directory:
  - data/ and logs/ for every run
  - figures/<stage>/ for each enabled stage when plot_results is true
  - run.json describing the run (id, stages, decades, resolved inputs)

The output directory is locked while it is prepared, so two runs cannot
prepare the same directory at once. Input files that do not exist are
reported as warnings. Relative paths resolve against --base-dir, which
defaults to the directory holding the configuration file.`,
		Args: cobra.ExactArgs(1),
		RunE: runPrepare,
	}

	cmd.Flags().String("base-dir", "", "Directory that relative paths resolve against")
	cmd.Flags().Duration("wait", 0, "Wait up to this long for a locked workspace (e.g. 30s)")

	return cmd
}

func runPrepare(cmd *cobra.Command, args []string) error {
	configPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	baseDir, _ := cmd.Flags().GetString("base-dir")
	wait, _ := cmd.Flags().GetDuration("wait")
	if baseDir == "" {
		baseDir = filepath.Dir(configPath)
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	console := newConsole(cmd, s)

	report, err := newLoader(s, console).Check(configPath)
	if err != nil {
		return err
	}
	if err := report.Err(); err != nil {
		console.LogReport(report)
		return err
	}
	cfg := report.Config

	fileLog, err := logger.NewFileLogger(filepath.Join(cfg.OutputPath(baseDir), "logs"), "prepare", s.LogLevel)
	if err != nil {
		return err
	}
	defer fileLog.Close()
	log := logger.Multi(console, fileLog)
	log.LogReport(report)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	manifest, err := workspace.Prepare(ctx, cfg, workspace.Options{
		BaseDir:      baseDir,
		ConfigPath:   configPath,
		ConfigSHA256: report.SHA256,
		Wait:         wait,
		Logger:       log,
	})
	if err != nil {
		log.LogError(err.Error())
		return err
	}

	colors := newPalette(cmd, s)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", colors.ok("✓ Prepared "+manifest.OutputDir))
	fmt.Fprintf(out, "  Run:     %s\n", manifest.RunID)
	fmt.Fprintf(out, "  Period:  %s to %s\n", manifest.StartDate, manifest.EndDate)
	fmt.Fprintf(out, "  Stages:  %s\n", joinStages(manifest))
	if len(manifest.Decades) > 0 {
		fmt.Fprintf(out, "  Decades: %s\n", strings.Join(manifest.Decades, ", "))
	}
	if n := len(manifest.MissingInputs); n > 0 {
		fmt.Fprintf(out, "  %s\n", colors.warn(fmt.Sprintf("⚠ %d input file(s) not found: %s", n, strings.Join(manifest.MissingInputs, ", "))))
	}
	fmt.Fprintf(out, "  Log:     %s\n", fileLog.Path())

	return nil
}

func joinStages(m *workspace.Manifest) string {
	if len(m.Stages) == 0 {
		return "none"
	}
	names := make([]string, len(m.Stages))
	for i, stage := range m.Stages {
		names[i] = string(stage)
	}
	return strings.Join(names, ", ")
}
