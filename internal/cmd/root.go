package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/sbat/internal/config"
	"github.com/harrison/sbat/internal/logger"
	"github.com/harrison/sbat/internal/settings"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for sbat
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sbat",
		Short: "Configuration tooling for the streamflow and baseflow analysis workflow",
		Long: `sbat checks and prepares the configuration of a hydrological time
series analysis: baseflow separation, recession curve fitting and water
balance estimation with Bayesian updating.

Configuration documents may be written in YAML, JSON, TOML or HCL. Every
problem in a document is reported at once, with its key path and line.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("settings", "", "Settings file (default: $SBAT_HOME/settings.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().Bool("no-color", false, "Disable coloured output")

	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewDescribeCommand())
	cmd.AddCommand(NewPrepareCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// loadSettings reads the settings file named by --settings (or the default
// one) and applies the global flags on top.
func loadSettings(cmd *cobra.Command) (*settings.Settings, error) {
	path, _ := cmd.Flags().GetString("settings")

	var (
		s   *settings.Settings
		err error
	)
	if path != "" {
		s, err = settings.Load(path)
	} else {
		s, err = settings.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	var (
		logLevel *string
		strict   *bool
		noColor  *bool
	)
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}
	// Only validate and show define --strict.
	if cmd.Flags().Lookup("strict") != nil && cmd.Flags().Changed("strict") {
		v, _ := cmd.Flags().GetBool("strict")
		strict = &v
	}
	if cmd.Flags().Changed("no-color") {
		v, _ := cmd.Flags().GetBool("no-color")
		noColor = &v
	}
	s.MergeWithFlags(logLevel, strict, noColor)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// newConsole returns the stderr logger of a command.
func newConsole(cmd *cobra.Command, s *settings.Settings) *logger.ConsoleLogger {
	w := cmd.ErrOrStderr()
	console := logger.NewConsoleLogger(w, s.LogLevel)
	console.SetColor(s.Color && logger.IsTerminal(w))
	return console
}

func newLoader(s *settings.Settings, log config.Logger) *config.Loader {
	return config.NewLoader(config.WithStrict(s.Strict), config.WithLogger(log))
}

// palette colours command output when it goes to a terminal.
type palette struct {
	enabled bool
}

func newPalette(cmd *cobra.Command, s *settings.Settings) palette {
	return palette{enabled: s.Color && logger.IsTerminal(cmd.OutOrStdout())}
}

func (p palette) paint(s string, attrs ...color.Attribute) string {
	if !p.enabled {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

func (p palette) ok(s string) string    { return p.paint(s, color.FgGreen) }
func (p palette) fail(s string) string  { return p.paint(s, color.FgRed) }
func (p palette) warn(s string) string  { return p.paint(s, color.FgYellow) }
func (p palette) muted(s string) string { return p.paint(s, color.FgHiBlack) }
func (p palette) bold(s string) string  { return p.paint(s, color.Bold) }
