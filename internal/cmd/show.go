package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrison/sbat/internal/config"
)

// NewShowCommand creates the 'sbat show' command
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <config>",
		Short: "Print the normalised configuration",
		Long: `Load a configuration document and print it with every key spelled
out, in YAML (default) or JSON. The document is validated first; nothing is
printed when it has errors.`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().StringP("output", "o", "yaml", "Output format: yaml or json")
	cmd.Flags().Bool("strict", false, "Report unknown keys as errors")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported output format %q (use yaml or json)", format)
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintf(out, "%s\n", data)
		return nil
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// loadConfig loads path with the command's settings. Issues, warnings
// included, are logged to stderr.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	console := newConsole(cmd, s)

	report, err := newLoader(s, console).Check(path)
	if err != nil {
		return nil, err
	}
	if len(report.Issues) > 0 {
		console.LogReport(report)
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return report.Config, nil
}
