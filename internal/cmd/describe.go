package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/sbat/internal/report"
)

// NewDescribeCommand creates the 'sbat describe' command
func NewDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <config>",
		Short: "Summarise the enabled analysis stages",
		Long: `Print a Markdown summary of a configuration: the analysis period,
the enabled stages in run order with their parameters, and the input and
output locations. With --html the summary is rendered to HTML.`,
		Args: cobra.ExactArgs(1),
		RunE: runDescribe,
	}

	cmd.Flags().Bool("html", false, "Render the summary as HTML")

	return cmd
}

func runDescribe(cmd *cobra.Command, args []string) error {
	asHTML, _ := cmd.Flags().GetBool("html")

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !asHTML {
		fmt.Fprint(out, report.Markdown(cfg))
		return nil
	}
	html, err := report.HTML(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(out, html)
	return nil
}
