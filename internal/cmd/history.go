package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/sbat/internal/history"
)

// NewHistoryCommand creates the 'sbat history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs",
		Long: `List validation runs recorded by 'sbat validate', newest first.
Use --config to restrict the list to one configuration file and --verbose
to print the issues of each run.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs (0 = all)")
	cmd.Flags().String("config", "", "Only list runs of this configuration file")
	cmd.Flags().BoolP("verbose", "v", false, "Print the issues of each run")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	dbPath, err := s.HistoryDBPath()
	if err != nil {
		return fmt.Errorf("failed to get history database path: %w", err)
	}

	// Opening would create an empty database.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No validation runs recorded yet.")
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var runs []*history.Run
	if configPath != "" {
		runs, err = store.ListForConfig(ctx, configPath, limit)
	} else {
		runs, err = store.List(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No validation runs recorded yet.")
		return nil
	}
	printRuns(out, runs, verbose, newPalette(cmd, s))
	return nil
}

func printRuns(w io.Writer, runs []*history.Run, verbose bool, colors palette) {
	for _, run := range runs {
		status := colors.ok("✓ valid  ")
		if !run.Valid {
			status = colors.fail("✗ invalid")
		}
		fmt.Fprintf(w, "%s  %s  %d error(s), %d warning(s)  %s\n",
			colors.muted(run.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			status, run.ErrorCount, run.WarningCount, run.ConfigPath)

		if !verbose {
			continue
		}
		fmt.Fprintf(w, "    run %s, sha256 %s\n", run.RunID, shortSHA(run.ConfigSHA256))
		for _, issue := range run.Issues {
			loc := issue.Path
			if issue.Line > 0 {
				loc = fmt.Sprintf("line %d: %s", issue.Line, issue.Path)
			}
			fmt.Fprintf(w, "    - [%s] %s: %s\n", issue.Kind, loc, issue.Message)
		}
	}
}

func shortSHA(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
