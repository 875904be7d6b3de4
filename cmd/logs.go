package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/gasync/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the daily activity log",
	Long: `Render entries from the markdown daily log. Defaults to today's file and the
last 20 entries. --raw prints the file verbatim without terminal styling.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().String("day", "", "day to show as YYYY-MM-DD (default today)")
	logsCmd.Flags().Int("limit", 20, "maximum number of entries; 0 shows all")
	logsCmd.Flags().Bool("raw", false, "print the markdown file as-is")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	day, _ := cmd.Flags().GetString("day")
	if day == "" {
		day = logging.Today(time.Now())
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return fmt.Errorf("invalid --day %q: want YYYY-MM-DD", day)
	}
	raw, _ := cmd.Flags().GetBool("raw")
	limit, _ := cmd.Flags().GetInt("limit")

	out := cmd.OutOrStdout()
	if raw {
		text, err := logging.ReadRaw(a.system.LogsPath, day)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, text)
		return err
	}

	entries, err := logging.ReadEntries(a.system.LogsPath, day, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.printer.Info("no log entries for %s", day)
		return nil
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	rendered, err := r.Render(entriesMarkdown(day, entries))
	if err != nil {
		return fmt.Errorf("rendering log: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

// entriesMarkdown rebuilds a compact markdown document from parsed entries.
func entriesMarkdown(day string, entries []logging.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Log - %s\n\n", day)
	for _, e := range entries {
		fmt.Fprintf(&b, "### %s %s\n\n*%s*\n\n", e.Emoji, e.Action, e.Timestamp)
		if e.Details != "" {
			for _, line := range strings.Split(e.Details, "\n") {
				fmt.Fprintf(&b, "- %s\n", line)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
