package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/gasync/internal/syncer"
	"github.com/papapumpkin/gasync/internal/ui"
)

var pullCmd = &cobra.Command{
	Use:   "pull [project]",
	Short: "Download a project's files from Apps Script",
	Long:  "Download every file of the project, overwriting local copies. Uses the default project when none is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPull,
}

var pushCmd = &cobra.Command{
	Use:   "push [project]",
	Short: "Upload a project's files to Apps Script",
	Long:  "Replace the remote project content with every recognized local file. Uses the default project when none is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPush,
}

var diffCmd = &cobra.Command{
	Use:   "diff [project]",
	Short: "Compare local files with the remote project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().Bool("stat", false, "only list changed files with line counts")

	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(diffCmd)
}

func projectArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func runPull(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.syncer().Pull(cmd.Context(), projectArg(args))
	if err != nil {
		return a.record("Pull failed", err)
	}
	a.printer.Success("pulled %s (%d files) into %s", res.Project.Name, len(res.Written), res.Dir)
	return nil
}

func runPush(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.syncer().Push(cmd.Context(), projectArg(args))
	if err != nil {
		return a.record("Push failed", err)
	}
	a.printer.Success("pushed %s (%d files)", res.Project.Name, len(res.Paths))
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	diffs, err := a.syncer().Diff(cmd.Context(), projectArg(args))
	if err != nil {
		return a.record("Diff failed", err)
	}
	stat, _ := cmd.Flags().GetBool("stat")
	changed := renderDiff(ui.New(cmd.OutOrStdout()), diffs, stat)
	if changed == 0 {
		a.printer.Success("local files match the remote project")
	} else {
		a.printer.Info("%d file(s) differ", changed)
	}
	return nil
}

// renderDiff prints every differing file and returns how many there were.
func renderDiff(out *ui.Printer, diffs []syncer.FileDiff, stat bool) int {
	changed := 0
	for _, d := range diffs {
		if d.Status == syncer.StatusSame {
			continue
		}
		changed++
		out.Header(fmt.Sprintf("%s (%s, +%d -%d)", d.Path, d.Status, d.Added, d.Removed))
		if stat {
			continue
		}
		for _, line := range d.Lines {
			if line == "" {
				continue
			}
			out.DiffLine(line[0], line[1:])
		}
	}
	return changed
}
