package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/gasync/internal/git"
	"github.com/papapumpkin/gasync/internal/release"
	"github.com/papapumpkin/gasync/internal/ui"
)

var releaseCmd = &cobra.Command{
	Use:   "release [major|minor|patch|preview]",
	Short: "Bump the version, update the changelog, commit, tag and push",
	Long: `Create a release in the root repository. The version in package.json is
bumped (patch by default), a changelog section and the README badge are
updated, then the change is committed, tagged and pushed to origin.

Steps that already happened are skipped, so an interrupted release can be
re-run. --dry-run only prints the planned version.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().Bool("dry-run", false, "print the planned version without changing anything")
	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	a, err := newLightApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	t := release.Patch
	if len(args) > 0 {
		if !release.ValidType(args[0]) {
			a.printer.Warn("unknown release type %q, using patch", args[0])
		}
		t = release.ParseType(args[0])
	}

	repo := git.New(a.settings.Root)
	if err := repo.RequireRepo(cmd.Context()); err != nil {
		return err
	}
	p := release.NewPipeline(repo, release.Files{
		Dir:       a.settings.Root,
		Package:   a.settings.PackageFile,
		Changelog: a.settings.ChangelogFile,
		Readme:    a.settings.ReadmeFile,
	}, a.logger)

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		st, err := p.Plan(cmd.Context(), t)
		if err != nil {
			return err
		}
		printPlan(a.printer, st)
		return nil
	}

	res, err := p.Run(cmd.Context(), t)
	if res.State.Next != "" {
		printPlan(a.printer, res.State)
	}
	for _, s := range res.Steps {
		a.printer.Step(stepStatus(s.Outcome), s.Name, s.Detail)
	}
	if err != nil {
		return err
	}
	a.printer.Success("released %s", res.State.Tag())
	return nil
}

func printPlan(p *ui.Printer, st release.State) {
	note := ""
	switch {
	case st.Resumed:
		note = "resuming interrupted release"
	case st.Adopted:
		note = "adopted from changelog"
	}
	fields := [][2]string{
		{"current", st.Current},
		{"next", st.Next},
		{"type", string(st.Type)},
		{"tag", st.Tag()},
	}
	if note != "" {
		fields = append(fields, [2]string{"note", note})
	}
	p.Header("Release plan")
	p.Fields(fields)
}

func stepStatus(o release.Outcome) ui.Status {
	switch o {
	case release.Done:
		return ui.StatusOK
	case release.Skipped:
		return ui.StatusSkipped
	case release.Warned:
		return ui.StatusWarn
	default:
		return ui.StatusFailed
	}
}
