package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/gasync/internal/syncer"
)

var listCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "Show a project's metadata and local files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List registered projects",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

var cloneCmd = &cobra.Command{
	Use:   "clone <project>",
	Short: "Register a project and pull it when a script ID is given",
	Args:  cobra.ExactArgs(1),
	RunE:  runClone,
}

var newCmd = &cobra.Command{
	Use:   "new <project>",
	Short: "Scaffold a new local project",
	Long:  "Create <projectsPath>/<project> with system/ and files/ folders, copy key.json and templates/appsscript.json when present, and register the project without a script ID.",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

var setIDCmd = &cobra.Command{
	Use:   "set-id <project> <script-id>",
	Short: "Assign the Apps Script ID of a registered project",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetID,
}

func init() {
	cloneCmd.Flags().String("id", "", "Apps Script ID of the project")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(setIDCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.syncer().Describe(projectArg(args))
	if err != nil {
		return err
	}
	printDescription(a, d)
	return nil
}

func printDescription(a *app, d syncer.Description) {
	id := d.Project.ID
	if id == "" {
		id = "(not set)"
	}
	a.printer.Header("project " + d.Project.Name)
	a.printer.Fields([][2]string{
		{"title", d.Project.Title},
		{"description", d.Project.Description},
		{"id", id},
		{"directory", d.Dir},
	})
	if !d.DirExists {
		a.printer.Warn("project directory does not exist")
		return
	}
	a.printer.List(d.Files, "(no project files)")
}

func runProjects(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	names := a.projects.Names()
	rows := make([]string, 0, len(names))
	for _, name := range names {
		p, _ := a.projects.Lookup(name)
		row := name
		if name == a.system.DefaultProject {
			row += " (default)"
		}
		if p.ID == "" {
			row += " - no script ID"
		}
		rows = append(rows, row)
	}
	a.printer.Header(fmt.Sprintf("%d project(s)", len(names)))
	a.printer.List(rows, "(no projects registered)")
	return nil
}

func runClone(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	name := args[0]
	id, _ := cmd.Flags().GetString("id")
	s := a.syncer()

	added, err := s.Register(name, id)
	if err != nil {
		return a.record("Clone failed", err)
	}
	if added {
		a.printer.Success("registered %s", name)
	} else {
		a.printer.Info("%s is already registered", name)
		if id != "" {
			if err := s.SetID(name, id); err != nil {
				return a.record("Clone failed", err)
			}
		}
	}

	if id == "" {
		a.printer.Info("no script ID yet; run `gasync set-id %s <id>` then `gasync pull %s`", name, name)
		return nil
	}
	res, err := s.Pull(cmd.Context(), name)
	if err != nil {
		return a.record("Clone failed", err)
	}
	a.printer.Success("pulled %d files into %s", len(res.Written), res.Dir)
	return nil
}

func runNew(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.syncer().Create(args[0], syncer.ScaffoldOptions{
		KeyFile:      a.settings.Path(a.settings.KeyFile),
		TemplatesDir: a.settings.Path(a.settings.TemplatesDir),
	})
	if err != nil {
		return a.record("New project failed", err)
	}
	a.printer.Success("created %s", res.Dir)
	if !res.KeyCopied {
		a.printer.Warn("key.json not copied; add it to %s/system if needed", res.Dir)
	}
	if !res.TemplateCopied {
		a.printer.Warn("appsscript.json template not copied")
	}
	if !res.Registered {
		a.printer.Info("%s was already registered", args[0])
	}
	return nil
}

func runSetID(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.syncer().SetID(args[0], args[1]); err != nil {
		return a.record("Set ID failed", err)
	}
	a.printer.Success("%s now uses script %s", args[0], args[1])
	return nil
}
