package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/gasync/internal/config"
)

// settingsFileName is the settings file written by init.
const settingsFileName = ".gasync.toml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default settings, config.json and projects.json",
	Long: `Create .gasync.toml, config.json and projects.json with default values in
the root directory, plus the projects and logs folders. Existing files are
kept unless --force is given; projects.json is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	written, err := initWorkspace(s, force)
	printer := statusPrinter(cmd)
	for _, f := range written {
		printer.Success("wrote %s", f)
	}
	if err != nil {
		return err
	}
	if len(written) == 0 {
		printer.Info("nothing to do; use --force to overwrite")
	}
	return nil
}

// initWorkspace lays out a fresh root directory and returns the paths it
// wrote.
func initWorkspace(s config.Settings, force bool) ([]string, error) {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating root: %w", err)
	}

	var written []string
	shouldWrite := func(path string) bool {
		return force || !fileExists(path)
	}

	settingsPath := filepath.Join(s.Root, settingsFileName)
	if shouldWrite(settingsPath) {
		if err := config.WriteSettings(settingsPath, s); err != nil {
			return written, err
		}
		written = append(written, settingsPath)
	}

	sys := config.DefaultSystem()
	systemPath := s.Path(s.ConfigFile)
	if shouldWrite(systemPath) {
		if err := config.SaveSystem(systemPath, sys); err != nil {
			return written, err
		}
		written = append(written, systemPath)
	}

	// projects.json holds registrations; --force never wipes it.
	projectsPath := s.Path(s.ProjectsFile)
	if !fileExists(projectsPath) {
		store, err := config.OpenProjects(projectsPath)
		if err != nil {
			return written, err
		}
		if err := store.Save(); err != nil {
			return written, err
		}
		written = append(written, projectsPath)
	}

	resolved := sys.Within(s.Root)
	for _, dir := range []string{resolved.ProjectsPath, resolved.LogsPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return written, nil
}
