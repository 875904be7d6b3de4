package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/gasync/internal/config"
	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective settings, config.json and registered projects",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().String("format", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(configCmd)
}

// configView is the serialized form printed by the config command.
type configView struct {
	Settings settingsView           `json:"settings" yaml:"settings"`
	System   config.System          `json:"system" yaml:"system"`
	Projects map[string]projectView `json:"projects" yaml:"projects"`
}

type settingsView struct {
	Root          string `json:"root" yaml:"root"`
	ConfigFile    string `json:"config_file" yaml:"config_file"`
	ProjectsFile  string `json:"projects_file" yaml:"projects_file"`
	KeyFile       string `json:"key_file" yaml:"key_file"`
	TemplatesDir  string `json:"templates_dir" yaml:"templates_dir"`
	Endpoint      string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Timeout       string `json:"timeout" yaml:"timeout"`
	LogLevel      string `json:"log_level" yaml:"log_level"`
	UpstreamURL   string `json:"upstream_url,omitempty" yaml:"upstream_url,omitempty"`
	PackageFile   string `json:"package_file" yaml:"package_file"`
	ChangelogFile string `json:"changelog_file" yaml:"changelog_file"`
	ReadmeFile    string `json:"readme_file" yaml:"readme_file"`
}

type projectView struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

func newConfigView(s config.Settings, sys config.System, projects map[string]gas.Project) configView {
	v := configView{
		Settings: settingsView{
			Root:          s.Root,
			ConfigFile:    s.ConfigFile,
			ProjectsFile:  s.ProjectsFile,
			KeyFile:       s.KeyFile,
			TemplatesDir:  s.TemplatesDir,
			Endpoint:      s.Endpoint,
			Timeout:       s.Timeout.String(),
			LogLevel:      s.LogLevel,
			UpstreamURL:   s.UpstreamURL,
			PackageFile:   s.PackageFile,
			ChangelogFile: s.ChangelogFile,
			ReadmeFile:    s.ReadmeFile,
		},
		System:   sys,
		Projects: make(map[string]projectView, len(projects)),
	}
	for name, p := range projects {
		v.Projects[name] = projectView{ID: p.ID, Title: p.Title, Description: p.Description}
	}
	return v
}

func runConfig(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	projects := make(map[string]gas.Project, a.projects.Len())
	for _, name := range a.projects.Names() {
		projects[name], _ = a.projects.Lookup(name)
	}
	format, _ := cmd.Flags().GetString("format")
	return writeConfig(cmd.OutOrStdout(), format, newConfigView(a.settings, a.system, projects))
}

// writeConfig renders v in the requested format.
func writeConfig(w io.Writer, format string, v configView) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		p := ui.New(w)
		s := v.Settings
		p.Header("settings")
		p.Fields([][2]string{
			{"root", s.Root},
			{"config file", s.ConfigFile},
			{"projects file", s.ProjectsFile},
			{"key file", s.KeyFile},
			{"timeout", s.Timeout},
			{"log level", s.LogLevel},
		})
		p.Header("system")
		p.Fields([][2]string{
			{"default project", v.System.DefaultProject},
			{"projects path", v.System.ProjectsPath},
			{"system path", v.System.SystemPath},
			{"logs path", v.System.LogsPath},
		})
		p.Header("projects")
		names := make([]string, 0, len(v.Projects))
		for name := range v.Projects {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([]string, 0, len(names))
		for _, name := range names {
			pv := v.Projects[name]
			id := pv.ID
			if id == "" {
				id = "(no script ID)"
			}
			rows = append(rows, fmt.Sprintf("%s: %s", name, id))
		}
		p.List(rows, "(none)")
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
