// Package config loads everything gasync reads from disk before it talks to
// the network: tool settings from viper, the GAS-compatible config.json and
// projects.json files, and a validator that reports every problem at once.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Settings holds tool-level configuration for one gasync invocation.
// Values are populated from .gasync.toml, GASYNC_* env vars, and CLI flags.
// Relative file paths are resolved against Root.
type Settings struct {
	Root          string        `mapstructure:"root"`
	ConfigFile    string        `mapstructure:"config_file"`
	ProjectsFile  string        `mapstructure:"projects_file"`
	KeyFile       string        `mapstructure:"key_file"`
	TemplatesDir  string        `mapstructure:"templates_dir"`
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LogLevel      string        `mapstructure:"log_level"`
	UpstreamURL   string        `mapstructure:"upstream_url"`
	PackageFile   string        `mapstructure:"package_file"`
	ChangelogFile string        `mapstructure:"changelog_file"`
	ReadmeFile    string        `mapstructure:"readme_file"`
}

// Default returns the built-in settings used when nothing overrides them.
func Default() Settings {
	return Settings{
		Root:          ".",
		ConfigFile:    "config.json",
		ProjectsFile:  "projects.json",
		KeyFile:       "key.json",
		TemplatesDir:  "templates",
		Timeout:       60 * time.Second,
		LogLevel:      "warn",
		PackageFile:   "package.json",
		ChangelogFile: "CHANGELOG.md",
		ReadmeFile:    "README.md",
	}
}

// Load reads settings from viper, applying built-in defaults for any values
// not set by config file, environment, or flags.
func Load() (Settings, error) {
	d := Default()
	viper.SetDefault("root", d.Root)
	viper.SetDefault("config_file", d.ConfigFile)
	viper.SetDefault("projects_file", d.ProjectsFile)
	viper.SetDefault("key_file", d.KeyFile)
	viper.SetDefault("templates_dir", d.TemplatesDir)
	viper.SetDefault("endpoint", d.Endpoint)
	viper.SetDefault("timeout", d.Timeout)
	viper.SetDefault("log_level", d.LogLevel)
	viper.SetDefault("upstream_url", d.UpstreamURL)
	viper.SetDefault("package_file", d.PackageFile)
	viper.SetDefault("changelog_file", d.ChangelogFile)
	viper.SetDefault("readme_file", d.ReadmeFile)

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// Path resolves p against Root unless it is already absolute.
func (s Settings) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Root, p)
}

// settingsFile is the on-disk TOML shape of Settings. Durations are stored
// in their string form so the file stays hand-editable.
type settingsFile struct {
	Root          string `toml:"root"`
	ConfigFile    string `toml:"config_file"`
	ProjectsFile  string `toml:"projects_file"`
	KeyFile       string `toml:"key_file"`
	TemplatesDir  string `toml:"templates_dir"`
	Endpoint      string `toml:"endpoint,omitempty"`
	Timeout       string `toml:"timeout"`
	LogLevel      string `toml:"log_level"`
	UpstreamURL   string `toml:"upstream_url,omitempty"`
	PackageFile   string `toml:"package_file"`
	ChangelogFile string `toml:"changelog_file"`
	ReadmeFile    string `toml:"readme_file"`
}

// WriteSettings encodes s as TOML at path, replacing any existing file.
func WriteSettings(path string, s Settings) error {
	data, err := toml.Marshal(settingsFile{
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
	})
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
