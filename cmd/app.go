package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/config"
	"github.com/papapumpkin/gasync/internal/logging"
	"github.com/papapumpkin/gasync/internal/remote"
	"github.com/papapumpkin/gasync/internal/syncer"
	"github.com/papapumpkin/gasync/internal/ui"
)

// app bundles what a command needs: settings, the loaded system config,
// the project store, a logger and a printer. Built once per command run.
type app struct {
	settings config.Settings
	system   config.System
	projects *config.ProjectStore
	logger   *zap.Logger
	printer  *ui.Printer
}

// loadSettings reads tool settings and applies the --verbose shortcut.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return config.Settings{}, err
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		s.LogLevel = "debug"
	}
	return s, nil
}

// newApp loads settings, config.json and projects.json. The daily log goes
// to the configured logs path.
func newApp(cmd *cobra.Command) (*app, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	sys, err := config.LoadSystem(s.Path(s.ConfigFile))
	if err != nil {
		return nil, err
	}
	sys = sys.Within(s.Root)

	projects, err := config.OpenProjects(s.Path(s.ProjectsFile))
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{Level: s.LogLevel, Dir: sys.LogsPath, Console: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}
	logger.Debug("Command started", zap.String("command", cmd.CommandPath()))

	return &app{
		settings: s,
		system:   sys,
		projects: projects,
		logger:   logger,
		printer:  statusPrinter(cmd),
	}, nil
}

// newLightApp is newApp for commands that work without config.json. The
// daily log is still written when config.json can be read.
func newLightApp(cmd *cobra.Command) (*app, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{settings: s, printer: statusPrinter(cmd)}
	logDir := ""
	if sys, err := config.LoadSystem(s.Path(s.ConfigFile)); err == nil {
		a.system = sys.Within(s.Root)
		logDir = a.system.LogsPath
	}

	a.logger, err = logging.New(logging.Options{Level: s.LogLevel, Dir: logDir, Console: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// statusPrinter writes human-readable status lines to standard output.
// Log lines and the final error stay on standard error.
func statusPrinter(cmd *cobra.Command) *ui.Printer {
	return ui.New(cmd.OutOrStdout())
}

// syncer wires the Apps Script client into a Syncer.
func (a *app) syncer() *syncer.Syncer {
	client := remote.New(remote.Options{
		KeyFile:  a.settings.Path(a.settings.KeyFile),
		Endpoint: a.settings.Endpoint,
		Timeout:  a.settings.Timeout,
		Logger:   a.logger,
	})
	return syncer.New(client, a.system, a.projects, a.logger)
}

// close flushes the logger. Sync errors on stderr are expected and ignored.
func (a *app) close() {
	_ = a.logger.Sync()
}

// record logs a failed action to the daily log and passes err through.
// The console line comes from Execute.
func (a *app) record(action string, err error) error {
	if err != nil {
		a.logger.Error(action, zap.Error(err))
	}
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
