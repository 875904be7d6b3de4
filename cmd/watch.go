package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [project]",
	Short: "Push a project every time its files change",
	Long: `Watch the project directory and push after each burst of changes. Pushes
whose content matches the previous push are skipped. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before pushing")
	watchCmd.Flags().Duration("dedup-window", watch.DefaultDedupWindow, "how long an identical push is suppressed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	s := a.syncer()
	p, err := s.Resolve(projectArg(args))
	if err != nil {
		return a.record("Watch failed", err)
	}
	if !p.Configured() {
		return a.record("Watch failed", &gas.ProjectError{Project: p.Name, Err: gas.ErrMissingScriptID})
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	window, _ := cmd.Flags().GetDuration("dedup-window")

	w, err := watch.NewWatcher(s.ProjectDir(p.Name), debounce, a.logger)
	if err != nil {
		return a.record("Watch failed", err)
	}
	defer w.Close()

	pusher := watch.NewAutoPusher(s, p.Name, window, a.logger)
	pusher.Notify = func(pushed bool, err error) {
		switch {
		case err != nil:
			a.printer.Warn("push failed: %v", err)
		case pushed:
			a.printer.Success("pushed %s", p.Name)
		}
	}

	a.logger.Info("Watch started", zap.String("project", p.Name), zap.String("dir", w.Dir))
	a.printer.Info("watching %s (Ctrl-C to stop)", w.Dir)
	if err := w.Run(cmd.Context(), pusher.Handle); err != nil {
		return a.record("Watch failed", err)
	}
	a.logger.Info("Watch stopped", zap.String("project", p.Name))
	return nil
}
