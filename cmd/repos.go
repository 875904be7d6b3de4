package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/gasync/internal/git"
	"github.com/papapumpkin/gasync/internal/ui"
)

const (
	defaultUpstreamURL = "https://github.com/GTFB/gas-boilerplate.git"
	upstreamRemote     = "upstream"
	originRemote       = "origin"
	upstreamBranch     = "main"
)

var setupReposCmd = &cobra.Command{
	Use:   "setup-repos [url]",
	Short: "Point upstream at the boilerplate and origin at your repository",
	Long: `Add the upstream remote (upstream_url, defaulting to gas-boilerplate) when
missing. When a URL is given, origin is replaced with it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetupRepos,
}

var testReposCmd = &cobra.Command{
	Use:   "test-repos",
	Short: "Fetch upstream and origin to check that both are reachable",
	Args:  cobra.NoArgs,
	RunE:  runTestRepos,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether upstream has commits the current branch lacks",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Merge upstream main, stashing local changes around the pull",
	Args:  cobra.NoArgs,
	RunE:  runUpgrade,
}

func init() {
	rootCmd.AddCommand(setupReposCmd)
	rootCmd.AddCommand(testReposCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(upgradeCmd)
}

// repoApp loads a light app and the git runner for the root directory.
func repoApp(cmd *cobra.Command) (*app, *git.Runner, error) {
	a, err := newLightApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	r := git.New(a.settings.Root)
	if err := r.RequireRepo(cmd.Context()); err != nil {
		a.close()
		return nil, nil, err
	}
	return a, r, nil
}

func (a *app) upstreamURL() string {
	if a.settings.UpstreamURL != "" {
		return a.settings.UpstreamURL
	}
	return defaultUpstreamURL
}

func runSetupRepos(cmd *cobra.Command, args []string) error {
	a, r, err := repoApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	actions, err := setupRemotes(cmd.Context(), r, a.upstreamURL(), projectArg(args))
	for _, act := range actions {
		a.printer.Success("%s", act)
	}
	if err != nil {
		return a.record("Repository setup failed", err)
	}
	if len(args) == 0 {
		a.printer.Info("run gasync setup-repos <url> to point origin at your repository")
	}
	a.logger.Info("Repository setup completed")
	return nil
}

// setupRemotes adds upstream when missing and, when originURL is set,
// replaces origin. It returns a line per change made.
func setupRemotes(ctx context.Context, r *git.Runner, upstreamURL, originURL string) ([]string, error) {
	var actions []string

	has, err := r.HasRemote(ctx, upstreamRemote)
	if err != nil {
		return actions, err
	}
	if !has {
		if err := r.AddRemote(ctx, upstreamRemote, upstreamURL); err != nil {
			return actions, err
		}
		actions = append(actions, "added upstream "+upstreamURL)
	}

	if originURL == "" {
		return actions, nil
	}
	has, err = r.HasRemote(ctx, originRemote)
	if err != nil {
		return actions, err
	}
	if has {
		if err := r.RemoveRemote(ctx, originRemote); err != nil {
			return actions, err
		}
		actions = append(actions, "removed previous origin")
	}
	if err := r.AddRemote(ctx, originRemote, originURL); err != nil {
		return actions, err
	}
	return append(actions, "added origin "+originURL), nil
}

func runTestRepos(cmd *cobra.Command, _ []string) error {
	a, r, err := repoApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	failed := 0
	for _, remote := range []string{upstreamRemote, originRemote} {
		if err := r.Fetch(cmd.Context(), remote); err != nil {
			failed++
			a.printer.Step(ui.StatusFailed, remote, err.Error())
			continue
		}
		a.printer.Step(ui.StatusOK, remote, "reachable")
	}
	if failed > 0 {
		return a.record("Repository test failed", fmt.Errorf("%d remote(s) unreachable", failed))
	}
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, r, err := repoApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := r.Fetch(cmd.Context(), upstreamRemote); err != nil {
		return a.record("Update check failed", err)
	}
	behind, err := r.BehindCount(cmd.Context(), upstreamRemote+"/"+upstreamBranch)
	if err != nil {
		return a.record("Update check failed", err)
	}
	if behind == 0 {
		a.printer.Success("up to date with %s/%s", upstreamRemote, upstreamBranch)
		return nil
	}
	a.printer.Info("%d new commit(s) on %s/%s; run gasync upgrade", behind, upstreamRemote, upstreamBranch)
	return nil
}

func runUpgrade(cmd *cobra.Command, _ []string) error {
	a, r, err := repoApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	stashed, err := r.StashPush(ctx, "gasync upgrade")
	if err != nil {
		return a.record("Upgrade failed", err)
	}
	if err := r.Pull(ctx, upstreamRemote, upstreamBranch); err != nil {
		if stashed {
			a.printer.Warn("local changes are stashed; restore them with git stash pop")
		}
		return a.record("Upgrade failed", err)
	}
	if stashed {
		if err := r.StashPop(ctx); err != nil {
			return a.record("Upgrade failed", fmt.Errorf("restoring local changes: %w", err))
		}
	}
	a.logger.Info("Upgrade completed")
	a.printer.Success("merged %s/%s", upstreamRemote, upstreamBranch)
	return nil
}
