package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/gasync/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "gasync",
	Short: "Sync local files with Google Apps Script projects",
	Long: `gasync pulls and pushes Google Apps Script project files through the Apps
Script API, and bundles the housekeeping around them: project registry,
config validation, release tagging, HTML data extraction and daily logs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with a context cancelled on SIGINT or
// SIGTERM and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.New(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "settings file (default .gasync.toml)")
	rootCmd.PersistentFlags().String("root", "", "directory holding config.json and projects.json")
	rootCmd.PersistentFlags().String("log-level", "", "console log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (same as --log-level=debug)")

	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".gasync")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("GASYNC")
	viper.AutomaticEnv()

	// A missing settings file is fine; defaults apply.
	_ = viper.ReadInConfig()
}
