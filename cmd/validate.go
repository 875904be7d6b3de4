package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/gasync/internal/config"
	"github.com/papapumpkin/gasync/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check config.json, projects.json, key.json and project paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLightApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		keyOptional, _ := cmd.Flags().GetBool("key-optional")
		report := config.Validate(a.settings, !keyOptional)

		for _, w := range report.Warnings {
			a.printer.Warn("%s", w)
		}
		for _, e := range report.Errors {
			a.printer.Step(ui.StatusFailed, "invalid", e)
		}
		if !report.OK() {
			return a.record("Validation failed", fmt.Errorf("configuration has %d error(s)", len(report.Errors)))
		}
		a.printer.Success("configuration is valid (%d warning(s))", len(report.Warnings))
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("key-optional", false, "treat a missing key.json as a warning")
	rootCmd.AddCommand(validateCmd)
}
