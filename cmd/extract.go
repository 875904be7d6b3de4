package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/extract"
	"github.com/papapumpkin/gasync/internal/logging"
)

const (
	extractSource = "files.html"
	extractOutDir = "files"
)

var extractCmd = &cobra.Command{
	Use:   "extract <project>",
	Short: "Extract embedded JSON data from a project's files.html",
	Long: `Read <project>/files.html and write every embedded data item to
<project>/files/<name>.json. The source file is never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("strategy", string(extract.Scripts), "extraction strategy: headers or scripts")
	extractCmd.Flags().String("input", "", "HTML file to read instead of <project>/files.html")
	extractCmd.Flags().Bool("csv", false, "also write "+extract.AggregateCSV)
	extractCmd.Flags().Bool("json", false, "also write "+extract.AggregateJSON)
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	dir, err := a.system.LocalProjectDir(args[0])
	if err != nil {
		return a.record("Extraction failed", err)
	}
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		input = filepath.Join(dir, extractSource)
	}
	strategy, _ := cmd.Flags().GetString("strategy")
	opts := extract.SaveOptions{}
	opts.CSV, _ = cmd.Flags().GetBool("csv")
	opts.JSON, _ = cmd.Flags().GetBool("json")

	saved, err := runExtraction(a.logger, input, filepath.Join(dir, extractOutDir), extract.Strategy(strategy), opts)
	if err != nil {
		return a.record("Extraction failed", err)
	}
	for _, f := range saved.Failed {
		a.printer.Warn("could not write %s", f)
	}
	if len(saved.Files) == 0 {
		a.printer.Warn("no data found in %s", input)
		return nil
	}
	a.printer.Success("extracted %d file(s) into %s", len(saved.Files), filepath.Join(dir, extractOutDir))
	return nil
}

// runExtraction reads input, runs the strategy and saves the items to out.
func runExtraction(logger *zap.Logger, input, out string, s extract.Strategy, opts extract.SaveOptions) (extract.Saved, error) {
	doc, err := os.ReadFile(input)
	if errors.Is(err, os.ErrNotExist) {
		return extract.Saved{}, fmt.Errorf("%s not found", input)
	}
	if err != nil {
		return extract.Saved{}, fmt.Errorf("reading %s: %w", input, err)
	}

	e := extract.New(logger)
	items, err := e.Extract(string(doc), s)
	if err != nil {
		return extract.Saved{}, err
	}
	logger.Info("Extraction completed",
		zap.String(logging.DetailsKey, fmt.Sprintf("%d item(s) from %s", len(items), input)),
		zap.String("strategy", string(s)))
	if len(items) == 0 {
		return extract.Saved{}, nil
	}
	return e.Save(items, out, opts)
}
