package extract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/logging"
)

// Aggregate file names written next to the per-item files.
const (
	AggregateCSV  = "extracted_data.csv"
	AggregateJSON = "extracted_data.json"
)

// SaveOptions selects the optional aggregate outputs.
type SaveOptions struct {
	CSV  bool
	JSON bool
}

// Saved lists the files written by Save, relative to its directory.
type Saved struct {
	Files  []string
	Failed []string
}

// SanitizeName lowercases name and replaces every rune that is not a
// letter or digit with an underscore.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return '_'
	}, name)
}

// Save writes one pretty-printed JSON file per item into dir, creating it
// when needed. Name collisions get a numeric suffix. A failure to write one
// item is logged and does not stop the others.
func (e *Extractor) Save(items []Item, dir string, opts SaveOptions) (Saved, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("creating output directory: %w", err)
	}

	var saved Saved
	used := map[string]int{}
	for i, item := range items {
		base := SanitizeName(item.Title)
		if strings.Trim(base, "_") == "" {
			base = "item_" + strconv.Itoa(i)
		}
		used[base]++
		if n := used[base]; n > 1 {
			base += "_" + strconv.Itoa(n)
		}
		name := base + ".json"

		if err := writeJSON(filepath.Join(dir, name), item.Data); err != nil {
			e.logger.Warn("Failed to save extracted item", zap.String("file", name), zap.Error(err))
			saved.Failed = append(saved.Failed, name)
			continue
		}
		saved.Files = append(saved.Files, name)
	}

	if opts.JSON {
		if err := writeJSON(filepath.Join(dir, AggregateJSON), aggregate(items)); err != nil {
			return saved, fmt.Errorf("writing %s: %w", AggregateJSON, err)
		}
		saved.Files = append(saved.Files, AggregateJSON)
	}
	if opts.CSV {
		if err := writeCSV(filepath.Join(dir, AggregateCSV), items); err != nil {
			return saved, fmt.Errorf("writing %s: %w", AggregateCSV, err)
		}
		saved.Files = append(saved.Files, AggregateCSV)
	}

	e.logger.Info("Extraction saved",
		zap.String(logging.DetailsKey, fmt.Sprintf("%d files in %s", len(saved.Files), dir)))
	return saved, nil
}

type record struct {
	Title string `json:"title"`
	Data  any    `json:"data"`
}

func aggregate(items []Item) []record {
	out := make([]record, 0, len(items))
	for _, it := range items {
		out = append(out, record{Title: it.Title, Data: it.Data})
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// writeCSV writes a "Title,JSON Data" table with the data column as compact JSON.
func writeCSV(path string, items []Item) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Title", "JSON Data"}); err != nil {
		return err
	}
	for _, it := range items {
		data, err := json.Marshal(it.Data)
		if err != nil {
			return err
		}
		if err := w.Write([]string{it.Title, string(data)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
