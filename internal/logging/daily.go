package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// DetailsKey is the field rendered as the details line of a markdown entry.
const DetailsKey = "details"

const (
	dayLayout       = "2006-01-02"
	timestampLayout = "01/02/2006, 15:04:05"
	entrySeparator  = "---"
)

var levelEmoji = map[zapcore.Level]string{
	zapcore.DebugLevel: "🔍",
	zapcore.InfoLevel:  "ℹ️",
	zapcore.WarnLevel:  "⚠️",
	zapcore.ErrorLevel: "❌",
}

// DailyCore is a zapcore.Core appending markdown entries to
// <dir>/<YYYY-MM-DD>.md. The entry message is the action; the details field
// and any other fields become the details block.
type DailyCore struct {
	zapcore.LevelEnabler

	dir    string
	fields []zapcore.Field
	mu     *sync.Mutex
}

// NewDailyCore returns a core writing into dir for entries enabled by enab.
// The directory is created on first write.
func NewDailyCore(dir string, enab zapcore.LevelEnabler) *DailyCore {
	return &DailyCore{
		LevelEnabler: enab,
		dir:          dir,
		mu:           &sync.Mutex{},
	}
}

// FileName returns the log file name for the given day.
func FileName(day string) string {
	return day + ".md"
}

// With returns a copy of the core carrying additional fields.
func (c *DailyCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

// Check adds the core to ce when the entry level is enabled.
func (c *DailyCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write appends one entry, creating the day's file with its header first.
func (c *DailyCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	day := ent.Time.Format(dayLayout)
	path := filepath.Join(c.dir, FileName(day))
	entry := formatEntry(ent, c.details(fields))

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() == 0 {
		entry = "# Daily Log - " + day + "\n\n" + entry
	}

	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}
	return nil
}

// Sync is a no-op; every Write closes its file.
func (c *DailyCore) Sync() error {
	return nil
}

// details renders the details field first, then every other field as
// "key: value" in key order.
func (c *DailyCore) details(fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var lines []string
	if d, ok := enc.Fields[DetailsKey]; ok {
		lines = append(lines, fmt.Sprint(d))
		delete(enc.Fields, DetailsKey)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, enc.Fields[k]))
	}
	return strings.Join(lines, "\n")
}

func formatEntry(ent zapcore.Entry, details string) string {
	emoji, ok := levelEmoji[ent.Level]
	if !ok {
		emoji = levelEmoji[zapcore.ErrorLevel]
	}
	return fmt.Sprintf("## %s\n\n**%s %s**\n%s\n\n%s\n\n",
		ent.Time.Format(timestampLayout), emoji, ent.Message, escapeSeparators(details), entrySeparator)
}

// escapeSeparators prefixes a backslash to every details line that would
// read back as an entry separator, including lines already escaped this way.
// Markdown renders "\---" as a literal "---".
func escapeSeparators(details string) string {
	lines := strings.Split(details, "\n")
	for i, line := range lines {
		if isSeparatorLine(line) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

func isSeparatorLine(line string) bool {
	return strings.TrimLeft(line, `\`) == entrySeparator
}
