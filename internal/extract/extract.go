// Package extract pulls embedded JSON data out of an HTML artifact and
// writes each item to its own file.
//
// Two independent strategies exist. HeaderPairs pairs <h2> titles with JSON
// paragraphs by position. ScriptBlocks scans <script> bodies for JSON or
// simple key/value lines. Neither touches the source document.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/papapumpkin/gasync/internal/logging"
)

// Strategy names an extraction algorithm.
type Strategy string

const (
	// Headers pairs <h2> titles with JSON paragraphs.
	Headers Strategy = "headers"
	// Scripts scans <script> blocks.
	Scripts Strategy = "scripts"
)

// MinScriptLength is the shortest script body considered for extraction.
const MinScriptLength = 10

// titleFields are consulted in order when naming a JSON script block.
var titleFields = []string{"title", "name", "id", "type", "category"}

var (
	keyValueLine = regexp.MustCompile(`^(\w+)\s*[:=]\s*(.+)$`)
	codePrefix   = regexp.MustCompile(`^(?:/\*[\s\S]*?\*/|function\s*\(|var\s+\w+\s*=|const\s+\w+\s*=|let\s+\w+\s*=)`)
	lineComment  = regexp.MustCompile(`(?m)^//`)
)

// Item is one extracted record.
type Item struct {
	Title string
	Data  any
}

// Extractor runs the strategies and reports skipped blocks as warnings.
type Extractor struct {
	logger *zap.Logger
}

// New returns an Extractor logging to logger.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{logger: logger}
}

// Extract dispatches to the named strategy.
func (e *Extractor) Extract(doc string, s Strategy) ([]Item, error) {
	switch s {
	case Headers:
		return e.HeaderPairs(doc), nil
	case Scripts, "":
		return e.ScriptBlocks(doc), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", s)
	}
}

// HeaderPairs pairs the i-th <h2> title with the i-th paragraph that
// parsed as JSON, where each header contributes the first <p> following it.
// The result has min(headers, parsed paragraphs) items; pairing is by index,
// not by adjacency.
func (e *Extractor) HeaderPairs(doc string) []Item {
	blocks := scan(doc)

	var titles []string
	var values []any
	for i, b := range blocks {
		if b.tag != atom.H2 {
			continue
		}
		titles = append(titles, strings.TrimSpace(b.text))

		p, ok := nextParagraph(blocks[i+1:])
		if !ok {
			continue
		}
		v, err := decodeJSON(p)
		if err != nil {
			e.logger.Warn("Skipping paragraph that is not JSON",
				zap.String("header", strings.TrimSpace(b.text)), zap.Error(err))
			continue
		}
		values = append(values, v)
	}

	n := min(len(titles), len(values))
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, Item{Title: titles[i], Data: values[i]})
	}
	return items
}

// ScriptBlocks extracts every usable <script> body. JSON bodies are titled
// from their fields; other bodies fall back to key/value line pairing.
// Block indexes count every script element, including skipped ones.
func (e *Extractor) ScriptBlocks(doc string) []Item {
	var items []Item
	index := 0
	for _, b := range scan(doc) {
		if b.tag != atom.Script {
			continue
		}
		body := strings.TrimSpace(b.text)
		if isDataScript(body) {
			if item, ok := e.scriptItem(body, index); ok {
				items = append(items, item)
			}
		}
		index++
	}
	return items
}

func (e *Extractor) scriptItem(body string, index int) (Item, bool) {
	v, err := decodeJSON(body)
	if err == nil {
		title, ok := jsonTitle(v, body)
		if !ok {
			title = fmt.Sprintf("script_%d", index)
		}
		return Item{Title: title, Data: v}, true
	}

	pairs := keyValues(body)
	if len(pairs) == 0 {
		e.logger.Debug("Dropping script block without data", zap.Int("index", index))
		return Item{}, false
	}
	return Item{Title: fmt.Sprintf("extracted_data_%d", index), Data: pairs}, true
}

func isDataScript(body string) bool {
	if len(body) < MinScriptLength {
		return false
	}
	return !codePrefix.MatchString(body) && !lineComment.MatchString(body)
}

// jsonTitle picks the first non-empty string among titleFields, else
// "<key>_<value>" of the first non-empty string member of src in document
// order.
func jsonTitle(v any, src string) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for _, f := range titleFields {
		if s, ok := obj[f].(string); ok && s != "" {
			return s, true
		}
	}
	return firstStringMember(src)
}

// firstStringMember walks the members of the top-level object in src and
// returns the first one whose value is a non-empty string.
func firstStringMember(src string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(src))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", false
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return "", false
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return key + "_" + s, true
		}
	}
	return "", false
}

func keyValues(body string) map[string]any {
	out := map[string]any{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if m := keyValueLine.FindStringSubmatch(line); m != nil {
			out[m[1]] = strings.TrimSpace(m[2])
		}
	}
	return out
}

func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// block is the text content of one element of interest.
type block struct {
	tag  atom.Atom
	text string
}

func nextParagraph(rest []block) (string, bool) {
	for _, b := range rest {
		if b.tag == atom.P {
			return b.text, true
		}
	}
	return "", false
}

// scan tokenizes doc and returns the h2, p and script elements in document
// order with their concatenated text. A paragraph also ends at the next
// block-level start tag the scan tracks.
func scan(doc string) []block {
	z := html.NewTokenizer(strings.NewReader(doc))
	var out []block
	var cur *block
	var buf bytes.Buffer

	flush := func() {
		if cur != nil {
			cur.text = buf.String()
			out = append(out, *cur)
			cur = nil
			buf.Reset()
		}
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return out
		case html.StartTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.H2, atom.P, atom.Script:
				flush()
				cur = &block{tag: tok.DataAtom}
			}
		case html.EndTagToken:
			tok := z.Token()
			if cur != nil && tok.DataAtom == cur.tag {
				flush()
			}
		case html.TextToken:
			if cur != nil {
				buf.Write(z.Text())
			}
		}
	}
}
