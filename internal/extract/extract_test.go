package extract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Extractor, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New(zap.New(core)), logs
}

func TestHeaderPairs_PositionalPairing(t *testing.T) {
	t.Parallel()
	doc := `<html><body>
<h2>First</h2><p>{"a": 1}</p>
<h2>Second</h2><p>not json at all</p>
<h2>Third</h2><p>{"c": "three"}</p>
</body></html>`

	e, logs := observed()
	items := e.HeaderPairs(doc)

	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, map[string]any{"a": json.Number("1")}, items[0].Data)
	// The second header takes the second parsed paragraph, which followed
	// the third header.
	assert.Equal(t, "Second", items[1].Title)
	assert.Equal(t, map[string]any{"c": "three"}, items[1].Data)

	assert.Equal(t, 1, logs.FilterMessage("Skipping paragraph that is not JSON").Len())
}

func TestHeaderPairs_EntitiesAndNestedMarkup(t *testing.T) {
	t.Parallel()
	doc := `<h2><span>Leads</span> Report</h2>
<div><p>{&quot;rows&quot;: [1, 2]}</p></div>`

	e, _ := observed()
	items := e.HeaderPairs(doc)
	require.Len(t, items, 1)
	assert.Equal(t, "Leads Report", items[0].Title)
	assert.Equal(t, map[string]any{"rows": []any{json.Number("1"), json.Number("2")}}, items[0].Data)
}

func TestHeaderPairs_MoreJSONThanHeaders(t *testing.T) {
	t.Parallel()
	e, _ := observed()
	items := e.HeaderPairs(`<p>{"orphan": true}</p><h2>Only</h2><p>[1]</p><p>{"x": 1}</p>`)
	require.Len(t, items, 1)
	assert.Equal(t, "Only", items[0].Title)
	assert.Equal(t, []any{json.Number("1")}, items[0].Data)
}

func TestScriptBlocks(t *testing.T) {
	t.Parallel()
	doc := `
<script>{"title": "Pricing", "tiers": 3}</script>
<script>var x = 1; console.log(x);</script>
<script>{"zeta": "last", "alpha": "first", "n": 2}</script>
<script>[1, 2, 3, 4, 5]</script>
<script>
owner: Jane Doe
region = EMEA
</script>
<script>short</script>
<script>// just a comment here
{"title": "hidden"}</script>
<script>this block is only prose</script>
`
	e, _ := observed()
	items := e.ScriptBlocks(doc)

	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"Pricing", "zeta_last", "script_3", "extracted_data_4"}, titles)
	assert.Equal(t, map[string]any{"owner": "Jane Doe", "region": "EMEA"}, items[3].Data)
}

func TestScriptBlocks_FallbackTitleFollowsSourceOrder(t *testing.T) {
	t.Parallel()
	e, _ := observed()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "first member wins", body: `{"zeta": "first", "alpha": "second"}`, want: "zeta_first"},
		{name: "skips non-strings", body: `{"n": 1, "nested": {"a": "b"}, "kind": "report"}`, want: "kind_report"},
		{name: "skips empty strings", body: `{"empty": "", "later": "value"}`, want: "later_value"},
		{name: "title field beats order", body: `{"zeta": "first", "name": "Named"}`, want: "Named"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := e.ScriptBlocks("<script>" + tt.body + "</script>")
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Title)
		})
	}
}

func TestExtract_UnknownStrategy(t *testing.T) {
	t.Parallel()
	e, _ := observed()
	_, err := e.Extract("", Strategy("xpath"))
	require.Error(t, err)

	items, err := e.Extract(`<h2>A</h2><p>{}</p>`, Headers)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "q3_sales_report", SanitizeName("Q3 Sales/Report"))
	assert.Equal(t, "caf_", SanitizeName("Café"))
	assert.Equal(t, "alpha_first", SanitizeName("alpha_first"))
}

func TestSave(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "files")
	e, _ := observed()
	items := []Item{
		{Title: "Pricing Table", Data: map[string]any{"tiers": 3}},
		{Title: "pricing table", Data: map[string]any{"tiers": 4}},
		{Title: "???", Data: []any{"x"}},
	}

	saved, err := e.Save(items, dir, SaveOptions{CSV: true, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"pricing_table.json",
		"pricing_table_2.json",
		"item_2.json",
		AggregateJSON,
		AggregateCSV,
	}, saved.Files)
	assert.Empty(t, saved.Failed)

	data, err := os.ReadFile(filepath.Join(dir, "pricing_table.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"tiers\": 3\n}\n", string(data))

	csvData, err := os.ReadFile(filepath.Join(dir, AggregateCSV))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Title,JSON Data", lines[0])
	assert.Equal(t, `Pricing Table,"{""tiers"":3}"`, lines[1])

	var agg []map[string]any
	raw, err := os.ReadFile(filepath.Join(dir, AggregateJSON))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &agg))
	require.Len(t, agg, 3)
	assert.Equal(t, "???", agg[2]["title"])
}
