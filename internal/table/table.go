package table

import (
	"strings"

	"github.com/atikulmunna/logscope/internal/model"
)

// Table is the read-only log dataset. It is built once and shared by every
// request without locking; no method mutates it.
type Table struct {
	entries []model.LogEntry
	source  string
}

// New wraps entries in a Table. The slice is copied.
func New(entries []model.LogEntry) *Table {
	cp := make([]model.LogEntry, len(entries))
	copy(cp, entries)
	return &Table{entries: cp}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.entries)
}

// Source returns the path the table was loaded from, if any.
func (t *Table) Source() string {
	return t.source
}

// Entries returns a copy of the rows.
func (t *Table) Entries() []model.LogEntry {
	cp := make([]model.LogEntry, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// Records returns every row keyed by column name, missing cells as nil.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Record()
	}
	return out
}

// Search returns the rows whose message contains keyword, ignoring case.
// The keyword is a literal; an empty keyword matches every row.
func (t *Table) Search(keyword string) *Table {
	needle := strings.ToLower(keyword)
	var hits []model.LogEntry
	for _, e := range t.entries {
		if strings.Contains(strings.ToLower(e.Message), needle) {
			hits = append(hits, e)
		}
	}
	return &Table{entries: hits, source: t.source}
}
