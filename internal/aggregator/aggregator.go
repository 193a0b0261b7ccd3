package aggregator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/atikulmunna/logscope/internal/model"
	"github.com/atikulmunna/logscope/internal/parser"
)

// ErrUnknownColumn is returned when a distribution is requested for a column
// that is not one of the categorical columns.
var ErrUnknownColumn = errors.New("not a categorical column")

// ErrEmptyInput is matched by every EmptyInputError.
var ErrEmptyInput = errors.New("undefined on empty input")

// EmptyInputError reports an average requested over zero entries.
type EmptyInputError struct {
	Op string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrEmptyInput)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

// ---------------------------------------------------------------------------
// Frequencies
// ---------------------------------------------------------------------------

// Counts maps a category value to the number of rows carrying it.
type Counts map[string]int

// Total returns the sum of all counts.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Order selects how buckets are arranged for display.
type Order string

const (
	// OrderFrequency sorts by count descending, ties by label ascending.
	OrderFrequency Order = "frequency"
	// OrderLabel sorts by label ascending.
	OrderLabel Order = "label"
)

// ParseOrder validates an order name. The empty string selects OrderFrequency.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderFrequency:
		return OrderFrequency, nil
	case OrderLabel:
		return OrderLabel, nil
	}
	return "", fmt.Errorf("unknown order %q (want %q or %q)", s, OrderFrequency, OrderLabel)
}

// Bucket is one category and its count.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Sorted returns the counts as buckets in the given order.
func (c Counts) Sorted(order Order) []Bucket {
	out := make([]Bucket, 0, len(c))
	for k, v := range c {
		out = append(out, Bucket{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if order != OrderLabel && out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Frequency counts the distinct values of a categorical column. Missing cells
// are counted under model.Unknown so the counts always add up to len(entries).
func Frequency(entries []model.LogEntry, column model.Column) (Counts, error) {
	if !column.IsCategorical() {
		return nil, fmt.Errorf("frequency of %q: %w", column, ErrUnknownColumn)
	}

	counts := make(Counts)
	for _, e := range entries {
		v, _ := e.Value(column)
		if v == "" {
			v = model.Unknown
		}
		counts[v]++
	}
	return counts, nil
}

// ErrorCodeCounts counts entries per extracted error code.
func ErrorCodeCounts(entries []model.LogEntry) Counts {
	counts := make(Counts)
	for _, e := range entries {
		counts[parser.ErrorCode(e.Message)]++
	}
	return counts
}

// ---------------------------------------------------------------------------
// Averages
// ---------------------------------------------------------------------------

// AverageWordCount returns the mean word count per entry. Over zero entries it
// returns 0 and an *EmptyInputError.
func AverageWordCount(entries []model.LogEntry) (float64, error) {
	return average("average word count", entries, parser.WordCount)
}

// AverageDigitCount returns the mean digit count per entry. Over zero entries
// it returns 0 and an *EmptyInputError.
func AverageDigitCount(entries []model.LogEntry) (float64, error) {
	return average("average digit count", entries, parser.DigitCount)
}

func average(op string, entries []model.LogEntry, field func(string) int) (float64, error) {
	if len(entries) == 0 {
		return 0, &EmptyInputError{Op: op}
	}
	total := 0
	for _, e := range entries {
		total += field(e.Message)
	}
	return float64(total) / float64(len(entries)), nil
}

// MessageLengths returns the character length of every message, in row order.
func MessageLengths(entries []model.LogEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = float64(parser.Length(e.Message))
	}
	return out
}

// ---------------------------------------------------------------------------
// Cross tabulation
// ---------------------------------------------------------------------------

// Matrix is a two-column grouping. Cells[i][j] counts the rows whose first
// column equals Rows[i] and second column equals Cols[j].
type Matrix struct {
	RowColumn model.Column `json:"row_column"`
	ColColumn model.Column `json:"col_column"`
	Rows      []string     `json:"rows"`
	Cols      []string     `json:"cols"`
	Cells     [][]int      `json:"cells"`
}

// Column returns the counts of column j across all rows.
func (m *Matrix) Column(j int) []int {
	out := make([]int, len(m.Rows))
	for i := range m.Rows {
		out[i] = m.Cells[i][j]
	}
	return out
}

// CrossTab groups entries by two categorical columns over the full cross
// product of their distinct values. Absent combinations are zero. Labels are
// sorted ascending; missing cells count as model.Unknown.
func CrossTab(entries []model.LogEntry, rows, cols model.Column) (*Matrix, error) {
	if !rows.IsCategorical() {
		return nil, fmt.Errorf("cross tab rows %q: %w", rows, ErrUnknownColumn)
	}
	if !cols.IsCategorical() {
		return nil, fmt.Errorf("cross tab cols %q: %w", cols, ErrUnknownColumn)
	}

	rowCounts, _ := Frequency(entries, rows)
	colCounts, _ := Frequency(entries, cols)

	m := &Matrix{
		RowColumn: rows,
		ColColumn: cols,
		Rows:      labels(rowCounts),
		Cols:      labels(colCounts),
	}
	rowIdx := indexOf(m.Rows)
	colIdx := indexOf(m.Cols)

	m.Cells = make([][]int, len(m.Rows))
	for i := range m.Cells {
		m.Cells[i] = make([]int, len(m.Cols))
	}
	for _, e := range entries {
		r, _ := e.Value(rows)
		c, _ := e.Value(cols)
		if r == "" {
			r = model.Unknown
		}
		if c == "" {
			c = model.Unknown
		}
		m.Cells[rowIdx[r]][colIdx[c]]++
	}
	return m, nil
}

func labels(c Counts) []string {
	buckets := c.Sorted(OrderLabel)
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Label
	}
	return out
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
