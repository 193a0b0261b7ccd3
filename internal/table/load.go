package table

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atikulmunna/logscope/internal/model"
)

// SchemaError reports columns the dataset is required to have but does not.
type SchemaError struct {
	Path    string
	Missing []model.Column
}

func (e *SchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf("dataset %s: missing column(s) %s", e.Path, strings.Join(names, ", "))
}

// ErrUnsupportedFormat is returned for file extensions Load does not know.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Load reads the dataset at path. The format is chosen by extension:
// .csv, or .jsonl/.ndjson with one JSON object per line.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var entries []model.LogEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		entries, err = readCSV(f, path)
	case ".jsonl", ".ndjson":
		entries, err = readJSONLines(f, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	t := New(entries)
	t.source = path
	return t, nil
}

// ---------------------------------------------------------------------------
// CSV
// ---------------------------------------------------------------------------

func readCSV(r io.Reader, path string) ([]model.LogEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows are padded with missing cells

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &SchemaError{Path: path, Missing: model.Columns}
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[model.Column]int, len(header))
	for i, h := range header {
		index[model.Column(strings.TrimSpace(h))] = i
	}
	if err := checkSchema(path, func(c model.Column) bool {
		_, ok := index[c]
		return ok
	}); err != nil {
		return nil, err
	}

	cell := func(row []string, c model.Column) string {
		i := index[c]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []model.LogEntry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", line, err)
		}
		entries = append(entries, model.LogEntry{
			Message:      cell(row, model.ColumnMessage),
			Level:        cell(row, model.ColumnLevel),
			Type:         cell(row, model.ColumnType),
			Severity:     cell(row, model.ColumnSeverity),
			UserActivity: cell(row, model.ColumnUserActivity),
		})
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// JSON lines
// ---------------------------------------------------------------------------

func readJSONLines(r io.Reader, path string) ([]model.LogEntry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var entries []model.LogEntry
	checked := false
	for line := 1; sc.Scan(); line++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("parse dataset line %d: %w", line, err)
		}

		// The first object defines the schema, like a CSV header.
		if !checked {
			if err := checkSchema(path, func(c model.Column) bool {
				_, ok := data[string(c)]
				return ok
			}); err != nil {
				return nil, err
			}
			checked = true
		}

		entries = append(entries, model.LogEntry{
			Message:      strField(data, model.ColumnMessage),
			Level:        strField(data, model.ColumnLevel),
			Type:         strField(data, model.ColumnType),
			Severity:     strField(data, model.ColumnSeverity),
			UserActivity: strField(data, model.ColumnUserActivity),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if !checked {
		return nil, &SchemaError{Path: path, Missing: model.Columns}
	}
	return entries, nil
}

// strField renders a JSON value as a cell; null and absent keys are missing.
func strField(data map[string]interface{}, c model.Column) string {
	v, ok := data[string(c)]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", v)
}

func checkSchema(path string, has func(model.Column) bool) error {
	var missing []model.Column
	for _, c := range model.Columns {
		if !has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Path: path, Missing: missing}
	}
	return nil
}
