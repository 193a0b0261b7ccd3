package model

// Unknown marks a value that is absent or could not be extracted.
const Unknown = "Unknown"

// Column names a field of the log dataset as it appears in the source file header.
type Column string

const (
	ColumnMessage      Column = "Log Message"
	ColumnLevel        Column = "Log Level"
	ColumnType         Column = "Log Type"
	ColumnSeverity     Column = "Log Severity"
	ColumnUserActivity Column = "User Activity"
)

// Columns lists every column the dataset must provide, in file order.
var Columns = []Column{ColumnMessage, ColumnLevel, ColumnType, ColumnSeverity, ColumnUserActivity}

// CategoricalColumns lists the label columns that frequency counts are defined for.
var CategoricalColumns = []Column{ColumnLevel, ColumnType, ColumnSeverity, ColumnUserActivity}

// IsCategorical reports whether c is one of the four label columns.
func (c Column) IsCategorical() bool {
	for _, cc := range CategoricalColumns {
		if c == cc {
			return true
		}
	}
	return false
}

// LogEntry is one row of the dataset. An empty string means the cell was missing.
type LogEntry struct {
	Message      string `json:"Log Message"`
	Level        string `json:"Log Level"`
	Type         string `json:"Log Type"`
	Severity     string `json:"Log Severity"`
	UserActivity string `json:"User Activity"`
}

// Value returns the raw cell for a column and whether the column exists.
func (e LogEntry) Value(c Column) (string, bool) {
	switch c {
	case ColumnMessage:
		return e.Message, true
	case ColumnLevel:
		return e.Level, true
	case ColumnType:
		return e.Type, true
	case ColumnSeverity:
		return e.Severity, true
	case ColumnUserActivity:
		return e.UserActivity, true
	}
	return "", false
}

// Record returns the entry keyed by column name, with nil for missing cells so
// it serializes to JSON null.
func (e LogEntry) Record() map[string]any {
	rec := make(map[string]any, len(Columns))
	for _, c := range Columns {
		v, _ := e.Value(c)
		if v == "" {
			rec[string(c)] = nil
			continue
		}
		rec[string(c)] = v
	}
	return rec
}

// Derived holds the fields computed from a message. They are never stored.
type Derived struct {
	WordCount  int    `json:"word_count"`
	DigitCount int    `json:"digit_count"`
	Length     int    `json:"length"`
	ErrorCode  string `json:"error_code"`
	Timestamp  string `json:"timestamp"`
}

// Annotated pairs an entry with the fields derived from its message.
type Annotated struct {
	Entry   LogEntry
	Derived Derived
}

// Record extends the entry's record with its derived fields.
func (a Annotated) Record() map[string]any {
	rec := a.Entry.Record()
	rec["word_count"] = a.Derived.WordCount
	rec["digit_count"] = a.Derived.DigitCount
	rec["length"] = a.Derived.Length
	rec["error_code"] = a.Derived.ErrorCode
	rec["timestamp"] = a.Derived.Timestamp
	return rec
}
