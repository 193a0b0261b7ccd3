package aggregator

import "github.com/atikulmunna/logscope/internal/model"

// Summary is the full set of descriptive statistics for a set of entries.
// Averages are nil when undefined (no entries).
type Summary struct {
	Rows               int      `json:"rows"`
	LevelCounts        Counts   `json:"log_level_counts"`
	TypeCounts         Counts   `json:"log_type_counts"`
	SeverityCounts     Counts   `json:"log_severity_counts"`
	UserActivityCounts Counts   `json:"user_activity_counts"`
	ErrorCodeCounts    Counts   `json:"error_code_counts"`
	AverageWordCount   *float64 `json:"average_word_count"`
	AverageDigitCount  *float64 `json:"average_digit_count"`
}

// Summarize computes every distribution and average over entries.
func Summarize(entries []model.LogEntry) Summary {
	s := Summary{
		Rows:            len(entries),
		ErrorCodeCounts: ErrorCodeCounts(entries),
	}
	// The columns are known categorical columns, so Frequency cannot fail.
	s.LevelCounts, _ = Frequency(entries, model.ColumnLevel)
	s.TypeCounts, _ = Frequency(entries, model.ColumnType)
	s.SeverityCounts, _ = Frequency(entries, model.ColumnSeverity)
	s.UserActivityCounts, _ = Frequency(entries, model.ColumnUserActivity)

	if avg, err := AverageWordCount(entries); err == nil {
		s.AverageWordCount = &avg
	}
	if avg, err := AverageDigitCount(entries); err == nil {
		s.AverageDigitCount = &avg
	}
	return s
}

// Distribution returns the counts for a categorical column held by the summary.
func (s Summary) Distribution(c model.Column) (Counts, bool) {
	switch c {
	case model.ColumnLevel:
		return s.LevelCounts, true
	case model.ColumnType:
		return s.TypeCounts, true
	case model.ColumnSeverity:
		return s.SeverityCounts, true
	case model.ColumnUserActivity:
		return s.UserActivityCounts, true
	}
	return nil, false
}
