package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/atikulmunna/logscope/internal/model"
)

// Patterns are compiled once and shared; *regexp.Regexp is safe for concurrent use.
var (
	errorCodeRe = regexp.MustCompile(`Error Code: (\w+)`)
	timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
)

// ---------------------------------------------------------------------------
// Field extraction
// ---------------------------------------------------------------------------

// ErrorCode returns the token following the first "Error Code: " in message,
// or model.Unknown when there is none. Matching is case-sensitive.
func ErrorCode(message string) string {
	m := errorCodeRe.FindStringSubmatch(message)
	if m == nil {
		return model.Unknown
	}
	return m[1]
}

// Timestamp returns the first "YYYY-MM-DD HH:MM:SS" found in message, or
// model.Unknown. The value is not validated as a calendar date.
func Timestamp(message string) string {
	ts := timestampRe.FindString(message)
	if ts == "" {
		return model.Unknown
	}
	return ts
}

// ---------------------------------------------------------------------------
// Counters
// ---------------------------------------------------------------------------

// WordCount counts whitespace-delimited tokens.
func WordCount(message string) int {
	return len(strings.Fields(message))
}

// DigitCount counts decimal digit characters.
func DigitCount(message string) int {
	n := 0
	for _, r := range message {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// Length returns the message length in characters.
func Length(message string) int {
	return utf8.RuneCountInString(message)
}

// Derive computes every derived field of a message.
func Derive(message string) model.Derived {
	return model.Derived{
		WordCount:  WordCount(message),
		DigitCount: DigitCount(message),
		Length:     Length(message),
		ErrorCode:  ErrorCode(message),
		Timestamp:  Timestamp(message),
	}
}

// Annotate derives the fields of every entry, preserving order.
func Annotate(entries []model.LogEntry) []model.Annotated {
	out := make([]model.Annotated, len(entries))
	for i, e := range entries {
		out[i] = model.Annotated{Entry: e, Derived: Derive(e.Message)}
	}
	return out
}
