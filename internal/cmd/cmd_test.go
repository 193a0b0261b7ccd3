package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/logscope/internal/model"
	"github.com/atikulmunna/logscope/internal/table"
)

const dataset = `Log Message,Log Level,Log Type,Log Severity,User Activity
2024-01-01 10:00:00 login ok,INFO,Auth,Low,Login
disk failure Error Code: E500,ERROR,System,High,Upload
disk nearly full,WARNING,System,Medium,
`

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestShouldShow(t *testing.T) {
	levels := parseLevels(" error, Warning ,")
	assert.Len(t, levels, 2)

	assert.True(t, shouldShow(model.LogEntry{Level: "ERROR"}, levels))
	assert.True(t, shouldShow(model.LogEntry{Level: "warning"}, levels))
	assert.False(t, shouldShow(model.LogEntry{Level: "INFO"}, levels))
	assert.True(t, shouldShow(model.LogEntry{Level: "INFO"}, parseLevels("")))
}

func TestSummaryCommand(t *testing.T) {
	out, err := execute(t, "summary", "--data", writeDataset(t, dataset), "-o", "json")
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, 3.0, summary["rows"])
	activity := summary["user_activity_counts"].(map[string]any)
	assert.Equal(t, 1.0, activity[model.Unknown])
}

func TestSearchCommand(t *testing.T) {
	out, err := execute(t, "search", "DISK", "--data", writeDataset(t, dataset), "-o", "json", "--level", "error")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1, out)
	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
	assert.Equal(t, "E500", row["error_code"])
}

func TestServeRejectsIncompleteDataset(t *testing.T) {
	path := writeDataset(t, "Log Message,Log Level\nhello,INFO\n")

	_, err := execute(t, "serve", "--data", path, "--port", "0")
	require.Error(t, err)

	var schemaErr *table.SchemaError
	require.True(t, errors.As(err, &schemaErr), "got %v", err)
	assert.Contains(t, schemaErr.Missing, model.ColumnSeverity)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, "summary", "--data", writeDataset(t, dataset), "-o", "yaml")
	assert.Error(t, err)
}
