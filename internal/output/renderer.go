package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/atikulmunna/logscope/internal/aggregator"
	"github.com/atikulmunna/logscope/internal/model"
	"github.com/atikulmunna/logscope/internal/sysmetrics"
	"github.com/charmbracelet/lipgloss"
)

// Renderer writes analysis results to an output stream.
type Renderer interface {
	Render(row model.Annotated) error
	Summary(s aggregator.Summary) error
	Snapshot(s sysmetrics.Snapshot) error
}

// New returns the renderer for format ("text" or "json").
func New(format string, w io.Writer, order aggregator.Order) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(w, order), nil
	case "json":
		return NewJSONRenderer(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleFatal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
	styleMeta    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true) // cyan
	styleHeading = lipgloss.NewStyle().Bold(true).Underline(true)
	styleMissing = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// TextRenderer prints results for a terminal with level-based colors.
type TextRenderer struct {
	w     io.Writer
	order aggregator.Order
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
// Distributions are listed in the given order.
func NewTextRenderer(w io.Writer, order aggregator.Order) *TextRenderer {
	return &TextRenderer{w: w, order: order}
}

func (r *TextRenderer) Render(row model.Annotated) error {
	e := row.Entry
	tag := styleLevelTag(e.Level)
	meta := styleMeta.Render(fmt.Sprintf("[%s/%s] code=%s ts=%s",
		orUnknown(e.Type), orUnknown(e.Severity), row.Derived.ErrorCode, row.Derived.Timestamp))

	msg := e.Message
	if msg == "" {
		msg = styleMissing.Render("(no message)")
	}
	_, err := fmt.Fprintf(r.w, "%s %s %s\n", tag, meta, msg)
	return err
}

func (r *TextRenderer) Summary(s aggregator.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", styleHeading.Render("Rows:"), s.Rows)
	fmt.Fprintf(&b, "Average word count:  %s\n", formatAverage(s.AverageWordCount))
	fmt.Fprintf(&b, "Average digit count: %s\n", formatAverage(s.AverageDigitCount))

	for _, c := range model.CategoricalColumns {
		counts, _ := s.Distribution(c)
		writeCounts(&b, string(c), counts, r.order)
	}
	writeCounts(&b, "Error Code", s.ErrorCodeCounts, r.order)

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TextRenderer) Snapshot(s sysmetrics.Snapshot) error {
	var b strings.Builder
	fmt.Fprintln(&b, styleHeading.Render("Host metrics"), styleMeta.Render(s.CollectedAt.Format("2006-01-02 15:04:05")))
	fmt.Fprintf(&b, "  CPU       %6.1f%%  (%d cores)\n", s.CPUPercent, s.CoreCount)
	fmt.Fprintf(&b, "  Memory    %6.1f%%\n", s.MemoryPercent)
	fmt.Fprintf(&b, "  Swap      %6.1f%%\n", s.SwapPercent)
	fmt.Fprintf(&b, "  Disk %-4s %6.1f%%\n", s.DiskPath, s.DiskPercent)
	fmt.Fprintf(&b, "  Load      %.2f %.2f %.2f\n", s.LoadAverage.Load1, s.LoadAverage.Load5, s.LoadAverage.Load15)
	fmt.Fprintf(&b, "  Uptime    %.2f h\n", s.UptimeHours)
	fmt.Fprintf(&b, "  Network   sent=%d received=%d bytes\n", s.Traffic.BytesSent, s.Traffic.BytesRecv)
	fmt.Fprintf(&b, "  Users     %d, processes %d\n", len(s.Users), s.ProcessCount)

	if s.Battery.Available {
		for _, bat := range s.Battery.Value {
			fmt.Fprintf(&b, "  Battery   %.0f%% %s\n", bat.Percent, bat.State)
		}
	} else {
		fmt.Fprintf(&b, "  Battery   %s\n", styleMissing.Render("unavailable"))
	}
	if s.Temperatures.Available {
		for _, tmp := range s.Temperatures.Value {
			fmt.Fprintf(&b, "  Temp      %-20s %.1f°C\n", tmp.Sensor, tmp.Current)
		}
	} else {
		fmt.Fprintf(&b, "  Temp      %s\n", styleMissing.Render("unavailable"))
	}
	if s.Fans.Available {
		for _, f := range s.Fans.Value {
			fmt.Fprintf(&b, "  Fan       %-20s %d rpm\n", f.Sensor, f.RPM)
		}
	} else {
		fmt.Fprintf(&b, "  Fan       %s\n", styleMissing.Render("unavailable"))
	}

	names := make([]string, 0, len(s.Errors))
	for name := range s.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s %s: %s\n", styleWarn.Render("!"), name, s.Errors[name])
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func styleLevelTag(level string) string {
	padded := fmt.Sprintf("%-7s", orUnknown(level))
	switch strings.ToUpper(level) {
	case "DEBUG":
		return styleDebug.Render(padded)
	case "WARN", "WARNING":
		return styleWarn.Render(padded)
	case "ERROR":
		return styleError.Render(padded)
	case "FATAL", "CRITICAL":
		return styleFatal.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

func writeCounts(b *strings.Builder, title string, counts aggregator.Counts, order aggregator.Order) {
	fmt.Fprintf(b, "\n%s\n", styleHeading.Render(title))
	for _, bucket := range counts.Sorted(order) {
		fmt.Fprintf(b, "  %-24s %d\n", bucket.Label, bucket.Count)
	}
}

func formatAverage(v *float64) string {
	if v == nil {
		return styleMissing.Render("n/a")
	}
	return fmt.Sprintf("%.2f", *v)
}

func orUnknown(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each result as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(row model.Annotated) error {
	return r.enc.Encode(row.Record())
}

func (r *JSONRenderer) Summary(s aggregator.Summary) error {
	return r.enc.Encode(s)
}

func (r *JSONRenderer) Snapshot(s sysmetrics.Snapshot) error {
	return r.enc.Encode(s)
}
