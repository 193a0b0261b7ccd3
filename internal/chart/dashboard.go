package chart

import (
	"errors"
	"fmt"
	"image/color"

	"golang.org/x/image/colornames"

	"github.com/atikulmunna/logscope/internal/aggregator"
	"github.com/atikulmunna/logscope/internal/model"
)

// Names of the dashboard charts, in page order.
const (
	LogLevelPlot          = "log_level_plot"
	LogTypePlot           = "log_type_plot"
	LogSeverityPlot       = "log_severity_plot"
	UserActivityPlot      = "user_activity_plot"
	LogMessageLengthsPlot = "log_message_lengths_plot"
	ScatterPlot           = "scatter_plot"
	StackedBarChart       = "stacked_bar_chart"
	LogSeverityPie        = "log_severity_pie"
	LogTypeLine           = "log_type_line"
)

type panel struct {
	name   string
	render func(r *Renderer, entries []model.LogEntry) (Image, error)
}

func frequencyPanel(name string, col model.Column, title string, c color.Color, draw func(*Renderer, aggregator.Counts, Labels, color.Color) (Image, error)) panel {
	return panel{name: name, render: func(r *Renderer, entries []model.LogEntry) (Image, error) {
		counts, err := aggregator.Frequency(entries, col)
		if err != nil {
			return nil, err
		}
		return draw(r, counts, Labels{Title: title, X: string(col), Y: "Frequency"}, c)
	}}
}

var panels = []panel{
	frequencyPanel(LogLevelPlot, model.ColumnLevel, "Distribution of Log Levels", colornames.Skyblue, (*Renderer).Bar),
	frequencyPanel(LogTypePlot, model.ColumnType, "Distribution of Log Types", colornames.Lightgreen, (*Renderer).Bar),
	frequencyPanel(LogSeverityPlot, model.ColumnSeverity, "Distribution of Log Severities", colornames.Salmon, (*Renderer).Bar),
	frequencyPanel(UserActivityPlot, model.ColumnUserActivity, "Distribution of User Activities", colornames.Gold, (*Renderer).Bar),
	{name: LogMessageLengthsPlot, render: func(r *Renderer, entries []model.LogEntry) (Image, error) {
		return r.Histogram(aggregator.MessageLengths(entries),
			Labels{Title: "Distribution of Log Message Lengths", X: "Length", Y: "Frequency"}, colornames.Orange)
	}},
	{name: ScatterPlot, render: func(r *Renderer, entries []model.LogEntry) (Image, error) {
		levels := make([]string, len(entries))
		for i, e := range entries {
			levels[i] = e.Level
			if levels[i] == "" {
				levels[i] = model.Unknown
			}
		}
		return r.Scatter(levels, aggregator.MessageLengths(entries),
			Labels{Title: "Log Level vs Log Message Length", X: "Log Level", Y: "Log Message Length"})
	}},
	{name: StackedBarChart, render: func(r *Renderer, entries []model.LogEntry) (Image, error) {
		m, err := aggregator.CrossTab(entries, model.ColumnLevel, model.ColumnSeverity)
		if err != nil {
			return nil, err
		}
		return r.StackedBar(m, Labels{
			Title: fmt.Sprintf("Stacked Bar Chart of %s vs %s", model.ColumnLevel, model.ColumnSeverity),
			X:     string(model.ColumnLevel),
			Y:     "Frequency",
		})
	}},
	{name: LogSeverityPie, render: func(r *Renderer, entries []model.LogEntry) (Image, error) {
		counts, err := aggregator.Frequency(entries, model.ColumnSeverity)
		if err != nil {
			return nil, err
		}
		return r.Pie(counts, "Distribution of Log Severities")
	}},
	frequencyPanel(LogTypeLine, model.ColumnType, "Distribution of Log Types", colornames.Blue, (*Renderer).Line),
}

// Names returns the dashboard chart names in page order.
func Names() []string {
	out := make([]string, len(panels))
	for i, p := range panels {
		out[i] = p.name
	}
	return out
}

// ErrUnknownChart is returned by Render for a name not in Names.
var ErrUnknownChart = errors.New("unknown chart")

// Render draws one named dashboard chart.
func (r *Renderer) Render(entries []model.LogEntry, name string) (Image, error) {
	for _, p := range panels {
		if p.name == name {
			return p.render(r, entries)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

// Dashboard draws every chart. A chart that fails is reported in the error
// map and left out of the image map; the rest still render.
func (r *Renderer) Dashboard(entries []model.LogEntry) (map[string]Image, map[string]error) {
	images := make(map[string]Image, len(panels))
	errs := make(map[string]error)
	for _, p := range panels {
		img, err := p.render(r, entries)
		if err != nil {
			errs[p.name] = err
			continue
		}
		images[p.name] = img
	}
	return images, errs
}
