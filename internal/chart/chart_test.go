package chart

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/logscope/internal/aggregator"
	"github.com/atikulmunna/logscope/internal/model"
)

var labels = Labels{Title: "Distribution of Log Levels", X: "Log Level", Y: "Frequency"}

func requirePNG(t *testing.T, img Image) {
	t.Helper()
	require.NotEmpty(t, img)
	_, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err, "output is not a PNG")
}

func TestNewRendererDefaults(t *testing.T) {
	r := NewRenderer(Options{})

	assert.Equal(t, DefaultOptions(), r.Options())
	assert.Equal(t, 20, r.Options().Bins)
}

func TestBar(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	counts := aggregator.Counts{"INFO": 5, "ERROR": 2}

	img, err := r.Bar(counts, labels, color.RGBA{135, 206, 235, 255})
	require.NoError(t, err)
	requirePNG(t, img)

	decoded, err := base64.StdEncoding.DecodeString(img.Base64())
	require.NoError(t, err)
	assert.Equal(t, []byte(img), decoded)
}

func TestBarOrder(t *testing.T) {
	counts := aggregator.Counts{"ERROR": 2, "INFO": 5}

	names, values := NewRenderer(Options{Order: aggregator.OrderFrequency}).series(counts)
	assert.Equal(t, []string{"INFO", "ERROR"}, names)
	assert.Equal(t, []float64{5, 2}, []float64(values))

	names, _ = NewRenderer(Options{Order: aggregator.OrderLabel}).series(counts)
	assert.Equal(t, []string{"ERROR", "INFO"}, names)
}

func TestBarDoesNotMutateInput(t *testing.T) {
	counts := aggregator.Counts{"INFO": 5, "ERROR": 2}
	_, err := NewRenderer(DefaultOptions()).Bar(counts, labels, color.Black)
	require.NoError(t, err)

	assert.Equal(t, aggregator.Counts{"INFO": 5, "ERROR": 2}, counts)
}

func TestEmptyInputIsRenderError(t *testing.T) {
	r := NewRenderer(DefaultOptions())

	cases := map[Kind]func() error{
		KindBar:        func() error { _, err := r.Bar(nil, labels, color.Black); return err },
		KindLine:       func() error { _, err := r.Line(aggregator.Counts{}, labels, color.Black); return err },
		KindHistogram:  func() error { _, err := r.Histogram(nil, labels, color.Black); return err },
		KindScatter:    func() error { _, err := r.Scatter(nil, nil, labels); return err },
		KindStackedBar: func() error { _, err := r.StackedBar(&aggregator.Matrix{}, labels); return err },
		KindPie:        func() error { _, err := r.Pie(aggregator.Counts{"INFO": 0}, "pie"); return err },
	}

	for kind, call := range cases {
		t.Run(string(kind), func(t *testing.T) {
			err := call()
			require.Error(t, err)

			var renderErr *RenderError
			require.True(t, errors.As(err, &renderErr))
			assert.Equal(t, kind, renderErr.Kind)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestHistogram(t *testing.T) {
	values := []float64{10, 12, 12, 30, 45, 45, 45, 80}
	img, err := NewRenderer(DefaultOptions()).Histogram(values, Labels{Title: "Lengths"}, color.RGBA{255, 165, 0, 255})
	require.NoError(t, err)
	requirePNG(t, img)
	assert.Equal(t, []float64{10, 12, 12, 30, 45, 45, 45, 80}, values)
}

func TestScatter(t *testing.T) {
	r := NewRenderer(DefaultOptions())

	img, err := r.Scatter([]string{"INFO", "ERROR", "INFO"}, []float64{10, 40, 22}, labels)
	require.NoError(t, err)
	requirePNG(t, img)

	_, err = r.Scatter([]string{"INFO"}, []float64{1, 2}, labels)
	var renderErr *RenderError
	assert.True(t, errors.As(err, &renderErr))
}

func TestStackedBar(t *testing.T) {
	m := &aggregator.Matrix{
		Rows:  []string{"ERROR", "INFO"},
		Cols:  []string{"High", "Low"},
		Cells: [][]int{{3, 0}, {1, 6}},
	}

	img, err := NewRenderer(DefaultOptions()).StackedBar(m, labels)
	require.NoError(t, err)
	requirePNG(t, img)
}

func TestLine(t *testing.T) {
	img, err := NewRenderer(DefaultOptions()).Line(aggregator.Counts{"System": 4, "App": 9, "Security": 1}, labels, color.Black)
	require.NoError(t, err)
	requirePNG(t, img)
}

func TestPie(t *testing.T) {
	r := NewRenderer(DefaultOptions())

	img, err := r.Pie(aggregator.Counts{"High": 2, "Low": 5, "Medium": 0}, "Distribution of Log Severities")
	require.NoError(t, err)
	requirePNG(t, img)

	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 8*96, cfg.Width)
	assert.Equal(t, 6*96, cfg.Height)
}

func dashboardEntries() []model.LogEntry {
	return []model.LogEntry{
		{Message: "Login failed Error Code: AUTH1", Level: "ERROR", Type: "Security", Severity: "High", UserActivity: "Login"},
		{Message: "Page served in 12ms", Level: "INFO", Type: "Application", Severity: "Low", UserActivity: "Browse"},
		{Message: "Disk almost full", Level: "WARN", Type: "System", Severity: "Medium", UserActivity: "Upload"},
		{Message: "Logout", Level: "INFO", Type: "Security", Severity: "", UserActivity: "Logout"},
	}
}

func TestDashboard(t *testing.T) {
	images, errs := NewRenderer(DefaultOptions()).Dashboard(dashboardEntries())

	assert.Empty(t, errs)
	require.Len(t, images, len(Names()))
	for _, name := range Names() {
		requirePNG(t, images[name])
	}
}

func TestDashboardEmptyTableReportsEveryChart(t *testing.T) {
	images, errs := NewRenderer(DefaultOptions()).Dashboard(nil)

	assert.Empty(t, images)
	assert.Len(t, errs, len(Names()))
	for name, err := range errs {
		assert.ErrorIs(t, err, ErrNoData, name)
	}
}

func TestRenderByName(t *testing.T) {
	r := NewRenderer(DefaultOptions())

	img, err := r.Render(dashboardEntries(), StackedBarChart)
	require.NoError(t, err)
	requirePNG(t, img)

	_, err = r.Render(dashboardEntries(), "nope")
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestConcurrentRendering(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	entries := dashboardEntries()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := Names()[i%len(Names())]
			if _, err := r.Render(entries, name); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
