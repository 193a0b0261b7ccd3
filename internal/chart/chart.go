package chart

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	gochart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/atikulmunna/logscope/internal/aggregator"
)

// Kind names a chart type.
type Kind string

const (
	KindBar        Kind = "bar"
	KindHistogram  Kind = "histogram"
	KindScatter    Kind = "scatter"
	KindStackedBar Kind = "stacked-bar"
	KindPie        Kind = "pie"
	KindLine       Kind = "line"
)

// ErrNoData is wrapped by a RenderError when the aggregate is empty.
var ErrNoData = errors.New("no data to plot")

// RenderError reports a chart that could not be drawn.
type RenderError struct {
	Kind  Kind
	Title string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s chart %q: %v", e.Kind, e.Title, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Image is an encoded PNG.
type Image []byte

// Base64 returns the standard base64 encoding of the PNG, ready to embed in a
// data URI.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i)
}

// Labels are the title and axis captions of a chart.
type Labels struct {
	Title string
	X     string
	Y     string
}

// Options control chart geometry and category order.
type Options struct {
	Width  float64 // inches
	Height float64 // inches
	DPI    int     // pixels per inch for the pie renderer
	Bins   int     // histogram buckets
	Order  aggregator.Order
}

// DefaultOptions returns 8x6 inch charts with 20 histogram bins, bars by frequency.
func DefaultOptions() Options {
	return Options{Width: 8, Height: 6, DPI: 96, Bins: 20, Order: aggregator.OrderFrequency}
}

// Renderer draws charts. It holds no drawing state between calls, so one
// Renderer can serve concurrent requests.
type Renderer struct {
	opts Options
}

// NewRenderer fills zero options with defaults.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}
	if opts.Bins <= 0 {
		opts.Bins = def.Bins
	}
	if opts.Order == "" {
		opts.Order = def.Order
	}
	return &Renderer{opts: opts}
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

// ---------------------------------------------------------------------------
// Category charts
// ---------------------------------------------------------------------------

// Bar draws one bar per category, ordered by the configured order.
func (r *Renderer) Bar(counts aggregator.Counts, l Labels, c color.Color) (Image, error) {
	names, values := r.series(counts)
	if len(values) == 0 {
		return nil, &RenderError{Kind: KindBar, Title: l.Title, Err: ErrNoData}
	}

	p := r.newPlot(l)
	bars, err := plotter.NewBarChart(values, r.barWidth(len(values)))
	if err != nil {
		return nil, &RenderError{Kind: KindBar, Title: l.Title, Err: err}
	}
	bars.Color = c
	p.Add(bars)
	p.NominalX(names...)
	rotateTicks(p)

	return r.encode(KindBar, l.Title, p)
}

// Line draws the category counts as a polyline, ordered like Bar.
func (r *Renderer) Line(counts aggregator.Counts, l Labels, c color.Color) (Image, error) {
	names, values := r.series(counts)
	if len(values) == 0 {
		return nil, &RenderError{Kind: KindLine, Title: l.Title, Err: ErrNoData}
	}

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	p := r.newPlot(l)
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, &RenderError{Kind: KindLine, Title: l.Title, Err: err}
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.NominalX(names...)
	rotateTicks(p)

	return r.encode(KindLine, l.Title, p)
}

// StackedBar draws one bar per row of m, stacked by column, with a legend.
func (r *Renderer) StackedBar(m *aggregator.Matrix, l Labels) (Image, error) {
	if m == nil || len(m.Rows) == 0 || len(m.Cols) == 0 {
		return nil, &RenderError{Kind: KindStackedBar, Title: l.Title, Err: ErrNoData}
	}

	p := r.newPlot(l)
	p.Legend.Top = true
	width := r.barWidth(len(m.Rows))

	var below *plotter.BarChart
	for j, name := range m.Cols {
		col := m.Column(j)
		values := make(plotter.Values, len(col))
		for i, v := range col {
			values[i] = float64(v)
		}

		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, &RenderError{Kind: KindStackedBar, Title: l.Title, Err: err}
		}
		bars.Color = plotutil.Color(j)
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		p.Legend.Add(name, bars)
		below = bars
	}
	p.NominalX(m.Rows...)
	rotateTicks(p)

	return r.encode(KindStackedBar, l.Title, p)
}

// Pie draws the share of each category. Slice labels carry the percentage.
func (r *Renderer) Pie(counts aggregator.Counts, title string) (Image, error) {
	buckets := counts.Sorted(r.opts.Order)
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total == 0 {
		return nil, &RenderError{Kind: KindPie, Title: title, Err: ErrNoData}
	}

	values := make([]gochart.Value, 0, len(buckets))
	for _, b := range buckets {
		if b.Count <= 0 {
			continue
		}
		pct := 100 * float64(b.Count) / float64(total)
		values = append(values, gochart.Value{
			Value: float64(b.Count),
			Label: fmt.Sprintf("%s %.1f%%", b.Label, pct),
		})
	}

	pie := gochart.PieChart{
		Title:  title,
		Width:  int(r.opts.Width * float64(r.opts.DPI)),
		Height: int(r.opts.Height * float64(r.opts.DPI)),
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(gochart.PNG, &buf); err != nil {
		return nil, &RenderError{Kind: KindPie, Title: title, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &RenderError{Kind: KindPie, Title: title, Err: errors.New("empty image")}
	}
	return Image(buf.Bytes()), nil
}

// ---------------------------------------------------------------------------
// Numeric charts
// ---------------------------------------------------------------------------

// Histogram buckets values into the configured number of equal-width bins.
func (r *Renderer) Histogram(values []float64, l Labels, c color.Color) (Image, error) {
	if len(values) == 0 {
		return nil, &RenderError{Kind: KindHistogram, Title: l.Title, Err: ErrNoData}
	}

	p := r.newPlot(l)
	h, err := plotter.NewHist(plotter.Values(append([]float64(nil), values...)), r.opts.Bins)
	if err != nil {
		return nil, &RenderError{Kind: KindHistogram, Title: l.Title, Err: err}
	}
	h.FillColor = c
	h.LineStyle.Color = color.Black
	p.Add(h)

	return r.encode(KindHistogram, l.Title, p)
}

// Scatter plots values against their category. categories[i] belongs to
// values[i]; categories are laid out on the x axis in label order.
func (r *Renderer) Scatter(categories []string, values []float64, l Labels) (Image, error) {
	if len(values) == 0 {
		return nil, &RenderError{Kind: KindScatter, Title: l.Title, Err: ErrNoData}
	}
	if len(categories) != len(values) {
		return nil, &RenderError{Kind: KindScatter, Title: l.Title,
			Err: fmt.Errorf("%d categories for %d values", len(categories), len(values))}
	}

	names := distinct(categories)
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(idx[categories[i]])
		pts[i].Y = v
	}

	p := r.newPlot(l)
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, &RenderError{Kind: KindScatter, Title: l.Title, Err: err}
	}
	s.GlyphStyle.Color = color.NRGBA{R: 31, G: 119, B: 180, A: 128}
	s.GlyphStyle.Radius = vg.Points(3)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)
	p.NominalX(names...)

	return r.encode(KindScatter, l.Title, p)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Renderer) newPlot(l Labels) *plot.Plot {
	p := plot.New()
	p.Title.Text = l.Title
	p.X.Label.Text = l.X
	p.Y.Label.Text = l.Y
	return p
}

// series orders counts for display and converts them to plot values.
func (r *Renderer) series(counts aggregator.Counts) ([]string, plotter.Values) {
	buckets := counts.Sorted(r.opts.Order)
	names := make([]string, len(buckets))
	values := make(plotter.Values, len(buckets))
	for i, b := range buckets {
		names[i] = b.Label
		values[i] = float64(b.Count)
	}
	return names, values
}

// barWidth fits n bars into roughly 70% of the plot width, capped at 40pt.
func (r *Renderer) barWidth(n int) vg.Length {
	w := vg.Length(r.opts.Width) * vg.Inch * 0.7 / vg.Length(n)
	return vg.Length(math.Min(float64(w), 40))
}

func (r *Renderer) encode(kind Kind, title string, p *plot.Plot) (Image, error) {
	w, err := p.WriterTo(vg.Length(r.opts.Width)*vg.Inch, vg.Length(r.opts.Height)*vg.Inch, "png")
	if err != nil {
		return nil, &RenderError{Kind: kind, Title: title, Err: err}
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, &RenderError{Kind: kind, Title: title, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &RenderError{Kind: kind, Title: title, Err: errors.New("empty image")}
	}
	return Image(buf.Bytes()), nil
}

func rotateTicks(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
