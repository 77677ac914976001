package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
)

type Kind string

const (
	Daily     Kind = "daily"
	Lines     Kind = "lines"
	TimeOfDay Kind = "time-of-day"
)

// Kinds lists the charts in display order.
var Kinds = []Kind{Daily, Lines, TimeOfDay}

var ErrNoData = errors.New("nothing to chart")

const (
	Width  = 640
	Height = 320
)

var kindTitles = map[Kind]string{
	Daily:     "Cancellations per day",
	Lines:     "Cancellations by line",
	TimeOfDay: "Cancellations by time of day",
}

var kindColors = map[Kind]drawing.Color{
	Daily:     drawing.ColorFromHex("3b82f6"),
	Lines:     drawing.ColorFromHex("10b981"),
	TimeOfDay: drawing.ColorFromHex("f59e0b"),
}

func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := kindTitles[kind]; !ok {
		return "", fmt.Errorf("unknown chart %q", value)
	}
	return kind, nil
}

func (kind Kind) Title() string {
	return kindTitles[kind]
}

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func (format Format) ContentType() string {
	if format == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (format Format) provider() chart.RendererProvider {
	if format == PNG {
		return chart.PNG
	}
	return chart.SVG
}

// ParseFileName splits names like "lines.svg" into chart and image format.
func ParseFileName(name string) (Kind, Format, error) {
	base, ext, _ := strings.Cut(name, ".")
	kind, err := ParseKind(base)
	if err != nil {
		return "", "", err
	}
	switch format := Format(strings.ToLower(ext)); format {
	case SVG, PNG:
		return kind, format, nil
	}
	return "", "", fmt.Errorf("unsupported chart format %q", ext)
}

func FileName(kind Kind, format Format) string {
	return string(kind) + "." + string(format)
}

// Count is one bar of a chart.
type Count struct {
	Label string
	Count int
}

// Counts reads the bars of one chart from a view, in the view's order.
func Counts(view cancellations.View, kind Kind) []Count {
	var counts []Count
	switch kind {
	case Daily:
		for _, day := range view.DailyStats {
			counts = append(counts, Count{Label: day.Date, Count: day.Count})
		}
	case Lines:
		for _, line := range view.LineStats {
			counts = append(counts, Count{Label: line.Line, Count: line.Count})
		}
	case TimeOfDay:
		for _, period := range view.TimeOfDayStats {
			counts = append(counts, Count{Label: period.Period, Count: period.Count})
		}
	}
	return counts
}

// Render draws one chart of the view. A chart without bars is ErrNoData.
func Render(writer io.Writer, view cancellations.View, kind Kind, format Format) error {
	counts := Counts(view, kind)
	if len(counts) == 0 {
		return ErrNoData
	}

	color := kindColors[kind]
	bars := make([]chart.Value, 0, len(counts))
	peak := 0
	for _, count := range counts {
		label := count.Label
		if kind == Daily {
			label = shortDate(label)
		}
		bars = append(bars, chart.Value{
			Label: label,
			Value: float64(count.Count),
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		})
		peak = max(peak, count.Count)
	}

	ticks := countTicks(peak)
	graph := chart.BarChart{
		Title:      kind.Title(),
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   32,
		BarSpacing: 8,
		XAxis:      chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: ticks[len(ticks)-1].Value},
			Ticks: ticks,
		},
		Bars: bars,
	}
	return graph.Render(format.provider(), writer)
}

// countTicks spaces at most six whole-number ticks from zero up to peak or
// just above it.
func countTicks(peak int) []chart.Tick {
	step := max(1, int(math.Ceil(float64(peak)/5)))
	ticks := []chart.Tick{{Value: 0, Label: "0"}}
	for value := step; ; value += step {
		ticks = append(ticks, chart.Tick{Value: float64(value), Label: fmt.Sprint(value)})
		if value >= peak {
			return ticks
		}
	}
}

// shortDate drops the year: "2025-01-02" becomes "01-02".
func shortDate(date string) string {
	if len(date) == len(cancellations.DateLayout) {
		return date[len("2006-"):]
	}
	return date
}
