// internal/chart/chart.go
//
// PNG rendering of an author's score history for one game. Lower is better
// for every normalized score shape, so the Y axis is inverted to put good
// days on top.

package chart

import (
	"bytes"
	"fmt"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/robalobadob/puzzletrack/internal/store"
)

// ScoreHistory renders points as a PNG time-series line chart.
// With fewer than two points there is nothing to draw a line through, so a
// placeholder image is returned instead.
func ScoreHistory(points []store.Point, title string) ([]byte, error) {
	if len(points) < 2 {
		return placeholder(title)
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Time
		ys[i] = p.Value
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{
				Descending: true, // best (lowest) scores at the top
			},
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeWidth: 2,
					DotWidth:    4,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// placeholder renders a small "no data" image.
func placeholder(title string) ([]byte, error) {
	msg := "not enough data for " + title
	graph := gochart.Chart{
		Width:  400,
		Height: 200,
		// Render requires a visible series; keep a flat hidden-ish one and
		// draw the message over it.
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   gochart.Style{StrokeWidth: 0.01},
			},
		},
		Elements: []gochart.Renderable{
			func(r gochart.Renderer, cb gochart.Box, defaults gochart.Style) {
				r.SetFontSize(12)
				tb := r.MeasureText(msg)
				r.Text(msg, (cb.Width()-tb.Width())/2, (cb.Height()+tb.Height())/2)
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
