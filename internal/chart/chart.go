// Package chart renders clustered open interest as a dark-themed scatter plot
// with a dashed reference line at the current price.
package chart

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/contactkeval/oi-clusters/internal/cluster"
)

// Default canvas size, matching a 10x6 inch figure at 100 dpi.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
)

// Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" (case-insensitive); empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

// Ext is the file extension, without the dot.
func (f Format) Ext() string {
	if f == SVG {
		return "svg"
	}
	return "png"
}

// ContentType is the MIME type for HTTP responses.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == SVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Input is everything one chart shows.
type Input struct {
	Ticker       string
	Expiry       string
	Calls        []cluster.Leg
	Puts         []cluster.Leg
	CurrentPrice float64
}

// Renderer draws Inputs. The zero value renders a default-sized PNG.
type Renderer struct {
	Width  int
	Height int
	Format Format
}

// FileName is the chart's file name for a ticker and expiry.
func (r Renderer) FileName(ticker, expiry string) string {
	return fmt.Sprintf("%s %s Open Interest.%s", ticker, expiry, r.Format.Ext())
}

var (
	colorBackground = drawing.ColorBlack
	colorText       = drawing.ColorWhite
	colorGrid       = drawing.ColorFromHex("808080")
)

// Render writes the chart to w. Either side may be empty; the current price
// line is always drawn.
func (r Renderer) Render(w io.Writer, in Input) error {
	width, height := r.Width, r.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	var series []gochart.Series
	series = append(series, sideSeries("Call", in.Calls, Cool)...)
	series = append(series, sideSeries("Put", in.Puts, Autumn)...)

	xRange, yRange := ranges(in)
	series = append(series, gochart.ContinuousSeries{
		Name:    "Current Price",
		XValues: []float64{in.CurrentPrice, in.CurrentPrice},
		YValues: []float64{yRange.Min, yRange.Max},
		Style: gochart.Style{
			StrokeColor:     colorText,
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{6, 4},
		},
	})

	axisStyle := gochart.Style{FontColor: colorText, StrokeColor: colorGrid}
	gridStyle := gochart.Style{StrokeColor: colorGrid, StrokeWidth: 0.5, StrokeDashArray: []float64{1, 3}}

	graph := gochart.Chart{
		Title:      fmt.Sprintf("Clustered Open Interest for %s (Exp: %s)", in.Ticker, in.Expiry),
		TitleStyle: gochart.Style{FontColor: colorText},
		Width:      width,
		Height:     height,
		Background: gochart.Style{
			FillColor: colorBackground,
			Padding:   gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: gochart.Style{FillColor: colorBackground},
		XAxis: gochart.XAxis{
			Name:           "Strike Price",
			NameStyle:      gochart.Style{FontColor: colorText},
			Style:          axisStyle,
			Range:          xRange,
			ValueFormatter: formatStrike,
			GridMajorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           "Open Interest",
			NameStyle:      gochart.Style{FontColor: colorText},
			Style:          axisStyle,
			Range:          yRange,
			ValueFormatter: formatCount,
			GridMajorStyle: gridStyle,
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{
		gochart.Legend(&graph, gochart.Style{
			FillColor:   drawing.ColorFromHex("1f1f1f"),
			FontColor:   colorText,
			StrokeColor: colorGrid,
		}),
	}

	if err := graph.Render(r.Format.provider(), w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// sideSeries builds one scatter series per cluster, named "<side> Cluster N" (1-based).
func sideSeries(side string, legs []cluster.Leg, palette func(n int) []drawing.Color) []gochart.Series {
	n := cluster.Count(legs)
	if n == 0 {
		return nil
	}
	colors := palette(n)

	out := make([]gochart.Series, 0, n)
	for i, color := range colors {
		members := cluster.Members(legs, i)
		if len(members) == 0 {
			continue
		}
		xs := make([]float64, len(members))
		ys := make([]float64, len(members))
		for j, m := range members {
			xs[j] = m.Strike
			ys[j] = float64(m.OpenInterest)
		}
		out = append(out, gochart.ContinuousSeries{
			Name:    fmt.Sprintf("%s Cluster %d", side, i+1),
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				StrokeColor: color,
				DotWidth:    5,
				DotColor:    color.WithAlpha(204),
			},
		})
	}
	return out
}

// ranges computes explicit axis ranges so degenerate inputs (no points, one
// point, all strikes equal) still have a non-zero extent.
func ranges(in Input) (*gochart.ContinuousRange, *gochart.ContinuousRange) {
	xMin, xMax := in.CurrentPrice, in.CurrentPrice
	yMax := 0.0
	for _, side := range [][]cluster.Leg{in.Calls, in.Puts} {
		for _, l := range side {
			xMin = math.Min(xMin, l.Strike)
			xMax = math.Max(xMax, l.Strike)
			yMax = math.Max(yMax, float64(l.OpenInterest))
		}
	}

	pad := (xMax - xMin) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(xMax)*0.05, 1)
	}
	if yMax <= 0 {
		yMax = 1
	}

	return &gochart.ContinuousRange{Min: xMin - pad, Max: xMax + pad},
		&gochart.ContinuousRange{Min: 0, Max: yMax * 1.1}
}

func formatStrike(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return ""
}

func formatCount(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(math.Round(f), 'f', 0, 64)
	}
	return ""
}
