// Package chart draws the history and forecast line chart.
package chart

import (
	"bytes"
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"stockcast/market"
)

var (
	historyColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	forecastColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Options describes the chart labels and size.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
}

func DefaultOptions(title string) Options {
	return Options{
		Title:  title,
		XLabel: "Date",
		YLabel: "Close Price",
		Width:  12 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

// RenderPNG draws history as a solid line and forecast as a dashed line with
// point markers, and returns the encoded PNG.
func RenderPNG(history, forecast []market.PricePoint, opts Options) ([]byte, error) {
	if len(history) == 0 {
		return nil, errors.New("chart: history is empty")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: market.DateLayout}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	historyLine, err := plotter.NewLine(toXYs(history))
	if err != nil {
		return nil, err
	}
	historyLine.Color = historyColor
	historyLine.Width = vg.Points(1.5)
	p.Add(historyLine)
	p.Legend.Add("Historical Data", historyLine)

	if len(forecast) > 0 {
		forecastLine, err := plotter.NewLine(toXYs(forecast))
		if err != nil {
			return nil, err
		}
		forecastLine.Color = forecastColor
		forecastLine.Width = vg.Points(1.5)
		forecastLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

		markers, err := plotter.NewScatter(toXYs(forecast))
		if err != nil {
			return nil, err
		}
		markers.Color = forecastColor
		markers.Radius = vg.Points(2)

		p.Add(forecastLine, markers)
		p.Legend.Add("Forecast", forecastLine)
	}

	width, height := opts.Width, opts.Height
	if width == 0 || height == 0 {
		width, height = 12*vg.Inch, 6*vg.Inch
	}
	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toXYs(points []market.PricePoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Date.Unix())
		xys[i].Y = pt.Close
	}
	return xys
}
