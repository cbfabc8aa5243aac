package charts

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"strconv"

	"traffic-infographic/internal/features/sheet"
	"traffic-infographic/internal/infra/failure"

	"github.com/fogleman/gg"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	BarTitle  = "Monthly Sales"
	BarXLabel = "Months"
	BarYLabel = "Sales"

	barColorHex  = "87ceeb" // skyblue
	barFillRatio = 0.8      // bar width share of each slot
	rangeMargin  = 0.05     // headroom above the tallest bar
)

// barPlotArea is the part of the cell handed to go-chart; the rest holds the
// title and the axis labels drawn with gg.
func barPlotArea(cellRect image.Rectangle, dpi float64) image.Rectangle {
	left := int(0.45 * dpi)
	top := int(0.55 * dpi)
	bottom := int(0.45 * dpi)
	right := int(0.1 * dpi)
	return image.Rect(cellRect.Min.X+left, cellRect.Min.Y+top, cellRect.Max.X-right, cellRect.Max.Y-bottom)
}

// valueRange always includes zero so bar heights read from the baseline.
// A range whose span does not fit in a float64 cannot be drawn.
func valueRange(periods []sheet.Period) (float64, float64, error) {
	lo, hi := 0.0, 0.0
	for _, p := range periods {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return 0, 0, failure.Render(stageCharts, "non-finite sales value for "+p.Label, nil)
		}
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	span := hi - lo
	if math.IsInf(span, 0) {
		return 0, 0, failure.Render(stageCharts, "sales range too wide to chart", nil)
	}
	if span == 0 {
		return lo, lo + 1, nil
	}

	top, bottom := hi, lo
	pad := span * rangeMargin
	if hi > 0 {
		top = hi + pad
	}
	if lo < 0 {
		bottom = lo - pad
	}
	if math.IsInf(top-bottom, 0) {
		return lo, hi, nil
	}
	return bottom, top, nil
}

func formatTick(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func (r *Renderer) barChart(periods []sheet.Period, width, height int) (chart.BarChart, error) {
	fill := drawing.ColorFromHex(barColorHex)

	slot := float64(width) / float64(len(periods))
	barWidth := int(math.Max(1, slot*barFillRatio))
	spacing := int(math.Max(1, slot-float64(barWidth)))

	bars := make([]chart.Value, len(periods))
	for i, p := range periods {
		bars[i] = chart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		}
	}

	lo, hi, err := valueRange(periods)
	if err != nil {
		return chart.BarChart{}, err
	}

	return chart.BarChart{
		Width:      width,
		Height:     height,
		DPI:        r.dpi,
		Font:       r.font,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 8, Left: 8, Right: 8, Bottom: 8}},
		XAxis:      chart.Style{FontSize: tickFontSize},
		YAxis: chart.YAxis{
			Style:          chart.Style{FontSize: tickFontSize},
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: formatTick,
		},
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}, nil
}

func (r *Renderer) drawBars(dc *gg.Context, cellRect image.Rectangle, periods []sheet.Period) error {
	r.drawTitle(dc, cellRect, BarTitle)

	area := barPlotArea(cellRect, r.dpi)
	bc, err := r.barChart(periods, area.Dx(), area.Dy())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return failure.Render(stageCharts, "bar chart", err)
	}
	plot, err := png.Decode(&buf)
	if err != nil {
		return failure.Render(stageCharts, "decode bar chart", err)
	}
	dc.DrawImage(plot, area.Min.X, area.Min.Y)

	dc.SetFontFace(r.face(labelFontSize))
	dc.SetRGB(0, 0, 0)

	xLabelY := float64(area.Max.Y) + float64(cellRect.Max.Y-area.Max.Y)/2
	dc.DrawStringAnchored(BarXLabel, float64(area.Min.X+area.Max.X)/2, xLabelY, 0.5, 0.5)

	yLabelX := float64(cellRect.Min.X) + float64(area.Min.X-cellRect.Min.X)/2
	yLabelY := float64(area.Min.Y+area.Max.Y) / 2
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), yLabelX, yLabelY)
	dc.DrawStringAnchored(BarYLabel, yLabelX, yLabelY, 0.5, 0.5)
	dc.Pop()

	return nil
}
