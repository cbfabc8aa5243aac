package charts

import (
	"fmt"
	"image"
	"math"

	"traffic-infographic/internal/features/sheet"

	"github.com/fogleman/gg"
)

const (
	PieTitle = "Average Website Traffic Sources"

	pieStartAngle   = 140.0 // degrees, counterclockwise from 3 o'clock
	pieRadiusRatio  = 0.32  // of the cell side
	pieLabelRadius  = 1.1   // slice name distance, in radii
	piePctRadius    = 0.6   // percentage distance, in radii
	pieCenterOffset = 0.03  // pushes the pie below the title, in cell sides
)

// piePalette cycles when there are more than four sources.
var piePalette = []string{"#ff9999", "#66b3ff", "#99ff99", "#ffcc99"}

type pieLayout struct {
	cx, cy, radius float64
}

func newPieLayout(cellRect image.Rectangle) pieLayout {
	side := float64(cellRect.Dx())
	return pieLayout{
		cx:     float64(cellRect.Min.X) + side/2,
		cy:     float64(cellRect.Min.Y) + side/2 + side*pieCenterOffset,
		radius: side * pieRadiusRatio,
	}
}

// point converts a polar position (degrees, counterclockwise, radii) into
// canvas pixels. Canvas y grows downwards.
func (p pieLayout) point(angleDeg, radii float64) (float64, float64) {
	rad := gg.Radians(angleDeg)
	return p.cx + radii*p.radius*math.Cos(rad), p.cy - radii*p.radius*math.Sin(rad)
}

type wedge struct {
	from, to float64 // degrees, counterclockwise
}

func (w wedge) mid() float64 { return (w.from + w.to) / 2 }

// wedges lays slices out counterclockwise from pieStartAngle in input order.
func wedges(fractions []float64) []wedge {
	out := make([]wedge, len(fractions))
	angle := pieStartAngle
	for i, f := range fractions {
		out[i] = wedge{from: angle, to: angle + f*360}
		angle = out[i].to
	}
	return out
}

func pieColor(i int) string {
	return piePalette[i%len(piePalette)]
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

func (r *Renderer) drawPie(dc *gg.Context, cellRect image.Rectangle, shares []sheet.Share, fractions []float64) {
	r.drawTitle(dc, cellRect, PieTitle)

	layout := newPieLayout(cellRect)
	slices := wedges(fractions)

	for i, w := range slices {
		if fractions[i] == 0 {
			continue
		}
		dc.MoveTo(layout.cx, layout.cy)
		// gg angles run clockwise on screen, so negate to go counterclockwise.
		dc.DrawArc(layout.cx, layout.cy, layout.radius, gg.Radians(-w.from), gg.Radians(-w.to))
		dc.ClosePath()
		dc.SetHexColor(pieColor(i))
		dc.Fill()
	}

	dc.SetFontFace(r.face(labelFontSize))
	dc.SetRGB(0, 0, 0)
	for i, w := range slices {
		mid := w.mid()

		lx, ly := layout.point(mid, pieLabelRadius)
		ax := 0.0
		if math.Cos(gg.Radians(mid)) < 0 {
			ax = 1.0
		}
		dc.DrawStringAnchored(shares[i].Source, lx, ly, ax, 0.5)

		px, py := layout.point(mid, piePctRadius)
		dc.DrawStringAnchored(formatPercent(fractions[i]), px, py, 0.5, 0.5)
	}
}
