package infographic

import (
	"image"
	"image/color"

	"traffic-infographic/internal/features/charts"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	HeaderHeight = 200 // extra rows added above the chart raster
	ChartOffsetY = 80  // raster is pasted at this y, left-aligned

	Title   = "Infographic: Website Traffic and Sales Data"
	Caption = "This infographic visualizes average website traffic sources and monthly sales trends."

	textX    = 10
	titleY   = 10
	captionY = 40
)

// Infographic is the final composed image.
type Infographic struct {
	img image.Image
}

func (i *Infographic) Image() image.Image { return i.img }
func (i *Infographic) Width() int         { return i.img.Bounds().Dx() }
func (i *Infographic) Height() int        { return i.img.Bounds().Dy() }

// Compose puts the static header above the raster on a white canvas.
func Compose(raster *charts.Raster) *Infographic {
	width := raster.Width()
	height := raster.Height() + HeaderHeight

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(color.Black)
	// anchored at the top-left corner of the text box
	dc.DrawStringAnchored(Title, textX, titleY, 0, 1)
	dc.DrawStringAnchored(Caption, textX, captionY, 0, 1)

	dc.DrawImage(raster.Image(), 0, ChartOffsetY)

	return &Infographic{img: dc.Image()}
}
