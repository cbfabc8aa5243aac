package charts

// Chart renderer
// Draws the traffic pie and the sales bar chart into the top row of a square
// 2x2 grid; the bottom row is left blank for future panels

import (
	"image"
	"image/color"
	"math"
	"os"

	"traffic-infographic/internal/features/sheet"
	"traffic-infographic/internal/infra/failure"
	logging "traffic-infographic/internal/infra/log"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	stageCharts = "charts"

	figureInches = 10.0 // the canvas is figureInches x figureInches
	gridCells    = 2    // cells per side

	DefaultDPI = 100.0

	titleFontSize = 12.0
	labelFontSize = 10.0
	tickFontSize  = 8.0
)

// Raster is the rendered chart canvas handed to the composer.
type Raster struct {
	img image.Image
}

func (r *Raster) Image() image.Image { return r.img }
func (r *Raster) Width() int         { return r.img.Bounds().Dx() }
func (r *Raster) Height() int        { return r.img.Bounds().Dy() }

type Options struct {
	DPI      float64
	FontPath string // optional TTF; the embedded Go Regular face otherwise
}

type Renderer struct {
	dpi  float64
	font *truetype.Font
	log  *logging.Logger
}

func NewRenderer(opts Options, logger *logging.Logger) (*Renderer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	f, err := loadFont(opts.FontPath, logger)
	if err != nil {
		return nil, err
	}

	return &Renderer{dpi: dpi, font: f, log: logger}, nil
}

func loadFont(path string, logger *logging.Logger) (*truetype.Font, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			f, err := truetype.Parse(data)
			if err == nil {
				logger.Info("Loaded chart font", zap.String("path", path), zap.Int("size", len(data)))
				return f, nil
			}
			logger.Warn("Font file exists but failed to parse", zap.String("path", path), zap.Error(err))
		} else {
			logger.Warn("Failed to read chart font, using embedded Go Regular", zap.String("path", path), zap.Error(err))
		}
	}
	return truetype.Parse(goregular.TTF)
}

// CanvasSize is the pixel width and height of every raster this renderer makes.
func (r *Renderer) CanvasSize() int {
	return int(figureInches * r.dpi)
}

func (r *Renderer) face(points float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{
		Size:    points,
		DPI:     r.dpi,
		Hinting: font.HintingFull,
	})
}

// Render draws both charts. Empty or undrawable aggregates fail with a
// render error instead of producing a blank panel.
func (r *Renderer) Render(agg *sheet.Aggregates) (*Raster, error) {
	if agg == nil || len(agg.TrafficShare) == 0 {
		return nil, failure.Render(stageCharts, "no traffic sources to chart", nil)
	}
	if len(agg.SalesByPeriod) == 0 {
		return nil, failure.Render(stageCharts, "no sales periods to chart", nil)
	}
	for _, s := range agg.TrafficShare {
		if math.IsNaN(s.Mean) || math.IsInf(s.Mean, 0) {
			return nil, failure.Render(stageCharts, "non-finite traffic share for "+s.Source, nil)
		}
		if s.Mean < 0 {
			return nil, failure.Render(stageCharts, "negative traffic share for "+s.Source, nil)
		}
	}
	fractions := agg.Fractions()
	if fractions == nil {
		return nil, failure.Render(stageCharts, "traffic shares sum to zero", nil)
	}
	for _, f := range fractions {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, failure.Render(stageCharts, "non-finite traffic fraction", nil)
		}
	}

	size := r.CanvasSize()
	cell := size / gridCells

	dc := gg.NewContext(size, size)
	dc.SetColor(color.White)
	dc.Clear()

	r.drawPie(dc, image.Rect(0, 0, cell, cell), agg.TrafficShare, fractions)

	if err := r.drawBars(dc, image.Rect(cell, 0, 2*cell, cell), agg.SalesByPeriod); err != nil {
		return nil, err
	}

	r.log.Debug("Charts rendered",
		zap.Int("width", size),
		zap.Int("height", size),
		zap.Int("slices", len(fractions)),
		zap.Int("bars", len(agg.SalesByPeriod)))

	return &Raster{img: dc.Image()}, nil
}

func (r *Renderer) drawTitle(dc *gg.Context, cellRect image.Rectangle, title string) {
	dc.SetFontFace(r.face(titleFontSize))
	dc.SetColor(color.Black)
	x := float64(cellRect.Min.X) + float64(cellRect.Dx())/2
	y := float64(cellRect.Min.Y) + titleTop(r.dpi)
	dc.DrawStringAnchored(title, x, y, 0.5, 0.5)
}

// titleTop is the title baseline band measured from the top of a cell.
func titleTop(dpi float64) float64 {
	return 0.3 * dpi
}
