package infographic

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"traffic-infographic/internal/features/charts"
	"traffic-infographic/internal/infra/failure"
	logging "traffic-infographic/internal/infra/log"
)

const sampleCSV = "Month,Organic,Paid,Sales\nJan,100,50,1000\nFeb,150,50,1200\n"

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	renderer, err := charts.NewRenderer(charts.Options{}, nil)
	require.NoError(t, err)
	return NewPipeline(renderer, nil)
}

func TestBuildAddsHeaderBand(t *testing.T) {
	p := newTestPipeline(t)

	for _, input := range []string{
		sampleCSV,
		"Month,Organic,Sales\nJan,1,2\n",
		"Week,A,B,C,D,E,Revenue\nW1,1,2,3,4,5,10\nW2,5,4,3,2,1,11\nW3,0,0,0,0,1,12\n",
	} {
		ig, err := p.Build(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 1000, ig.Width())
		assert.Equal(t, 1000+HeaderHeight, ig.Height())
	}
}

func TestBuildRejectsBeforeRendering(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		name  string
		input string
		kind  failure.Kind
	}{
		{"two columns", "Month,Sales\nJan,10\n", failure.KindSchema},
		{"header only", "Month,Organic,Paid,Sales\n", failure.KindSchema},
		{"non numeric", "Month,Organic,Sales\nJan,x,1\n", failure.KindParse},
		{"broken quoting", "Month,Organic,Sales\n\"Jan,1,2\n", failure.KindParse},
		{"all zero traffic", "Month,Organic,Sales\nJan,0,1\n", failure.KindRender},
		{"sales span overflows", "Month,A,B,Sales\nJan,1,1,1e308\nFeb,1,1,-1e308\n", failure.KindRender},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ig, err := p.Build(strings.NewReader(tc.input))
			assert.Nil(t, ig)
			require.Error(t, err)
			assert.Equal(t, tc.kind, failure.KindOf(err))
		})
	}
}

func TestFailuresAreLoggedWithStage(t *testing.T) {
	fileCore, logs := observer.New(zapcore.DebugLevel)
	consoleCore, _ := observer.New(zapcore.InfoLevel)
	p := newTestPipeline(t).WithLogger(logging.NewWithCores(fileCore, consoleCore))

	_, err := p.Build(strings.NewReader("Month,Sales\nJan,10\n"))
	require.Error(t, err)

	failed := logs.FilterMessage("Infographic pipeline failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, "roles", fields["stage"])
	assert.Equal(t, "schema", fields["kind"])
}

func TestComposeLayout(t *testing.T) {
	renderer, err := charts.NewRenderer(charts.Options{DPI: 40}, nil)
	require.NoError(t, err)
	p := NewPipeline(renderer, nil)

	ig, err := p.Build(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 400, ig.Width())
	assert.Equal(t, 600, ig.Height())

	img := ig.Image()
	white := color.RGBA{255, 255, 255, 255}
	at := func(x, y int) color.RGBA {
		return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	}

	// header text is dark ink somewhere in the first lines
	assert.True(t, hasInk(img, image.Rect(textX, titleY, 300, titleY+13)))
	assert.True(t, hasInk(img, image.Rect(textX, captionY, 390, captionY+13)))
	// band below the pasted raster stays white
	for y := ChartOffsetY + 400; y < 600; y += 17 {
		assert.Equal(t, white, at(200, y), "y=%d", y)
	}
	assert.Equal(t, white, at(399, 0))
}

func TestBuildIsDeterministic(t *testing.T) {
	p := newTestPipeline(t)
	a, err := p.Build(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	b, err := p.Build(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	ra := a.Image().(*image.RGBA)
	rb := b.Image().(*image.RGBA)
	assert.True(t, bytes.Equal(ra.Pix, rb.Pix))
}

func hasInk(img image.Image, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if c.R < 128 && c.G < 128 && c.B < 128 {
				return true
			}
		}
	}
	return false
}

func TestBuildFinishesNearFloatLimits(t *testing.T) {
	renderer, err := charts.NewRenderer(charts.Options{DPI: 30}, nil)
	require.NoError(t, err)
	p := NewPipeline(renderer, nil)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"huge traffic means", "Month,A,B,Sales\nJan,1e308,1,5\nFeb,1e308,1,6\n", false},
		{"huge sales", "Month,A,B,Sales\nJan,1,1,1e308\nFeb,1,1,1e308\n", false},
		{"sales span overflows", "Month,A,B,Sales\nJan,1,1,1e308\nFeb,1,1,-1e308\n", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				_, err := p.Build(strings.NewReader(tc.input))
				done <- err
			}()

			select {
			case err := <-done:
				if tc.wantErr {
					assert.Equal(t, failure.KindRender, failure.KindOf(err))
				} else {
					assert.NoError(t, err)
				}
			case <-time.After(30 * time.Second):
				t.Fatal("Build did not return")
			}
		})
	}
}

func TestWithNilLoggerDiscards(t *testing.T) {
	p := newTestPipeline(t).WithLogger(nil)

	_, err := p.Build(strings.NewReader("Month,Sales\nJan,10\n"))
	assert.Equal(t, failure.KindSchema, failure.KindOf(err))
}
