package delivery

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-infographic/internal/features/charts"
	"traffic-infographic/internal/features/infographic"
	"traffic-infographic/internal/infra/failure"
)

const sampleCSV = "Month,Organic,Paid,Sales\nJan,100,50,1000\nFeb,150,50,1200\n"

func buildInfographic(t *testing.T) *infographic.Infographic {
	t.Helper()
	renderer, err := charts.NewRenderer(charts.Options{DPI: 30}, nil)
	require.NoError(t, err)
	ig, err := infographic.NewPipeline(renderer, nil).Build(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return ig
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"encode":    ModeEncode,
		" Persist ": ModePersist,
		"TELEGRAM":  ModeTelegram,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("email")
	assert.Error(t, err)
}

func TestNewSelectsAdapterByMode(t *testing.T) {
	a, err := New(Config{Mode: "encode"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeEncode, a.Mode())

	a, err = New(Config{Mode: "persist", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.Equal(t, ModePersist, a.Mode())

	_, err = New(Config{Mode: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}

func TestNewPersistRequiresExistingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "output")

	_, err := New(Config{Mode: "persist", Dir: missing}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory unavailable")

	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr), "directory must not be created")

	file := filepath.Join(t.TempDir(), "file.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = New(Config{Mode: "persist", Dir: file}, nil)
	assert.ErrorContains(t, err, "is not a directory")
}

func TestEncoderReturnsDecodablePNG(t *testing.T) {
	ig := buildInfographic(t)

	res, err := NewEncoder().Deliver(ig)
	require.NoError(t, err)
	assert.Equal(t, ModeEncode, res.Mode)

	raw, err := base64.StdEncoding.DecodeString(res.Image)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, ig.Width(), cfg.Width)
	assert.Equal(t, ig.Height(), cfg.Height)
}

func TestEncoderIsByteIdenticalAcrossRuns(t *testing.T) {
	first, err := NewEncoder().Deliver(buildInfographic(t))
	require.NoError(t, err)
	second, err := NewEncoder().Deliver(buildInfographic(t))
	require.NoError(t, err)
	assert.Equal(t, first.Image, second.Image)
}

func TestPersisterWritesFixedFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, "", nil)

	res, err := p.Deliver(buildInfographic(t))
	require.NoError(t, err)

	want, err := filepath.Abs(filepath.Join(dir, DefaultFilename))
	require.NoError(t, err)
	assert.Equal(t, want, res.Path)
	assert.Equal(t, "Infographic saved to "+want, res.Message())

	_, err = os.Stat(res.Path)
	assert.NoError(t, err)
}

func TestPersisterConcurrentWritesLeaveOneFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, "out.png", nil)
	ig := buildInfographic(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Deliver(ig)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPersisterMissingDirectoryIsIOError(t *testing.T) {
	p := NewPersister(filepath.Join(t.TempDir(), "nope"), "out.png", nil)

	_, err := p.Deliver(buildInfographic(t))
	require.Error(t, err)
	assert.Equal(t, failure.KindIO, failure.KindOf(err))
	assert.Equal(t, 500, failure.StatusCode(err))
}

type fakeSender struct {
	mu    sync.Mutex
	calls int
	err   error
	last  tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = c
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	return tgbotapi.Message{MessageID: 40 + f.calls}, nil
}

func TestTelegramPublisherSendsPhoto(t *testing.T) {
	sender := &fakeSender{}
	pub, err := NewTelegramPublisher(sender, "-100123", "", nil)
	require.NoError(t, err)
	assert.Equal(t, ModeTelegram, pub.Mode())

	res, err := pub.Deliver(buildInfographic(t))
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), res.ChatID)
	assert.Equal(t, 41, res.MessageID)
	assert.Equal(t, "Infographic sent to chat -100123 (message 41)", res.Message())

	photo, ok := sender.last.(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100123), photo.ChatID)
	assert.Equal(t, infographic.Caption, photo.Caption)
	file, ok := photo.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, DefaultFilename, file.Name)
	assert.NotEmpty(t, file.Bytes)
}

func TestTelegramPublisherFailuresTripBreaker(t *testing.T) {
	sender := &fakeSender{err: errors.New("bad gateway")}
	pub, err := NewTelegramPublisher(sender, "42", "chart.png", nil)
	require.NoError(t, err)
	ig := buildInfographic(t)

	for i := 0; i < 5; i++ {
		_, err := pub.Deliver(ig)
		require.Error(t, err)
		assert.Equal(t, failure.KindIO, failure.KindOf(err))
	}
	assert.Equal(t, 5, sender.calls)

	_, err = pub.Deliver(ig)
	require.Error(t, err)
	assert.Equal(t, 5, sender.calls, "open breaker must not reach telegram")
}

func TestTelegramPublisherRejectsBadChatID(t *testing.T) {
	_, err := NewTelegramPublisher(&fakeSender{}, "general", "", nil)
	assert.Error(t, err)
}
