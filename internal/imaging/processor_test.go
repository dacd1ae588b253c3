package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/onboard-ui/internal/ports"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestFixOrientation(t *testing.T) {
	p := NewProcessor(ProcessorOptions{})
	ctx := context.Background()

	t.Run("decodes", func(t *testing.T) {
		img, err := p.FixOrientation(ctx, bytes.NewReader(testPNG(t, 40, 20)))
		require.NoError(t, err)
		assert.Equal(t, 40, img.Bounds().Dx())
		assert.Equal(t, 20, img.Bounds().Dy())
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := p.FixOrientation(ctx, bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrNoImageData)

		_, err = p.FixOrientation(ctx, nil)
		assert.ErrorIs(t, err, ErrNoImageData)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := p.FixOrientation(ctx, strings.NewReader("plain text"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoImageData)
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.FixOrientation(cctx, bytes.NewReader(testPNG(t, 4, 4)))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func decodeSize(t *testing.T, b []byte) image.Point {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img.Bounds().Size()
}

func TestCrop(t *testing.T) {
	p := NewProcessor(ProcessorOptions{AvatarSize: 64})
	ctx := context.Background()
	src := imaging.New(200, 100, color.NRGBA{G: 255, A: 255})

	t.Run("region", func(t *testing.T) {
		out, err := p.Crop(ctx, src, ports.CropParams{X: 10, Y: 10, Width: 50, Height: 50})
		require.NoError(t, err)
		assert.Equal(t, image.Pt(64, 64), decodeSize(t, out))
	})

	t.Run("empty region centers", func(t *testing.T) {
		out, err := p.Crop(ctx, src, ports.CropParams{})
		require.NoError(t, err)
		assert.Equal(t, image.Pt(64, 64), decodeSize(t, out))
	})

	t.Run("region clipped to bounds", func(t *testing.T) {
		out, err := p.Crop(ctx, src, ports.CropParams{X: 180, Y: 80, Width: 100, Height: 100})
		require.NoError(t, err)
		assert.Equal(t, image.Pt(64, 64), decodeSize(t, out))
	})

	t.Run("region outside image", func(t *testing.T) {
		_, err := p.Crop(ctx, src, ports.CropParams{X: 500, Y: 500, Width: 10, Height: 10})
		assert.ErrorIs(t, err, ErrInvalidCrop)
	})

	t.Run("no image", func(t *testing.T) {
		_, err := p.Crop(ctx, nil, ports.CropParams{})
		assert.ErrorIs(t, err, ErrNoImageData)
	})
}

func TestEncodePreview(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePreview(&buf, imaging.New(2000, 500, color.White)))
	size := decodeSize(t, buf.Bytes())
	assert.Equal(t, previewMaxSide, size.X)

	assert.ErrorIs(t, EncodePreview(&buf, nil), ErrNoImageData)
}

func TestNewProcessorDefaults(t *testing.T) {
	p := NewProcessor(ProcessorOptions{Quality: 500})
	assert.Equal(t, DefaultAvatarSize, p.size)
	assert.Equal(t, DefaultJPEGQuality, p.quality)
}
