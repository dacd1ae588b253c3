// Package imaging implements the image utilities used by profile-picture setup:
// EXIF orientation correction, cropping to a square avatar, and staging of
// uploads between the select and crop steps.
package imaging

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/target/onboard-ui/internal/ports"
)

var (
	// ErrNoImageData is returned when there is no image to work with.
	ErrNoImageData = errors.New("imaging: no image data")
	// ErrInvalidCrop is returned when the crop region does not overlap the image.
	ErrInvalidCrop = errors.New("imaging: crop region outside image")
)

const (
	DefaultAvatarSize  = 256
	DefaultJPEGQuality = 85
	previewMaxSide     = 1024
)

var _ ports.ImageProcessor = (*Processor)(nil)

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	// AvatarSize is the side length of the square output in pixels.
	AvatarSize int
	// Quality is the JPEG quality of the output.
	Quality int
}

// Processor implements ports.ImageProcessor with github.com/disintegration/imaging.
type Processor struct {
	size    int
	quality int
}

// NewProcessor creates a Processor, applying defaults for zero options.
func NewProcessor(opts ProcessorOptions) *Processor {
	p := &Processor{size: opts.AvatarSize, quality: opts.Quality}
	if p.size <= 0 {
		p.size = DefaultAvatarSize
	}
	if p.quality <= 0 || p.quality > 100 {
		p.quality = DefaultJPEGQuality
	}
	return p
}

// FixOrientation decodes r and rotates/flips it according to its EXIF orientation tag.
// Empty input yields ErrNoImageData.
func (p *Processor) FixOrientation(ctx context.Context, r io.Reader) (image.Image, error) {
	if r == nil {
		return nil, ErrNoImageData
	}
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoImageData
		}
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(br, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Crop cuts params out of img, scales it to the avatar size and encodes it as JPEG.
// An empty region selects the largest centered square.
func (p *Processor) Crop(ctx context.Context, img image.Image, params ports.CropParams) ([]byte, error) {
	if img == nil {
		return nil, ErrNoImageData
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrNoImageData
	}

	var region image.Image
	if params.Empty() {
		region = imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)
	} else {
		rect := image.Rect(params.X, params.Y, params.X+params.Width, params.Y+params.Height).
			Add(bounds.Min).
			Intersect(bounds)
		if rect.Empty() {
			return nil, ErrInvalidCrop
		}
		region = imaging.Fill(imaging.Crop(img, rect), p.size, p.size, imaging.Center, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, region, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePreview writes a JPEG of img no larger than the preview size to w.
func EncodePreview(w io.Writer, img image.Image) error {
	if img == nil {
		return ErrNoImageData
	}
	b := img.Bounds()
	if b.Dx() > previewMaxSide || b.Dy() > previewMaxSide {
		img = imaging.Fit(img, previewMaxSide, previewMaxSide, imaging.Lanczos)
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(DefaultJPEGQuality))
}
