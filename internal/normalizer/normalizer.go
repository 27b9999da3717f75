package normalizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"

	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/pkg/validation"
)

// OutputMIMEType is the format every normalized photo is re-encoded to.
const OutputMIMEType = "image/jpeg"

// DefaultMaxPixels caps the decoded raster of a source photo.
const DefaultMaxPixels = validation.DefaultMaxPixels

// decodableFormats are the content formats a photo may actually be in,
// whatever its declared MIME type.
var decodableFormats = map[string]bool{"jpeg": true, "png": true, "webp": true}

// Options is the bounding box and encoding quality applied to every photo.
type Options struct {
	MaxWidth  int
	MaxHeight int
	// Quality is in (0,1].
	Quality float64
	// MaxPixels bounds width*height of the source before it is decoded.
	MaxPixels int64
}

// DefaultOptions returns a 1200x1200 box at quality 0.85.
func DefaultOptions() Options {
	return Options{MaxWidth: 1200, MaxHeight: 1200, Quality: 0.85, MaxPixels: DefaultMaxPixels}
}

// NormalizedImage is the transmittable form of a photo.
type NormalizedImage struct {
	Encoded  string  `json:"image"`
	Data     []byte  `json:"-"`
	MIMEType string  `json:"mimeType"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Quality  float64 `json:"quality"`
	// Pixels is the resampled raster, kept for in-process inspection.
	Pixels image.Image `json:"-"`
}

// Normalizer decodes, bounds and re-encodes photos.
type Normalizer struct {
	opts Options
}

// New returns a normalizer; zero fields of opts take the defaults.
func New(opts Options) *Normalizer {
	def := DefaultOptions()
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = def.MaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = def.MaxHeight
	}
	if opts.Quality <= 0 || opts.Quality > 1 {
		opts.Quality = def.Quality
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = def.MaxPixels
	}
	return &Normalizer{opts: opts}
}

// Options returns the effective options.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize always decodes and re-encodes, even when the source is already a
// small JPEG. It never upscales.
func (n *Normalizer) Normalize(ctx context.Context, asset ImageAsset) (*NormalizedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := n.checkHeader(asset.Data); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		return nil, apperrors.NewDecodeError("image could not be decoded", err)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperrors.NewDecodeError("image has no pixels", nil)
	}

	w, h := FitWithin(b.Dx(), b.Dy(), n.opts.MaxWidth, n.opts.MaxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; transparent regions end up white.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(n.opts.Quality)}); err != nil {
		return nil, apperrors.NewInternalError("failed to encode normalized image", err)
	}

	return &NormalizedImage{
		Encoded:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		Data:     buf.Bytes(),
		MIMEType: OutputMIMEType,
		Width:    w,
		Height:   h,
		Quality:  n.opts.Quality,
		Pixels:   dst,
	}, nil
}

// checkHeader reads only the image header and refuses content that is not
// a supported photo format or whose raster would exceed MaxPixels.
func (n *Normalizer) checkHeader(data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return apperrors.NewValidationError(validation.MsgUnsupportedFormat, err)
	}
	if err != nil {
		return apperrors.NewDecodeError("image header could not be read", err)
	}
	if !decodableFormats[format] {
		appErr := apperrors.NewValidationError(validation.MsgUnsupportedFormat, nil)
		appErr.Details = fmt.Sprintf("content format %q", format)
		return appErr
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > n.opts.MaxPixels {
		appErr := apperrors.NewValidationError(validation.MsgImageDimensions, nil)
		appErr.Details = fmt.Sprintf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, n.opts.MaxPixels)
		return appErr
	}
	return nil
}

// FitWithin returns the size of a w x h image uniformly scaled down to fit
// maxW x maxH. Sizes already inside the box are returned unchanged. The
// scaled sides are floored, with a minimum of one pixel.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Integer cross-multiplication picks the binding side without float rounding.
	var outW, outH int
	if int64(maxW)*int64(h) <= int64(maxH)*int64(w) {
		outW = maxW
		outH = int(int64(h) * int64(maxW) / int64(w))
	} else {
		outH = maxH
		outW = int(int64(w) * int64(maxH) / int64(h))
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
