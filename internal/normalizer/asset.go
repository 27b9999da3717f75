package normalizer

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ImageAsset is an uploaded photo before normalization.
type ImageAsset struct {
	FileName string
	Data     []byte
	MIMEType string
	Size     int64
	// Format is the decoder name read from the content ("jpeg", "png",
	// "webp"); Width and Height are zero when the header could not be read.
	Format string
	Width  int
	Height int
}

// NewImageAsset records the upload and, when the header is readable, its pixel size.
func NewImageAsset(fileName string, data []byte, mimeType string) ImageAsset {
	asset := ImageAsset{
		FileName: fileName,
		Data:     data,
		MIMEType: mimeType,
		Size:     int64(len(data)),
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		asset.Format = format
		asset.Width = cfg.Width
		asset.Height = cfg.Height
	}
	return asset
}
