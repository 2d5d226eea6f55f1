package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"

	// registered decoders for POD uploads
	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// ProcessPhoto decodes an uploaded photo, shrinks it to fit within maxSide
// pixels on its longest edge and re-encodes it as JPEG.
func ProcessPhoto(r io.Reader, maxSide uint, quality int) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	img = FitImage(img, maxSide)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FitImage scales img down so neither side exceeds maxSide. Smaller images
// are returned untouched.
func FitImage(img image.Image, maxSide uint) image.Image {
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width <= maxSide && height <= maxSide {
		return img
	}

	// zero lets resize keep the aspect ratio
	if width >= height {
		return resize.Resize(maxSide, 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, maxSide, img, resize.Lanczos3)
}
