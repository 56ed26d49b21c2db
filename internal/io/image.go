package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// jpegQuality is used for every cover re-encode.
const jpegQuality = 90

// CoverOptions controls how a cover is prepared for tag embedding.
type CoverOptions struct {
	// MaxSize bounds both sides of the cover. Zero disables resizing.
	MaxSize int

	// JPEG converts non-JPEG covers to JPEG.
	JPEG bool
}

// ImageService provides image processing operations for cover art.
//
// Covers are prepared before they are embedded in audio tags, where
// large PNG images bloat every tagged file. Standalone cover files are
// written untouched.
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// PrepareCover applies opts to a cover. A step that fails leaves the
// cover as it was before that step and its error is returned alongside
// the best cover obtained.
func (s *ImageService) PrepareCover(ctx context.Context, data []byte, opts CoverOptions) ([]byte, []error) {
	var errs []error
	if opts.MaxSize > 0 {
		resized, err := s.ResizeImage(ctx, data, opts.MaxSize, opts.MaxSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("resize cover: %w", err))
		} else {
			data = resized
		}
	}
	if opts.JPEG {
		converted, err := s.ConvertToJPEG(ctx, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("convert cover: %w", err))
		} else {
			data = converted
		}
	}
	return data, errs
}

// ResizeImage scales an image to fit within maxWidth x maxHeight,
// keeping its aspect ratio, and returns it JPEG-encoded. Images that
// already fit keep their size but are still re-encoded.
//
// A 1500x1000 image resized to fit 1000x1000 becomes 1000x666.
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid maximum size %dx%d", maxWidth, maxHeight)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	width, height := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), maxWidth, maxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return encodeJPEG(dst)
}

// fitWithin returns the largest size with the aspect ratio of w x h that
// fits in maxW x maxH, or w x h when it already fits.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := float64(w) / float64(h)
	if float64(maxW)/float64(maxH) > ratio {
		return int(float64(maxH) * ratio), maxH
	}
	return maxW, int(float64(maxW) / ratio)
}

// ConvertToJPEG re-encodes an image as JPEG. JPEG input is returned unchanged.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if IsJPEG(data) {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsJPEG reports whether data starts with the JPEG SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
}
