// Package imaging prepares scanned documents for OCR: decoding, binarization
// and cropping of field regions.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	dErrors "idcheck/pkg/domain-errors"
)

const epsilon = 1e-9

// MaxPixels bounds the decoded size of a scan; headers announcing more are
// rejected before any pixel data is allocated.
const MaxPixels = 40_000_000

// Region is a rectangle in coordinates normalized to the image size, so one
// layout serves scans of any resolution.
type Region struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

// Validate checks that the region lies inside the unit square.
func (r Region) Validate() error {
	if r.W <= 0 || r.H <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "region must have positive width and height")
	}
	if r.X < 0 || r.Y < 0 || r.X+r.W > 1+epsilon || r.Y+r.H > 1+epsilon {
		return dErrors.New(dErrors.CodeInvalidInput, "region must lie within the image")
	}
	return nil
}

// Decode reads a PNG, JPEG or GIF image no larger than MaxPixels.
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "failed to read image")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "unsupported or corrupt image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "image has no pixels")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", dErrors.Newf(dErrors.CodeInvalidInput, "image is %dx%d, above the %d pixel limit", cfg.Width, cfg.Height, MaxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "unsupported or corrupt image")
	}
	return img, format, nil
}

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// OtsuLevel picks the threshold that maximizes between-class variance of the
// luminance histogram.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var (
		sumB    float64
		weightB int
		best    float64
		level   uint8
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level
}

// Threshold maps pixels above level to white and the rest to black.
func Threshold(gray *image.Gray, level uint8) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray.GrayAt(x, y).Y > level {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// Binarize is Grayscale followed by an Otsu threshold.
func Binarize(img image.Image) *image.Gray {
	gray := Grayscale(img)
	return Threshold(gray, OtsuLevel(gray))
}

// Crop returns the part of img covered by region.
func Crop(img image.Image, region Region) (image.Image, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	rect := image.Rect(
		b.Min.X+int(region.X*float64(b.Dx())),
		b.Min.Y+int(region.Y*float64(b.Dy())),
		b.Min.X+int((region.X+region.W)*float64(b.Dx())),
		b.Min.Y+int((region.Y+region.H)*float64(b.Dy())),
	).Intersect(b)
	if rect.Empty() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "region is empty at this image size")
	}

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(rect), nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, nil
}

// String renders a region for logs.
func (r Region) String() string {
	return fmt.Sprintf("(%.3f,%.3f %.3fx%.3f)", r.X, r.Y, r.W, r.H)
}
