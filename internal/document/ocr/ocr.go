// Package ocr extracts text from document regions.
package ocr

import (
	"context"
	"image"
)

// Hint tells the engine what layout to expect inside a region.
type Hint int

const (
	HintLine Hint = iota
	HintWord
	HintChar
)

func (h Hint) String() string {
	switch h {
	case HintLine:
		return "line"
	case HintWord:
		return "word"
	case HintChar:
		return "char"
	default:
		return "unknown"
	}
}

//go:generate mockgen -source=ocr.go -destination=mocks/mocks.go -package=mocks Recognizer

// Recognizer turns an image region into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, hint Hint) (string, error)
}
