package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// pageSegModes maps hints to tesseract --psm values.
var pageSegModes = map[Hint]int{
	HintLine: 7,
	HintWord: 8,
	HintChar: 10,
}

// Tesseract runs the tesseract command line tool, streaming the region as PNG
// on stdin and reading text from stdout.
type Tesseract struct {
	Path     string
	Language string
	// Whitelist restricts recognized characters when set.
	Whitelist string
	// Timeout bounds a single invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewTesseract returns a recognizer using the binary on PATH when path is
// empty and Spanish when lang is empty.
func NewTesseract(path, lang string) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	if lang == "" {
		lang = "spa"
	}
	return &Tesseract{Path: path, Language: lang}
}

func (t *Tesseract) args(hint Hint) ([]string, error) {
	psm, ok := pageSegModes[hint]
	if !ok {
		return nil, fmt.Errorf("unknown ocr hint %d", hint)
	}
	args := []string{"stdin", "stdout", "--psm", strconv.Itoa(psm), "-l", t.Language}
	if t.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+t.Whitelist)
	}
	return args, nil
}

func (t *Tesseract) Recognize(ctx context.Context, img image.Image, hint Hint) (string, error) {
	args, err := t.args(hint)
	if err != nil {
		return "", err
	}
	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return "", fmt.Errorf("encode region: %w", err)
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Stdin = &in
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("tesseract exited with %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("run tesseract: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
