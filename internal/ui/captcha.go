package ui

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"strings"
)

// captchaCols is the widest captcha drawn in the login forms.
const captchaCols = 48

// CaptchaArt draws a captcha for printing outside the TUI.
func CaptchaArt(dataURI string) ([]string, error) {
	return captchaArt(dataURI, captchaCols)
}

// captchaArt decodes a PNG data URI and draws it with half-block characters,
// two pixel rows per terminal line. The image is sampled down to at most
// maxCols columns.
func captchaArt(dataURI string, maxCols int) ([]string, error) {
	raw := strings.TrimSpace(dataURI)
	if i := strings.Index(raw, ","); strings.HasPrefix(raw, "data:") && i >= 0 {
		raw = raw[i+1:]
	}
	if raw == "" {
		return nil, errors.New("empty captcha image")
	}
	buf, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode captcha: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode captcha: %w", err)
	}

	bounds := img.Bounds()
	if maxCols <= 0 {
		maxCols = 48
	}
	step := max(1, (bounds.Dx()+maxCols-1)/maxCols)
	ink := func(x, y int) bool {
		if x >= bounds.Max.X || y >= bounds.Max.Y {
			return false
		}
		g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
		return g.Y < 128
	}

	var lines []string
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 * step {
		var b strings.Builder
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			top, bottom := ink(x, y), ink(x, y+step)
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		lines = append(lines, b.String())
	}
	return trimBlankRows(lines), nil
}

func trimBlankRows(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
