package usecase

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 400
	placeholderHeight = 300
	placeholderMargin = 40
	lineHeight        = 24
)

// PlaceholderColor derives a background color from the product name. The
// same name always yields the same color, and each channel stays in 55-255
// so text remains readable.
func PlaceholderColor(name string) color.RGBA {
	h := 0
	for _, c := range name {
		h += int(c)
	}
	return color.RGBA{
		R: uint8((h*33)%200 + 55),
		G: uint8((h*89)%200 + 55),
		B: uint8((h*144)%200 + 55),
		A: 255,
	}
}

// RenderPlaceholder draws a solid color card with the product name wrapped
// and centered, PNG encoded.
func RenderPlaceholder(name string, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(PlaceholderColor(name)), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lines := wrapWords(name, width-placeholderMargin, face)

	y := (height - len(lines)*lineHeight) / 2
	if y < lineHeight {
		y = lineHeight
	}
	for _, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		x := (width - w) / 2
		if x < 0 {
			x = 0
		}
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.White),
			Face: face,
			Dot:  fixed.P(x, y),
		}
		d.DrawString(line)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func wrapWords(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		test := current + " " + word
		if font.MeasureString(face, test).Ceil() <= maxWidth {
			current = test
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
