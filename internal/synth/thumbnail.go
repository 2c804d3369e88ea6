package synth

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

const maxThumbnailPrompt = 20

// Thumbnail renders a 320x240 play-button card captioned with the start of prompt.
// It is used for provider videos that arrive without a preview frame.
func Thumbnail(prompt string) ([]byte, error) {
	const w, h = 320, 240
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		hline(img, y, rgb(50, 50, 100))
	}
	fillPolygon(img, []image.Point{{130, 90}, {130, 150}, {190, 120}}, color.White)

	text := prompt
	if r := []rune(prompt); len(r) > maxThumbnailPrompt {
		text = string(r[:maxThumbnailPrompt]) + "..."
	}
	tw := textWidth(text, 1)
	x, y := (w-tw)/2, 200
	fillRect(img, image.Rect(x-5, y-2, x+tw+5, y+lineHeight(1)+2), color.NRGBA{A: 128})
	drawText(img, x, y, text, 1, color.White)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
