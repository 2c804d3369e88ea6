package synth

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
)

const (
	defaultImageSize = 512
	imageTextScale   = 2
	imageLineHeight  = 35
)

var (
	textColor      = rgb(50, 50, 50)
	flatColor      = rgb(100, 150, 200)
	boxFill        = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	shadowFill     = color.NRGBA{A: 100}
	watermarkFill  = color.NRGBA{A: 150}
	spaceKeywords  = []string{"space", "night", "star", "galaxy"}
	imageWatermark = "AI GENERATED"
)

// PromptSeed derives the default seed for a prompt from the first four bytes of its
// MD5 digest.
func PromptSeed(prompt string) int64 {
	sum := md5.Sum([]byte(prompt))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}

// Image renders a w×h PNG themed after prompt. The output is a pure function of
// (prompt, seed, w, h); a nil seed uses PromptSeed.
func Image(prompt string, seed *int64, w, h int) ([]byte, error) {
	if w <= 0 {
		w = defaultImageSize
	}
	if h <= 0 {
		h = defaultImageSize
	}
	s := PromptSeed(prompt)
	if seed != nil {
		s = *seed
	}
	r := rand.New(rand.NewSource(s))
	colors := Palette(prompt)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gradient(img, colors)
	decorate(img, r, prompt, colors)
	caption(img, prompt)
	watermark(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Flat renders a solid PNG. It is the last resort when Image fails and cannot fail itself.
func Flat(w, h int) []byte {
	if w <= 0 {
		w = defaultImageSize
	}
	if h <= 0 {
		h = defaultImageSize
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		hline(img, y, flatColor)
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// gradient paints a vertical blend through every palette stop.
func gradient(img *image.RGBA, colors []color.RGBA) {
	h := img.Bounds().Dy()
	n := len(colors)
	for y := range h {
		if n == 1 {
			hline(img, y, colors[0])
			continue
		}
		ratio := float64(y) / float64(h)
		pos := ratio * float64(n-1)
		idx := int(pos)
		next := min(idx+1, n-1)
		hline(img, y, lerp(colors[idx], colors[next], pos-float64(idx)))
	}
}

func decorate(img *image.RGBA, r *rand.Rand, prompt string, colors []color.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	lower := strings.ToLower(prompt)
	for _, kw := range spaceKeywords {
		if strings.Contains(lower, kw) {
			for range 30 {
				x, y := r.Intn(w+1), r.Intn(h+1)
				size := 2 + r.Intn(5)
				fillCircle(img, x, y, size, color.White)
			}
			return
		}
	}
	for range 15 {
		x, y := r.Intn(w+1), r.Intn(h+1)
		size := 20 + r.Intn(61)
		c := colors[r.Intn(len(colors))]
		fillCircle(img, x, y, size/2, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 160})
	}
}

// caption centers the wrapped prompt on white boxes.
func caption(img *image.RGBA, prompt string) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	lines := wrap(prompt, imageTextScale, w-60)
	y := h/2 - len(lines)*imageLineHeight/2
	for _, line := range lines {
		tw := textWidth(line, imageTextScale)
		x := (w - tw) / 2
		box := image.Rect(x-15, y-8, x+tw+15, y+30)
		fillRect(img, box.Add(image.Pt(3, 3)), shadowFill)
		fillRect(img, box, boxFill)
		drawText(img, x, y, line, imageTextScale, textColor)
		y += imageLineHeight
	}
}

func watermark(img *image.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	tw := textWidth(imageWatermark, imageTextScale)
	x, y := w-tw-20, h-50
	fillRect(img, image.Rect(x-10, y-5, x+tw+10, y+lineHeight(imageTextScale)+5), watermarkFill)
	drawText(img, x, y, imageWatermark, imageTextScale, color.White)
}
