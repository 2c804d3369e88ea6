package synth

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"math"
	"strings"
)

const (
	maxFrames      = 30
	defaultFPS     = 24
	videoWatermark = "ENHANCED AI MOCK VIDEO"
)

// VideoSize maps a quality tier to frame dimensions. Unknown tiers are "standard".
func VideoSize(quality string) (int, int) {
	switch strings.ToLower(quality) {
	case "draft":
		return 480, 360
	case "high":
		return 1280, 720
	default:
		return 640, 480
	}
}

// FrameCount is the number of frames rendered for a clip, capped to keep GIFs small.
func FrameCount(duration, fps int) int {
	if fps <= 0 {
		fps = defaultFPS
	}
	if duration <= 0 {
		duration = 1
	}
	return min(duration*fps, maxFrames)
}

// Animation renders an animated GIF for prompt plus a JPEG of its first frame. The seed
// only perturbs the palette of prompts that match no theme.
func Animation(prompt string, seed *int64, duration, fps int, quality string) ([]byte, []byte, error) {
	if fps <= 0 {
		fps = defaultFPS
	}
	w, h := VideoSize(quality)
	n := FrameCount(duration, fps)

	key := prompt
	if seed != nil {
		key = fmt.Sprintf("%s#%d", prompt, *seed)
	}
	colors := VideoPalette(key)
	scale := max(1, w/320)
	lower := strings.ToLower(prompt)

	q := newQuantizer()
	anim := &gif.GIF{LoopCount: 0}
	delay := max(100/fps, 1)
	var first *image.RGBA
	for i := range n {
		progress := float64(i) / float64(max(n-1, 1))
		frame := image.NewRGBA(image.Rect(0, 0, w, h))
		waveBackground(frame, colors, progress)
		animateElements(frame, lower, progress)
		overlay(frame, prompt, i, n, scale)
		if first == nil {
			first = frame
		}
		anim.Image = append(anim.Image, q.paletted(frame))
		anim.Delay = append(anim.Delay, delay)
	}

	var out bytes.Buffer
	if err := gif.EncodeAll(&out, anim); err != nil {
		return nil, nil, fmt.Errorf("encode gif: %w", err)
	}
	var thumb bytes.Buffer
	if err := jpeg.Encode(&thumb, first, &jpeg.Options{Quality: 85}); err != nil {
		return nil, nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return out.Bytes(), thumb.Bytes(), nil
}

// FlatAnimation renders a single solid frame and its thumbnail. It cannot fail.
func FlatAnimation(w, h int) ([]byte, []byte) {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		hline(frame, y, flatColor)
	}
	var out, thumb bytes.Buffer
	_ = gif.EncodeAll(&out, &gif.GIF{
		Image: []*image.Paletted{newQuantizer().paletted(frame)},
		Delay: []int{100},
	})
	_ = jpeg.Encode(&thumb, frame, &jpeg.Options{Quality: 85})
	return out.Bytes(), thumb.Bytes()
}

func waveBackground(img *image.RGBA, colors []color.RGBA, p float64) {
	h := img.Bounds().Dy()
	n := len(colors)
	for y := range h {
		fy := float64(y) / float64(h)
		wave := math.Sin((fy*4+p*2)*math.Pi) * 0.2
		ratio := math.Mod(fy+wave+p*0.3, 1)
		if ratio < 0 {
			ratio++
		}
		pos := ratio * float64(n-1)
		idx := int(pos)
		next := (idx + 1) % n
		hline(img, y, lerp(colors[idx], colors[next], pos-float64(idx)))
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func animateElements(img *image.RGBA, prompt string, p float64) {
	switch {
	case strings.Contains(prompt, "cat"):
		drawCat(img, p)
	case containsAny(prompt, "bird", "fly"):
		drawBirds(img, p)
	case containsAny(prompt, "ocean", "wave"):
		drawWaves(img, p)
	case strings.Contains(prompt, "fire"):
		drawFlames(img, p)
	default:
		drawParticles(img, p)
	}
}

func drawCat(img *image.RGBA, p float64) {
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	x := int(w*0.2 + w*0.6*p)
	y := int(h * 0.7)
	fur := rgb(255, 140, 0)
	dark := rgb(204, 102, 0)

	fillEllipse(img, image.Rect(x, y, x+60, y+30), fur)
	fillEllipse(img, image.Rect(x+45, y-20, x+75, y+10), fur)
	fillPolygon(img, []image.Point{{x + 48, y - 15}, {x + 52, y - 30}, {x + 58, y - 15}}, dark)
	fillPolygon(img, []image.Point{{x + 62, y - 15}, {x + 68, y - 30}, {x + 72, y - 15}}, dark)
	tail := int(10 * math.Sin(p*4*math.Pi))
	strokeLine(img, image.Pt(x, y+15), image.Pt(x-25, y-5+tail), 6, fur)
}

func drawBirds(img *image.RGBA, p float64) {
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	for i := range 3 {
		fi := float64(i)
		x := int(w*0.1 + fi*w*0.3 + w*0.4*p)
		y := int(h*0.3 + fi*50 + 20*math.Sin(p*3*math.Pi+fi))
		span := int(15 + 5*math.Sin(p*8*math.Pi+fi))
		strokeLine(img, image.Pt(x-span, y-span/2), image.Pt(x, y), 3, color.Black)
		strokeLine(img, image.Pt(x, y), image.Pt(x+span, y-span/2), 3, color.Black)
	}
}

func drawWaves(img *image.RGBA, p float64) {
	w, h := img.Bounds().Dx(), float64(img.Bounds().Dy())
	foam := color.NRGBA{R: 255, G: 255, B: 255, A: 180}
	for i := range 5 {
		fi := float64(i)
		base := h*0.6 + fi*20
		for x := 0; x < w; x += 10 {
			dy := 10 * math.Sin((float64(x)/50+p*2+fi)*math.Pi)
			fillCircle(img, x, int(base+dy), 4, foam)
		}
	}
}

func drawFlames(img *image.RGBA, p float64) {
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	flame := []color.RGBA{rgb(255, 69, 0), rgb(255, 140, 0), rgb(255, 215, 0)}
	base := int(h * 0.8)
	for i := range 7 {
		fi := float64(i)
		x := int(w*0.3) + i*20
		height := int(40 + 20*math.Sin(p*6*math.Pi+fi))
		fillPolygon(img, []image.Point{
			{x - 10, base},
			{x - 4, base - height/2},
			{x, base - height},
			{x + 10, base},
		}, flame[i%len(flame)])
	}
}

func drawParticles(img *image.RGBA, p float64) {
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	cx, cy := w/2, h/2
	ink := color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	for i := range 12 {
		fi := float64(i)
		angle := fi/12*2*math.Pi + p*2*math.Pi
		radius := 100 + 50*math.Sin(p*3*math.Pi+fi)
		size := int(8 + 4*math.Sin(p*4*math.Pi+fi))
		fillCircle(img, int(cx+radius*math.Cos(angle)), int(cy+radius*math.Sin(angle)), size, ink)
	}
}

// overlay draws the caption, frame counter and watermark on one frame.
func overlay(img *image.RGBA, prompt string, i, n, scale int) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	words := strings.Fields(prompt)
	lines := []string{prompt}
	if len(words) > 8 {
		mid := len(words) / 2
		lines = []string{strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")}
	}

	expand := int(10 * math.Sin(float64(i)/float64(n)*4*math.Pi))
	y := h/2 - len(lines)*25
	for _, line := range lines {
		tw := textWidth(line, scale)
		x := (w - tw) / 2
		fillRect(img, image.Rect(x-20-expand, y-10-expand, x+tw+20+expand, y+lineHeight(scale)+10+expand), color.NRGBA{A: 150})
		drawText(img, x+1, y+1, line, scale, color.NRGBA{R: 255, G: 255, B: 255, A: 90})
		drawText(img, x, y, line, scale, color.White)
		y += 50
	}

	drawText(img, 20, h-40, fmt.Sprintf("Frame %d/%d", i+1, n), 1, color.White)

	tw := textWidth(videoWatermark, 1)
	fillRect(img, image.Rect(w-tw-30, 10, w-10, 35), color.NRGBA{A: 180})
	drawText(img, w-tw-20, 16, videoWatermark, 1, color.White)
}

// quantizer maps RGBA frames onto the Plan9 palette, memoizing lookups since frames
// reuse a small set of colors.
type quantizer struct {
	cache map[uint32]uint8
}

func newQuantizer() *quantizer {
	return &quantizer{cache: make(map[uint32]uint8)}
}

func (q *quantizer) paletted(src *image.RGBA) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, palette.Plan9)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := src.PixOffset(x, y)
			px := src.Pix[off : off+3 : off+3]
			key := uint32(px[0])<<16 | uint32(px[1])<<8 | uint32(px[2])
			idx, ok := q.cache[key]
			if !ok {
				idx = uint8(color.Palette(palette.Plan9).Index(color.RGBA{R: px[0], G: px[1], B: px[2], A: 255}))
				q.cache[key] = idx
			}
			dst.Pix[dst.PixOffset(x, y)] = idx
		}
	}
	return dst
}
