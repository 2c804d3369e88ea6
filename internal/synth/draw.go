package synth

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	glyphWidth  = 7
	glyphHeight = 13
	glyphAscent = 11
)

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func hline(dst *image.RGBA, y int, c color.RGBA) {
	b := dst.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		dst.SetRGBA(x, y, c)
	}
}

// fillCircle paints a disc centered on (cx, cy).
func fillCircle(dst draw.Image, cx, cy, radius int, c color.Color) {
	if radius <= 0 {
		return
	}
	src := image.NewUniform(c)
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		half := int(math.Sqrt(float64(r2 - dy*dy)))
		row := image.Rect(cx-half, cy+dy, cx+half+1, cy+dy+1).Intersect(dst.Bounds())
		draw.Draw(dst, row, src, image.Point{}, draw.Over)
	}
}

// fillEllipse paints the ellipse inscribed in r.
func fillEllipse(dst draw.Image, r image.Rectangle, c color.Color) {
	rx, ry := float64(r.Dx())/2, float64(r.Dy())/2
	if rx <= 0 || ry <= 0 {
		return
	}
	cx, cy := float64(r.Min.X)+rx, float64(r.Min.Y)+ry
	src := image.NewUniform(c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		if dy*dy > 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		row := image.Rect(int(cx-half), y, int(cx+half)+1, y+1).Intersect(dst.Bounds())
		draw.Draw(dst, row, src, image.Point{}, draw.Over)
	}
}

// fillPolygon paints a simple polygon with an even-odd scanline fill.
func fillPolygon(dst draw.Image, pts []image.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	src := image.NewUniform(c)
	for y := minY; y <= maxY; y++ {
		fy := float64(y) + 0.5
		var xs []float64
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if (float64(a.Y) <= fy) == (float64(b.Y) <= fy) {
				continue
			}
			t := (fy - float64(a.Y)) / float64(b.Y-a.Y)
			xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
		}
		for i := 0; i+1 < len(xs); i += 2 {
			x0, x1 := xs[i], xs[i+1]
			if x0 > x1 {
				x0, x1 = x1, x0
			}
			row := image.Rect(int(math.Round(x0)), y, int(math.Round(x1))+1, y+1).Intersect(dst.Bounds())
			draw.Draw(dst, row, src, image.Point{}, draw.Over)
		}
	}
}

// strokeLine draws a segment of the given width by stamping discs along it.
func strokeLine(dst draw.Image, a, b image.Point, width int, c color.Color) {
	steps := max(abs(b.X-a.X), abs(b.Y-a.Y), 1)
	radius := max(width/2, 1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := a.X + int(math.Round(t*float64(b.X-a.X)))
		y := a.Y + int(math.Round(t*float64(b.Y-a.Y)))
		fillCircle(dst, x, y, radius, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// textWidth is the rendered width of s at the given integer scale.
func textWidth(s string, scale int) int {
	return len([]rune(s)) * glyphWidth * scale
}

func lineHeight(scale int) int {
	return glyphHeight * scale
}

// drawText renders s with the 7x13 bitmap face, scaled up, with its top-left at (x, y).
func drawText(dst draw.Image, x, y int, s string, scale int, c color.Color) {
	if s == "" {
		return
	}
	w := textWidth(s, 1)
	mask := image.NewRGBA(image.Rect(0, 0, w, glyphHeight))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, glyphAscent),
	}
	d.DrawString(s)

	target := image.Rect(x, y, x+w*scale, y+glyphHeight*scale)
	xdraw.NearestNeighbor.Scale(dst, target, mask, mask.Bounds(), draw.Over, nil)
}

// wrap splits text into lines no wider than maxWidth. A single word wider than the
// limit gets a line of its own.
func wrap(text string, scale, maxWidth int) []string {
	var lines []string
	var current []string
	for _, word := range strings.Fields(text) {
		current = append(current, word)
		if textWidth(strings.Join(current, " "), scale) <= maxWidth {
			continue
		}
		if len(current) > 1 {
			lines = append(lines, strings.Join(current[:len(current)-1], " "))
			current = []string{word}
		} else {
			lines = append(lines, word)
			current = nil
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}
