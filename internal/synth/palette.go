// Package synth renders the procedural media served when no external provider
// produced anything: a themed PNG for images and an animated GIF for videos.
package synth

import (
	"hash/fnv"
	"image/color"
	"math/rand"
	"strings"
)

type theme struct {
	keywords []string
	colors   []color.RGBA
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 255} }

var (
	orangeTheme = []color.RGBA{rgb(255, 165, 0), rgb(255, 69, 0), rgb(255, 140, 0)}
	blueTheme   = []color.RGBA{rgb(30, 144, 255), rgb(0, 191, 255), rgb(135, 206, 235)}
	greenTheme  = []color.RGBA{rgb(34, 139, 34), rgb(0, 128, 0), rgb(50, 205, 50)}
	purpleTheme = []color.RGBA{rgb(138, 43, 226), rgb(147, 112, 219), rgb(186, 85, 211)}
	defaultSet  = []color.RGBA{rgb(255, 107, 107), rgb(78, 205, 196), rgb(69, 183, 209)}
)

// imageThemes is ordered: the first theme with a matching keyword wins.
var imageThemes = []theme{
	{[]string{"sunset", "orange", "warm"}, orangeTheme},
	{[]string{"ocean", "blue", "water", "sky"}, blueTheme},
	{[]string{"forest", "green", "nature"}, greenTheme},
	{[]string{"purple", "magic", "fantasy"}, purpleTheme},
}

var videoThemes = []theme{
	{[]string{"cat", "orange", "warm"}, []color.RGBA{rgb(255, 140, 0), rgb(255, 165, 0), rgb(255, 69, 0)}},
	{[]string{"ocean", "blue", "water", "sky"}, blueTheme},
	{[]string{"forest", "green", "nature", "tree"}, greenTheme},
	{[]string{"fire", "red", "hot"}, []color.RGBA{rgb(255, 69, 0), rgb(255, 0, 0), rgb(220, 20, 60)}},
	{[]string{"space", "galaxy", "stars", "night"}, []color.RGBA{rgb(25, 25, 112), rgb(72, 61, 139), rgb(123, 104, 238)}},
}

func match(themes []theme, prompt string) ([]color.RGBA, bool) {
	lower := strings.ToLower(prompt)
	for _, t := range themes {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.colors, true
			}
		}
	}
	return nil, false
}

// Palette returns the image theme colors for a prompt.
func Palette(prompt string) []color.RGBA {
	if colors, ok := match(imageThemes, prompt); ok {
		return colors
	}
	return defaultSet
}

// VideoPalette returns the animation theme colors. Unmatched prompts get three light
// colors derived from the prompt text.
func VideoPalette(prompt string) []color.RGBA {
	if colors, ok := match(videoThemes, prompt); ok {
		return colors
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(prompt))
	r := rand.New(rand.NewSource(int64(h.Sum64() % 1000)))
	out := make([]color.RGBA, 3)
	for i := range out {
		out[i] = rgb(uint8(100+r.Intn(156)), uint8(100+r.Intn(156)), uint8(100+r.Intn(156)))
	}
	return out
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x)*(1-t) + float64(y)*t) }
	return rgb(mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B))
}
