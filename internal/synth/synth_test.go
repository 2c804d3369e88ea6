package synth

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPalette(t *testing.T) {
	assert.Equal(t, orangeTheme, Palette("A warm SUNSET over hills"))
	assert.Equal(t, blueTheme, Palette("deep ocean"))
	assert.Equal(t, greenTheme, Palette("forest path"))
	assert.Equal(t, purpleTheme, Palette("magic castle"))
	assert.Equal(t, defaultSet, Palette("a robot"))

	// first theme wins when several match
	assert.Equal(t, orangeTheme, Palette("orange ocean"))
}

func TestVideoPalette(t *testing.T) {
	assert.Equal(t, rgb(255, 140, 0), VideoPalette("a cat napping")[0])
	assert.Equal(t, rgb(25, 25, 112), VideoPalette("galaxy")[0])

	a := VideoPalette("a robot dancing")
	b := VideoPalette("a robot dancing")
	require.Len(t, a, 3)
	assert.Equal(t, a, b)
	for _, c := range a {
		assert.GreaterOrEqual(t, c.R, uint8(100))
		assert.GreaterOrEqual(t, c.G, uint8(100))
		assert.GreaterOrEqual(t, c.B, uint8(100))
	}
}

func TestImage_Deterministic(t *testing.T) {
	seed := int64(1234)
	a, err := Image("a quiet forest at dawn", &seed, 256, 192)
	require.NoError(t, err)
	b, err := Image("a quiet forest at dawn", &seed, 256, 192)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))

	other := int64(99)
	c, err := Image("a quiet forest at dawn", &other, 256, 192)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, c))

	// nil seed derives from the prompt
	d, err := Image("a quiet forest at dawn", nil, 256, 192)
	require.NoError(t, err)
	e, err := Image("a quiet forest at dawn", nil, 256, 192)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(d, e))
}

func TestImage_Dimensions(t *testing.T) {
	data, err := Image("night sky full of stars", nil, 300, 200)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	data, err = Image("defaults", nil, 0, 0)
	require.NoError(t, err)
	cfg, err = png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, defaultImageSize, cfg.Width)
}

func TestFlat(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(Flat(40, 30)))
	require.NoError(t, err)
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(100), r>>8)
	assert.Equal(t, uint32(150), g>>8)
	assert.Equal(t, uint32(200), b>>8)
}

func TestVideoSize(t *testing.T) {
	w, h := VideoSize("draft")
	assert.Equal(t, [2]int{480, 360}, [2]int{w, h})
	w, h = VideoSize("HIGH")
	assert.Equal(t, [2]int{1280, 720}, [2]int{w, h})
	w, h = VideoSize("unknown")
	assert.Equal(t, [2]int{640, 480}, [2]int{w, h})
}

func TestFrameCount(t *testing.T) {
	assert.Equal(t, 30, FrameCount(5, 24))
	assert.Equal(t, 8, FrameCount(1, 8))
	assert.Equal(t, 24, FrameCount(0, 0))
}

func TestAnimation(t *testing.T) {
	data, thumb, err := Animation("a bird flying", nil, 1, 6, "draft")
	require.NoError(t, err)

	anim, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, anim.Image, 6)
	assert.Equal(t, 16, anim.Delay[0])
	assert.Equal(t, 0, anim.LoopCount)
	assert.Equal(t, 480, anim.Config.Width)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 480, cfg.Width)
	assert.Equal(t, 360, cfg.Height)
}

func TestAnimation_Themes(t *testing.T) {
	for _, prompt := range []string{"a cat", "ocean waves", "campfire", "abstract"} {
		data, _, err := Animation(prompt, nil, 1, 2, "draft")
		require.NoError(t, err, prompt)
		assert.Equal(t, "GIF89a", string(data[:6]), prompt)
	}
}

func TestFlatAnimation(t *testing.T) {
	data, thumb := FlatAnimation(64, 48)
	anim, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, anim.Image, 1)
	_, err = jpeg.DecodeConfig(bytes.NewReader(thumb))
	assert.NoError(t, err)
}

func TestThumbnail(t *testing.T) {
	data, err := Thumbnail("a very long prompt that will be cut short")
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
}

func TestWrap(t *testing.T) {
	lines := wrap("one two three four", 1, textWidth("three four", 1))
	assert.Equal(t, []string{"one two", "three four"}, lines)
	assert.Equal(t, []string{"supercalifragilistic"}, wrap("supercalifragilistic", 2, 10))
	assert.Empty(t, wrap("   ", 1, 100))
}

func TestQuantizer_MapsToNearestPlan9Color(t *testing.T) {
	red := color.RGBA{R: 250, G: 10, B: 5, A: 255}
	frame := image.NewRGBA(image.Rect(0, 0, 4, 3))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{C: red}, image.Point{}, draw.Src)

	q := newQuantizer()
	out := q.paletted(frame)

	want := uint8(color.Palette(palette.Plan9).Index(red))
	for _, idx := range out.Pix {
		assert.Equal(t, want, idx)
	}
	assert.Len(t, q.cache, 1)
}
