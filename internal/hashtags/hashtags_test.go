package hashtags

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertUnique(t *testing.T, tags []string) {
	t.Helper()
	seen := map[string]bool{}
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %q", tag)
		seen[tag] = true
	}
}

func TestDerive_BoundsAndUniqueness(t *testing.T) {
	d := New(Options{})
	faker := gofakeit.New(42)
	for i := range 200 {
		prompt := faker.Sentence(8)
		limit := i%20 + 1
		tags := d.Derive(prompt, "anime", limit)
		assert.LessOrEqual(t, len(tags), limit, prompt)
		assert.NotEmpty(t, tags)
		assertUnique(t, tags)
		for _, tag := range tags {
			assert.Equal(t, Clean(tag), tag)
		}
	}
}

func TestDerive_CatInForest(t *testing.T) {
	tags := New(Options{}).Derive("a cat playing in a forest", "", 15)
	require.NotEmpty(t, tags)
	assert.Contains(t, tags, "forest")

	related := map[string]bool{"cat": true, "feline": true, "kitten": true, "pet": true}
	found := false
	for _, tag := range tags {
		found = found || related[tag]
	}
	assert.True(t, found, "expected a cat tag in %v", tags)
	assert.IsIncreasing(t, tags)
}

func TestDerive_Seeded(t *testing.T) {
	d := New(Options{Seeded: true, Seed: 7})
	a := d.Derive("dragon over a purple mountain", "fantasy", 12)
	b := d.Derive("dragon over a purple mountain", "fantasy", 12)
	assert.Equal(t, a, b)

	other := New(Options{Seeded: true, Seed: 8}).Derive("dragon over a purple mountain", "fantasy", 12)
	assert.LessOrEqual(t, len(other), 12)
}

func TestDerive_PadsToFloor(t *testing.T) {
	tags := New(Options{Seeded: true}).Derive("", "", 3)
	assert.Len(t, tags, 3)

	tags = New(Options{Seeded: true}).Derive("", "", 0)
	assert.GreaterOrEqual(t, len(tags), minTags)
	assert.LessOrEqual(t, len(tags), DefaultMax)
}

func TestDerive_StyleCaseInsensitive(t *testing.T) {
	tags := New(Options{Seeded: true, Seed: 1}).Derive("city", "Cyberpunk", 20)
	count := 0
	for _, tag := range tags {
		for _, s := range styleTags["cyberpunk"] {
			if tag == s {
				count++
			}
		}
	}
	assert.Equal(t, 2, count)
}

func TestDeriveVideo(t *testing.T) {
	d := New(Options{})
	tags := d.DeriveVideo("A cat walking at sunset", "cinematic", 30)
	assert.Equal(t, videoBaseTags, tags[:len(videoBaseTags)])
	assert.Contains(t, tags, "cinematic")
	assert.Contains(t, tags, "feline")
	assert.Contains(t, tags, "goldenhour")
	assertUnique(t, tags)

	assert.Len(t, d.DeriveVideo("a cat", "", 4), 4)
	assert.Equal(t, d.DeriveVideo("ocean", "nature", 15), d.DeriveVideo("ocean", "nature", 15))
}

func TestTrendingAndCategories(t *testing.T) {
	d := New(Options{})
	trending := d.Trending(8)
	assert.Len(t, trending, 8)
	assertUnique(t, trending)
	assert.Len(t, d.Trending(0), len(popularTrending))

	cats := d.Categories()
	require.Len(t, cats, 4)
	assert.Equal(t, "AI & Tech", cats[0].Name)
	assert.Len(t, cats[0].Tags, 6)
	assert.Equal(t, "Trending", cats[3].Name)
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"#AIArt":      "aiart",
		"Golden Hour": "goldenhour",
		"3d":          "",
		"  ":          "",
		"sci-fi!":     "scifi",
	}
	for in, want := range tests {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			assert.Equal(t, want, Clean(in))
		})
	}
}

func TestFormatForCopy(t *testing.T) {
	assert.Equal(t, "#aiart #cat", FormatForCopy([]string{"aiart", "#Cat", "9"}))
	assert.Empty(t, FormatForCopy(nil))
}
