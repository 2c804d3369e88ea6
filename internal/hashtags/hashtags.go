// Package hashtags derives social tags for generated media from the prompt and style.
// Tags are stored bare: lowercase alphanumerics starting with a letter, no leading '#'.
package hashtags

import (
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMax is used when Derive is called with a non-positive limit.
	DefaultMax = 15
	minTags    = 5
)

var (
	wordPattern  = regexp.MustCompile(`\w+`)
	invalidChars = regexp.MustCompile(`[^a-z0-9]`)
)

// Options configures a Deriver.
type Options struct {
	// Seeded makes output a pure function of the inputs and Seed.
	Seeded bool
	Seed   int64
}

// Deriver builds tag lists. It holds no mutable state and is safe for concurrent use.
type Deriver struct {
	opts Options
}

func New(opts Options) *Deriver {
	return &Deriver{opts: opts}
}

// rng returns the source for one call. Seeded mode hashes the inputs with the seed.
func (d *Deriver) rng(parts ...string) *rand.Rand {
	if !d.opts.Seeded {
		now := uint64(time.Now().UnixNano())
		return rand.New(rand.NewPCG(now, now>>17^0x9e3779b97f4a7c15))
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(strconv.FormatInt(d.opts.Seed, 10)))
	for _, p := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p))
	}
	return rand.New(rand.NewPCG(h.Sum64(), uint64(d.opts.Seed)))
}

// tagSet keeps insertion order and rejects duplicates and unusable tags.
type tagSet struct {
	seen map[string]bool
	list []string
}

func newTagSet() *tagSet { return &tagSet{seen: make(map[string]bool)} }

func (s *tagSet) add(tags ...string) {
	for _, t := range tags {
		t = Clean(t)
		if t == "" || s.seen[t] {
			continue
		}
		s.seen[t] = true
		s.list = append(s.list, t)
	}
}

func (s *tagSet) len() int { return len(s.list) }

func sample(r *rand.Rand, pool []string, k int) []string {
	k = min(k, len(pool))
	out := make([]string, 0, k)
	for _, i := range r.Perm(len(pool))[:k] {
		out = append(out, pool[i])
	}
	return out
}

// Derive returns at most limit unique tags for an image, sorted.
func (d *Deriver) Derive(prompt, style string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMax
	}
	lower := strings.ToLower(prompt)
	styleKey := strings.ToLower(strings.TrimSpace(style))
	r := d.rng(prompt, styleKey, strconv.Itoa(limit))

	set := newTagSet()
	set.add(sample(r, baseTags, 3)...)
	if pool, ok := styleTags[styleKey]; ok {
		set.add(sample(r, pool, 2)...)
	}
	for _, p := range contentPools {
		if strings.Contains(lower, p.key) {
			set.add(sample(r, p.tags, 2)...)
		}
	}
	set.add(sample(r, trendingTags, 3)...)

	for _, word := range wordPattern.FindAllString(lower, -1) {
		if set.len() >= limit {
			break
		}
		if len(word) > 3 && !stopwords[word] {
			set.add(word)
		}
	}

	tags := set.list
	if len(tags) > limit {
		tags = tags[:limit]
	}
	if floor := min(minTags, limit); len(tags) < floor {
		for _, i := range r.Perm(len(baseTags)) {
			if len(tags) >= floor {
				break
			}
			if !slices.Contains(tags, baseTags[i]) {
				tags = append(tags, baseTags[i])
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// DeriveVideo returns tags for a clip: base, then category, keyword and trending video
// tags in that order, without duplicates.
func (d *Deriver) DeriveVideo(prompt, category string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMax
	}
	lower := strings.ToLower(prompt)

	set := newTagSet()
	set.add(videoBaseTags...)
	set.add(videoStyleTags[strings.ToLower(strings.TrimSpace(category))]...)
	for _, p := range videoKeywordPools {
		if strings.Contains(lower, p.key) {
			set.add(p.tags...)
		}
	}
	set.add(videoTrendingTags...)

	if set.len() > limit {
		return set.list[:limit]
	}
	return set.list
}

// Trending returns n tags sampled from the popular list.
func (d *Deriver) Trending(n int) []string {
	if n <= 0 || n > len(popularTrending) {
		n = len(popularTrending)
	}
	return sample(d.rng("trending"), popularTrending, n)
}

// Category groups tags for browsing.
type Category struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Categories returns the browsable tag groups in display order.
func (d *Deriver) Categories() []Category {
	return []Category{
		{Name: "AI & Tech", Tags: slices.Clone(baseTags[:6])},
		{Name: "Styles", Tags: []string{"photorealistic", "anime", "abstract", "fantasy", "cyberpunk"}},
		{Name: "Nature", Tags: []string{"landscape", "ocean", "forest", "sunset", "space"}},
		{Name: "Trending", Tags: slices.Clone(trendingTags[:6])},
	}
}

// Clean lowercases tag and strips everything but letters and digits. Tags that do
// not then start with a letter are rejected as "".
func Clean(tag string) string {
	cleaned := invalidChars.ReplaceAllString(strings.ToLower(tag), "")
	if cleaned == "" || cleaned[0] < 'a' || cleaned[0] > 'z' {
		return ""
	}
	return cleaned
}

// FormatForCopy renders tags as "#a #b" for pasting into social apps.
func FormatForCopy(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = Clean(t); t != "" {
			parts = append(parts, "#"+t)
		}
	}
	return strings.Join(parts, " ")
}
