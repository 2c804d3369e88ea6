// Package featureflags evaluates FEATURE_FLAGS, a comma-separated key=value list such as
// "provider_huggingface=off,video_generation=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Well-known flags.
const (
	VideoGeneration = "video_generation"
	WebPPreviews    = "webp_previews"
	providerPrefix  = "provider_"
)

// Manager evaluates parsed flags. A nil Manager treats every flag as unset.
type Manager struct {
	flags map[string]string
}

// NewManager parses raw; malformed pairs are ignored.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled reports whether an opt-in flag is on for userID. Unset flags are off.
// Values: on/true/1, off/false/0, or N% for a deterministic per-user rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	return m.evaluate(name, userID, false)
}

// EnabledByDefault is Enabled for opt-out flags: unset means on.
func (m *Manager) EnabledByDefault(name string, userID uint) bool {
	return m.evaluate(name, userID, true)
}

// ProviderEnabled reports whether a generation provider may be tried.
// Providers are on unless provider_<name>=off.
func (m *Manager) ProviderEnabled(provider string) bool {
	return m.evaluate(providerPrefix+provider, 0, true)
}

func (m *Manager) evaluate(name string, userID uint, def bool) bool {
	if m == nil {
		return def
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return def
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return def
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil:
		return def
	case pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
