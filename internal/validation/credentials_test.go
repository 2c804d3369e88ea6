package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		password string
		wantErr  string
	}{
		{"CorrectHorse9!", ""},
		{"Abcdefghij1?", ""},
		{"Ab1!" + strings.Repeat("x", maxPasswordLen-4), ""},
		{"Ab1!" + strings.Repeat("x", maxPasswordLen-3), "exceed"},
		{"Short1!a", "at least 12"},
		{"correcthorse9!", "uppercase"},
		{"CORRECTHORSE9!", "lowercase"},
		{"CorrectHorse!!", "digit"},
		{"CorrectHorse99", "special"},
		{"Ünïcödé-Pass1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	valid := []string{"ada", "pixel_fan-42", strings.Repeat("a", 30), "Explorer"}
	invalid := []string{"ab", strings.Repeat("a", 31), "_ada", "ada-", "ada lovelace", "ada@home", "me", "Admin"}

	for _, name := range valid {
		assert.NoError(t, ValidateUsername(name), name)
	}
	for _, name := range invalid {
		assert.Error(t, ValidateUsername(name), name)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("artist@pixelpost.dev"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.example.org"))

	for _, email := range []string{"", "artist", "artist@", "@pixelpost.dev", "a b@pixelpost.dev",
		strings.Repeat("a", 250) + "@x.io"} {
		assert.Error(t, ValidateEmail(email), email)
	}
}
