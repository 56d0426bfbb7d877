package utils

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"two words", "Jane Doe", "jd"},
		{"single word", "Madonna", "m"},
		{"empty", "", ""},
		{"extra whitespace", "  Anna   Johnson  ", "aj"},
		{"three words", "Mary Jane Watson", "mjw"},
		{"already lowercase", "jane doe", "jd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Initials(tt.input))
		})
	}
}

func TestGenerateUsernameWithName(t *testing.T) {
	pattern := regexp.MustCompile(`^jd_[a-z]+\d{1,3}$`)

	for i := 0; i < 50; i++ {
		username := GenerateUsername("Jane Doe")
		assert.True(t, strings.HasPrefix(username, "jd_"), "got %q", username)
		assert.Regexp(t, pattern, username)
	}
}

func TestGenerateUsernameWithoutName(t *testing.T) {
	username := GenerateUsername("")
	assert.NotEmpty(t, username)
	assert.NotContains(t, username, "_")
}

func TestFallbackUsernameAppendsSuffix(t *testing.T) {
	username := FallbackUsername("Jane Doe")
	assert.True(t, strings.HasPrefix(username, "jd_"))

	// base pattern plus a 4-digit timestamp tail
	assert.Regexp(t, regexp.MustCompile(`^jd_[a-z]+\d{1,3}\d{4}$`), username)
}
