package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
)

var (
	usernameAdjectives = []string{
		"bright", "quick", "brave", "calm", "mighty", "kind", "sharp", "sage",
	}
	usernameAnimals = []string{
		"fox", "owl", "hare", "puma", "otter", "raven", "lynx", "wolf",
	}
)

// Initials returns the lowercased first letter of each word in name
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(unicode.ToLower(r))
			break
		}
	}
	return b.String()
}

// GenerateUsername composes a random adjective+animal+number handle,
// prefixed with the caller's initials when a name is given
func GenerateUsername(name string) string {
	adj := usernameAdjectives[rand.Intn(len(usernameAdjectives))]
	animal := usernameAnimals[rand.Intn(len(usernameAnimals))]
	base := fmt.Sprintf("%s%s%d", adj, animal, rand.Intn(1000))

	if initials := Initials(name); initials != "" {
		return initials + "_" + base
	}
	return base
}

// FallbackUsername appends a timestamp suffix for when the retry budget for
// a unique random username is exhausted
func FallbackUsername(name string) string {
	stamp := fmt.Sprintf("%d", time.Now().UnixMilli())
	return GenerateUsername(name) + stamp[len(stamp)-4:]
}
