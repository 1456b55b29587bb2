package core

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FoldString trims `s` and lowercases it with language-neutral rules, for case-insensitive comparisons.
// Unlike full case folding, it keeps "ß" distinct from "ss".
func FoldString(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Ellipsis shortens `s` to at most n runes, appending "..." when cut.
func Ellipsis(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// RandomSecret returns a URL-safe random string built from n random bytes.
func RandomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NowUTC is the default clock.
func NowUTC() time.Time {
	return time.Now().UTC()
}
