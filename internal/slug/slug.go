// Package slug derives URL-safe identifiers from content titles.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Make lowercases the title, maps runs of non-alphanumerics to single
// hyphens, and trims leading/trailing hyphens.
func Make(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Checker reports whether a slug is already taken, excluding the
// document being edited.
type Checker func(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)

// Unique returns base, or base-2, base-3, ... until the checker finds a
// free slug.
func Unique(ctx context.Context, base string, exclude primitive.ObjectID, taken Checker) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		exists, err := taken(ctx, candidate, exclude)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
