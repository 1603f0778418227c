package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength matches the products.slug column width.
const MaxSlugLength = 50

var (
	slugInvalid    = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators = regexp.MustCompile(`[-\s]+`)
)

// Slugify folds accents to ASCII, lowercases, drops anything that is not a
// letter, digit, underscore, space or hyphen, and joins words with hyphens.
func Slugify(value string) string {
	folder := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, value)
	if err != nil {
		folded = value
	}

	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)

	slug := slugInvalid.ReplaceAllString(strings.ToLower(ascii), "")
	slug = slugSeparators.ReplaceAllString(strings.TrimSpace(slug), "-")
	slug = strings.Trim(slug, "-_")

	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-_")
	}
	return slug
}

// ProductSlug prefers an explicit slug and falls back to the name.
func ProductSlug(explicit, name string) string {
	if strings.TrimSpace(explicit) != "" {
		return Slugify(explicit)
	}
	return Slugify(name)
}
