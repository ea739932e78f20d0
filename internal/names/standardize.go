package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PlaceholderNames are recorded names that stand in for an unnamed child.
// Search never returns them.
var PlaceholderNames = map[string]bool{
	"Unknown":  true,
	"Infant":   true,
	"Baby":     true,
	"Unnamed":  true,
	"Unborn":   true,
	"Notnamed": true,
	"Newborn":  true,
}

// letterFolds maps lower-case Latin letters that have no canonical
// decomposition to their base spelling
var letterFolds = strings.NewReplacer(
	"ł", "l",
	"ø", "o",
	"đ", "d",
	"ð", "d",
	"ħ", "h",
	"ı", "i",
	"æ", "ae",
	"œ", "oe",
	"ß", "ss",
	"þ", "th",
)

// Standardize lower-cases name, maps accented Latin letters to their base
// letter, drops everything outside a-z and title-cases the result, so that
// "  josé-luis " becomes "Joseluis". The result is "" when no letters remain.
func Standardize(name string) string {
	// transformers and casers keep state, so each call gets its own
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lower := letterFolds.Replace(strings.ToLower(name))
	folded, _, err := transform.String(stripMarks, lower)
	if err != nil {
		folded = lower
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return cases.Title(language.Und).String(b.String())
}
