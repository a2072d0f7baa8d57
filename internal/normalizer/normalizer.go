package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Neighborhood-type words (and their abbreviations, which lose their dot
// during normalization) stripped from names before matching.
var namePrefixes = []string{
	"urbanizacion",
	"residencial",
	"lotificacion",
	"parcelacion",
	"condominio",
	"comunidad",
	"reparto",
	"colonia",
	"caserio",
	"barrio",
	"canton",
	"cond",
	"urb",
	"res",
	"col",
	"bo",
}

// Leading articles also dropped during prefix stripping.
var leadingArticles = map[string]bool{
	"la": true, "el": true, "los": true, "las": true,
	"de": true, "del": true,
}

// Spanish function words kept lowercase inside display names.
var lowercaseWords = map[string]bool{
	"de": true, "del": true, "la": true, "las": true,
	"los": true, "el": true, "y": true,
}

// StripDiacritics removes combining marks after NFD decomposition, so
// "Cuscatlán" becomes "Cuscatlan".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// Fallback for malformed input
		return unidecode.Unidecode(s)
	}
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]+`)

// Normalize lowercases, strips accents, merges punctuation into spaces and
// collapses whitespace. This is the canonical comparison form for every name
// and every searched text.
func Normalize(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// StripPrefixes removes leading neighborhood-type words and articles from an
// already normalized name: "colonia la esperanza" -> "esperanza". Returns the
// input unchanged when stripping would leave nothing.
func StripPrefixes(normalized string) string {
	words := strings.Fields(normalized)
	i := 0
	for i < len(words) {
		w := words[i]
		if leadingArticles[w] {
			i++
			continue
		}
		stripped := false
		for _, p := range namePrefixes {
			if w == p {
				i++
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	if i == 0 || i >= len(words) {
		return normalized
	}
	return strings.Join(words[i:], " ")
}

// DisplayName title-cases a normalized name for storage, keeping Spanish
// function words lowercase except in first position: "residencial las
// magnolias" -> "Residencial las Magnolias".
func DisplayName(normalized string) string {
	words := strings.Fields(normalized)
	for i, w := range words {
		if i > 0 && lowercaseWords[w] {
			continue
		}
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
