package grocery

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	bulletMarkers   = "•-*"
	edgePunctuation = "+-*.,;:()[]{}"
)

var (
	letterPair = regexp.MustCompile(`[A-Za-zÁÉÍÓÚÜÑáéíóúüñ]{2,}`)
	letterRun  = regexp.MustCompile(`[A-Za-zÁÉÍÓÚÜÑáéíóúüñ]{3,}`)
)

// fold lowercases s and drops its diacritics.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// normalize folds s and strips one trailing "s".
func normalize(s string) string {
	s = strings.TrimSpace(fold(s))
	return strings.TrimSuffix(s, "s")
}

// cleanLine trims a menu line and drops one leading bullet marker.
func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	if r, size := utf8.DecodeRuneInString(s); size > 0 && strings.ContainsRune(bulletMarkers, r) {
		s = strings.TrimSpace(s[size:])
	}
	return s
}

func hasEdgePunctuation(s string) bool {
	if s == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(edgePunctuation, first) || strings.ContainsRune(edgePunctuation, last)
}

// isCandidate reports whether a cleaned line may name food at all.
func isCandidate(line string) bool {
	return utf8.RuneCountInString(line) >= 3 &&
		letterPair.MatchString(line) &&
		!hasEdgePunctuation(line)
}

// containsWord reports whether kw occurs in s starting at a word boundary,
// so "ajo" does not match inside "trabajo".
func containsWord(s, kw string) bool {
	if kw == "" {
		return false
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		i += offset
		if i == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		offset = i + 1
	}
	return false
}

// looksLikeIngredient is the stricter filter a line must pass to be listed
// under Other.
func looksLikeIngredient(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < 4 || !letterRun.MatchString(line) || hasEdgePunctuation(line) {
		return false
	}

	symbols := 0
	for _, r := range line {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			symbols++
		}
	}
	if float64(symbols)/float64(n) > 0.2 {
		return false
	}

	words := strings.Fields(fold(line))
	if len(words) == 0 || len(words) > 6 {
		return false
	}
	if _, stop := leadingStopWords[words[0]]; stop {
		return false
	}

	joined := strings.Join(words, " ")
	for _, p := range compositePhrases {
		if strings.Contains(joined, p) {
			return false
		}
	}
	return true
}

// displayName upper-cases the first letter of a line kept as is.
func displayName(line string) string {
	r, size := utf8.DecodeRuneInString(line)
	if size == 0 {
		return line
	}
	return string(unicode.ToUpper(r)) + line[size:]
}
