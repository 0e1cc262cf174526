package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics so that "CRÉDITO" and "credito" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// tokens splits a folded string into runs of letters and digits.
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether phrase appears in words as a contiguous token run.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// phraseList pre-tokenizes keyword phrases for repeated matching.
type phraseList [][]string

func newPhraseList(keywords ...string) phraseList {
	out := make(phraseList, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, tokens(Fold(k)))
	}
	return out
}

// count returns how many phrases occur in words.
func (p phraseList) count(words []string) int {
	n := 0
	for _, phrase := range p {
		if containsPhrase(words, phrase) {
			n++
		}
	}
	return n
}

// startsWith reports whether words begin with any of the phrases.
func (p phraseList) startsWith(words []string) bool {
	for _, phrase := range p {
		if len(phrase) > 0 && len(phrase) <= len(words) && containsPhrase(words[:len(phrase)], phrase) {
			return true
		}
	}
	return false
}

// splitLines splits text into trimmed, non-empty lines.
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
