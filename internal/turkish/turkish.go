// Package turkish normalizes Turkish titles for comparison and cache keys.
//
// The same work appears under different spellings depending on who typed it:
// a streaming site sends "Başlangıç", a user types "Baslangic", the catalog
// stores either. All lookups therefore go through Normalize on both sides.
package turkish

import "strings"

// turkishFold maps each Turkish letter to its ASCII counterpart and the
// Unicode single-quote variants to a plain apostrophe.
var turkishFold = map[rune]rune{
	'ş': 's', 'Ş': 'S',
	'ı': 'i', 'İ': 'I',
	'ç': 'c', 'Ç': 'C',
	'ğ': 'g', 'Ğ': 'G',
	'ü': 'u', 'Ü': 'U',
	'ö': 'o', 'Ö': 'O',
	'‘': '\'', '’': '\'',
}

// Normalize folds Turkish letters to ASCII and lower-cases the result.
// It is pure and idempotent; empty input is returned unchanged.
//
//	Normalize("Başlangıç") == "baslangic"
func Normalize(text string) string {
	if text == "" {
		return text
	}
	folded := strings.Map(func(r rune) rune {
		if ascii, ok := turkishFold[r]; ok {
			return ascii
		}
		return r
	}, text)
	return strings.ToLower(folded)
}

// Match reports whether two titles are equal ignoring Turkish letter
// differences and case.
func Match(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Contains reports whether needle occurs in haystack, ignoring Turkish
// letter differences and case.
func Contains(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}
