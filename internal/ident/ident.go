// Package ident converts Go identifiers into protocol field names.
package ident

import (
	"strings"
	"unicode"
)

// Name is an identifier split into words.
type Name []string

// ParseMixedCaps splits a MixedCaps Go identifier into words, keeping
// initialisms together.
//
//	"DatabaseID" -> ["Database", "ID"]
//	"HTTPServer" -> ["HTTP", "Server"]
//	"UserIDs"    -> ["User", "IDs"]
func ParseMixedCaps(name string) Name {
	runes := []rune(name)
	var words Name
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur),
			unicode.IsDigit(prev) && unicode.IsLetter(cur) && unicode.IsUpper(cur),
			unicode.IsLetter(prev) && unicode.IsDigit(cur):
			words = append(words, string(runes[start:i]))
			start = i
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && unicode.IsLower(next):
			// Plural initialism such as "IDs" stays in one word.
			if next == 's' && (i+2 == len(runes) || unicode.IsUpper(runes[i+2])) {
				continue
			}
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}

// ToLowerCamelCase joins the words in lowerCamelCase. Initialisms after the
// first word are title-cased: ["Avatar", "URL"] -> "avatarUrl".
func (n Name) ToLowerCamelCase() string {
	var b strings.Builder
	for i, word := range n {
		if i == 0 {
			b.WriteString(strings.ToLower(word))
			continue
		}
		if isInitialism(word) {
			r := []rune(strings.ToLower(word))
			r[0] = unicode.ToUpper(r[0])
			b.WriteString(string(r))
			continue
		}
		b.WriteString(word)
	}
	return b.String()
}

func isInitialism(word string) bool {
	upper := 0
	for _, r := range word {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return upper > 1
}
