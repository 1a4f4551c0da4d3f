package interp

import (
	"strconv"
	"strings"
	"unicode"
)

// LookupFunc returns the value of a variable, or "" if it's unset.
type LookupFunc func(name string) string

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Expand replaces $name and ${name} references in word with values from
// lookup. There is no nesting and no operators inside braces. A '$' that
// doesn't start a reference expands to nothing. An unterminated ${ is kept
// as is.
func Expand(word string, lookup LookupFunc) string {
	if !strings.Contains(word, "$") {
		return word
	}

	runes := []rune(word)
	var sb strings.Builder

	for i := 0; i < len(runes); i++ {
		if runes[i] != '$' {
			sb.WriteRune(runes[i])
			continue
		}
		if i+1 >= len(runes) {
			break
		}

		switch next := runes[i+1]; {
		case next == '{':
			end := i + 2
			for end < len(runes) && runes[end] != '}' {
				end++
			}
			if end >= len(runes) {
				sb.WriteString(string(runes[i:]))
				return sb.String()
			}
			sb.WriteString(lookup(string(runes[i+2 : end])))
			i = end

		case next == '?':
			sb.WriteString(lookup("?"))
			i++

		case isNameRune(next):
			end := i + 1
			for end < len(runes) && isNameRune(runes[end]) {
				end++
			}
			sb.WriteString(lookup(string(runes[i+1 : end])))
			i = end - 1
		}
	}

	return sb.String()
}

// SplitFields splits s on runs of spaces, tabs and newlines. Quotes have no
// effect.
func SplitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
}

// statusLookup wraps lookup to answer $? with status.
func statusLookup(status int, lookup LookupFunc) LookupFunc {
	return func(name string) string {
		if name == "?" {
			return strconv.Itoa(status)
		}
		return lookup(name)
	}
}
