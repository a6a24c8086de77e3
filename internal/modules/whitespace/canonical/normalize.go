package canonical

import (
	"strings"
	"unicode"
)

// Corporate-form suffixes stripped from the tail of a name. Two-word forms
// are tried before single tokens. CORP stays: it is too often part of the
// trading name itself ("ACME CORP" vs "ACME").
var suffixes = [][]string{
	{"CO", "LTD"},
	{"PTY", "LTD"},
	{"B", "V"},
	{"N", "V"},
	{"L", "P"},
	{"L", "Y"},
	{"INCORPORATED"},
	{"CORPORATION"},
	{"LIMITED"},
	{"INC"},
	{"LLC"},
	{"LLP"},
	{"LTD"},
	{"GMBH"},
	{"PLC"},
	{"PTY"},
	{"SAS"},
	{"SPA"},
	{"SRL"},
	{"CO"},
	{"AG"},
	{"AB"},
	{"BV"},
	{"KK"},
	{"LP"},
	{"NV"},
	{"OY"},
	{"SA"},
	{"SE"},
}

// Tokens uppercases name, turns every run of non-alphanumerics into a single
// separator, then strips corporate suffixes from the end until none match.
func Tokens(name string) []string {
	tokens := strings.FieldsFunc(strings.ToUpper(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for {
		stripped := false
		for _, sfx := range suffixes {
			if hasSuffix(tokens, sfx) {
				tokens = tokens[:len(tokens)-len(sfx)]
				stripped = true
				break
			}
		}
		if !stripped || len(tokens) == 0 {
			return tokens
		}
	}
}

// Normalize is Tokens joined by single spaces. It is idempotent.
func Normalize(name string) string {
	return strings.Join(Tokens(name), " ")
}

func hasSuffix(tokens, sfx []string) bool {
	if len(tokens) < len(sfx) {
		return false
	}
	off := len(tokens) - len(sfx)
	for i, s := range sfx {
		if tokens[off+i] != s {
			return false
		}
	}
	return true
}

const minPatternToken = 3

// Patterns builds LIKE patterns for a storage search: one per normalized
// token of at least three characters, plus the raw trimmed query.
func Patterns(query string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.ReplaceAll(strings.ReplaceAll(s, "%", ""), "_", "")
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToUpper(s)] {
			return
		}
		seen[strings.ToUpper(s)] = true
		out = append(out, "%"+s+"%")
	}
	for _, t := range Tokens(query) {
		if len([]rune(t)) >= minPatternToken {
			add(t)
		}
	}
	add(query)
	return out
}
