// Package tokenize splits recipe strings into shell-like tokens.
package tokenize

import "strings"

// Split breaks input into tokens separated by whitespace.
//
// A single or double quote opens a quoted span only at the start of a token
// (at the beginning of input or right after whitespace). Inside the span the
// same quote character closes it and the other one is literal content.
// Quoted content keeps its inner whitespace and the delimiters are dropped.
// A quote that follows a non-whitespace character is ordinary content, so
// foo"bar baz" yields `foo"bar` and `baz"`. Empty tokens are discarded.
func Split(input string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		inQuote bool
		prev    rune
		started bool
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			tokens = append(tokens, s)
		}
		current.Reset()
	}

	for _, c := range input {
		switch {
		case c == '"' || c == '\'':
			switch {
			case inQuote && c == quote:
				flush()
				inQuote = false
			case inQuote:
				current.WriteRune(c)
			case !started || isSpace(prev):
				inQuote = true
				quote = c
			default:
				current.WriteRune(c)
			}
		case isSpace(c):
			if inQuote {
				current.WriteRune(c)
			} else if current.Len() > 0 {
				flush()
			}
		default:
			current.WriteRune(c)
		}
		prev = c
		started = true
	}

	flush()
	return tokens
}

// Join rebuilds a string that Split turns back into tokens. Tokens holding
// whitespace are wrapped in double quotes (single quotes when the token
// itself contains a double quote).
func Join(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if strings.IndexFunc(t, isSpace) >= 0 {
			if strings.ContainsRune(t, '"') {
				t = "'" + t + "'"
			} else {
				t = `"` + t + `"`
			}
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

// NeedsSplit reports whether a token still holds several arguments: it
// starts with a quote, or has whitespace outside an embedded quoted part.
// -DNAME="two words" is a single argument.
func NeedsSplit(token string) bool {
	if strings.HasPrefix(token, `"`) || strings.HasPrefix(token, "'") {
		return true
	}
	var quote rune
	for _, c := range token {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case isSpace(c):
			return true
		}
	}
	return false
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
