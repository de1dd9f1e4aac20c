package transfer

import (
	"path"
	"sort"
	"strings"

	dserrors "github.com/systmms/kvsync/internal/errors"
)

// FlattenTags turns a tag map into key=value pairs ordered by key.
func FlattenTags(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+tags[k])
	}
	return pairs
}

// translatePattern rewrites a shell glob into path.Match syntax. A backslash
// is a literal character, a ']' right after the opening bracket (or after '!')
// belongs to the class, '-' at either end of a class is literal, and [!...]
// negates like [^...]. An unterminated '[' is left as is and fails to match.
func translatePattern(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '[':
			j := i + 1
			negate := j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^')
			if negate {
				j++
			}
			start := j
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				b.WriteByte(c)
				continue
			}

			class := pattern[start:j]
			b.WriteByte('[')
			if negate {
				b.WriteByte('^')
			}
			for k := 0; k < len(class); k++ {
				ch := class[k]
				switch {
				case ch == '\\' || ch == ']':
					b.WriteByte('\\')
					b.WriteByte(ch)
				case ch == '-' && (k == 0 || k == len(class)-1):
					b.WriteString(`\-`)
				default:
					b.WriteByte(ch)
				}
			}
			b.WriteByte(']')
			i = j
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ValidatePattern rejects globs that can never be evaluated.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if _, err := path.Match(translatePattern(pattern), ""); err != nil {
		return dserrors.ConfigError{
			Field:      "name",
			Value:      pattern,
			Message:    "invalid name pattern",
			Suggestion: "Use * for any sequence, ? for one character and [...] for a character class",
		}
	}
	return nil
}

// MatchName reports whether name matches the glob. An empty pattern matches everything.
// Key Vault names never contain '/', so a '*' never stops early.
func MatchName(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(translatePattern(pattern), name)
	return err == nil && ok
}
