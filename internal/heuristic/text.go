package heuristic

import (
	"fmt"
	"sort"
	"strings"
)

// Tokenize lower-cases text, strips non-alphanumeric runes, and splits it
// into tokens.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)
	return strings.Fields(cleaned)
}

// TopTokens returns up to n most frequent tokens longer than minLen
// characters, most frequent first; ties resolve alphabetically so the
// result is stable.
func TopTokens(text string, n, minLen int) []string {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		if len(tok) > minLen {
			counts[tok]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}

// ContainsAny reports whether any needle occurs as a case-insensitive
// substring of text, returning the first matching needle.
func ContainsAny(text string, needles []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if needle != "" && strings.Contains(lower, strings.ToLower(needle)) {
			return needle, true
		}
	}
	return "", false
}

// MatchNiche returns the first configured niche whose keyword list matches
// the text, in stable niche order. Returns false when nothing matches.
func MatchNiche(text string) (string, bool) {
	for _, niche := range Niches() {
		if _, ok := ContainsAny(text, NicheKeywords(niche)); ok {
			return niche, true
		}
	}
	return "", false
}

// FlattenValue renders a loosely-typed payload value as searchable text.
// Nested maps and slices are walked depth-first; map keys are visited in
// sorted order so output is deterministic.
func FlattenValue(v any) string {
	var b strings.Builder
	flattenInto(&b, v)
	return b.String()
}

func flattenInto(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
	case string:
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenInto(b, x[k])
		}
	case []any:
		for _, item := range x {
			flattenInto(b, item)
		}
	case []map[string]any:
		for _, item := range x {
			flattenInto(b, item)
		}
	default:
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "%v", x)
	}
}

// StringField reads a string-valued field from a loosely-typed result item,
// trying each name in order.
func StringField(item map[string]any, names ...string) string {
	for _, name := range names {
		if v, ok := item[name]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case fmt.Stringer:
				return s.String()
			}
		}
	}
	return ""
}

// NumberField reads a numeric field from a loosely-typed result item, trying
// each name in order. JSON decoding yields float64; ints appear when items
// are built in code.
func NumberField(item map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		v, ok := item[name]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

// NestedField resolves a dotted path ("user.followers_count") through nested
// maps inside a result item.
func NestedField(item map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = item
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
