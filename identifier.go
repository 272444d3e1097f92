package lihtne

import "strings"

// Identifier is a dotted-path column/table reference with an optional
// " as " alias, e.g. "schema.table.column as c". Grammars wrap each
// dotted segment per dialect quoting rules; a "*" segment always passes
// through unwrapped.
type Identifier struct {
	Segments []string
	Alias    string
}

// ParseIdentifier splits a raw identifier string into its dotted segments
// and trailing alias. Matching is case-insensitive on the " as " keyword,
// as in the source grammars.
func ParseIdentifier(raw string) Identifier {
	s, alias := splitAlias(raw)
	segments := strings.Split(s, ".")
	return Identifier{Segments: segments, Alias: alias}
}

// splitAlias extracts a trailing " as alias" from raw, case-insensitively.
// Only the last occurrence of " as " is treated as the alias separator,
// matching how table/column references are written in practice.
func splitAlias(raw string) (value string, alias string) {
	lower := strings.ToLower(raw)
	idx := strings.LastIndex(lower, " as ")
	if idx < 0 {
		return raw, ""
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+4:])
}

// HasAlias reports whether this identifier carries an explicit alias.
func (id Identifier) HasAlias() bool { return id.Alias != "" }

// LastSegment returns the final dotted segment (the column, or the table
// when this identifier names a table reference).
func (id Identifier) LastSegment() string {
	if len(id.Segments) == 0 {
		return ""
	}
	return id.Segments[len(id.Segments)-1]
}

// EscapeQuoteChar doubles every occurrence of ch within s, the shared
// escaping rule for embedded quote/backtick/bracket characters across all
// dialects.
func EscapeQuoteChar(s string, ch byte) string {
	if strings.IndexByte(s, ch) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if s[i] == ch {
			b.WriteByte(ch)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
