package lihtne

import (
	"strconv"
	"strings"
)

// PathSegment is one step of a parsed JSONPath: either a key ("a") or an
// array index ("[3]").
type PathSegment struct {
	Key     string
	Index   int
	IsIndex bool
}

// JSONPath is a parsed "->"-separated JSON path selector. The first
// segment is always the column; the rest describe the path into it.
// "options->name" and "options->items[0]->sku" are both valid inputs.
type JSONPath struct {
	Column string
	Path   []PathSegment
}

// IsJSONPath reports whether raw contains the JSON path separator, so
// callers can distinguish a plain column reference from one that needs
// JSON translation.
func IsJSONPath(raw string) bool {
	return strings.Contains(raw, "->")
}

// ParseJSONPath splits raw on "->" and further splits each path segment
// on "[n]" index suffixes.
func ParseJSONPath(raw string) JSONPath {
	parts := strings.Split(raw, "->")
	jp := JSONPath{Column: parts[0]}
	for _, p := range parts[1:] {
		jp.Path = append(jp.Path, parseIndexedSegment(p)...)
	}
	return jp
}

// parseIndexedSegment turns "items[0][1]" into [{Key:"items"}, {Index:0},
// {Index:1}]. A bare "[0]" segment with no key yields only the index.
func parseIndexedSegment(s string) []PathSegment {
	br := strings.IndexByte(s, '[')
	if br < 0 {
		return []PathSegment{{Key: s}}
	}

	var out []PathSegment
	if br > 0 {
		out = append(out, PathSegment{Key: s[:br]})
	}
	rest := s[br:]
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		if n, err := strconv.Atoi(rest[1:end]); err == nil {
			out = append(out, PathSegment{Index: n, IsIndex: true})
		}
		rest = rest[end+1:]
	}
	return out
}
