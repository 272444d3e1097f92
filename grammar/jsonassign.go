package grammar

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aagamezl/lihtne"
)

// jsonAssignmentGroup collects every JSON-path assignment that targets
// the same base column, in first-seen order.
type jsonAssignmentGroup struct {
	column string
	paths  []lihtne.Assignment
}

// groupJSONAssignments splits assignments into per-column JSON-path
// groups and the remaining plain column assignments, both in their
// original order.
func groupJSONAssignments(assignments []lihtne.Assignment) ([]*jsonAssignmentGroup, []lihtne.Assignment) {
	var groups []*jsonAssignmentGroup
	index := make(map[string]*jsonAssignmentGroup)
	var plain []lihtne.Assignment
	for _, a := range assignments {
		if !lihtne.IsJSONPath(a.Column) {
			plain = append(plain, a)
			continue
		}
		jp := lihtne.ParseJSONPath(a.Column)
		grp, ok := index[jp.Column]
		if !ok {
			grp = &jsonAssignmentGroup{column: jp.Column}
			index[jp.Column] = grp
			groups = append(groups, grp)
		}
		grp.paths = append(grp.paths, a)
	}
	return groups, plain
}

// mergeJSONObject folds every path assignment in the group into a single
// nested map, the shape json_patch (and the manual merge a jsonb_set
// chain achieves one path at a time) expects as its replacement
// document. Index path segments are not supported; the merge targets
// object fields only.
func mergeJSONObject(g *Grammar, grp *jsonAssignmentGroup, dateFmt string) map[string]interface{} {
	root := map[string]interface{}{}
	for _, a := range grp.paths {
		jp := lihtne.ParseJSONPath(a.Column)
		setNestedPath(root, jp.Path, a.Value.MergeNative(dateFmt))
	}
	return root
}

// setNestedPath walks/creates nested maps for every key but the last,
// then assigns val at the final key.
func setNestedPath(root map[string]interface{}, path []lihtne.PathSegment, val interface{}) {
	cur := root
	for i, seg := range path {
		if i == len(path)-1 {
			cur[seg.Key] = val
			return
		}
		next, ok := cur[seg.Key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[seg.Key] = next
		}
		cur = next
	}
}

// sqliteCompileAssignments aggregates every JSON-path assignment
// targeting the same column into one json_patch call against that
// column, merging sibling paths into a single replacement document
// rather than one json_patch per path; plain column assignments compile
// unchanged.
func sqliteCompileAssignments(g *Grammar, assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	groups, plain := groupJSONAssignments(assignments)
	plainSQL, plainBindings := g.compileAssignments(plain)
	var bindings []lihtne.Value

	parts := make([]string, 0, len(groups))
	for _, grp := range groups {
		doc := mergeJSONObject(g, grp, g.D.DateFmt)
		raw, err := json.Marshal(doc)
		if err != nil {
			return "", nil, err
		}
		col := g.WrapIdentifier(lihtne.ParseIdentifier(grp.column))
		parts = append(parts, col+" = json_patch(ifnull("+col+", json('{}')), json(?))")
		bindings = append(bindings, lihtne.Str(string(raw)))
	}

	if plainSQL != "" {
		parts = append(parts, plainSQL)
	}
	bindings = append(bindings, plainBindings...)
	return joinAssignmentParts(parts), bindings, nil
}

// mysqlCompileAssignments folds every JSON-path assignment on the same
// column into one json_set(col, path1, val1, path2, val2, ...) call,
// since json_set natively accepts any number of path/value pairs. Each
// value is bound as its JSON text and cast so object/array values
// survive intact rather than becoming JSON strings of themselves.
func mysqlCompileAssignments(g *Grammar, assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	groups, plain := groupJSONAssignments(assignments)
	plainSQL, plainBindings := g.compileAssignments(plain)
	var bindings []lihtne.Value

	parts := make([]string, 0, len(groups))
	for _, grp := range groups {
		col := g.WrapIdentifier(lihtne.ParseIdentifier(grp.column))
		expr := "json_set(" + col
		for _, a := range grp.paths {
			jp := lihtne.ParseJSONPath(a.Column)
			raw, err := json.Marshal(a.Value.MergeNative(g.D.DateFmt))
			if err != nil {
				return "", nil, err
			}
			expr += ", '" + mysqlJSONPathLiteral(jp) + "', cast(? as json)"
			bindings = append(bindings, lihtne.Str(string(raw)))
		}
		expr += ")"
		parts = append(parts, col+" = "+expr)
	}

	if plainSQL != "" {
		parts = append(parts, plainSQL)
	}
	bindings = append(bindings, plainBindings...)
	return joinAssignmentParts(parts), bindings, nil
}

// postgresCompileAssignments nests one jsonb_set call per JSON path on a
// column, since jsonb_set only replaces a single path per call; each
// nested call wraps the previous one so every path on the column lands
// in the final expression. Each value is bound as its JSON text and cast
// to jsonb.
func postgresCompileAssignments(g *Grammar, assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	groups, plain := groupJSONAssignments(assignments)
	plainSQL, plainBindings := g.compileAssignments(plain)
	var bindings []lihtne.Value

	parts := make([]string, 0, len(groups))
	for _, grp := range groups {
		col := g.WrapIdentifier(lihtne.ParseIdentifier(grp.column))
		expr := "(" + col + ")::jsonb"
		for _, a := range grp.paths {
			jp := lihtne.ParseJSONPath(a.Column)
			raw, err := json.Marshal(a.Value.MergeNative(g.D.DateFmt))
			if err != nil {
				return "", nil, err
			}
			expr = "jsonb_set(" + expr + ", '" + postgresJSONPathArrayLiteral(jp) + "', ?::jsonb)"
			bindings = append(bindings, lihtne.Str(string(raw)))
		}
		parts = append(parts, col+" = "+expr)
	}

	if plainSQL != "" {
		parts = append(parts, plainSQL)
	}
	bindings = append(bindings, plainBindings...)
	return joinAssignmentParts(parts), bindings, nil
}

// postgresJSONPathArrayLiteral renders a path for jsonb_set's second
// argument, a text[] literal like '{a,b,c}'.
func postgresJSONPathArrayLiteral(jp lihtne.JSONPath) string {
	segs := make([]string, len(jp.Path))
	for i, seg := range jp.Path {
		if seg.IsIndex {
			segs[i] = strconv.Itoa(seg.Index)
		} else {
			segs[i] = seg.Key
		}
	}
	return "{" + strings.Join(segs, ",") + "}"
}

func joinAssignmentParts(parts []string) string {
	return strings.Join(parts, ", ")
}
