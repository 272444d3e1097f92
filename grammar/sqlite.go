package grammar

import (
	"strconv"
	"strings"

	"github.com/aagamezl/lihtne"
)

// NewSQLite returns the SQLite grammar: double-quote identifiers,
// on-conflict upsert, json_extract/json_each JSON support, and the
// UPDATE ... FROM form SQLite (3.33+) shares with Postgres. It has no
// fulltext search primitive and no lateral joins.
func NewSQLite(prefix string) lihtne.Grammar {
	g := &Grammar{Prefix: prefix}
	g.D = Dialect{
		Name:               "sqlite",
		DateFmt:            "Y-m-d H:i:s",
		QuoteChar:          '"',
		Random:             func() string { return "RANDOM()" },
		Lock:               genericLock,
		Upsert:             sqliteUpsert,
		InsertOrIgnore:     sqliteInsertOrIgnore,
		JSONSelector:       sqliteJSONSelector,
		JSONContains:       sqliteJSONContains,
		JSONContainsKey:    sqliteJSONContainsKey,
		JSONLength:         sqliteJSONLength,
		UpdateFrom:         postgresUpdateFrom,
		CompileAssignments: sqliteCompileAssignments,
	}
	return g
}

func sqliteUpsert(g *Grammar, table string, columns []string, rows [][]lihtne.Value, uniqueBy []string, update []lihtne.Assignment) (string, []lihtne.Value, error) {
	sql, bindings, err := g.compileInsertValues("insert into ", table, columns, rows)
	if err != nil {
		return "", nil, err
	}
	uniqueCols := make([]string, len(uniqueBy))
	for i, c := range uniqueBy {
		uniqueCols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
	}
	sql += " on conflict(" + strings.Join(uniqueCols, ", ") + ")"
	if len(update) == 0 {
		return sql + " do nothing", bindings, nil
	}
	parts := make([]string, len(update))
	for i, a := range update {
		wc := g.WrapIdentifier(lihtne.ParseIdentifier(a.Column))
		parts[i] = wc + " = excluded." + wc
	}
	return sql + " do update set " + strings.Join(parts, ", "), bindings, nil
}

func sqliteInsertOrIgnore(g *Grammar, table string, columns []string, rows [][]lihtne.Value) (string, []lihtne.Value, error) {
	return g.compileInsertValues("insert or ignore into ", table, columns, rows)
}

func sqliteJSONPathLiteral(jp lihtne.JSONPath) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, seg := range jp.Path {
		if seg.IsIndex {
			sb.WriteString("[" + strconv.Itoa(seg.Index) + "]")
		} else {
			sb.WriteString("." + seg.Key)
		}
	}
	return sb.String()
}

func sqliteJSONSelector(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return col
	}
	return "json_extract(" + col + ", '" + sqliteJSONPathLiteral(jp) + "')"
}

func sqliteJSONContains(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	path := "$"
	if len(jp.Path) > 0 {
		path = sqliteJSONPathLiteral(jp)
	}
	return "exists(select 1 from json_each(" + col + ", '" + path + "') where value is ?)"
}

func sqliteJSONContainsKey(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	return "json_extract(" + col + ", '" + sqliteJSONPathLiteral(jp) + "') is not null"
}

func sqliteJSONLength(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return "json_array_length(" + col + ")"
	}
	return "json_array_length(" + col + ", '" + sqliteJSONPathLiteral(jp) + "')"
}
