package grammar

import (
	"strconv"
	"strings"

	"github.com/aagamezl/lihtne"
)

// NewMySQL returns the MySQL grammar: backtick quoting, on-duplicate-key
// upsert (optionally aliased via useAlias for MySQL 8.0.19+'s "as
// lihtne_upsert_alias" row alias form), match/against fulltext, and the
// json_extract/json_unquote selector family.
func NewMySQL(prefix string, useAlias bool) lihtne.Grammar {
	g := &Grammar{Prefix: prefix}
	g.D = Dialect{
		Name:               "mysql",
		DateFmt:            "Y-m-d H:i:s",
		QuoteChar:          '`',
		UseAlias:           useAlias,
		Random:             func() string { return "RANDOM()" },
		Lock:               mysqlLock,
		IndexHint:          mysqlIndexHint,
		Upsert:             mysqlUpsert,
		Fulltext:           mysqlFulltext,
		JSONSelector:       mysqlJSONSelector,
		JSONBoolExpr:       mysqlJSONBoolExpr,
		JSONContains:       mysqlJSONContains,
		JSONContainsKey:    mysqlJSONContainsKey,
		JSONLength:         mysqlJSONLength,
		DeleteWithJoins:    mysqlDeleteWithJoins,
		InsertOrIgnore:     mysqlInsertOrIgnore,
		CompileAssignments: mysqlCompileAssignments,
	}
	return g
}

func mysqlInsertOrIgnore(g *Grammar, table string, columns []string, rows [][]lihtne.Value) (string, []lihtne.Value, error) {
	return g.compileInsertValues("insert ignore into ", table, columns, rows)
}

func mysqlLock(ir *lihtne.QueryIR) string {
	switch ir.Lock {
	case lihtne.LockForUpdate:
		return "for update"
	case lihtne.LockForShare:
		return "lock in share mode"
	case lihtne.LockRaw:
		return ir.LockSQL
	default:
		return ""
	}
}

func mysqlIndexHint(h *lihtne.IndexHintIR) string {
	switch h.Kind {
	case lihtne.IndexHintForce:
		return "force index (" + h.Index + ")"
	case lihtne.IndexHintIgnore:
		return "ignore index (" + h.Index + ")"
	default:
		return "use index (" + h.Index + ")"
	}
}

func mysqlUpsert(g *Grammar, table string, columns []string, rows [][]lihtne.Value, uniqueBy []string, update []lihtne.Assignment) (string, []lihtne.Value, error) {
	sql, bindings, err := g.compileInsertValues("insert into ", table, columns, rows)
	if err != nil {
		return "", nil, err
	}
	if len(update) == 0 {
		return sql, bindings, nil
	}

	if g.D.UseAlias {
		sql += " as lihtne_upsert_alias"
		parts := make([]string, len(update))
		for i, a := range update {
			wc := g.WrapIdentifier(lihtne.ParseIdentifier(a.Column))
			parts[i] = wc + " = " + "`lihtne_upsert_alias`." + wc
		}
		return sql + " on duplicate key update " + strings.Join(parts, ", "), bindings, nil
	}

	parts := make([]string, len(update))
	for i, a := range update {
		wc := g.WrapIdentifier(lihtne.ParseIdentifier(a.Column))
		parts[i] = wc + " = values(" + wc + ")"
	}
	return sql + " on duplicate key update " + strings.Join(parts, ", "), bindings, nil
}

func mysqlFulltext(g *Grammar, w lihtne.WhereIR) (string, error) {
	cols := make([]string, len(w.Columns))
	for i, c := range w.Columns {
		cols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
	}
	mode := "natural language mode"
	switch w.FulltextMode {
	case "boolean":
		mode = "boolean mode"
	case "":
	}
	expansion := ""
	if w.FulltextExpansion {
		expansion = " with query expansion"
	}
	return "match(" + strings.Join(cols, ", ") + ") against(? in " + mode + expansion + ")", nil
}

func mysqlJSONSelector(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return col
	}
	return "json_unquote(json_extract(" + col + ", '" + mysqlJSONPathLiteral(jp) + "'))"
}

func mysqlJSONPathLiteral(jp lihtne.JSONPath) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, seg := range jp.Path {
		if seg.IsIndex {
			sb.WriteString("[" + strconv.Itoa(seg.Index) + "]")
		} else {
			sb.WriteString(`."` + seg.Key + `"`)
		}
	}
	return sb.String()
}

// mysqlJSONBoolExpr compares the raw json_extract(...) result against a
// bare true/false literal, skipping the json_unquote() wrapping the
// string/number selector form uses.
func mysqlJSONBoolExpr(g *Grammar, column string, op string, val bool) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	lit := "false"
	if val {
		lit = "true"
	}
	return "json_extract(" + col + ", '" + mysqlJSONPathLiteral(jp) + "') " + op + " " + lit
}

func mysqlJSONContains(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	path := "$"
	if len(jp.Path) > 0 {
		path = mysqlJSONPathLiteral(jp)
	}
	return "json_contains(" + col + ", ?, '" + path + "')"
}

func mysqlJSONContainsKey(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	return "json_contains_path(" + col + ", 'one', '" + mysqlJSONPathLiteral(jp) + "')"
}

func mysqlJSONLength(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return "json_length(" + col + ")"
	}
	return "json_length(" + col + ", '" + mysqlJSONPathLiteral(jp) + "')"
}

// mysqlDeleteWithJoins implements MySQL's multi-table delete form:
// "delete <alias> from <table> <joins> where ...", deleting from the
// first (leftmost) table only — the common case the builder targets.
func mysqlDeleteWithJoins(g *Grammar, ir *lihtne.QueryIR) (string, []lihtne.Value, error) {
	table := g.WrapTable(identifierString(ir.From.Ident))
	alias := tableAliasOrName(ir.From.Ident, g)

	js, bindings, err := g.compileJoins(ir.Joins)
	if err != nil {
		return "", nil, err
	}

	sql := "delete " + alias + " from " + table + " " + js
	if len(ir.Wheres) > 0 {
		ws, wb, err := g.compileWheres(ir.Wheres, "where")
		if err != nil {
			return "", nil, err
		}
		sql += " " + ws
		bindings = append(bindings, wb...)
	}
	return sql, bindings, nil
}

func tableAliasOrName(id lihtne.Identifier, g *Grammar) string {
	if id.HasAlias() {
		return g.WrapValue(g.Prefix + id.Alias)
	}
	return g.WrapValue(g.Prefix + id.LastSegment())
}
