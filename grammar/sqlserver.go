package grammar

import (
	"strconv"
	"strings"

	"github.com/aagamezl/lihtne"
)

// NewSQLServer returns the SQL Server grammar: bracket-quoted
// identifiers, NEWID() random ordering, TOP/OFFSET-FETCH paging, a
// MERGE-based upsert, and openjson/json_value JSON translation. It has
// no fulltext search primitive, no lateral joins, and no portable
// insert-or-ignore form (SQL Server has no syntax for that without
// already knowing the unique constraint columns).
func NewSQLServer(prefix string) lihtne.Grammar {
	g := &Grammar{Prefix: prefix}
	g.D = Dialect{
		Name:            "sqlserver",
		DateFmt:         "Y-m-d H:i:s.v",
		QuoteChar:       '[',
		Random:          func() string { return "NEWID()" },
		Lock:            sqlserverLock,
		LimitOffset:     sqlserverLimitOffset,
		Upsert:          sqlserverUpsert,
		JSONSelector:    sqlserverJSONSelector,
		JSONContains:    sqlserverJSONContains,
		JSONContainsKey: sqlserverJSONContainsKey,
		JSONLength:      sqlserverJSONLength,
		UpdateFrom:      sqlserverUpdateFrom,
		DeleteWithJoins: mysqlDeleteWithJoins,
	}
	return g
}

func sqlserverLock(ir *lihtne.QueryIR) string {
	switch ir.Lock {
	case lihtne.LockForUpdate:
		return "with (updlock, rowlock)"
	case lihtne.LockForShare:
		return "with (holdlock, rowlock)"
	case lihtne.LockRaw:
		return ir.LockSQL
	default:
		return ""
	}
}

// sqlserverLimitOffset implements T-SQL's two paging forms: a plain
// "top N" injected into the select list when only a limit is given, or
// the "offset N rows [fetch next M rows only]" trailer when an offset
// is present. OFFSET requires an ORDER BY, so one is synthesized when
// the query carries none.
func sqlserverLimitOffset(g *Grammar, ir *lihtne.QueryIR, parts *[]string) {
	if ir.HasOffset {
		if len(ir.Orders) == 0 {
			*parts = append(*parts, "order by (SELECT 0)")
		}
		*parts = append(*parts, "offset "+strconv.Itoa(ir.Offset)+" rows")
		if ir.HasLimit {
			*parts = append(*parts, "fetch next "+strconv.Itoa(ir.Limit)+" rows only")
		}
		return
	}
	if ir.HasLimit && len(*parts) > 0 {
		(*parts)[0] = sqlserverInjectTop((*parts)[0], ir.Limit)
	}
}

func sqlserverInjectTop(selectClause string, n int) string {
	top := "top " + strconv.Itoa(n) + " "
	if strings.HasPrefix(selectClause, "select distinct ") {
		return "select distinct " + top + strings.TrimPrefix(selectClause, "select distinct ")
	}
	return "select " + top + strings.TrimPrefix(selectClause, "select ")
}

// sqlserverUpsert compiles a MERGE statement: the incoming rows become
// a VALUES-derived source table matched against the target on its
// unique columns, updating matched rows and inserting the rest.
func sqlserverUpsert(g *Grammar, table string, columns []string, rows [][]lihtne.Value, uniqueBy []string, update []lihtne.Assignment) (string, []lihtne.Value, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
	}
	valueRows := make([]string, len(rows))
	var bindings []lihtne.Value
	for i, row := range rows {
		valueRows[i] = "(" + g.parameterize(row) + ")"
		bindings = append(bindings, g.bindingsFor(row...)...)
	}

	target := g.WrapTable(table)
	source := g.WrapValue("lihtne_source")

	onParts := make([]string, len(uniqueBy))
	for i, c := range uniqueBy {
		wc := g.WrapIdentifier(lihtne.ParseIdentifier(c))
		onParts[i] = target + "." + wc + " = " + source + "." + wc
	}

	var sb strings.Builder
	sb.WriteString("merge into " + target + " using (values " + strings.Join(valueRows, ", ") + ") as " + source + " (" + strings.Join(cols, ", ") + ")")
	sb.WriteString(" on " + strings.Join(onParts, " and "))

	if len(update) > 0 {
		parts := make([]string, len(update))
		for i, a := range update {
			wc := g.WrapIdentifier(lihtne.ParseIdentifier(a.Column))
			parts[i] = wc + " = " + source + "." + wc
		}
		sb.WriteString(" when matched then update set " + strings.Join(parts, ", "))
	}

	sourceCols := make([]string, len(cols))
	for i, c := range cols {
		sourceCols[i] = source + "." + c
	}
	sb.WriteString(" when not matched then insert (" + strings.Join(cols, ", ") + ") values (" + strings.Join(sourceCols, ", ") + ");")
	return sb.String(), bindings, nil
}

func sqlserverJSONPathLiteral(jp lihtne.JSONPath) string {
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

func sqlserverJSONSelector(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return col
	}
	return "json_value(" + col + ", '" + sqlserverJSONPathLiteral(jp) + "')"
}

func sqlserverJSONContains(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	path := "$"
	if len(jp.Path) > 0 {
		path = sqlserverJSONPathLiteral(jp)
	}
	return "exists(select 1 from openjson(" + col + ", '" + path + "') where value = ?)"
}

func sqlserverJSONContainsKey(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	return "json_value(" + col + ", '" + sqlserverJSONPathLiteral(jp) + "') is not null"
}

func sqlserverJSONLength(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	path := "$"
	if len(jp.Path) > 0 {
		path = sqlserverJSONPathLiteral(jp)
	}
	return "(select count(*) from openjson(" + col + ", '" + path + "'))"
}

// sqlserverUpdateFrom compiles T-SQL's "update t set ... from t join
// other on ... where ..." form, the only way SQL Server expresses a
// joined update (it has no MySQL-style "update t join other set").
func sqlserverUpdateFrom(g *Grammar, ir *lihtne.QueryIR, assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	setSQL, bindings, err := g.buildAssignments(assignments)
	if err != nil {
		return "", nil, err
	}
	target := tableAliasOrName(ir.From.Ident, g)

	var sb strings.Builder
	sb.WriteString("update " + target + " set " + setSQL)
	sb.WriteString(" from " + g.WrapTable(identifierString(ir.From.Ident)))

	if len(ir.Joins) > 0 {
		js, jb, err := g.compileJoins(ir.Joins)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" " + js)
		bindings = append(bindings, jb...)
	}

	if len(ir.Wheres) > 0 {
		ws, wb, err := g.compileWheres(ir.Wheres, "where")
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" " + ws)
		bindings = append(bindings, wb...)
	}
	return sb.String(), bindings, nil
}
