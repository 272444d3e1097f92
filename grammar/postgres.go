package grammar

import (
	"strconv"
	"strings"

	"github.com/aagamezl/lihtne"
	"github.com/aagamezl/lihtne/errcause"
)

// NewPostgres returns the Postgres grammar: double-quote identifiers,
// on-conflict upsert against excluded.*, jsonb operators, to_tsvector
// fulltext search, explicit UPDATE ... FROM, and the only dialect that
// implements CompileSelectDoc (row_to_json-based nested documents).
func NewPostgres(prefix string) lihtne.Grammar {
	g := &Grammar{Prefix: prefix}
	g.D = Dialect{
		Name:                  "postgres",
		DateFmt:               "Y-m-d H:i:s.v",
		QuoteChar:             '"',
		Random:                func() string { return "RANDOM()" },
		Lock:                  genericLock,
		Upsert:                postgresUpsert,
		InsertOrIgnore:        postgresInsertOrIgnore,
		Fulltext:              postgresFulltext,
		JSONSelector:          postgresJSONSelector,
		JSONBoolExpr:          postgresJSONBoolExpr,
		JSONContains:          postgresJSONContains,
		JSONContainsKey:       postgresJSONContainsKey,
		JSONLength:            postgresJSONLength,
		UpdateFrom:            postgresUpdateFrom,
		CompileSelectDoc:      postgresSelectDoc,
		CompileAssignments:    postgresCompileAssignments,
		LateralJoinsSupported: true,
	}
	return g
}

func postgresUpsert(g *Grammar, table string, columns []string, rows [][]lihtne.Value, uniqueBy []string, update []lihtne.Assignment) (string, []lihtne.Value, error) {
	sql, bindings, err := g.compileInsertValues("insert into ", table, columns, rows)
	if err != nil {
		return "", nil, err
	}
	uniqueCols := make([]string, len(uniqueBy))
	for i, c := range uniqueBy {
		uniqueCols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
	}
	sql += " on conflict (" + strings.Join(uniqueCols, ", ") + ")"
	if len(update) == 0 {
		return sql + " do nothing", bindings, nil
	}
	parts := make([]string, len(update))
	for i, a := range update {
		wc := g.WrapIdentifier(lihtne.ParseIdentifier(a.Column))
		parts[i] = wc + " = " + `"excluded".` + wc
	}
	return sql + " do update set " + strings.Join(parts, ", "), bindings, nil
}

func postgresInsertOrIgnore(g *Grammar, table string, columns []string, rows [][]lihtne.Value) (string, []lihtne.Value, error) {
	sql, bindings, err := g.compileInsertValues("insert into ", table, columns, rows)
	if err != nil {
		return "", nil, err
	}
	return sql + " on conflict do nothing", bindings, nil
}

func postgresFulltext(g *Grammar, w lihtne.WhereIR) (string, error) {
	fn := "plainto_tsquery"
	switch w.FulltextMode {
	case "", "plain":
	case "phrase":
		fn = "phraseto_tsquery"
	case "websearch":
		fn = "websearch_to_tsquery"
	default:
		return "", errcause.NewInvalidArgument("postgres fulltext search mode %q is not one of plain, phrase, websearch", w.FulltextMode)
	}

	cols := make([]string, len(w.Columns))
	for i, c := range w.Columns {
		cols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
	}
	vector := "to_tsvector('english', " + strings.Join(cols, " || ' ' || ") + ")"
	return vector + " @@ " + fn + "('english', ?)", nil
}

// postgresJSONSelector renders "col"->'a'->>'b': every path segment but
// the last uses the jsonb "->" operator, the last uses the text "->>"
// extraction operator so the result compares as plain text.
func postgresJSONSelector(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return col
	}
	var sb strings.Builder
	sb.WriteString(col)
	for i, seg := range jp.Path {
		op := "->"
		if i == len(jp.Path)-1 {
			op = "->>"
		}
		sb.WriteString(op)
		if seg.IsIndex {
			sb.WriteString(strconv.Itoa(seg.Index))
		} else {
			sb.WriteString("'" + seg.Key + "'")
		}
	}
	return sb.String()
}

// postgresJSONBoolExpr casts the jsonb path chain to jsonb and compares
// against a 'true'/'false'::jsonb literal, rather than the ->> text
// extraction the string/number selector form uses.
func postgresJSONBoolExpr(g *Grammar, column string, op string, val bool) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	lit := "false"
	if val {
		lit = "true"
	}
	return "(" + jsonbPathExtract(col, jp) + ")::jsonb " + op + " '" + lit + "'::jsonb"
}

func postgresJSONContains(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return "(" + col + ")::jsonb @> ?"
	}
	return "(" + jsonbPathExtract(col, jp) + ")::jsonb @> ?"
}

// postgresJSONContainsKey renders the "?" jsonb key-exists operator,
// doubled to "??" so the grammar's own placeholder scanner (and
// ToRawSQL) never mistake it for a bind parameter.
func postgresJSONContainsKey(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	key := jp.Column
	target := "(" + col + ")::jsonb"
	if len(jp.Path) > 0 {
		last := jp.Path[len(jp.Path)-1]
		key = last.Key
		target = "(" + jsonbPathExtract(col, lihtne.JSONPath{Column: jp.Column, Path: jp.Path[:len(jp.Path)-1]}) + ")::jsonb"
	}
	return "coalesce(" + target + " ?? '" + key + "', false)"
}

func postgresJSONLength(g *Grammar, column string) string {
	jp := lihtne.ParseJSONPath(column)
	col := g.WrapIdentifier(lihtne.ParseIdentifier(jp.Column))
	if len(jp.Path) == 0 {
		return "jsonb_array_length((" + col + ")::jsonb)"
	}
	return "jsonb_array_length((" + jsonbPathExtract(col, jp) + ")::jsonb)"
}

func jsonbPathExtract(col string, jp lihtne.JSONPath) string {
	var sb strings.Builder
	sb.WriteString(col)
	for _, seg := range jp.Path {
		sb.WriteString("->")
		if seg.IsIndex {
			sb.WriteString(strconv.Itoa(seg.Index))
		} else {
			sb.WriteString("'" + seg.Key + "'")
		}
	}
	return sb.String()
}

// postgresUpdateFrom compiles the explicit "update t set ... from other
// where t.id = other.fk and ..." form: every joined table moves into the
// FROM list and its ON conditions join the WHERE list, since Postgres's
// UPDATE has no native JOIN clause.
func postgresUpdateFrom(g *Grammar, ir *lihtne.QueryIR, assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	setSQL, bindings, err := g.buildAssignments(assignments)
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString("update " + g.WrapTable(identifierString(ir.From.Ident)) + " set " + setSQL)

	if len(ir.Joins) > 0 {
		tables := make([]string, len(ir.Joins))
		for i, j := range ir.Joins {
			tables[i] = g.WrapTable(identifierString(j.Table.Ident))
		}
		sb.WriteString(" from " + strings.Join(tables, ", "))
	}

	var wheres []lihtne.WhereIR
	for _, j := range ir.Joins {
		wheres = append(wheres, j.On...)
	}
	wheres = append(wheres, ir.Wheres...)
	if len(wheres) > 0 {
		ws, wb, err := g.compileWheres(wheres, "where")
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" " + ws)
		bindings = append(bindings, wb...)
	}
	return sb.String(), bindings, nil
}

// postgresSelectDoc compiles a DocBuilder query into a single row_to_json
// projection per document entry, grounded on the teacher's
// SelectDocBuilder composing one CTE per With()/Many()/One() slot.
func postgresSelectDoc(g *Grammar, ir *lihtne.QueryIR, doc *lihtne.DocSpec) (string, []lihtne.Value, error) {
	if len(doc.With) == 0 && len(doc.Many) == 0 && len(doc.One) == 0 && len(doc.Vector) == 0 && len(doc.Scalar) == 0 {
		return "", nil, errcause.NewInvalidArgument("document query has no entries")
	}

	var ctes []string
	var bindings []lihtne.Value
	addCTE := func(alias string, sub *lihtne.Builder) error {
		sql, b, err := g.CompileSelect(sub.IR())
		if err != nil {
			return err
		}
		ctes = append(ctes, g.WrapValue(alias)+" as ("+sql+")")
		bindings = append(bindings, b...)
		return nil
	}

	var projections []string
	for _, e := range doc.With {
		if err := addCTE(e.Alias, e.Sub); err != nil {
			return "", nil, err
		}
		projections = append(projections, "(select row_to_json("+g.WrapValue(e.Alias)+") from "+g.WrapValue(e.Alias)+" limit 1) as "+g.WrapValue(e.Alias))
	}
	for _, e := range doc.One {
		if err := addCTE(e.Alias, e.Sub); err != nil {
			return "", nil, err
		}
		projections = append(projections, "(select row_to_json("+g.WrapValue(e.Alias)+") from "+g.WrapValue(e.Alias)+" limit 1) as "+g.WrapValue(e.Alias))
	}
	for _, e := range doc.Many {
		if err := addCTE(e.Alias, e.Sub); err != nil {
			return "", nil, err
		}
		projections = append(projections, "(select coalesce(json_agg(row_to_json("+g.WrapValue(e.Alias)+")), '[]') from "+g.WrapValue(e.Alias)+") as "+g.WrapValue(e.Alias))
	}
	for _, e := range doc.Vector {
		if err := addCTE(e.Alias, e.Sub); err != nil {
			return "", nil, err
		}
		projections = append(projections, "(select coalesce(json_agg(x.v), '[]') from (select * from "+g.WrapValue(e.Alias)+") as x(v)) as "+g.WrapValue(e.Alias))
	}
	for _, e := range doc.Scalar {
		if err := addCTE(e.Alias, e.Sub); err != nil {
			return "", nil, err
		}
		projections = append(projections, "(select * from "+g.WrapValue(e.Alias)+" limit 1) as "+g.WrapValue(e.Alias))
	}

	baseSQL, baseBindings, err := g.CompileSelect(ir)
	if err != nil {
		return "", nil, err
	}
	ctes = append(ctes, g.WrapValue("lihtne_doc_base")+" as ("+baseSQL+")")
	bindings = append(bindings, baseBindings...)
	projections = append([]string{"row_to_json(" + g.WrapValue("lihtne_doc_base") + ".*)"}, projections...)

	sql := "with " + strings.Join(ctes, ", ") + " select " + strings.Join(projections, ", ") + " from " + g.WrapValue("lihtne_doc_base")
	return sql, bindings, nil
}
