// Package grammar compiles a dialect-independent lihtne.QueryIR into SQL
// text plus an ordered binding list. A single Grammar type implements
// lihtne.Grammar for every dialect; the dialect-specific files in this
// package (ansi.go, mysql.go, mariadb.go, postgres.go, sqlite.go,
// sqlserver.go) each build one by filling in a Dialect value with the
// handful of hooks that actually vary — quoting, locking, random
// ordering, JSON translation, upsert syntax, fulltext search and index
// hints — the way the teacher's own dat.Dialect interface isolates
// per-database behaviour behind a small seam instead of one type per
// database.
package grammar

import (
	"strconv"
	"strings"

	"github.com/aagamezl/lihtne"
	"github.com/aagamezl/lihtne/errcause"
)

// Dialect bundles every point of variation between the SQL dialects this
// package supports. A Grammar is entirely defined by its Dialect value;
// the compilation pipeline itself (clause ordering, binding bookkeeping,
// union/aggregate rewriting) lives once in this file.
type Dialect struct {
	Name      string
	DateFmt   string
	QuoteChar byte
	UseAlias  bool // MySQL "use_upsert_alias" config

	Random          func() string
	Lock            func(ir *lihtne.QueryIR) string
	IndexHint       func(h *lihtne.IndexHintIR) string
	LimitOffset     func(g *Grammar, ir *lihtne.QueryIR, parts *[]string)
	Upsert          func(g *Grammar, table string, columns []string, rows [][]lihtne.Value, uniqueBy []string, update []lihtne.Assignment) (string, []lihtne.Value, error)
	InsertOrIgnore  func(g *Grammar, table string, columns []string, rows [][]lihtne.Value) (string, []lihtne.Value, error)
	Fulltext        func(g *Grammar, w lihtne.WhereIR) (string, error)
	JSONSelector    func(g *Grammar, column string) string
	// JSONBoolExpr renders a JSON-path comparison against a bool literal,
	// a shape several dialects spell differently from their normal
	// string/number selector (MySQL compares the raw json_extract
	// against true/false rather than the json_unquote()'d text form;
	// Postgres casts the ->  chain to jsonb and compares against
	// 'true'/'false'::jsonb rather than using the ->> text operator).
	JSONBoolExpr    func(g *Grammar, column string, op string, val bool) string
	JSONContains    func(g *Grammar, column string) string
	JSONContainsKey func(g *Grammar, column string) string
	JSONLength      func(g *Grammar, column string) string
	// CompileAssignments overrides the plain "col = ?" SET-clause
	// builder for dialects that merge JSON-path assignments ("a->b": v)
	// into a single per-column JSON-update expression rather than
	// treating "a->b" as a literal column name.
	CompileAssignments    func(g *Grammar, assignments []lihtne.Assignment) (string, []lihtne.Value, error)
	UpdateFrom            func(g *Grammar, ir *lihtne.QueryIR, assignments []lihtne.Assignment) (string, []lihtne.Value, error)
	DeleteWithJoins       func(g *Grammar, ir *lihtne.QueryIR) (string, []lihtne.Value, error)
	CompileSelectDoc      func(g *Grammar, ir *lihtne.QueryIR, doc *lihtne.DocSpec) (string, []lihtne.Value, error)
	LateralJoinsSupported bool
}

// Grammar implements lihtne.Grammar, driven by a Dialect configuration.
type Grammar struct {
	D      Dialect
	Prefix string
}

func (g *Grammar) Name() string { return g.D.Name }

func (g *Grammar) GetDateFormat() string { return g.D.DateFmt }

// WrapValue quotes a single identifier segment, "*" passing straight
// through.
func (g *Grammar) WrapValue(segment string) string {
	if segment == "*" {
		return segment
	}
	return string(g.D.QuoteChar) + lihtne.EscapeQuoteChar(segment, g.D.QuoteChar) + string(closeQuote(g.D.QuoteChar))
}

func closeQuote(open byte) byte {
	switch open {
	case '[':
		return ']'
	default:
		return open
	}
}

// WrapIdentifier quotes every dotted segment of id, appending its alias
// (also quoted) when present. No table prefix is applied here; only
// WrapTable prefixes.
func (g *Grammar) WrapIdentifier(id lihtne.Identifier) string {
	parts := make([]string, len(id.Segments))
	for i, s := range id.Segments {
		parts[i] = g.WrapValue(s)
	}
	out := strings.Join(parts, ".")
	if id.HasAlias() {
		out += " as " + g.WrapValue(id.Alias)
	}
	return out
}

// WrapTable quotes table identifies and applies the configured prefix to
// the actual table name (the last dotted segment) and to any alias.
func (g *Grammar) WrapTable(table string) string {
	id := lihtne.ParseIdentifier(table)
	parts := make([]string, len(id.Segments))
	for i, s := range id.Segments {
		if i == len(id.Segments)-1 {
			s = g.Prefix + s
		}
		parts[i] = g.WrapValue(s)
	}
	out := strings.Join(parts, ".")
	if id.HasAlias() {
		out += " as " + g.WrapValue(g.Prefix+id.Alias)
	}
	return out
}

func (g *Grammar) parameter(v lihtne.Value) string {
	if v.IsRaw() {
		return v.Raw().SQL
	}
	return "?"
}

func (g *Grammar) parameterize(vals []lihtne.Value) string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = g.parameter(v)
	}
	return strings.Join(out, ", ")
}

// CompileSelect runs the fixed-order clause pipeline described by
// spec.md §4.2: aggregate rewriting first, then one fragment per
// non-empty component, joined by single spaces.
func (g *Grammar) CompileSelect(ir *lihtne.QueryIR) (string, []lihtne.Value, error) {
	needsRewrite := len(ir.Unions) > 0 && ir.Aggregate != nil
	needsRewrite = needsRewrite || (len(ir.Havings) > 0 && ir.Aggregate != nil)
	if needsRewrite {
		return g.compileUnionAggregate(ir)
	}

	savedColumns := ir.Columns
	if len(ir.Columns) == 0 {
		ir.Columns = []lihtne.ColumnIR{{Ident: lihtne.ParseIdentifier("*")}}
	}
	defer func() { ir.Columns = savedColumns }()

	var parts []string
	var bindings []lihtne.Value

	if ir.Aggregate != nil {
		s, err := g.compileAggregate(ir)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
	} else {
		s, b, err := g.compileColumns(ir)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
		bindings = append(bindings, b...)
	}

	if ir.From != nil {
		s, b, err := g.compileFrom(ir.From)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
		bindings = append(bindings, b...)
	}

	if ir.IndexHint != nil && g.D.IndexHint != nil {
		if s := g.D.IndexHint(ir.IndexHint); s != "" {
			parts = append(parts, s)
		}
	}

	if len(ir.Joins) > 0 {
		s, b, err := g.compileJoins(ir.Joins)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
		bindings = append(bindings, b...)
	}

	if len(ir.Wheres) > 0 {
		s, b, err := g.compileWheres(ir.Wheres, "where")
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
		bindings = append(bindings, b...)
	}

	if len(ir.Groups) > 0 {
		parts = append(parts, "group by "+g.compileColumnList(ir.Groups))
	}

	if len(ir.Havings) > 0 {
		s, b, err := g.compileHavings(ir.Havings)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
		bindings = append(bindings, b...)
	}

	if len(ir.Orders) > 0 {
		s, b := g.compileOrders(ir.Orders)
		parts = append(parts, s)
		bindings = append(bindings, b...)
	}

	if g.D.LimitOffset != nil {
		g.D.LimitOffset(g, ir, &parts)
	} else {
		if ir.HasLimit {
			parts = append(parts, "limit "+strconv.Itoa(ir.Limit))
		}
		if ir.HasOffset {
			parts = append(parts, "offset "+strconv.Itoa(ir.Offset))
		}
	}

	if ir.Lock != lihtne.LockNone && g.D.Lock != nil {
		if s := g.D.Lock(ir); s != "" {
			parts = append(parts, s)
		}
	}

	sql := strings.TrimSpace(strings.Join(nonEmpty(parts), " "))

	if len(ir.Unions) > 0 {
		sql = g.wrapUnion(sql)
		us, ub, err := g.compileUnions(ir)
		if err != nil {
			return "", nil, err
		}
		sql += us
		bindings = append(bindings, ub...)
	}

	return sql, bindings, nil
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (g *Grammar) compileAggregate(ir *lihtne.QueryIR) (string, error) {
	a := ir.Aggregate
	cols := "*"
	if !(len(a.Columns) == 1 && a.Columns[0] == "*") {
		wrapped := make([]string, len(a.Columns))
		for i, c := range a.Columns {
			wrapped[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
		}
		cols = strings.Join(wrapped, ", ")
	}
	distinct := ""
	if ir.Distinct {
		distinct = "distinct "
	}
	return "select " + a.Fn + "(" + distinct + cols + ") as aggregate", nil
}

func (g *Grammar) compileColumns(ir *lihtne.QueryIR) (string, []lihtne.Value, error) {
	prefix := "select "
	if ir.Distinct {
		if len(ir.DistinctCols) > 0 && g.D.Name == "postgres" {
			wrapped := make([]string, len(ir.DistinctCols))
			for i, c := range ir.DistinctCols {
				wrapped[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
			}
			return prefix + "distinct on (" + strings.Join(wrapped, ", ") + ") " + g.compileColumnList(ir.Columns), nil, nil
		}
		if len(ir.DistinctCols) == 0 {
			prefix = "select distinct "
		}
	}
	var bindings []lihtne.Value
	parts := make([]string, len(ir.Columns))
	for i, c := range ir.Columns {
		s, b, err := g.compileOneColumn(c)
		if err != nil {
			return "", nil, err
		}
		parts[i] = s
		bindings = append(bindings, b...)
	}
	return prefix + strings.Join(parts, ", "), bindings, nil
}

func (g *Grammar) compileColumnList(cols []lihtne.ColumnIR) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		s, _, _ := g.compileOneColumn(c)
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func (g *Grammar) compileOneColumn(c lihtne.ColumnIR) (string, []lihtne.Value, error) {
	switch {
	case c.Raw != nil:
		return c.Raw.SQL, c.Raw.Args, nil
	case c.Sub != nil:
		sql, bindings, err := c.Sub.Grammar().(*Grammar).CompileSelect(c.Sub.IR())
		if err != nil {
			return "", nil, err
		}
		out := "(" + sql + ")"
		if c.Alias != "" {
			out += " as " + g.WrapValue(c.Alias)
		}
		return out, bindings, nil
	default:
		out := g.wrapColumn(strings.Join(c.Ident.Segments, "."))
		if c.Ident.HasAlias() {
			out += " as " + g.WrapValue(c.Ident.Alias)
		}
		return out, nil, nil
	}
}

// wrapColumn quotes a plain column identifier, or translates it through
// the dialect's JSON selector when it carries a "->" JSON path — the same
// rule compileOneColumn, compileOneWhere and compileOrders all need, per
// the golden example mixing a JSON path in the select list, the where
// clause and the order by in one query.
func (g *Grammar) wrapColumn(column string) string {
	if lihtne.IsJSONPath(column) && g.D.JSONSelector != nil {
		return g.D.JSONSelector(g, column)
	}
	return g.WrapIdentifier(lihtne.ParseIdentifier(column))
}

func (g *Grammar) compileFrom(src *lihtne.FromSource) (string, []lihtne.Value, error) {
	switch src.Kind {
	case lihtne.FromSub:
		sql, bindings, err := src.Sub.Grammar().(*Grammar).CompileSelect(src.Sub.IR())
		if err != nil {
			return "", nil, err
		}
		out := "from (" + sql + ")"
		if src.Alias != "" {
			out += " as " + g.WrapValue(g.Prefix+src.Alias)
		}
		return out, bindings, nil
	case lihtne.FromRawExpr:
		return "from " + src.Raw.SQL, src.Raw.Args, nil
	default:
		return "from " + g.WrapTable(identifierString(src.Ident)), nil, nil
	}
}

func identifierString(id lihtne.Identifier) string {
	out := strings.Join(id.Segments, ".")
	if id.HasAlias() {
		out += " as " + id.Alias
	}
	return out
}

func (g *Grammar) compileJoins(joins []lihtne.JoinIR) (string, []lihtne.Value, error) {
	var sb strings.Builder
	var bindings []lihtne.Value
	for i, j := range joins {
		if i > 0 {
			sb.WriteByte(' ')
		}
		s, b, err := g.compileOneJoin(j)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(s)
		bindings = append(bindings, b...)
	}
	return sb.String(), bindings, nil
}

func (g *Grammar) compileOneJoin(j lihtne.JoinIR) (string, []lihtne.Value, error) {
	if (j.Kind == lihtne.InnerLateralJoin || j.Kind == lihtne.LeftLateralJoin) && !g.D.LateralJoinsSupported {
		return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "lateral joins")
	}
	kind := joinKeyword(j.Kind)
	var table string
	var bindings []lihtne.Value
	switch j.Table.Kind {
	case lihtne.FromSub:
		sql, b, err := j.Table.Sub.Grammar().(*Grammar).CompileSelect(j.Table.Sub.IR())
		if err != nil {
			return "", nil, err
		}
		table = "(" + sql + ")"
		if j.Table.Alias != "" {
			table += " as " + g.WrapValue(g.Prefix+j.Table.Alias)
		}
		bindings = append(bindings, b...)
	default:
		table = g.WrapTable(identifierString(j.Table.Ident))
	}
	lateral := j.Kind == lihtne.InnerLateralJoin || j.Kind == lihtne.LeftLateralJoin
	out := kind + " join " + table
	if lateral {
		out = kind + " join lateral " + table
	}
	if len(j.On) > 0 {
		s, b, err := g.compileWheres(j.On, "on")
		if err != nil {
			return "", nil, err
		}
		out += " " + s
		bindings = append(bindings, b...)
	} else if lateral {
		out += " on true"
	}
	return out, bindings, nil
}

func joinKeyword(k lihtne.JoinKind) string {
	switch k {
	case lihtne.LeftJoin, lihtne.LeftLateralJoin:
		return "left"
	case lihtne.RightJoin:
		return "right"
	case lihtne.CrossJoin:
		return "cross"
	default:
		return "inner"
	}
}

// compileWheres renders wheres joined by their boolean operators, with
// the leading boolean keyword stripped, prefixed by label ("where"/"on").
func (g *Grammar) compileWheres(wheres []lihtne.WhereIR, label string) (string, []lihtne.Value, error) {
	var sb strings.Builder
	var bindings []lihtne.Value
	for _, w := range wheres {
		frag, b, err := g.compileOneWhere(w)
		if err != nil {
			return "", nil, err
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
			sb.WriteString(w.Bool.String())
			sb.WriteByte(' ')
		}
		sb.WriteString(frag)
		bindings = append(bindings, b...)
	}
	if sb.Len() == 0 {
		return "", nil, nil
	}
	if label == "" {
		return sb.String(), bindings, nil
	}
	return label + " " + sb.String(), bindings, nil
}

func notPrefix(not bool) string {
	if not {
		return "not "
	}
	return ""
}

func (g *Grammar) compileOneWhere(w lihtne.WhereIR) (string, []lihtne.Value, error) {
	col := func() string { return g.wrapColumn(w.Column) }
	switch w.Kind {
	case lihtne.WhereBasic:
		if g.D.JSONBoolExpr != nil && lihtne.IsJSONPath(w.Column) && w.Val.Kind() == lihtne.KindBool {
			return notPrefix(w.Not) + g.D.JSONBoolExpr(g, w.Column, w.Op, w.Val.Resolved("").(int64) != 0), nil, nil
		}
		return notPrefix(w.Not) + col() + " " + w.Op + " " + g.parameter(w.Val), g.bindingsFor(w.Val), nil
	case lihtne.WhereColumn:
		return col() + " " + w.Op + " " + g.WrapIdentifier(lihtne.ParseIdentifier(w.ColB)), nil, nil
	case lihtne.WhereIn:
		return g.compileWhereIn(w)
	case lihtne.WhereInRaw:
		if len(w.Ints) == 0 {
			if w.Not {
				return "1 = 1", nil, nil
			}
			return "0 = 1", nil, nil
		}
		ints := make([]string, len(w.Ints))
		for i, n := range w.Ints {
			ints[i] = strconv.FormatInt(n, 10)
		}
		return col() + " " + notPrefix(w.Not) + "in (" + strings.Join(ints, ", ") + ")", nil, nil
	case lihtne.WhereNull:
		if w.Not {
			return col() + " is not null", nil, nil
		}
		return col() + " is null", nil, nil
	case lihtne.WhereBetween:
		return col() + " " + notPrefix(w.Not) + "between " + g.parameter(w.Min) + " and " + g.parameter(w.Max), g.bindingsFor(w.Min, w.Max), nil
	case lihtne.WhereBetweenColumns:
		return col() + " " + notPrefix(w.Not) + "between " + g.WrapIdentifier(lihtne.ParseIdentifier(w.MinCol)) + " and " + g.WrapIdentifier(lihtne.ParseIdentifier(w.MaxCol)), nil, nil
	case lihtne.WhereDate, lihtne.WhereDay, lihtne.WhereMonth, lihtne.WhereYear, lihtne.WhereTime:
		return g.datePartFn(w.Kind) + "(" + col() + ") " + w.Op + " " + g.parameter(w.Val), g.bindingsFor(w.Val), nil
	case lihtne.WhereExists:
		sql, b, err := w.Sub.Grammar().(*Grammar).CompileSelect(w.Sub.IR())
		if err != nil {
			return "", nil, err
		}
		return notPrefix(w.Not) + "exists (" + sql + ")", b, nil
	case lihtne.WhereSub:
		sql, b, err := w.Sub.Grammar().(*Grammar).CompileSelect(w.Sub.IR())
		if err != nil {
			return "", nil, err
		}
		return notPrefix(w.Not) + col() + " " + w.Op + " (" + sql + ")", b, nil
	case lihtne.WhereNested:
		s, b, err := g.compileWheres(w.Group, "")
		if err != nil {
			return "", nil, err
		}
		return notPrefix(w.Not) + "(" + s + ")", b, nil
	case lihtne.WhereRaw:
		return w.SQL, w.Args, nil
	case lihtne.WhereExpression:
		return w.SQL, w.Args, nil
	case lihtne.WhereRowValues:
		cols := make([]string, len(w.Columns))
		for i, c := range w.Columns {
			cols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
		}
		return "(" + strings.Join(cols, ", ") + ") " + w.Op + " (" + g.parameterize(w.Vals) + ")", g.bindingsFor(w.Vals...), nil
	case lihtne.WhereBitwise:
		return col() + " " + w.Op + " " + g.parameter(w.Val), g.bindingsFor(w.Val), nil
	case lihtne.WhereFulltext:
		if g.D.Fulltext == nil {
			return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "fulltext search")
		}
		s, err := g.D.Fulltext(g, w)
		if err != nil {
			return "", nil, err
		}
		return s, g.bindingsFor(w.Val), nil
	case lihtne.WhereJSONContains:
		if g.D.JSONContains == nil {
			return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "JSON contains")
		}
		return notPrefix(w.Not) + g.D.JSONContains(g, w.Column), g.bindingsFor(w.Val), nil
	case lihtne.WhereJSONContainsKey:
		if g.D.JSONContainsKey == nil {
			return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "JSON contains key")
		}
		expr := g.D.JSONContainsKey(g, w.Column)
		if w.Not {
			return "not (" + expr + ")", nil, nil
		}
		return expr, nil, nil
	case lihtne.WhereJSONLength:
		if g.D.JSONLength == nil {
			return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "JSON length")
		}
		return g.D.JSONLength(g, w.Column) + " " + w.Op + " " + g.parameter(w.Val), g.bindingsFor(w.Val), nil
	default:
		return "", nil, errcause.NewCompilationError("unknown where variant %d reached %s grammar", w.Kind, g.D.Name)
	}
}

func (g *Grammar) datePartFn(k lihtne.WhereKind) string {
	switch k {
	case lihtne.WhereDate:
		return "date"
	case lihtne.WhereDay:
		return "day"
	case lihtne.WhereMonth:
		return "month"
	case lihtne.WhereYear:
		return "year"
	default:
		return "time"
	}
}

func (g *Grammar) compileWhereIn(w lihtne.WhereIR) (string, []lihtne.Value, error) {
	col := g.WrapIdentifier(lihtne.ParseIdentifier(w.Column))
	if w.Sub != nil {
		sql, b, err := w.Sub.Grammar().(*Grammar).CompileSelect(w.Sub.IR())
		if err != nil {
			return "", nil, err
		}
		return col + " " + notPrefix(w.Not) + "in (" + sql + ")", b, nil
	}
	if len(w.Vals) == 0 {
		if w.Not {
			return "1 = 1", nil, nil
		}
		return "0 = 1", nil, nil
	}
	return col + " " + notPrefix(w.Not) + "in (" + g.parameterize(w.Vals) + ")", g.bindingsFor(w.Vals...), nil
}

func (g *Grammar) bindingsFor(vals ...lihtne.Value) []lihtne.Value {
	out := make([]lihtne.Value, 0, len(vals))
	for _, v := range vals {
		if v.IsRaw() {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (g *Grammar) compileHavings(havings []lihtne.HavingIR) (string, []lihtne.Value, error) {
	var sb strings.Builder
	var bindings []lihtne.Value
	for _, h := range havings {
		frag, b, err := g.compileOneHaving(h)
		if err != nil {
			return "", nil, err
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
			sb.WriteString(h.Bool.String())
			sb.WriteByte(' ')
		}
		sb.WriteString(frag)
		bindings = append(bindings, b...)
	}
	if sb.Len() == 0 {
		return "", nil, nil
	}
	return "having " + sb.String(), bindings, nil
}

func (g *Grammar) compileOneHaving(h lihtne.HavingIR) (string, []lihtne.Value, error) {
	col := g.WrapIdentifier(lihtne.ParseIdentifier(h.Column))
	switch h.Kind {
	case lihtne.HavingBasic:
		return col + " " + h.Op + " " + g.parameter(h.Val), g.bindingsFor(h.Val), nil
	case lihtne.HavingBetween:
		return col + " between " + g.parameter(h.Min) + " and " + g.parameter(h.Max), g.bindingsFor(h.Min, h.Max), nil
	case lihtne.HavingNull:
		return col + " is null", nil, nil
	case lihtne.HavingNotNull:
		return col + " is not null", nil, nil
	case lihtne.HavingRaw:
		return h.SQL, h.Args, nil
	case lihtne.HavingNested:
		s, b, err := g.compileHavings(h.Group)
		if err != nil {
			return "", nil, err
		}
		return "(" + strings.TrimPrefix(s, "having ") + ")", b, nil
	default:
		return "", nil, errcause.NewCompilationError("unknown having variant %d reached %s grammar", h.Kind, g.D.Name)
	}
}

func (g *Grammar) compileOrders(orders []lihtne.OrderIR) (string, []lihtne.Value) {
	parts := make([]string, len(orders))
	var bindings []lihtne.Value
	for i, o := range orders {
		if o.Raw != nil {
			if o.Raw.SQL == "__RANDOM__" {
				parts[i] = g.D.Random()
				continue
			}
			parts[i] = o.Raw.SQL
			bindings = append(bindings, o.Raw.Args...)
			continue
		}
		parts[i] = g.wrapColumn(o.Column) + " " + o.Direction.String()
	}
	return "order by " + strings.Join(parts, ", "), bindings
}

func (g *Grammar) wrapUnion(sql string) string { return "(" + sql + ")" }

func (g *Grammar) compileUnions(ir *lihtne.QueryIR) (string, []lihtne.Value, error) {
	var sb strings.Builder
	var bindings []lihtne.Value
	for _, u := range ir.Unions {
		sql, b, err := u.Sub.Grammar().(*Grammar).CompileSelect(u.Sub.IR())
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" union ")
		if u.All {
			sb.WriteString("all ")
		}
		sb.WriteString("(" + sql + ")")
		bindings = append(bindings, b...)
	}
	if len(ir.UnionOrders) > 0 {
		s, b := g.compileOrders(ir.UnionOrders)
		sb.WriteString(" " + s)
		bindings = append(bindings, b...)
	}
	if ir.HasUnionLimit {
		sb.WriteString(" limit " + strconv.Itoa(ir.UnionLimit))
	}
	if ir.HasUnionOffset {
		sb.WriteString(" offset " + strconv.Itoa(ir.UnionOffset))
	}
	return sb.String(), bindings, nil
}

// compileUnionAggregate wraps the inner select (without its own orders,
// since they're meaningless on the temp table) as a derived table and
// selects the aggregate from it, per spec.md's union/having +
// aggregate rewriting rule.
func (g *Grammar) compileUnionAggregate(ir *lihtne.QueryIR) (string, []lihtne.Value, error) {
	inner := ir.Clone()
	inner.Aggregate = nil
	inner.Orders = nil
	innerSQL, innerBindings, err := g.CompileSelect(inner)
	if err != nil {
		return "", nil, err
	}
	agg, err := g.compileAggregate(ir)
	if err != nil {
		return "", nil, err
	}
	sql := agg + " from (" + innerSQL + ") as " + g.WrapValue("temp_table")
	return sql, innerBindings, nil
}

// CompileInsert emits an insert of one or more rows. An empty rows list
// compiles to the dialect's "default values" form.
func (g *Grammar) CompileInsert(table string, columns []string, rows [][]lihtne.Value) (string, []lihtne.Value, error) {
	if len(rows) == 0 {
		return "insert into " + g.WrapTable(table) + " default values", nil, nil
	}
	return g.compileInsertValues("insert into ", table, columns, rows)
}

func (g *Grammar) compileInsertValues(verb, table string, columns []string, rows [][]lihtne.Value) (string, []lihtne.Value, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
	}
	var sb strings.Builder
	sb.WriteString(verb)
	sb.WriteString(g.WrapTable(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") values ")
	var bindings []lihtne.Value
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(" + g.parameterize(row) + ")")
		bindings = append(bindings, g.bindingsFor(row...)...)
	}
	return sb.String(), bindings, nil
}

// CompileInsertOrIgnore emits an insert that silently skips rows
// violating a unique constraint. The ANSI base has no portable syntax
// for this and rejects it; dialects override.
func (g *Grammar) CompileInsertOrIgnore(table string, columns []string, rows [][]lihtne.Value) (string, []lihtne.Value, error) {
	if g.D.InsertOrIgnore == nil {
		return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "insert or ignore")
	}
	return g.D.InsertOrIgnore(g, table, columns, rows)
}

// CompileInsertGetID emits the same plain insert for every dialect; the
// Postgres processor appends its RETURNING clause itself.
func (g *Grammar) CompileInsertGetID(table string, columns []string, rows [][]lihtne.Value, sequence string) (string, []lihtne.Value, error) {
	return g.CompileInsert(table, columns, rows)
}

// CompileInsertUsing emits insert-from-select.
func (g *Grammar) CompileInsertUsing(table string, columns []string, sub *lihtne.QueryIR) (string, []lihtne.Value, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = g.WrapIdentifier(lihtne.ParseIdentifier(c))
	}
	sql, bindings, err := g.CompileSelect(sub)
	if err != nil {
		return "", nil, err
	}
	return "insert into " + g.WrapTable(table) + " (" + strings.Join(cols, ", ") + ") " + sql, bindings, nil
}

func (g *Grammar) compileAssignments(assignments []lihtne.Assignment) (string, []lihtne.Value) {
	parts := make([]string, len(assignments))
	var bindings []lihtne.Value
	for i, a := range assignments {
		parts[i] = g.WrapIdentifier(lihtne.ParseIdentifier(a.Column)) + " = " + g.parameter(a.Value)
		bindings = append(bindings, g.bindingsFor(a.Value)...)
	}
	return strings.Join(parts, ", "), bindings
}

// buildAssignments compiles a SET clause, routing through the dialect's
// JSON-path merge form (MySQL json_set, Postgres jsonb_set, SQLite
// json_patch) when it has one; falls back to plain column assignment.
func (g *Grammar) buildAssignments(assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	if g.D.CompileAssignments != nil {
		return g.D.CompileAssignments(g, assignments)
	}
	s, b := g.compileAssignments(assignments)
	return s, b, nil
}

// CompileUpdate emits a basic update. When the query carries joins they
// are placed between the table and SET ("update t inner join ... set")
// for every dialect; no dialect has a joined-update form of its own here.
func (g *Grammar) CompileUpdate(ir *lihtne.QueryIR, assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	setSQL, setBindings, err := g.buildAssignments(assignments)
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString("update ")
	sb.WriteString(g.WrapTable(identifierString(ir.From.Ident)))
	if len(ir.Joins) > 0 {
		js, jb, err := g.compileJoins(ir.Joins)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" " + js)
		setBindings = append(setBindings, jb...)
	}
	sb.WriteString(" set " + setSQL)
	bindings := setBindings
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

// CompileUpdateFrom emits the explicit UPDATE ... FROM ... form. Postgres,
// SQLite and SQL Server configure it; every other dialect rejects it.
func (g *Grammar) CompileUpdateFrom(ir *lihtne.QueryIR, assignments []lihtne.Assignment) (string, []lihtne.Value, error) {
	if g.D.UpdateFrom == nil {
		return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "update from")
	}
	return g.D.UpdateFrom(g, ir, assignments)
}

// CompileDelete emits a delete, routing through compileWheres for the
// where clause. Joined deletes go to the dialect's DeleteWithJoins hook
// (MySQL, MariaDB and SQL Server); dialects without one reject them. The
// path below handles the no-join case for every dialect.
func (g *Grammar) CompileDelete(ir *lihtne.QueryIR) (string, []lihtne.Value, error) {
	if len(ir.Joins) > 0 {
		if g.D.DeleteWithJoins == nil {
			return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "joined delete")
		}
		return g.D.DeleteWithJoins(g, ir)
	}

	var sb strings.Builder
	sb.WriteString("delete from " + g.WrapTable(identifierString(ir.From.Ident)))
	var bindings []lihtne.Value
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

// CompileUpsert dispatches to the dialect's upsert hook. ANSI has none
// and rejects it.
func (g *Grammar) CompileUpsert(table string, columns []string, rows [][]lihtne.Value, uniqueBy []string, update []lihtne.Assignment) (string, []lihtne.Value, error) {
	if g.D.Upsert == nil {
		return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "upsert")
	}
	return g.D.Upsert(g, table, columns, rows, uniqueBy, update)
}

// CompileExists wraps the select as "select exists(select 1 ...) as
// exists".
func (g *Grammar) CompileExists(ir *lihtne.QueryIR) (string, []lihtne.Value, error) {
	inner := ir.Clone()
	inner.Columns = []lihtne.ColumnIR{{Raw: lihtne.Expr("1")}}
	inner.Orders = nil
	sql, bindings, err := g.CompileSelect(inner)
	if err != nil {
		return "", nil, err
	}
	return "select exists(" + sql + ") as " + g.WrapValue("exists"), bindings, nil
}

// CompileTruncate emits a single "truncate table" statement; no dialect
// changes it.
func (g *Grammar) CompileTruncate(table string) []lihtne.Statement {
	return []lihtne.Statement{{SQL: "truncate table " + g.WrapTable(table)}}
}

func (g *Grammar) CompileSavepoint(name string) string {
	return "savepoint " + name
}

func (g *Grammar) CompileSavepointRollback(name string) string {
	return "rollback to savepoint " + name
}

// CompileSelectDoc dispatches to the dialect's document-query hook; only
// Postgres configures one.
func (g *Grammar) CompileSelectDoc(ir *lihtne.QueryIR, doc *lihtne.DocSpec) (string, []lihtne.Value, error) {
	if g.D.CompileSelectDoc == nil {
		return "", nil, errcause.NewUnsupportedFeature(g.D.Name, "document queries")
	}
	return g.D.CompileSelectDoc(g, ir, doc)
}

// ToRawSQL substitutes each bound value's escaped literal for the
// placeholders in sql, honouring single-quoted string literal
// boundaries (accepting '' and \' as escaped quotes) and the PG "??"
// operator escape.
func (g *Grammar) ToRawSQL(sql string, bindings []lihtne.Value, escape func(lihtne.Value) string) string {
	var sb strings.Builder
	bi := 0
	inString := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case inString:
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(sql) {
				i++
				sb.WriteByte(sql[i])
				continue
			}
			if c == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					sb.WriteByte(sql[i+1])
					i++
					continue
				}
				inString = false
			}
		case c == '\'':
			inString = true
			sb.WriteByte(c)
		case c == '?' && g.D.Name == "postgres" && i+1 < len(sql) && sql[i+1] == '?':
			sb.WriteByte('?')
			i++
		case c == '?':
			if bi < len(bindings) {
				sb.WriteString(escape(bindings[bi]))
				bi++
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
