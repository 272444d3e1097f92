package lihtne

import "github.com/aagamezl/lihtne/errcause"

func (b *Builder) addWhere(w WhereIR) *Builder {
	b.ir.Wheres = append(b.ir.Wheres, w)
	return b
}

// spliceSubBindings appends a sub-Builder's flattened bindings into
// section, in the order its SQL was compiled, per spec.md §3.6.
func (b *Builder) spliceSubBindings(section string, sub *Builder) {
	b.ir.Bindings.AddBinding(section, sub.ir.Bindings.Flatten()...)
}

// Where appends an AND where clause. Called with one value argument it
// is a two-argument "=" comparison; called with (operator, value) it
// uses the given operator. A nil value with "=" / "!=" / "<>" compiles
// to IS NULL / IS NOT NULL. When value is a slice and the operator is
// one of =/!=/<>, only the first element is used — preserved from the
// source library, not a bug.
func (b *Builder) Where(column string, args ...interface{}) *Builder {
	return b.where(column, args, And)
}

// OrWhere is Where joined with OR to the preceding clause.
func (b *Builder) OrWhere(column string, args ...interface{}) *Builder {
	return b.where(column, args, Or)
}

func (b *Builder) where(column string, args []interface{}, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	var rawValue interface{}
	var op string
	switch len(args) {
	case 1:
		rawValue, op = args[0], "="
	case 2:
		opArg, _ := args[0].(string)
		val := args[1]
		v, o, err := prepareValueAndOperator(val, opArg, false)
		if err != nil {
			return b.fail(err)
		}
		rawValue, op = v, o
	default:
		return b.fail(errcause.NewInvalidArgument("where(%q, ...): expected 1 or 2 trailing arguments", column))
	}

	if fn, ok := rawValue.(func(*Builder)); ok {
		sub := b.buildSub(fn)
		return b.addWhere(WhereIR{Kind: WhereSub, Column: column, Op: normalizedOperator(op), Sub: sub, Bool: boolOp}).
			spliceAndReturn(SectionWhere, sub)
	}

	if rawValue == nil {
		not := op == "!=" || op == "<>"
		if op != "=" && op != "!=" && op != "<>" {
			return b.fail(errcause.NewInvalidArgument("illegal operator and value combination: operator %q cannot be paired with a null value", op))
		}
		return b.addWhere(WhereIR{Kind: WhereNull, Column: column, Not: not, Bool: boolOp})
	}

	rawValue = firstScalarIfArray(rawValue, op)
	val := ValueOf(rawValue)
	if val.IsSub() {
		sub := val.Sub()
		w := b.addWhere(WhereIR{Kind: WhereSub, Column: column, Op: normalizedOperator(op), Sub: sub, Bool: boolOp})
		return w.spliceAndReturn(SectionWhere, sub)
	}
	b.ir.Bindings.AddBinding(SectionWhere, val)
	return b.addWhere(WhereIR{Kind: WhereBasic, Column: column, Op: normalizedOperator(op), Val: val, Bool: boolOp})
}

func (b *Builder) spliceAndReturn(section string, sub *Builder) *Builder {
	b.spliceSubBindings(section, sub)
	return b
}

// WhereNot negates the comparison Where(column, args...) would add: the
// clause keeps its operator and is compiled with a leading "not" (a nil
// value gives IS NOT NULL instead).
func (b *Builder) WhereNot(column string, args ...interface{}) *Builder {
	return b.whereNot(column, args, And)
}

// OrWhereNot is WhereNot joined with OR.
func (b *Builder) OrWhereNot(column string, args ...interface{}) *Builder {
	return b.whereNot(column, args, Or)
}

func (b *Builder) whereNot(column string, args []interface{}, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	before := len(b.ir.Wheres)
	b.where(column, args, boolOp)
	if before < len(b.ir.Wheres) {
		b.ir.Wheres[len(b.ir.Wheres)-1].Not = !b.ir.Wheres[len(b.ir.Wheres)-1].Not
	}
	return b
}

// WhereGroup appends a nested AND group built from fn against a fresh
// sub-Builder whose Wheres become the group's children.
func (b *Builder) WhereGroup(fn func(*Builder)) *Builder {
	return b.whereGroup(fn, And)
}

// OrWhereGroup is WhereGroup joined with OR.
func (b *Builder) OrWhereGroup(fn func(*Builder)) *Builder {
	return b.whereGroup(fn, Or)
}

func (b *Builder) whereGroup(fn func(*Builder), boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	sub := b.buildSub(fn)
	if sub.failed() {
		return b.fail(sub.err)
	}
	if len(sub.ir.Wheres) == 0 {
		return b
	}
	b.spliceSubBindings(SectionWhere, sub)
	return b.addWhere(WhereIR{Kind: WhereNested, Group: sub.ir.Wheres, Bool: boolOp})
}

// WhereMap appends an AND-joined nested group of equality comparisons,
// one per map entry, exactly like the teacher's Eq{...}/map[string]any
// where-argument form.
func (b *Builder) WhereMap(m map[string]interface{}) *Builder {
	return b.whereMap(m, And)
}

// OrWhereMap is WhereMap joined with OR.
func (b *Builder) OrWhereMap(m map[string]interface{}) *Builder {
	return b.whereMap(m, Or)
}

func (b *Builder) whereMap(m map[string]interface{}, boolOp BoolOp) *Builder {
	if b.failed() || len(m) == 0 {
		return b
	}
	return b.whereGroup(func(sub *Builder) {
		for col, v := range m {
			if vs, ok := isSliceValue(v); ok {
				sub.WhereIn(col, vs...)
				continue
			}
			sub.Where(col, v)
		}
	}, boolOp)
}

func isSliceValue(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []int:
		out := make([]interface{}, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out, true
	case []string:
		out := make([]interface{}, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}

// WhereIn appends a WHERE col IN (...) clause. An empty vals compiles to
// the unconditionally-false literal "0 = 1" and adds no bindings, per
// spec.md invariant — the clause is never silently dropped.
func (b *Builder) WhereIn(column string, vals ...interface{}) *Builder {
	return b.whereIn(column, vals, false, And)
}

// OrWhereIn is WhereIn joined with OR.
func (b *Builder) OrWhereIn(column string, vals ...interface{}) *Builder {
	return b.whereIn(column, vals, false, Or)
}

// WhereNotIn appends a WHERE col NOT IN (...) clause. An empty vals
// compiles to the unconditionally-true literal "1 = 1".
func (b *Builder) WhereNotIn(column string, vals ...interface{}) *Builder {
	return b.whereIn(column, vals, true, And)
}

// OrWhereNotIn is WhereNotIn joined with OR.
func (b *Builder) OrWhereNotIn(column string, vals ...interface{}) *Builder {
	return b.whereIn(column, vals, true, Or)
}

func (b *Builder) whereIn(column string, vals []interface{}, not bool, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	if len(vals) == 1 {
		if fn, ok := vals[0].(func(*Builder)); ok {
			sub := b.buildSub(fn)
			b.spliceSubBindings(SectionWhere, sub)
			return b.addWhere(WhereIR{Kind: WhereIn, Column: column, Sub: sub, Not: not, Bool: boolOp})
		}
		if sub, ok := vals[0].(*Builder); ok {
			b.spliceSubBindings(SectionWhere, sub)
			return b.addWhere(WhereIR{Kind: WhereIn, Column: column, Sub: sub, Not: not, Bool: boolOp})
		}
	}
	values := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !isScalarForIn(v) {
			return b.fail(errcause.NewInvalidArgument("whereIn(%q): every element must be a scalar", column))
		}
		values = append(values, ValueOf(v))
	}
	if len(values) > 0 {
		b.ir.Bindings.AddBinding(SectionWhere, values...)
	}
	return b.addWhere(WhereIR{Kind: WhereIn, Column: column, Vals: values, Not: not, Bool: boolOp})
}

func isScalarForIn(v interface{}) bool {
	switch v.(type) {
	case func(*Builder), *Builder, []interface{}, map[string]interface{}:
		return false
	default:
		return true
	}
}

// WhereIntegerInRaw appends a WHERE col IN (1,2,3) clause built directly
// from integer literals (no bindings, no scalar validation) — used for
// trusted internal integer lists such as primary-key batches.
func (b *Builder) WhereIntegerInRaw(column string, ints []int64) *Builder {
	if b.failed() {
		return b
	}
	return b.addWhere(WhereIR{Kind: WhereInRaw, Column: column, Ints: ints, Bool: And})
}

// WhereIntegerNotInRaw is WhereIntegerInRaw negated.
func (b *Builder) WhereIntegerNotInRaw(column string, ints []int64) *Builder {
	if b.failed() {
		return b
	}
	return b.addWhere(WhereIR{Kind: WhereInRaw, Column: column, Ints: ints, Not: true, Bool: And})
}

// WhereNull appends a WHERE col IS NULL clause.
func (b *Builder) WhereNull(column string) *Builder { return b.whereNull(column, false, And) }

// OrWhereNull is WhereNull joined with OR.
func (b *Builder) OrWhereNull(column string) *Builder { return b.whereNull(column, false, Or) }

// WhereNotNull appends a WHERE col IS NOT NULL clause.
func (b *Builder) WhereNotNull(column string) *Builder { return b.whereNull(column, true, And) }

// OrWhereNotNull is WhereNotNull joined with OR.
func (b *Builder) OrWhereNotNull(column string) *Builder { return b.whereNull(column, true, Or) }

func (b *Builder) whereNull(column string, not bool, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	return b.addWhere(WhereIR{Kind: WhereNull, Column: column, Not: not, Bool: boolOp})
}

// WhereBetween appends a WHERE col BETWEEN min AND max clause.
func (b *Builder) WhereBetween(column string, min, max interface{}) *Builder {
	return b.whereBetween(column, min, max, false, And)
}

// OrWhereBetween is WhereBetween joined with OR.
func (b *Builder) OrWhereBetween(column string, min, max interface{}) *Builder {
	return b.whereBetween(column, min, max, false, Or)
}

// WhereNotBetween appends a WHERE col NOT BETWEEN min AND max clause.
func (b *Builder) WhereNotBetween(column string, min, max interface{}) *Builder {
	return b.whereBetween(column, min, max, true, And)
}

// OrWhereNotBetween is WhereNotBetween joined with OR.
func (b *Builder) OrWhereNotBetween(column string, min, max interface{}) *Builder {
	return b.whereBetween(column, min, max, true, Or)
}

func (b *Builder) whereBetween(column string, min, max interface{}, not bool, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	minV, maxV := ValueOf(min), ValueOf(max)
	b.ir.Bindings.AddBinding(SectionWhere, minV, maxV)
	return b.addWhere(WhereIR{Kind: WhereBetween, Column: column, Min: minV, Max: maxV, Not: not, Bool: boolOp})
}

// WhereBetweenColumns appends a WHERE col BETWEEN colA AND colB clause,
// comparing against two other columns rather than literal bounds.
func (b *Builder) WhereBetweenColumns(column, minCol, maxCol string) *Builder {
	return b.whereBetweenColumns(column, minCol, maxCol, false, And)
}

// OrWhereBetweenColumns is WhereBetweenColumns joined with OR.
func (b *Builder) OrWhereBetweenColumns(column, minCol, maxCol string) *Builder {
	return b.whereBetweenColumns(column, minCol, maxCol, false, Or)
}

// WhereNotBetweenColumns negates WhereBetweenColumns.
func (b *Builder) WhereNotBetweenColumns(column, minCol, maxCol string) *Builder {
	return b.whereBetweenColumns(column, minCol, maxCol, true, And)
}

func (b *Builder) whereBetweenColumns(column, minCol, maxCol string, not bool, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	return b.addWhere(WhereIR{Kind: WhereBetweenColumns, Column: column, MinCol: minCol, MaxCol: maxCol, Not: not, Bool: boolOp})
}

// WhereColumn appends a WHERE colA op colB clause comparing two columns.
func (b *Builder) WhereColumn(colA, op, colB string) *Builder {
	return b.whereColumn(colA, op, colB, And)
}

// OrWhereColumn is WhereColumn joined with OR.
func (b *Builder) OrWhereColumn(colA, op, colB string) *Builder {
	return b.whereColumn(colA, op, colB, Or)
}

func (b *Builder) whereColumn(colA, op, colB string, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	return b.addWhere(WhereIR{Kind: WhereColumn, Column: colA, Op: normalizedOperator(op), ColB: colB, Bool: boolOp})
}

// whereDatePart implements WhereDate/WhereDay/WhereMonth/WhereYear/WhereTime,
// which all share the same (column, operator?, value) shape restricted
// to a particular date/time component.
func (b *Builder) whereDatePart(kind WhereKind, column string, args []interface{}, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	var rawValue interface{}
	var op string
	switch len(args) {
	case 1:
		rawValue, op = args[0], "="
	case 2:
		opArg, _ := args[0].(string)
		rawValue, op = args[1], opArg
	default:
		return b.fail(errcause.NewInvalidArgument("where date clause expects 1 or 2 trailing arguments"))
	}
	val := ValueOf(rawValue)
	b.ir.Bindings.AddBinding(SectionWhere, val)
	return b.addWhere(WhereIR{Kind: kind, Column: column, Op: normalizedOperator(op), Val: val, Bool: boolOp})
}

func (b *Builder) WhereDate(column string, args ...interface{}) *Builder {
	return b.whereDatePart(WhereDate, column, args, And)
}
func (b *Builder) OrWhereDate(column string, args ...interface{}) *Builder {
	return b.whereDatePart(WhereDate, column, args, Or)
}
func (b *Builder) WhereDay(column string, args ...interface{}) *Builder {
	return b.whereDatePart(WhereDay, column, args, And)
}
func (b *Builder) WhereMonth(column string, args ...interface{}) *Builder {
	return b.whereDatePart(WhereMonth, column, args, And)
}
func (b *Builder) WhereYear(column string, args ...interface{}) *Builder {
	return b.whereDatePart(WhereYear, column, args, And)
}
func (b *Builder) WhereTime(column string, args ...interface{}) *Builder {
	return b.whereDatePart(WhereTime, column, args, And)
}

// WhereExists appends a WHERE EXISTS (subquery) clause.
func (b *Builder) WhereExists(sub interface{}) *Builder { return b.whereExists(sub, false, And) }

// OrWhereExists is WhereExists joined with OR.
func (b *Builder) OrWhereExists(sub interface{}) *Builder { return b.whereExists(sub, false, Or) }

// WhereNotExists appends a WHERE NOT EXISTS (subquery) clause.
func (b *Builder) WhereNotExists(sub interface{}) *Builder { return b.whereExists(sub, true, And) }

// OrWhereNotExists is WhereNotExists joined with OR.
func (b *Builder) OrWhereNotExists(sub interface{}) *Builder { return b.whereExists(sub, true, Or) }

func (b *Builder) whereExists(sub interface{}, not bool, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	s, err := b.resolveSubBuilder(sub)
	if err != nil {
		return b.fail(err)
	}
	b.spliceSubBindings(SectionWhere, s)
	return b.addWhere(WhereIR{Kind: WhereExists, Sub: s, Not: not, Bool: boolOp})
}

// WhereRaw appends a raw SQL fragment as a WHERE clause. Bindings
// supplied alongside it are appended verbatim; the fragment itself
// contributes no placeholders of its own beyond what it textually
// contains.
func (b *Builder) WhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.whereRaw(sql, bindings, And)
}

// OrWhereRaw is WhereRaw joined with OR.
func (b *Builder) OrWhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.whereRaw(sql, bindings, Or)
}

func (b *Builder) whereRaw(sql string, bindings []interface{}, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	vals := make([]Value, len(bindings))
	for i, a := range bindings {
		vals[i] = ValueOf(a)
	}
	if len(vals) > 0 {
		b.ir.Bindings.AddBinding(SectionWhere, vals...)
	}
	return b.addWhere(WhereIR{Kind: WhereRaw, SQL: sql, Args: vals, Bool: boolOp})
}

// WhereExpression appends a pre-built *Expression as a WHERE clause.
func (b *Builder) WhereExpression(e *Expression) *Builder {
	if b.failed() {
		return b
	}
	if len(e.Args) > 0 {
		b.ir.Bindings.AddBinding(SectionWhere, e.Args...)
	}
	return b.addWhere(WhereIR{Kind: WhereExpression, SQL: e.SQL, Args: e.Args, Bool: And})
}

// WhereJSONContains appends a WHERE col @> value style clause, dialect
// translated. not produces the "doesn't contain" form.
func (b *Builder) WhereJSONContains(column string, value interface{}) *Builder {
	return b.whereJSONContains(column, value, false)
}

// WhereJSONDoesntContain negates WhereJSONContains.
func (b *Builder) WhereJSONDoesntContain(column string, value interface{}) *Builder {
	return b.whereJSONContains(column, value, true)
}

func (b *Builder) whereJSONContains(column string, value interface{}, not bool) *Builder {
	if b.failed() {
		return b
	}
	val := ValueOf(value)
	b.ir.Bindings.AddBinding(SectionWhere, val)
	return b.addWhere(WhereIR{Kind: WhereJSONContains, Column: column, Val: val, Not: not, Bool: And})
}

// WhereJSONContainsKey appends a clause asserting a JSON path key exists.
func (b *Builder) WhereJSONContainsKey(column string) *Builder {
	return b.addWhere(WhereIR{Kind: WhereJSONContainsKey, Column: column, Bool: And})
}

// WhereJSONDoesntContainKey negates WhereJSONContainsKey.
func (b *Builder) WhereJSONDoesntContainKey(column string) *Builder {
	return b.addWhere(WhereIR{Kind: WhereJSONContainsKey, Column: column, Not: true, Bool: And})
}

// WhereJSONLength appends a clause comparing the length of a JSON array.
func (b *Builder) WhereJSONLength(column, op string, length int) *Builder {
	if b.failed() {
		return b
	}
	val := Int(int64(length))
	b.ir.Bindings.AddBinding(SectionWhere, val)
	return b.addWhere(WhereIR{Kind: WhereJSONLength, Column: column, Op: normalizedOperator(op), Val: val, Bool: And})
}

// WhereRowValues appends a row-value comparison: (colA, colB) op (v1, v2).
func (b *Builder) WhereRowValues(columns []string, op string, values []interface{}) *Builder {
	if b.failed() {
		return b
	}
	if len(columns) != len(values) {
		return b.fail(errcause.NewInvalidArgument("whereRowValues: %d columns but %d values", len(columns), len(values)))
	}
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = ValueOf(v)
	}
	b.ir.Bindings.AddBinding(SectionWhere, vals...)
	return b.addWhere(WhereIR{Kind: WhereRowValues, Columns: columns, Op: normalizedOperator(op), Vals: vals, Bool: And})
}

// WhereFulltext appends a full-text search clause against one or more
// columns. mode is dialect-specific: Postgres accepts "plain" (or ""),
// "phrase" and "websearch" and rejects anything else; MySQL uses boolean
// mode for "boolean" and natural language mode otherwise. expansion adds
// "with query expansion" on MySQL and is ignored on Postgres.
func (b *Builder) WhereFulltext(columns []string, value string, mode string, expansion bool) *Builder {
	if b.failed() {
		return b
	}
	val := Str(value)
	b.ir.Bindings.AddBinding(SectionWhere, val)
	return b.addWhere(WhereIR{
		Kind: WhereFulltext, Columns: columns, Val: val, Bool: And,
		FulltextMode: mode, FulltextExpansion: expansion,
	})
}

// WhereBitwise appends a bitwise comparison: col & value, col | value, etc.
func (b *Builder) WhereBitwise(column, op string, value interface{}) *Builder {
	if b.failed() {
		return b
	}
	val := ValueOf(value)
	b.ir.Bindings.AddBinding(SectionWhere, val)
	return b.addWhere(WhereIR{Kind: WhereBitwise, Column: column, Op: op, Val: val, Bool: And})
}

// WhereAny applies the given comparison across columns, OR-joined as a
// single nested group: (col1 op val OR col2 op val OR ...).
func (b *Builder) WhereAny(columns []string, op string, value interface{}) *Builder {
	return b.whereGroup(func(sub *Builder) {
		for _, c := range columns {
			sub.OrWhere(c, op, value)
		}
	}, And)
}

// WhereAll applies the given comparison across columns, AND-joined as a
// single nested group: (col1 op val AND col2 op val AND ...).
func (b *Builder) WhereAll(columns []string, op string, value interface{}) *Builder {
	return b.whereGroup(func(sub *Builder) {
		for _, c := range columns {
			sub.Where(c, op, value)
		}
	}, And)
}
