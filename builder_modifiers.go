package lihtne

import "github.com/aagamezl/lihtne/errcause"

// GroupBy appends columns to the GROUP BY clause.
func (b *Builder) GroupBy(cols ...string) *Builder {
	if b.failed() {
		return b
	}
	for _, c := range cols {
		b.ir.Groups = append(b.ir.Groups, ColumnIR{Ident: ParseIdentifier(c)})
	}
	return b
}

// GroupByRaw appends a raw expression to the GROUP BY clause.
func (b *Builder) GroupByRaw(expr string, bindings ...interface{}) *Builder {
	if b.failed() {
		return b
	}
	vals := make([]Value, len(bindings))
	for i, a := range bindings {
		vals[i] = ValueOf(a)
	}
	if len(vals) > 0 {
		b.ir.Bindings.AddBinding(SectionGroupBy, vals...)
	}
	b.ir.Groups = append(b.ir.Groups, ColumnIR{Raw: &Expression{SQL: expr, Args: vals}})
	return b
}

func (b *Builder) addHaving(h HavingIR) *Builder {
	b.ir.Havings = append(b.ir.Havings, h)
	return b
}

// Having appends an AND having clause: two-argument "=" or (op, value).
func (b *Builder) Having(column string, args ...interface{}) *Builder {
	return b.having(column, args, And)
}

// OrHaving is Having joined with OR.
func (b *Builder) OrHaving(column string, args ...interface{}) *Builder {
	return b.having(column, args, Or)
}

func (b *Builder) having(column string, args []interface{}, boolOp BoolOp) *Builder {
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
		return b.fail(errcause.NewInvalidArgument("having(%q, ...): expected 1 or 2 trailing arguments", column))
	}
	val := ValueOf(rawValue)
	b.ir.Bindings.AddBinding(SectionHaving, val)
	return b.addHaving(HavingIR{Kind: HavingBasic, Column: column, Op: normalizedOperator(op), Val: val, Bool: boolOp})
}

// HavingBetween appends a HAVING col BETWEEN min AND max clause.
func (b *Builder) HavingBetween(column string, min, max interface{}) *Builder {
	if b.failed() {
		return b
	}
	minV, maxV := ValueOf(min), ValueOf(max)
	b.ir.Bindings.AddBinding(SectionHaving, minV, maxV)
	return b.addHaving(HavingIR{Kind: HavingBetween, Column: column, Min: minV, Max: maxV, Bool: And})
}

// HavingNull appends a HAVING col IS NULL clause.
func (b *Builder) HavingNull(column string) *Builder {
	return b.addHaving(HavingIR{Kind: HavingNull, Column: column, Bool: And})
}

// HavingNotNull appends a HAVING col IS NOT NULL clause.
func (b *Builder) HavingNotNull(column string) *Builder {
	return b.addHaving(HavingIR{Kind: HavingNotNull, Column: column, Bool: And})
}

// HavingRaw appends a raw HAVING clause.
func (b *Builder) HavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.havingRaw(sql, bindings, And)
}

// OrHavingRaw is HavingRaw joined with OR.
func (b *Builder) OrHavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.havingRaw(sql, bindings, Or)
}

func (b *Builder) havingRaw(sql string, bindings []interface{}, boolOp BoolOp) *Builder {
	if b.failed() {
		return b
	}
	vals := make([]Value, len(bindings))
	for i, a := range bindings {
		vals[i] = ValueOf(a)
	}
	if len(vals) > 0 {
		b.ir.Bindings.AddBinding(SectionHaving, vals...)
	}
	return b.addHaving(HavingIR{Kind: HavingRaw, SQL: sql, Args: vals, Bool: boolOp})
}

// HavingGroup appends a nested having group.
func (b *Builder) HavingGroup(fn func(*Builder)) *Builder {
	if b.failed() {
		return b
	}
	sub := b.newSub()
	fn(sub)
	if len(sub.ir.Havings) == 0 {
		return b
	}
	b.ir.Bindings.AddBinding(SectionHaving, sub.ir.Bindings.Flatten()...)
	return b.addHaving(HavingIR{Kind: HavingNested, Group: sub.ir.Havings, Bool: And})
}

// OrderBy appends an ORDER BY term. Once the query carries a Union, the
// term applies to the overall union composition rather than its first
// member, per spec.md §8's union-ordering scenario.
func (b *Builder) OrderBy(column string, direction OrderDirection) *Builder {
	if b.failed() {
		return b
	}
	if len(b.ir.Unions) > 0 {
		return b.UnionOrderBy(column, direction)
	}
	b.ir.Orders = append(b.ir.Orders, OrderIR{Column: column, Direction: direction})
	return b
}

// OrderByDesc appends a descending ORDER BY term.
func (b *Builder) OrderByDesc(column string) *Builder { return b.OrderBy(column, Desc) }

// OrderByRaw appends a raw ORDER BY expression, routed the same way
// OrderBy is once the query carries a Union.
func (b *Builder) OrderByRaw(expr string, bindings ...interface{}) *Builder {
	if b.failed() {
		return b
	}
	e := Expr(expr, bindings...)
	if len(b.ir.Unions) > 0 {
		if len(e.Args) > 0 {
			b.ir.Bindings.AddBinding(SectionUnionOrder, e.Args...)
		}
		b.ir.UnionOrders = append(b.ir.UnionOrders, OrderIR{Raw: e})
		return b
	}
	if len(e.Args) > 0 {
		b.ir.Bindings.AddBinding(SectionOrder, e.Args...)
	}
	b.ir.Orders = append(b.ir.Orders, OrderIR{Raw: e})
	return b
}

// Latest orders by col descending; col defaults to "created_at".
func (b *Builder) Latest(col ...string) *Builder {
	return b.OrderByDesc(orDefault(col, "created_at"))
}

// Oldest orders by col ascending; col defaults to "created_at".
func (b *Builder) Oldest(col ...string) *Builder {
	return b.OrderBy(orDefault(col, "created_at"), Asc)
}

func orDefault(cols []string, def string) string {
	if len(cols) > 0 && cols[0] != "" {
		return cols[0]
	}
	return def
}

// InRandomOrder orders by the dialect's random function. seed is accepted
// for API parity and ignored: no dialect compiles a seeded random order.
func (b *Builder) InRandomOrder(seed ...string) *Builder {
	if b.failed() {
		return b
	}
	if len(b.ir.Unions) > 0 {
		b.ir.UnionOrders = append(b.ir.UnionOrders, OrderIR{Raw: &Expression{SQL: "__RANDOM__"}})
		return b
	}
	b.ir.Orders = append(b.ir.Orders, OrderIR{Raw: &Expression{SQL: "__RANDOM__"}})
	return b
}

// Reorder clears all ORDER BY terms, optionally replacing them with a
// single new one.
func (b *Builder) Reorder(column string, direction ...OrderDirection) *Builder {
	if b.failed() {
		return b
	}
	b.ir.Orders = nil
	b.ir.UnionOrders = nil
	if column == "" {
		return b
	}
	dir := Asc
	if len(direction) > 0 {
		dir = direction[0]
	}
	return b.OrderBy(column, dir)
}

// Limit sets the row limit. n <= 0 omits the clause entirely. Once the
// query carries a Union, the limit applies to the overall union
// composition rather than its first member.
func (b *Builder) Limit(n int) *Builder {
	if b.failed() {
		return b
	}
	if n < 0 {
		n = 0
	}
	if len(b.ir.Unions) > 0 {
		return b.UnionLimit(n)
	}
	b.ir.Limit = n
	b.ir.HasLimit = n > 0
	return b
}

// Offset sets the row offset. n <= 0 omits the clause (except where a
// dialect requires "offset 0" to enable fetch-next, handled in the
// SQL Server grammar). Routed the same way Limit is once the query
// carries a Union.
func (b *Builder) Offset(n int) *Builder {
	if b.failed() {
		return b
	}
	if n < 0 {
		n = 0
	}
	if len(b.ir.Unions) > 0 {
		return b.UnionOffset(n)
	}
	b.ir.Offset = n
	b.ir.HasOffset = n > 0
	return b
}

// Take is an alias for Limit.
func (b *Builder) Take(n int) *Builder { return b.Limit(n) }

// Skip is an alias for Offset.
func (b *Builder) Skip(n int) *Builder { return b.Offset(n) }

// ForPage sets Limit/Offset from a 1-based page number and page size.
func (b *Builder) ForPage(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}
	return b.Offset((page - 1) * perPage).Limit(perPage)
}

// ForPageAfterId applies keyset pagination: col > lastId ordered
// ascending by col, limited to count rows. lastId == 0 omits the
// constraint (first page). col defaults to "id".
func (b *Builder) ForPageAfterID(count int, lastID int64, col ...string) *Builder {
	c := orDefault(col, "id")
	b.Reorder(c, Asc)
	if lastID != 0 {
		b.Where(c, ">", lastID)
	}
	return b.Take(count)
}

// ForPageBeforeId is ForPageAfterId in the reverse direction.
func (b *Builder) ForPageBeforeID(count int, lastID int64, col ...string) *Builder {
	c := orDefault(col, "id")
	b.Reorder(c, Desc)
	if lastID != 0 {
		b.Where(c, "<", lastID)
	}
	return b.Take(count)
}

// Lock sets the row-locking clause. value true requests FOR UPDATE;
// false clears any lock.
func (b *Builder) Lock(value bool) *Builder {
	if b.failed() {
		return b
	}
	if value {
		b.ir.Lock = LockForUpdate
	} else {
		b.ir.Lock = LockNone
	}
	return b
}

// SharedLock requests a shared (read) lock.
func (b *Builder) SharedLock() *Builder {
	if b.failed() {
		return b
	}
	b.ir.Lock = LockForShare
	return b
}

// LockForUpdate requests an exclusive (write) lock.
func (b *Builder) LockForUpdate() *Builder {
	if b.failed() {
		return b
	}
	b.ir.Lock = LockForUpdate
	return b
}

// LockRaw requests a dialect-specific raw locking clause.
func (b *Builder) LockRaw(sql string) *Builder {
	if b.failed() {
		return b
	}
	b.ir.Lock = LockRaw
	b.ir.LockSQL = sql
	return b
}

// UseIndex hints the optimizer to prefer the named index.
func (b *Builder) UseIndex(index string) *Builder {
	return b.indexHint(IndexHintUse, index)
}

// ForceIndex hints the optimizer to force the named index.
func (b *Builder) ForceIndex(index string) *Builder {
	return b.indexHint(IndexHintForce, index)
}

// IgnoreIndex hints the optimizer to ignore the named index.
func (b *Builder) IgnoreIndex(index string) *Builder {
	return b.indexHint(IndexHintIgnore, index)
}

func (b *Builder) indexHint(kind IndexHintKind, index string) *Builder {
	if b.failed() {
		return b
	}
	b.ir.IndexHint = &IndexHintIR{Kind: kind, Index: index}
	return b
}
