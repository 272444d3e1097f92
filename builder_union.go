package lihtne

// Union appends a UNION member.
func (b *Builder) Union(sub interface{}) *Builder { return b.union(sub, false) }

// UnionAll appends a UNION ALL member.
func (b *Builder) UnionAll(sub interface{}) *Builder { return b.union(sub, true) }

func (b *Builder) union(sub interface{}, all bool) *Builder {
	if b.failed() {
		return b
	}
	s, err := b.resolveSubBuilder(sub)
	if err != nil {
		return b.fail(err)
	}
	b.ir.Bindings.AddBinding(SectionUnion, s.ir.Bindings.Flatten()...)
	b.ir.Unions = append(b.ir.Unions, UnionIR{Sub: s, All: all})
	return b
}

// UnionOrderBy appends an ORDER BY term applied after the whole union
// composition.
func (b *Builder) UnionOrderBy(column string, direction OrderDirection) *Builder {
	if b.failed() {
		return b
	}
	b.ir.UnionOrders = append(b.ir.UnionOrders, OrderIR{Column: column, Direction: direction})
	return b
}

// UnionLimit sets the limit applied after the whole union composition.
func (b *Builder) UnionLimit(n int) *Builder {
	if b.failed() {
		return b
	}
	if n < 0 {
		n = 0
	}
	b.ir.UnionLimit = n
	b.ir.HasUnionLimit = n > 0
	return b
}

// UnionOffset sets the offset applied after the whole union composition.
func (b *Builder) UnionOffset(n int) *Builder {
	if b.failed() {
		return b
	}
	if n < 0 {
		n = 0
	}
	b.ir.UnionOffset = n
	b.ir.HasUnionOffset = n > 0
	return b
}
