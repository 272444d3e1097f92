package lihtne

// From sets the table to select from. alias, when non-empty, is recorded
// by composing "table as alias" before parsing, matching the teacher's
// single-string From(table) ergonomics.
func (b *Builder) From(table string, alias ...string) *Builder {
	if b.failed() {
		return b
	}
	t := table
	if len(alias) > 0 && alias[0] != "" {
		t = table + " as " + alias[0]
	}
	b.ir.From = &FromSource{Kind: FromIdentifier, Ident: ParseIdentifier(t)}
	return b
}

// FromSub sets the table source to a sub-query, built either from an
// already-constructed *Builder or from a closure invoked against a fresh
// sub-Builder.
func (b *Builder) FromSub(sub interface{}, alias string) *Builder {
	if b.failed() {
		return b
	}
	s, err := b.resolveSubBuilder(sub)
	if err != nil {
		return b.fail(err)
	}
	b.ir.Bindings.AddBinding(SectionFrom, s.ir.Bindings.Flatten()...)
	b.ir.From = &FromSource{Kind: FromSub, Sub: s, Alias: alias}
	return b
}

// FromRaw sets the table source to a raw expression.
func (b *Builder) FromRaw(expr string, bindings ...interface{}) *Builder {
	if b.failed() {
		return b
	}
	e := Expr(expr, bindings...)
	if len(e.Args) > 0 {
		b.ir.Bindings.AddBinding(SectionFrom, e.Args...)
	}
	b.ir.From = &FromSource{Kind: FromRawExpr, Raw: e}
	return b
}

// Select replaces the selected column list.
func (b *Builder) Select(cols ...string) *Builder {
	if b.failed() {
		return b
	}
	b.ir.Columns = nil
	return b.AddSelect(cols...)
}

// AddSelect appends to the selected column list.
func (b *Builder) AddSelect(cols ...string) *Builder {
	if b.failed() {
		return b
	}
	for _, c := range cols {
		b.ir.Columns = append(b.ir.Columns, ColumnIR{Ident: ParseIdentifier(c)})
	}
	return b
}

// SelectRaw appends a raw expression to the selected column list.
func (b *Builder) SelectRaw(expr string, bindings ...interface{}) *Builder {
	if b.failed() {
		return b
	}
	b.ir.Columns = append(b.ir.Columns, ColumnIR{Raw: Expr(expr, bindings...)})
	return b
}

// SelectSub appends a sub-query as an aliased selected column.
func (b *Builder) SelectSub(sub interface{}, alias string) *Builder {
	if b.failed() {
		return b
	}
	s, err := b.resolveSubBuilder(sub)
	if err != nil {
		return b.fail(err)
	}
	b.ir.Columns = append(b.ir.Columns, ColumnIR{Sub: s, Alias: alias})
	return b
}

// Distinct marks the statement DISTINCT. When cols is non-empty Postgres
// compiles DISTINCT ON (cols); every other dialect then compiles a plain
// select with no DISTINCT keyword.
func (b *Builder) Distinct(cols ...string) *Builder {
	if b.failed() {
		return b
	}
	b.ir.Distinct = true
	b.ir.DistinctCols = cols
	return b
}

// resolveSubBuilder normalises the closure/*Builder/string-Builder-shape
// polymorphism spec.md §9 calls out into a concrete *Builder.
func (b *Builder) resolveSubBuilder(sub interface{}) (*Builder, error) {
	switch t := sub.(type) {
	case *Builder:
		return t, nil
	case func(*Builder):
		return b.buildSub(t), nil
	default:
		return nil, unsupportedSubquery()
	}
}
