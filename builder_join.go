package lihtne

import "github.com/aagamezl/lihtne/errcause"

// JoinClause is the sub-builder-like object join closures receive: it
// exposes On/OrOn plus the same Where* family as Builder, all recorded
// against the enclosing JoinIR rather than the query's own Wheres.
type JoinClause struct {
	parent *Builder
	ir     *JoinIR
}

// On appends an AND column-to-column join condition.
func (j *JoinClause) On(colA, op, colB string) *JoinClause {
	j.ir.On = append(j.ir.On, WhereIR{Kind: WhereColumn, Column: colA, Op: normalizedOperator(op), ColB: colB, Bool: And})
	return j
}

// OrOn is On joined with OR.
func (j *JoinClause) OrOn(colA, op, colB string) *JoinClause {
	j.ir.On = append(j.ir.On, WhereIR{Kind: WhereColumn, Column: colA, Op: normalizedOperator(op), ColB: colB, Bool: Or})
	return j
}

// Where appends a value-bound where condition to the join's ON clause
// (a "join where", as opposed to a column-to-column On).
func (j *JoinClause) Where(column string, args ...interface{}) *JoinClause {
	sub := j.parent.newSub()
	sub.Where(column, args...)
	j.absorb(sub)
	return j
}

// WhereIn appends a join-where IN condition.
func (j *JoinClause) WhereIn(column string, vals ...interface{}) *JoinClause {
	sub := j.parent.newSub()
	sub.WhereIn(column, vals...)
	j.absorb(sub)
	return j
}

// WhereNull appends a join-where IS NULL condition.
func (j *JoinClause) WhereNull(column string) *JoinClause {
	sub := j.parent.newSub()
	sub.WhereNull(column)
	j.absorb(sub)
	return j
}

func (j *JoinClause) absorb(sub *Builder) {
	j.ir.On = append(j.ir.On, sub.ir.Wheres...)
	j.parent.ir.Bindings.AddBinding(SectionJoin, sub.ir.Bindings.Flatten()...)
}

func (b *Builder) addJoin(kind JoinKind, table FromSource, fn func(*JoinClause)) *Builder {
	ji := JoinIR{Kind: kind, Table: table}
	if fn != nil {
		fn(&JoinClause{parent: b, ir: &ji})
	}
	b.ir.Joins = append(b.ir.Joins, ji)
	return b
}

// twoColumnJoin builds the simple two-column join condition form:
// join(table, colA, op, colB).
func twoColumnJoin(colA, op, colB string) func(*JoinClause) {
	return func(j *JoinClause) { j.On(colA, op, colB) }
}

// Join appends an inner join on colA op colB. The three arguments are
// used as given; an empty or unrecognised op becomes "=".
func (b *Builder) Join(table, colA, op, colB string) *Builder {
	if b.failed() {
		return b
	}
	return b.addJoin(InnerJoin, FromSource{Kind: FromIdentifier, Ident: ParseIdentifier(table)}, twoColumnJoin(colA, op, colB))
}

// LeftJoin appends a left outer join.
func (b *Builder) LeftJoin(table, colA, op, colB string) *Builder {
	if b.failed() {
		return b
	}
	return b.addJoin(LeftJoin, FromSource{Kind: FromIdentifier, Ident: ParseIdentifier(table)}, twoColumnJoin(colA, op, colB))
}

// RightJoin appends a right outer join.
func (b *Builder) RightJoin(table, colA, op, colB string) *Builder {
	if b.failed() {
		return b
	}
	return b.addJoin(RightJoin, FromSource{Kind: FromIdentifier, Ident: ParseIdentifier(table)}, twoColumnJoin(colA, op, colB))
}

// CrossJoin appends a cross join; it takes no ON clause.
func (b *Builder) CrossJoin(table string) *Builder {
	if b.failed() {
		return b
	}
	return b.addJoin(CrossJoin, FromSource{Kind: FromIdentifier, Ident: ParseIdentifier(table)}, nil)
}

// JoinWhere appends an inner join whose condition is a value-bound where
// rather than a column comparison.
func (b *Builder) JoinWhere(table, column, op string, value interface{}) *Builder {
	if b.failed() {
		return b
	}
	return b.addJoin(InnerJoin, FromSource{Kind: FromIdentifier, Ident: ParseIdentifier(table)}, func(j *JoinClause) {
		j.Where(column, op, value)
	})
}

func (b *Builder) joinSub(kind JoinKind, sub interface{}, alias string, fn func(*JoinClause)) *Builder {
	s, err := b.resolveSubBuilder(sub)
	if err != nil {
		return b.fail(err)
	}
	b.ir.Bindings.AddBinding(SectionJoin, s.ir.Bindings.Flatten()...)
	return b.addJoin(kind, FromSource{Kind: FromSub, Sub: s, Alias: alias}, fn)
}

// JoinSub appends an inner join against a sub-query.
func (b *Builder) JoinSub(sub interface{}, alias, colA, op, colB string) *Builder {
	if b.failed() {
		return b
	}
	return b.joinSub(InnerJoin, sub, alias, twoColumnJoin(colA, op, colB))
}

// LeftJoinSub appends a left join against a sub-query.
func (b *Builder) LeftJoinSub(sub interface{}, alias, colA, op, colB string) *Builder {
	if b.failed() {
		return b
	}
	return b.joinSub(LeftJoin, sub, alias, twoColumnJoin(colA, op, colB))
}

// RightJoinSub appends a right join against a sub-query.
func (b *Builder) RightJoinSub(sub interface{}, alias, colA, op, colB string) *Builder {
	if b.failed() {
		return b
	}
	return b.joinSub(RightJoin, sub, alias, twoColumnJoin(colA, op, colB))
}

// CrossJoinSub appends a cross join against a sub-query.
func (b *Builder) CrossJoinSub(sub interface{}, alias string) *Builder {
	if b.failed() {
		return b
	}
	return b.joinSub(CrossJoin, sub, alias, nil)
}

// JoinLateral appends a lateral join whose right operand may reference
// columns of the left operand. Only the Postgres grammar compiles lateral
// joins; every other dialect (MySQL and SQL Server included) rejects them
// at compile time with UnsupportedFeature.
func (b *Builder) JoinLateral(sub interface{}, alias string) *Builder {
	if b.failed() {
		return b
	}
	return b.joinSub(InnerLateralJoin, sub, alias, nil)
}

// LeftJoinLateral is JoinLateral as a left join.
func (b *Builder) LeftJoinLateral(sub interface{}, alias string) *Builder {
	if b.failed() {
		return b
	}
	return b.joinSub(LeftLateralJoin, sub, alias, nil)
}

// validateJoinTarget is invoked by ToSQL to enforce that joins only
// attach when a FROM target is present, per the teacher's own
// "joins may only be attached if a from target is specified" guard.
func (b *Builder) validateJoinTarget() error {
	if b.ir.From == nil && len(b.ir.Joins) > 0 {
		return errcause.NewInvalidArgument("joins may only be attached if a from target is specified")
	}
	return nil
}
