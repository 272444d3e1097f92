package lihtne

import (
	"context"
	"sort"
)

// insertRowsFrom builds the (columns, rows) shape the Grammar insert
// compilers expect from a slice of column->value maps. An empty slice of
// maps compiles to a dialect-specific "default values" insert. Column
// order is the union of every row's keys sorted lexically: map iteration
// order is not stable in Go, and the compiled SQL must be.
func insertRowsFrom(values []map[string]interface{}) ([]string, [][]Value) {
	if len(values) == 0 {
		return nil, nil
	}
	colSet := map[string]bool{}
	var cols []string
	for _, row := range values {
		for c := range row {
			if !colSet[c] {
				colSet[c] = true
				cols = append(cols, c)
			}
		}
	}
	sort.Strings(cols)
	rows := make([][]Value, len(values))
	for i, row := range values {
		r := make([]Value, len(cols))
		for j, c := range cols {
			r[j] = ValueOf(row[c])
		}
		rows[i] = r
	}
	return cols, rows
}

// Pair stages one column/value pair for a single-row insert, chainable
// sugar matching the teacher's InsertBuilder.Pair ergonomics. Call it
// once per column, then finish with Insert or InsertGetID passing no
// explicit values: the staged row is used only when the caller didn't
// supply one of its own. Pair only ever holds one row; call Insert
// directly with explicit maps for multi-row inserts.
func (b *Builder) Pair(column string, value interface{}) *Builder {
	if b.failed() {
		return b
	}
	if b.pairRow == nil {
		b.pairRow = map[string]interface{}{}
	}
	b.pairCols = append(b.pairCols, column)
	b.pairRow[column] = value
	return b
}

// takePairedRow consumes and clears any row staged by Pair.
func (b *Builder) takePairedRow() map[string]interface{} {
	if len(b.pairCols) == 0 {
		return nil
	}
	row := b.pairRow
	b.pairCols = nil
	b.pairRow = nil
	return row
}

// Insert inserts one or more rows, each a column-name -> value map. With
// no values given, a row staged by Pair is used instead, if any.
func (b *Builder) Insert(ctx context.Context, values ...map[string]interface{}) (bool, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return false, b.err
	}
	if len(values) == 0 {
		if row := b.takePairedRow(); row != nil {
			values = []map[string]interface{}{row}
		}
	}
	cols, rows := insertRowsFrom(values)
	sql, bindings, err := b.grammar.CompileInsert(b.tableName(), cols, rows)
	if err != nil {
		return false, err
	}
	return b.conn.Insert(ctx, sql, bindings)
}

// InsertOrIgnore inserts rows, silently skipping any that would violate a
// unique constraint.
func (b *Builder) InsertOrIgnore(ctx context.Context, values ...map[string]interface{}) (int64, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return 0, b.err
	}
	cols, rows := insertRowsFrom(values)
	sql, bindings, err := b.grammar.CompileInsertOrIgnore(b.tableName(), cols, rows)
	if err != nil {
		return 0, err
	}
	return b.conn.AffectingStatement(ctx, sql, bindings)
}

// InsertGetId inserts a single row and returns its generated id. sequence
// names the identity/serial column when the dialect needs it explicitly
// (Postgres RETURNING); empty uses the dialect default ("id"). A nil
// values map falls back to a row staged by Pair, if any.
func (b *Builder) InsertGetID(ctx context.Context, values map[string]interface{}, sequence string) (int64, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return 0, b.err
	}
	if values == nil {
		values = b.takePairedRow()
	}
	var vs []map[string]interface{}
	if values != nil {
		vs = []map[string]interface{}{values}
	}
	cols, rows := insertRowsFrom(vs)
	sql, bindings, err := b.grammar.CompileInsertGetID(b.tableName(), cols, rows, sequence)
	if err != nil {
		return 0, err
	}
	return b.processor.ProcessInsertGetID(ctx, b, b.conn, sql, bindings, sequence)
}

// InsertUsing inserts the result of a sub-query's select list into
// table, using the given target columns.
func (b *Builder) InsertUsing(ctx context.Context, cols []string, source *Builder) (int64, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return 0, b.err
	}
	sql, bindings, err := b.grammar.CompileInsertUsing(b.tableName(), cols, source.ir)
	if err != nil {
		return 0, err
	}
	return b.conn.AffectingStatement(ctx, sql, bindings)
}

// InsertOrIgnoreUsing runs exactly the statement InsertUsing runs,
// compiled through CompileInsertUsing. No ignore clause is added, so a
// unique-constraint violation fails the statement just as it does for
// InsertUsing, and no dialect rejects it.
func (b *Builder) InsertOrIgnoreUsing(ctx context.Context, cols []string, source *Builder) (int64, error) {
	return b.InsertUsing(ctx, cols, source)
}

func (b *Builder) tableName() string {
	if b.ir.From == nil {
		return ""
	}
	return b.ir.From.Ident.LastSegment()
}

// Update applies the given column->value assignments to every row
// matching the current where/join clauses.
func (b *Builder) Update(ctx context.Context, values map[string]interface{}) (int64, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return 0, b.err
	}
	assignments := assignmentsFrom(values)
	sql, bindings, err := b.grammar.CompileUpdate(b.ir, assignments)
	if err != nil {
		return 0, err
	}
	return b.conn.Update(ctx, sql, bindings)
}

// UpdateFrom is Update compiled using the dialect's explicit
// UPDATE ... FROM ... form (Postgres); dialects without that form reject
// it with UnsupportedFeature.
func (b *Builder) UpdateFrom(ctx context.Context, values map[string]interface{}) (int64, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return 0, b.err
	}
	assignments := assignmentsFrom(values)
	sql, bindings, err := b.grammar.CompileUpdateFrom(b.ir, assignments)
	if err != nil {
		return 0, err
	}
	return b.conn.Update(ctx, sql, bindings)
}

// UpdateOrInsert updates every row matching attrs, or inserts one
// combining attrs and values when none matched.
func (b *Builder) UpdateOrInsert(ctx context.Context, attrs, values map[string]interface{}) (bool, error) {
	exists, err := b.Clone().whereMapStrict(attrs).Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		merged := map[string]interface{}{}
		for k, v := range values {
			merged[k] = v
		}
		_, err := b.whereMapStrict(attrs).Update(ctx, merged)
		return err == nil, err
	}
	merged := map[string]interface{}{}
	for k, v := range attrs {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	_, err = b.Insert(ctx, merged)
	return err == nil, err
}

func (b *Builder) whereMapStrict(attrs map[string]interface{}) *Builder {
	for col, v := range attrs {
		b.Where(col, v)
	}
	return b
}

// Upsert inserts rows, updating uniqueBy-conflicting rows by assigning
// the listed update columns from the incoming row (the dialect's
// ON CONFLICT/ON DUPLICATE KEY/MERGE form). If update is empty, every
// inserted column except uniqueBy is updated.
func (b *Builder) Upsert(ctx context.Context, values []map[string]interface{}, uniqueBy []string, update []string) (int64, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return 0, b.err
	}
	cols, rows := insertRowsFrom(values)
	if len(update) == 0 {
		update = nonUniqueColumns(cols, uniqueBy)
	}
	assignments := make([]Assignment, len(update))
	for i, c := range update {
		assignments[i] = Assignment{Column: c}
	}
	sql, bindings, err := b.grammar.CompileUpsert(b.tableName(), cols, rows, uniqueBy, assignments)
	if err != nil {
		return 0, err
	}
	return b.conn.AffectingStatement(ctx, sql, bindings)
}

func nonUniqueColumns(cols, uniqueBy []string) []string {
	skip := map[string]bool{}
	for _, u := range uniqueBy {
		skip[u] = true
	}
	var out []string
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// Delete removes every row matching the current where/join clauses. If
// id is non-nil it adds a "where id = ?" constraint first, matching the
// teacher's Delete(id?) ergonomics.
func (b *Builder) Delete(ctx context.Context, id ...interface{}) (int64, error) {
	if len(id) > 0 && id[0] != nil {
		b.Where("id", id[0])
	}
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return 0, b.err
	}
	sql, bindings, err := b.grammar.CompileDelete(b.ir)
	if err != nil {
		return 0, err
	}
	return b.conn.Delete(ctx, sql, bindings)
}

// Truncate removes every row from the table, bypassing where/join
// clauses entirely, by running each statement the grammar's
// CompileTruncate returns (one "truncate table" statement in every
// dialect).
func (b *Builder) Truncate(ctx context.Context) error {
	for _, stmt := range b.grammar.CompileTruncate(b.tableName()) {
		if _, err := b.conn.Statement(ctx, stmt.SQL, stmt.Bindings); err != nil {
			return err
		}
	}
	return nil
}

func assignmentsFrom(values map[string]interface{}) []Assignment {
	out := make([]Assignment, 0, len(values))
	for col, v := range values {
		out = append(out, Assignment{Column: col, Value: ValueOf(v)})
	}
	return out
}
