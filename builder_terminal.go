package lihtne

import (
	"context"
	"fmt"
	"strings"

	"github.com/aagamezl/lihtne/errcause"
)

// ToSQL compiles the current IR and returns the SQL string together with
// its ordered bindings, without executing anything. This is a
// compile-only terminal: it runs beforeQuery callbacks exactly as any
// other terminal does.
func (b *Builder) ToSQL() (string, []interface{}, error) {
	sql, bindings, err := b.compileSelect()
	if err != nil {
		return "", nil, err
	}
	return sql, resolveAll(bindings, b.grammar.GetDateFormat()), nil
}

// ToRawSQL compiles the query and substitutes each binding's escaped SQL
// literal (via the Connection's Escape) directly into the string,
// entirely for diagnostic/log purposes — never execute the result.
func (b *Builder) ToRawSQL() (string, error) {
	sql, bindings, err := b.compileSelect()
	if err != nil {
		return "", err
	}
	if b.conn == nil {
		return "", errcause.NewRuntime("ToRawSQL requires a Connection to escape literals")
	}
	escape := func(v Value) string {
		lit, _ := b.conn.Escape(v, v.Kind() == KindBytes)
		return lit
	}
	return b.grammar.ToRawSQL(sql, bindings, escape), nil
}

// GetBindings returns the flattened, resolved binding list for the
// current IR without compiling SQL.
func (b *Builder) GetBindings() []interface{} {
	return resolveAll(b.ir.Bindings.Flatten(), b.grammar.GetDateFormat())
}

func resolveAll(vals []Value, dateFormat string) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		if v.IsRaw() || v.IsSub() {
			continue
		}
		out[i] = v.Resolved(dateFormat)
	}
	return out
}

func (b *Builder) compileSelect() (string, []Value, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return "", nil, b.err
	}
	if err := b.validateJoinTarget(); err != nil {
		return "", nil, err
	}
	return b.grammar.CompileSelect(b.ir)
}

// Get executes the query and returns every matching row, optionally
// restricting to cols (equivalent to calling Select first).
func (b *Builder) Get(ctx context.Context, cols ...string) ([]Row, error) {
	if len(cols) > 0 {
		b.Select(cols...)
	}
	sql, bindings, err := b.compileSelect()
	if err != nil {
		return nil, err
	}
	rows, err := b.conn.Select(ctx, sql, bindings)
	if err != nil {
		return nil, err
	}
	return b.processor.ProcessSelect(b, rows), nil
}

// First executes the query limited to one row and returns it, or nil if
// no row matched.
func (b *Builder) First(ctx context.Context, cols ...string) (Row, error) {
	rows, err := b.Take(1).Get(ctx, cols...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Find fetches a single row by its "id" column.
func (b *Builder) Find(ctx context.Context, id interface{}, cols ...string) (Row, error) {
	return b.Where("id", id).First(ctx, cols...)
}

// Value returns the named column's value from the first matching row, or
// nil if no row matched.
func (b *Builder) Value(ctx context.Context, column string) (interface{}, error) {
	row, err := b.First(ctx, column)
	if err != nil || row == nil {
		return nil, err
	}
	return row[column], nil
}

// RawValue executes a scalar raw expression and returns its value.
func (b *Builder) RawValue(ctx context.Context, expr string, bindings ...interface{}) (interface{}, error) {
	row, err := b.SelectRaw(expr, bindings...).First(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	for _, v := range row {
		return v, nil
	}
	return nil, nil
}

// Pluck returns the named column's values across every matching row,
// optionally keyed by keyCol.
func (b *Builder) Pluck(ctx context.Context, column string, keyCol ...string) (map[string]interface{}, []interface{}, error) {
	cols := []string{column}
	key := ""
	if len(keyCol) > 0 && keyCol[0] != "" {
		key = keyCol[0]
		cols = append(cols, key)
	}
	rows, err := b.Get(ctx, cols...)
	if err != nil {
		return nil, nil, err
	}
	if key == "" {
		out := make([]interface{}, len(rows))
		for i, r := range rows {
			out[i] = r[column]
		}
		return nil, out, nil
	}
	out := make(map[string]interface{}, len(rows))
	for _, r := range rows {
		out[toStringKey(r[key])] = r[column]
	}
	return out, nil, nil
}

func toStringKey(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Implode Plucks column and joins the results with glue.
func (b *Builder) Implode(ctx context.Context, column, glue string) (string, error) {
	_, vals, err := b.Pluck(ctx, column)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, glue), nil
}

// Exists reports whether the query matches at least one row.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	b.applyBeforeQueryCallbacks()
	if b.err != nil {
		return false, b.err
	}
	sql, bindings, err := b.grammar.CompileExists(b.ir)
	if err != nil {
		return false, err
	}
	rows, err := b.conn.Select(ctx, sql, bindings)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	switch v := rows[0]["exists"].(type) {
	case bool:
		return v, nil
	case string:
		return v == "1" || v == "t" || v == "true", nil
	default:
		return toInt64(v) != 0, nil
	}
}

// DoesntExist negates Exists.
func (b *Builder) DoesntExist(ctx context.Context) (bool, error) {
	ok, err := b.Exists(ctx)
	return !ok, err
}

// ExistsOr invokes cb if the query has no matches.
func (b *Builder) ExistsOr(ctx context.Context, cb func()) (bool, error) {
	ok, err := b.Exists(ctx)
	if err == nil && !ok {
		cb()
	}
	return ok, err
}

// DoesntExistOr invokes cb if the query has at least one match.
func (b *Builder) DoesntExistOr(ctx context.Context, cb func()) (bool, error) {
	ok, err := b.DoesntExist(ctx)
	if err == nil && !ok {
		cb()
	}
	return ok, err
}

// runAggregate sets the aggregate IR, compiles/executes the select, then
// clears the aggregate IR so the Builder's column list is observably
// unchanged afterwards (spec.md testable property #6).
func (b *Builder) runAggregate(ctx context.Context, fn string, cols []string) (interface{}, error) {
	b.ir.Aggregate = &AggregateIR{Fn: fn, Columns: cols}
	defer func() { b.ir.Aggregate = nil }()

	sql, bindings, err := b.compileSelect()
	if err != nil {
		return nil, err
	}
	rows, err := b.conn.Select(ctx, sql, bindings)
	if err != nil {
		return nil, err
	}
	rows = b.processor.ProcessSelect(b, rows)
	if len(rows) == 0 {
		return nil, nil
	}
	for _, v := range rows[0] {
		return v, nil
	}
	return nil, nil
}

// Count returns the row count.
func (b *Builder) Count(ctx context.Context, cols ...string) (int64, error) {
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	v, err := b.runAggregate(ctx, "count", cols)
	return toInt64(v), err
}

// Min returns the minimum value of col.
func (b *Builder) Min(ctx context.Context, col string) (interface{}, error) {
	return b.runAggregate(ctx, "min", []string{col})
}

// Max returns the maximum value of col.
func (b *Builder) Max(ctx context.Context, col string) (interface{}, error) {
	return b.runAggregate(ctx, "max", []string{col})
}

// Sum returns the sum of col.
func (b *Builder) Sum(ctx context.Context, col string) (interface{}, error) {
	return b.runAggregate(ctx, "sum", []string{col})
}

// Avg returns the average of col.
func (b *Builder) Avg(ctx context.Context, col string) (interface{}, error) {
	return b.runAggregate(ctx, "avg", []string{col})
}

// Average is an alias for Avg.
func (b *Builder) Average(ctx context.Context, col string) (interface{}, error) { return b.Avg(ctx, col) }

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
