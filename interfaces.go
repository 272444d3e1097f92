package lihtne

import "context"

// Row is one driver result row, keyed by column name. The core never
// interprets row contents beyond what Processor implementations do.
type Row map[string]interface{}

// Grammar compiles a QueryIR into a dialect-specific SQL string plus an
// ordered binding list. One Grammar instance may back multiple Builders;
// it is immutable after construction except for its table prefix.
type Grammar interface {
	// Name identifies the dialect for error messages and feature gating
	// ("ansi", "mysql", "mariadb", "postgres", "sqlite", "sqlserver").
	Name() string

	CompileSelect(ir *QueryIR) (string, []Value, error)
	CompileInsert(table string, columns []string, rows [][]Value) (string, []Value, error)
	CompileInsertOrIgnore(table string, columns []string, rows [][]Value) (string, []Value, error)
	CompileInsertGetID(table string, columns []string, rows [][]Value, sequence string) (string, []Value, error)
	CompileInsertUsing(table string, columns []string, ir *QueryIR) (string, []Value, error)
	CompileUpdate(ir *QueryIR, assignments []Assignment) (string, []Value, error)
	CompileUpdateFrom(ir *QueryIR, assignments []Assignment) (string, []Value, error)
	CompileDelete(ir *QueryIR) (string, []Value, error)
	CompileUpsert(table string, columns []string, rows [][]Value, uniqueBy []string, update []Assignment) (string, []Value, error)
	CompileExists(ir *QueryIR) (string, []Value, error)
	CompileTruncate(table string) []Statement

	// CompileSelectDoc compiles a DocBuilder's nested-document query.
	// Dialects without a row-to-document primitive (everything but
	// Postgres) reject this with errcause.UnsupportedFeature.
	CompileSelectDoc(ir *QueryIR, doc *DocSpec) (string, []Value, error)

	WrapTable(table string) string
	WrapValue(segment string) string
	WrapIdentifier(id Identifier) string

	GetDateFormat() string

	CompileSavepoint(name string) string
	CompileSavepointRollback(name string) string

	// ToRawSQL substitutes each bound value's escaped literal
	// (produced by escape) for the placeholders in sql, honouring
	// string-literal boundaries and the PG "??" escape.
	ToRawSQL(sql string, bindings []Value, escape func(Value) string) string
}

// Assignment is one column = value pair used by UPDATE/UPSERT
// compilation.
type Assignment struct {
	Column string
	Value  Value
}

// Statement is one SQL statement plus its bindings, as produced by
// multi-statement compilations such as CompileTruncate.
type Statement struct {
	SQL      string
	Bindings []Value
}

// Processor post-processes driver results: column lists, insert-id
// extraction, dialect-specific type coercion.
type Processor interface {
	ProcessSelect(b *Builder, rows []Row) []Row
	ProcessInsertGetID(ctx context.Context, b *Builder, conn Connection, sql string, bindings []Value, sequence string) (int64, error)
}

// Connection is the narrow transport interface the core consumes. The
// core never dials, prepares statements directly, or manages pools; it
// only calls through this interface. Every method may fail with a
// *errcause.QueryError wrapping the driver's own error together with the
// compiled SQL and bindings.
type Connection interface {
	Select(ctx context.Context, sql string, bindings []Value) ([]Row, error)
	Insert(ctx context.Context, sql string, bindings []Value) (bool, error)
	Update(ctx context.Context, sql string, bindings []Value) (affected int64, err error)
	Delete(ctx context.Context, sql string, bindings []Value) (affected int64, err error)
	AffectingStatement(ctx context.Context, sql string, bindings []Value) (affected int64, err error)
	Statement(ctx context.Context, sql string, bindings []Value) (bool, error)
	Escape(v Value, binary bool) (string, error)
	GetConfig(key string) (interface{}, bool)
}
