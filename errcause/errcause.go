// Package errcause classifies the error kinds the core and its callers
// need to distinguish: malformed input from the caller, a dialect
// refusing an operation it cannot express, an internal compiler
// invariant breach, a driver failure bubbled up through Connection, a
// lost-connection condition the connection layer may retry, and runtime
// errors surfaced from chunked iteration.
package errcause

import "fmt"

// InvalidArgument reports a malformed caller argument: a non-scalar item
// inside a whereIn array, an unsupported subquery shape, wrong arity in
// whereRowValues or in a where/having call, an operator paired with a
// null value it cannot take, joins without a from target, a malformed
// cursor, or an unknown Postgres fulltext mode.
type InvalidArgument struct {
	Detail string
}

func (e *InvalidArgument) Error() string { return "invalid argument: " + e.Detail }

// NewInvalidArgument builds an *InvalidArgument.
func NewInvalidArgument(format string, args ...interface{}) *InvalidArgument {
	return &InvalidArgument{Detail: fmt.Sprintf(format, args...)}
}

// UnsupportedFeature reports a dialect refusing an operation: lateral
// joins on any grammar but Postgres, a JSON operation on ANSI, fulltext
// search on a non-MySQL/PG grammar, upsert on ANSI, insert-or-ignore on
// SQL Server, update-from on a grammar other than Postgres, SQLite and
// SQL Server.
type UnsupportedFeature struct {
	Dialect string
	Feature string
}

func (e *UnsupportedFeature) Error() string {
	return fmt.Sprintf("%s: %s is not supported", e.Dialect, e.Feature)
}

// NewUnsupportedFeature builds an *UnsupportedFeature.
func NewUnsupportedFeature(dialect, feature string) *UnsupportedFeature {
	return &UnsupportedFeature{Dialect: dialect, Feature: feature}
}

// CompilationError reports an internal invariant breach: an unknown
// WhereIR/HavingIR variant reaching a dialect's compiler. This should
// never happen for a well-formed QueryIR and signals a bug in the
// Builder rather than bad caller input.
type CompilationError struct {
	Detail string
}

func (e *CompilationError) Error() string { return "compilation error: " + e.Detail }

// NewCompilationError builds a *CompilationError.
func NewCompilationError(format string, args ...interface{}) *CompilationError {
	return &CompilationError{Detail: fmt.Sprintf(format, args...)}
}

// QueryError wraps a driver error bubbled from the Connection facade,
// retaining the compiled SQL and bindings that produced it.
type QueryError struct {
	SQL      string
	Bindings []interface{}
	Cause    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v (sql: %s)", e.Cause, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// NewQueryError builds a *QueryError.
func NewQueryError(sql string, bindings []interface{}, cause error) *QueryError {
	return &QueryError{SQL: sql, Bindings: bindings, Cause: cause}
}

// LostConnection marks a Connection-internal "server gone away" class of
// error. When the connection's open-transaction counter is zero the
// connection layer may reconnect and retry once; otherwise it is
// re-thrown as a QueryError.
type LostConnection struct {
	Cause error
}

func (e *LostConnection) Error() string { return "lost connection: " + e.Cause.Error() }

func (e *LostConnection) Unwrap() error { return e.Cause }

// NewLostConnection builds a *LostConnection.
func NewLostConnection(cause error) *LostConnection { return &LostConnection{Cause: cause} }

// Runtime reports a runtime-only failure: chunkById finding a row
// missing its alias column, CallMacro with no macro registered under the
// name, ToRawSQL called without a Connection, or a cursor that cannot be
// encoded.
type Runtime struct {
	Detail string
}

func (e *Runtime) Error() string { return "runtime error: " + e.Detail }

// NewRuntime builds a *Runtime.
func NewRuntime(format string, args ...interface{}) *Runtime {
	return &Runtime{Detail: fmt.Sprintf(format, args...)}
}
