// Package runner implements lihtne.Connection over database/sql,
// generalizing the teacher's sqlx-runner (a single package hardwired to
// postgres) into one engine parameterised by a per-dialect Dialect
// value. The dialect subpackages (postgres, mysql, sqlite, mssql) each
// import their driver purely for its blank registration and supply the
// placeholder style and lost-connection error classification that
// differ between them.
package runner

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/aagamezl/lihtne"
	"github.com/aagamezl/lihtne/errcause"
	"github.com/aagamezl/lihtne/internal/logx"
)

// Dialect isolates the handful of things that differ between
// database/sql drivers: bind-placeholder syntax, lost-connection
// detection, and literal-escaping for bool/bytes.
type Dialect interface {
	Name() string
	DateFormat() string
	// Placeholder renders the nth (1-based) bind placeholder.
	Placeholder(n int) string
	// IsLostConnection reports whether err indicates the underlying
	// connection is gone and a reconnect-and-retry is worth attempting.
	IsLostConnection(err error) bool
	QuoteBool(v bool) string
	QuoteBytes(v []byte) string
}

// Options configures a DB. DSN and DriverName are required; Open defaults
// to sql.Open and the rest default to the zero value (no logging, no
// reconnect).
type Options struct {
	DSN          string
	Open         func(driverName, dsn string) (*sql.DB, error)
	DriverName   string
	LogThreshold time.Duration
	Reconnect    bool
	Logger       logx.Logger
	Config       map[string]interface{}
}

// DB is a database/sql-backed lihtne.Connection. It tracks an open
// transaction counter (savepoints nest within it) and the last insert
// id observed, surfaced to Processor.ProcessInsertGetID through
// GetConfig("lastInsertId").
type DB struct {
	db      *sql.DB
	dialect Dialect
	opts    Options
	logger  logx.Logger

	mu           sync.Mutex
	config       map[string]interface{}
	transactions int32
}

// Open dials dsn through the dialect's registered driver and wraps it
// as a lihtne.Connection.
func Open(dialect Dialect, opts Options) (*DB, error) {
	open := opts.Open
	if open == nil {
		open = sql.Open
	}
	sqlDB, err := open(opts.DriverName, opts.DSN)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logx.Discard
	}
	cfg := map[string]interface{}{}
	for k, v := range opts.Config {
		cfg[k] = v
	}
	return &DB{db: sqlDB, dialect: dialect, opts: opts, logger: logger, config: cfg}, nil
}

// NewDB wraps an already-open *sql.DB, bypassing driver registration —
// useful for tests against an in-process driver or a pooled handle a
// caller already owns.
func NewDB(sqlDB *sql.DB, dialect Dialect, opts Options) *DB {
	logger := opts.Logger
	if logger == nil {
		logger = logx.Discard
	}
	cfg := map[string]interface{}{}
	for k, v := range opts.Config {
		cfg[k] = v
	}
	return &DB{db: sqlDB, dialect: dialect, opts: opts, logger: logger, config: cfg}
}

// DB exposes the underlying *sql.DB for callers that need to begin
// transactions or ping directly.
func (c *DB) DB() *sql.DB { return c.db }

func (c *DB) bind(vals []lihtne.Value) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v.Resolved(c.dialect.DateFormat())
	}
	return out
}

// rebind rewrites the grammar's universal "?" placeholders into the
// dialect's own numbering ("?" unchanged for MySQL/SQLite, "$1, $2,
// ..." for Postgres, "@p1, @p2, ..." for SQL Server), honouring string
// literal boundaries the same way Grammar.ToRawSQL does.
func (c *DB) rebind(sql string) string {
	var sb strings.Builder
	n := 0
	inString := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case inString:
			sb.WriteByte(ch)
			if ch == '\\' && i+1 < len(sql) {
				i++
				sb.WriteByte(sql[i])
				continue
			}
			if ch == '\'' {
				inString = false
			}
		case ch == '\'':
			inString = true
			sb.WriteByte(ch)
		case ch == '?' && c.dialect.Name() == "postgres" && i+1 < len(sql) && sql[i+1] == '?':
			sb.WriteByte('?')
			i++
		case ch == '?':
			n++
			sb.WriteString(c.dialect.Placeholder(n))
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

func (c *DB) logStatement(sql string, bindings []interface{}, start time.Time) {
	c.logger.Debug("lihtne: executing statement", "sql", sql, "bindings", bindings)
	if c.opts.LogThreshold > 0 {
		if elapsed := time.Since(start); elapsed > c.opts.LogThreshold {
			c.logger.Warn("lihtne: slow query", "sql", sql, "elapsed", elapsed.String())
		}
	}
}

// withRetry runs op once; on a lost-connection error it pings the pool
// back up and retries exactly once, provided no transaction is open
// and reconnection is enabled.
func (c *DB) withRetry(ctx context.Context, sql string, bindings []interface{}, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}
	if !c.dialect.IsLostConnection(err) {
		return errcause.NewQueryError(sql, bindings, err)
	}
	if !c.opts.Reconnect || atomic.LoadInt32(&c.transactions) != 0 {
		return errcause.NewQueryError(sql, bindings, errcause.NewLostConnection(err))
	}

	c.logger.Info("lihtne: lost connection, reconnecting", "sql", sql)
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1)
	pingErr := backoff.Retry(func() error { return c.db.PingContext(ctx) }, b)
	if pingErr != nil {
		return errcause.NewQueryError(sql, bindings, errcause.NewLostConnection(err))
	}
	if retryErr := op(); retryErr != nil {
		return errcause.NewQueryError(sql, bindings, retryErr)
	}
	return nil
}

func (c *DB) Select(ctx context.Context, query string, bindings []lihtne.Value) ([]lihtne.Row, error) {
	start := time.Now()
	sqlText := c.rebind(query)
	args := c.bind(bindings)
	c.logStatement(sqlText, args, start)

	var rows *sql.Rows
	err := c.withRetry(ctx, sqlText, args, func() error {
		var innerErr error
		rows, innerErr = c.db.QueryContext(ctx, sqlText, args...)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errcause.NewQueryError(sqlText, args, err)
	}

	var out []lihtne.Row
	for rows.Next() {
		scanDst := make([]interface{}, len(cols))
		scanned := make([]interface{}, len(cols))
		for i := range scanDst {
			scanDst[i] = &scanned[i]
		}
		if err := rows.Scan(scanDst...); err != nil {
			return nil, errcause.NewQueryError(sqlText, args, err)
		}
		row := make(lihtne.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeScanned(scanned[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errcause.NewQueryError(sqlText, args, err)
	}
	return out, nil
}

// normalizeScanned unwraps the []byte the database/sql driver commonly
// returns for text-ish columns (varchar, numeric, json) into a plain
// string, leaving every other Go type (int64, float64, bool, time.Time,
// nil) exactly as the driver produced it.
func normalizeScanned(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (c *DB) exec(ctx context.Context, query string, bindings []lihtne.Value) (sql.Result, error) {
	start := time.Now()
	sqlText := c.rebind(query)
	args := c.bind(bindings)
	c.logStatement(sqlText, args, start)

	var res sql.Result
	err := c.withRetry(ctx, sqlText, args, func() error {
		var innerErr error
		res, innerErr = c.db.ExecContext(ctx, sqlText, args...)
		return innerErr
	})
	return res, err
}

func (c *DB) Insert(ctx context.Context, query string, bindings []lihtne.Value) (bool, error) {
	res, err := c.exec(ctx, query, bindings)
	if err != nil {
		return false, err
	}
	if id, idErr := res.LastInsertId(); idErr == nil {
		c.mu.Lock()
		c.config["lastInsertId"] = id
		c.mu.Unlock()
	}
	return true, nil
}

func (c *DB) Update(ctx context.Context, query string, bindings []lihtne.Value) (int64, error) {
	res, err := c.exec(ctx, query, bindings)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DB) Delete(ctx context.Context, query string, bindings []lihtne.Value) (int64, error) {
	return c.Update(ctx, query, bindings)
}

func (c *DB) AffectingStatement(ctx context.Context, query string, bindings []lihtne.Value) (int64, error) {
	return c.Update(ctx, query, bindings)
}

func (c *DB) Statement(ctx context.Context, query string, bindings []lihtne.Value) (bool, error) {
	_, err := c.exec(ctx, query, bindings)
	return err == nil, err
}

// Escape renders v as a literal usable in ToRawSQL output. It is never
// used for bound execution, only for debug-printing a fully inlined
// statement.
func (c *DB) Escape(v lihtne.Value, binary bool) (string, error) {
	switch v.Kind() {
	case lihtne.KindNull:
		return "NULL", nil
	case lihtne.KindBool:
		return c.dialect.QuoteBool(v.Resolved(c.dialect.DateFormat()).(int64) != 0), nil
	case lihtne.KindBytes:
		if binary {
			return c.dialect.QuoteBytes(v.Resolved(c.dialect.DateFormat()).([]byte)), nil
		}
		return quoteString(string(v.Resolved(c.dialect.DateFormat()).([]byte))), nil
	default:
		switch r := v.Resolved(c.dialect.DateFormat()).(type) {
		case int64:
			return strconv.FormatInt(r, 10), nil
		case float64:
			return strconv.FormatFloat(r, 'f', -1, 64), nil
		case string:
			return quoteString(r), nil
		case nil:
			return "NULL", nil
		default:
			return quoteString(strconvFallback(r)), nil
		}
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func strconvFallback(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// GetConfig reads a connection-scoped option: "lastInsertId" (populated
// by the most recent Insert), "name"/"database" (caller-supplied via
// Options.Config), or any other key an application stashed there.
func (c *DB) GetConfig(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.config[key]
	return v, ok
}

// BeginTransaction increments the open-transaction counter, disabling
// reconnect-on-lost-connection for the duration (per spec.md §7, a
// reconnect inside a transaction would silently roll it back).
func (c *DB) BeginTransaction() { atomic.AddInt32(&c.transactions, 1) }

// EndTransaction decrements the open-transaction counter.
func (c *DB) EndTransaction() { atomic.AddInt32(&c.transactions, -1) }
