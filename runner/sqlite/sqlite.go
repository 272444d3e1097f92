// Package sqlite supplies the runner.Dialect for SQLite: plain "?"
// bind placeholders, SQLITE_BUSY/SQLITE_IOERR-based lost-connection
// classification, and the mattn/go-sqlite3 registration. SQLite is an
// embedded, single-process database, so "lost connection" collapses to
// "the file is locked or unreadable" rather than a network failure.
package sqlite

import (
	"errors"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/aagamezl/lihtne/runner"
)

// DriverName is the database/sql driver name mattn/go-sqlite3
// registers itself under.
const DriverName = "sqlite3"

type dialect struct{}

// New returns the SQLite runner.Dialect.
func New() runner.Dialect { return dialect{} }

func (dialect) Name() string             { return "sqlite" }
func (dialect) DateFormat() string       { return "Y-m-d H:i:s" }
func (dialect) Placeholder(n int) string { return "?" }

func (dialect) QuoteBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (dialect) QuoteBytes(v []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(v)*2+3)
	out[0], out[1] = 'x', '\''
	for i, c := range v {
		out[2+i*2] = digits[c>>4]
		out[2+i*2+1] = digits[c&0x0f]
	}
	out[len(out)-1] = '\''
	return string(out)
}

func (dialect) IsLostConnection(err error) bool {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr, sqlite3.ErrCantOpen:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "driver: bad connection") ||
		strings.Contains(msg, "database is locked")
}
