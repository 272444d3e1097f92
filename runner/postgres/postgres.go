// Package postgres supplies the runner.Dialect for Postgres: $N bind
// placeholders, libpq's SQLSTATE-based lost-connection classification,
// and the lib/pq driver registration.
package postgres

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/aagamezl/lihtne/runner"
)

// DriverName is the database/sql driver name lib/pq registers itself
// under.
const DriverName = "postgres"

type dialect struct{}

// New returns the Postgres runner.Dialect.
func New() runner.Dialect { return dialect{} }

func (dialect) Name() string       { return "postgres" }
func (dialect) DateFormat() string { return "Y-m-d H:i:s.v" }

func (dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (dialect) QuoteBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (dialect) QuoteBytes(v []byte) string {
	return `'\x` + hexEncode(v) + `'`
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0x0f]
	}
	return string(out)
}

// lostConnectionCodes are the libpq SQLSTATE classes spec.md §6 names
// ("57P01": admin shutdown) plus the connection-exception class "08".
var lostConnectionCodes = []string{"57P01", "57P02", "57P03"}

func (dialect) IsLostConnection(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		if strings.HasPrefix(code, "08") {
			return true
		}
		for _, c := range lostConnectionCodes {
			if code == c {
				return true
			}
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "driver: bad connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "EOF")
}
