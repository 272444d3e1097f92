// Package mssql supplies the runner.Dialect for SQL Server: "@pN"
// bind placeholders, denisenkom/go-mssqldb error-number-based
// lost-connection classification, and the driver registration.
package mssql

import (
	"errors"
	"strconv"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"

	"github.com/aagamezl/lihtne/runner"
)

// DriverName is the database/sql driver name go-mssqldb registers
// itself under.
const DriverName = "sqlserver"

type dialect struct{}

// New returns the SQL Server runner.Dialect.
func New() runner.Dialect { return dialect{} }

func (dialect) Name() string       { return "sqlserver" }
func (dialect) DateFormat() string { return "Y-m-d H:i:s.v" }

func (dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (dialect) QuoteBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (dialect) QuoteBytes(v []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, len(v)*2+2)
	out[0], out[1] = '0', 'x'
	for i, c := range v {
		out[2+i*2] = digits[c>>4]
		out[2+i*2+1] = digits[c&0x0f]
	}
	return string(out)
}

// lostConnectionErrors are the go-mssqldb/SQL Server error numbers for
// a severed connection: 64 (connection forcibly closed), 233 (no
// process on the other end), -1/-2 (driver-level network failure).
var lostConnectionErrors = map[int32]bool{64: true, 233: true, -1: true, -2: true}

func (dialect) IsLostConnection(err error) bool {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return lostConnectionErrors[msErr.Number]
	}
	msg := err.Error()
	return strings.Contains(msg, "driver: bad connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "EOF")
}
