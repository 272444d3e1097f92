// Package mysql supplies the runner.Dialect for MySQL/MariaDB: plain
// "?" bind placeholders, MySQL error-number-based lost-connection
// classification (1053 server shutdown, 2006 server gone away, 2013
// lost connection during query), and the go-sql-driver/mysql
// registration.
package mysql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/aagamezl/lihtne/runner"
)

// DriverName is the database/sql driver name go-sql-driver/mysql
// registers itself under.
const DriverName = "mysql"

type dialect struct{}

// New returns the MySQL runner.Dialect.
func New() runner.Dialect { return dialect{} }

func (dialect) Name() string             { return "mysql" }
func (dialect) DateFormat() string       { return "Y-m-d H:i:s" }
func (dialect) Placeholder(n int) string { return "?" }

func (dialect) QuoteBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (dialect) QuoteBytes(v []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, len(v)*2+3)
	out[0], out[1] = 'X', '\''
	for i, c := range v {
		out[2+i*2] = digits[c>>4]
		out[2+i*2+1] = digits[c&0x0f]
	}
	out[len(out)-1] = '\''
	return string(out)
}

var lostConnectionErrors = []uint16{1053, 1077, 1078, 1079, 1080, 1152, 1154, 1156, 1157, 1158, 1159, 1160, 1161, 1184, 1205, 1290, 2002, 2006, 2013}

func (dialect) IsLostConnection(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		for _, n := range lostConnectionErrors {
			if myErr.Number == n {
				return true
			}
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "driver: bad connection") ||
		strings.Contains(msg, "invalid connection") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}
