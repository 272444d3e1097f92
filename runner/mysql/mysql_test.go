package mysql

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestPlaceholderIsAlwaysQuestionMark(t *testing.T) {
	d := New()
	assert.Equal(t, "?", d.Placeholder(1))
	assert.Equal(t, "?", d.Placeholder(7))
}

func TestQuoteBool(t *testing.T) {
	d := New()
	assert.Equal(t, "1", d.QuoteBool(true))
	assert.Equal(t, "0", d.QuoteBool(false))
}

func TestQuoteBytesHexLiteral(t *testing.T) {
	d := New()
	assert.Equal(t, `X'DEADBEEF'`, d.QuoteBytes([]byte{0xde, 0xad, 0xbe, 0xef}))
}

func TestIsLostConnectionOnServerGoneAway(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(&mysql.MySQLError{Number: 2006}))
}

func TestIsLostConnectionFalseForUnrelatedErrorNumber(t *testing.T) {
	d := New()
	assert.False(t, d.IsLostConnection(&mysql.MySQLError{Number: 1062}))
}

func TestIsLostConnectionOnWrappedInvalidConnectionMessage(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(errors.New("invalid connection")))
}
