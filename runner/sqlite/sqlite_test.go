package sqlite

import (
	"errors"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestPlaceholderIsAlwaysQuestionMark(t *testing.T) {
	d := New()
	assert.Equal(t, "?", d.Placeholder(1))
	assert.Equal(t, "?", d.Placeholder(3))
}

func TestQuoteBool(t *testing.T) {
	d := New()
	assert.Equal(t, "1", d.QuoteBool(true))
	assert.Equal(t, "0", d.QuoteBool(false))
}

func TestQuoteBytesHexLiteral(t *testing.T) {
	d := New()
	assert.Equal(t, `x'deadbeef'`, d.QuoteBytes([]byte{0xde, 0xad, 0xbe, 0xef}))
}

func TestIsLostConnectionOnBusy(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(sqlite3.Error{Code: sqlite3.ErrBusy}))
}

func TestIsLostConnectionFalseForConstraintError(t *testing.T) {
	d := New()
	assert.False(t, d.IsLostConnection(sqlite3.Error{Code: sqlite3.ErrConstraint}))
}

func TestIsLostConnectionOnWrappedLockedMessage(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(errors.New("database is locked")))
}
