package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPlaceholderNumbersFromOne(t *testing.T) {
	d := New()
	assert.Equal(t, "$1", d.Placeholder(1))
	assert.Equal(t, "$12", d.Placeholder(12))
}

func TestQuoteBool(t *testing.T) {
	d := New()
	assert.Equal(t, "true", d.QuoteBool(true))
	assert.Equal(t, "false", d.QuoteBool(false))
}

func TestQuoteBytesHexEncodesWithEscape(t *testing.T) {
	d := New()
	assert.Equal(t, `'\xdeadbeef'`, d.QuoteBytes([]byte{0xde, 0xad, 0xbe, 0xef}))
}

func TestIsLostConnectionOnAdminShutdown(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(&pq.Error{Code: "57P01"}))
}

func TestIsLostConnectionOnConnectionExceptionClass(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(&pq.Error{Code: "08006"}))
}

func TestIsLostConnectionFalseForUnrelatedCode(t *testing.T) {
	d := New()
	assert.False(t, d.IsLostConnection(&pq.Error{Code: "23505"}))
}

func TestIsLostConnectionOnWrappedBadConnectionMessage(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(errors.New("driver: bad connection")))
}

func TestIsLostConnectionFalseForUnrelatedError(t *testing.T) {
	d := New()
	assert.False(t, d.IsLostConnection(errors.New("syntax error near SELECT")))
}
