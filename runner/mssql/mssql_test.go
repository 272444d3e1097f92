package mssql

import (
	"errors"
	"testing"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/stretchr/testify/assert"
)

func TestPlaceholderNumbersWithAtPPrefix(t *testing.T) {
	d := New()
	assert.Equal(t, "@p1", d.Placeholder(1))
	assert.Equal(t, "@p9", d.Placeholder(9))
}

func TestQuoteBool(t *testing.T) {
	d := New()
	assert.Equal(t, "1", d.QuoteBool(true))
	assert.Equal(t, "0", d.QuoteBool(false))
}

func TestQuoteBytesHexLiteral(t *testing.T) {
	d := New()
	assert.Equal(t, "0xDEADBEEF", d.QuoteBytes([]byte{0xde, 0xad, 0xbe, 0xef}))
}

func TestIsLostConnectionOnConnectionForciblyClosed(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(mssql.Error{Number: 64}))
}

func TestIsLostConnectionFalseForUnrelatedErrorNumber(t *testing.T) {
	d := New()
	assert.False(t, d.IsLostConnection(mssql.Error{Number: 2627}))
}

func TestIsLostConnectionOnWrappedBrokenPipeMessage(t *testing.T) {
	d := New()
	assert.True(t, d.IsLostConnection(errors.New("broken pipe")))
}
