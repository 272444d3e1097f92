package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aagamezl/lihtne"
)

type fakeDialect struct{}

func (fakeDialect) Name() string             { return "fake" }
func (fakeDialect) DateFormat() string       { return "Y-m-d H:i:s" }
func (fakeDialect) Placeholder(n int) string { return "$" + string(rune('0'+n)) }
func (fakeDialect) IsLostConnection(err error) bool {
	return err != nil && err.Error() == "lost"
}
func (fakeDialect) QuoteBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
func (fakeDialect) QuoteBytes(v []byte) string { return "BYTES" }

func newFakeDB() *DB {
	return &DB{dialect: fakeDialect{}, config: map[string]interface{}{}}
}

func TestRebindSkipsPlaceholdersInsideStringLiterals(t *testing.T) {
	c := newFakeDB()
	out := c.rebind(`select * from t where a = ? and b = 'literal ? mark' and c = ?`)
	assert.Equal(t, `select * from t where a = $1 and b = 'literal ? mark' and c = $2`, out)
}

func TestRebindNumbersSequentially(t *testing.T) {
	c := newFakeDB()
	out := c.rebind(`insert into t (a, b, c) values (?, ?, ?)`)
	assert.Equal(t, `insert into t (a, b, c) values ($1, $2, $3)`, out)
}

func TestBindResolvesEachValueThroughDialectDateFormat(t *testing.T) {
	c := newFakeDB()
	out := c.bind([]lihtne.Value{lihtne.Int(5), lihtne.Str("hi"), lihtne.Bool(true)})
	assert.Equal(t, []interface{}{int64(5), "hi", int64(1)}, out)
}

func TestEscapeNullValue(t *testing.T) {
	c := newFakeDB()
	out, err := c.Escape(lihtne.NullValue(), false)
	require.NoError(t, err)
	assert.Equal(t, "NULL", out)
}

func TestEscapeBoolValueUsesDialectQuoting(t *testing.T) {
	c := newFakeDB()
	out, err := c.Escape(lihtne.Bool(true), false)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", out)
}

func TestEscapeStringValueQuotesAndDoublesApostrophes(t *testing.T) {
	c := newFakeDB()
	out, err := c.Escape(lihtne.Str("o'brien"), false)
	require.NoError(t, err)
	assert.Equal(t, `'o''brien'`, out)
}

func TestEscapeIntValue(t *testing.T) {
	c := newFakeDB()
	out, err := c.Escape(lihtne.Int(42), false)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestEscapeBytesValueBinaryUsesDialectQuoting(t *testing.T) {
	c := newFakeDB()
	out, err := c.Escape(lihtne.Bytes([]byte("hi")), true)
	require.NoError(t, err)
	assert.Equal(t, "BYTES", out)
}

func TestGetConfigReturnsStoredValueAndMissingFlag(t *testing.T) {
	c := newFakeDB()
	c.config["name"] = "mydb"
	v, ok := c.GetConfig("name")
	assert.True(t, ok)
	assert.Equal(t, "mydb", v)

	_, ok = c.GetConfig("missing")
	assert.False(t, ok)
}

func TestBeginEndTransactionTracksCounter(t *testing.T) {
	c := newFakeDB()
	assert.Equal(t, int32(0), c.transactions)
	c.BeginTransaction()
	c.BeginTransaction()
	assert.Equal(t, int32(2), c.transactions)
	c.EndTransaction()
	assert.Equal(t, int32(1), c.transactions)
}
