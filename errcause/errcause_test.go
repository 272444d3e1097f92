package errcause

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidArgumentFormatsDetail(t *testing.T) {
	err := NewInvalidArgument("whereIn column %q has %d values", "id", 0)
	assert.Equal(t, `invalid argument: whereIn column "id" has 0 values`, err.Error())
}

func TestUnsupportedFeatureMentionsDialectAndFeature(t *testing.T) {
	err := NewUnsupportedFeature("ansi", "upsert")
	assert.Equal(t, "ansi: upsert is not supported", err.Error())
}

func TestCompilationErrorFormatsDetail(t *testing.T) {
	err := NewCompilationError("unknown where variant %d", 99)
	assert.Equal(t, "compilation error: unknown where variant 99", err.Error())
}

func TestQueryErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewQueryError("select 1", nil, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "select 1")
}

func TestLostConnectionUnwrapsToCause(t *testing.T) {
	cause := errors.New("server gone away")
	err := NewLostConnection(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "lost connection: server gone away", err.Error())
}

func TestRuntimeFormatsDetail(t *testing.T) {
	err := NewRuntime("chunkById: row missing alias column %q", "id")
	assert.Equal(t, `runtime error: chunkById: row missing alias column "id"`, err.Error())
}
