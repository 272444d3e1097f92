package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aagamezl/lihtne"
)

// fakeConn is a minimal lihtne.Connection stub recording calls and
// returning canned results, enough to exercise the processors without
// a real database/sql driver.
type fakeConn struct {
	insertSQL string
	config    map[string]interface{}
	rows      []lihtne.Row
}

func (f *fakeConn) Select(ctx context.Context, sql string, bindings []lihtne.Value) ([]lihtne.Row, error) {
	return f.rows, nil
}
func (f *fakeConn) Insert(ctx context.Context, sql string, bindings []lihtne.Value) (bool, error) {
	f.insertSQL = sql
	return true, nil
}
func (f *fakeConn) Update(ctx context.Context, sql string, bindings []lihtne.Value) (int64, error) {
	return 0, nil
}
func (f *fakeConn) Delete(ctx context.Context, sql string, bindings []lihtne.Value) (int64, error) {
	return 0, nil
}
func (f *fakeConn) AffectingStatement(ctx context.Context, sql string, bindings []lihtne.Value) (int64, error) {
	return 0, nil
}
func (f *fakeConn) Statement(ctx context.Context, sql string, bindings []lihtne.Value) (bool, error) {
	return true, nil
}
func (f *fakeConn) Escape(v lihtne.Value, binary bool) (string, error) { return "", nil }
func (f *fakeConn) GetConfig(key string) (interface{}, bool) {
	v, ok := f.config[key]
	return v, ok
}

func TestDefaultProcessSelectPassesRowsThrough(t *testing.T) {
	p := New()
	rows := []lihtne.Row{{"id": int64(1)}}
	out := p.ProcessSelect(nil, rows)
	assert.Equal(t, rows, out)
}

func TestDefaultProcessInsertGetIDReadsLastInsertIDConfig(t *testing.T) {
	p := New()
	conn := &fakeConn{config: map[string]interface{}{"lastInsertId": int64(42)}}
	id, err := p.ProcessInsertGetID(context.Background(), nil, conn, "insert into t (a) values (?)", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "insert into t (a) values (?)", conn.insertSQL)
}

func TestDefaultProcessInsertGetIDMissingConfigReturnsZero(t *testing.T) {
	p := New()
	conn := &fakeConn{config: map[string]interface{}{}}
	id, err := p.ProcessInsertGetID(context.Background(), nil, conn, "insert into t (a) values (?)", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
}

func TestDefaultProcessInsertGetIDRejectsUnexpectedConfigType(t *testing.T) {
	p := New()
	conn := &fakeConn{config: map[string]interface{}{"lastInsertId": "not-a-number"}}
	_, err := p.ProcessInsertGetID(context.Background(), nil, conn, "insert into t default values", nil, "")
	require.Error(t, err)
}

func TestMySQLProcessSelectCoercesNullColumn(t *testing.T) {
	p := NewMySQL()
	rows := []lihtne.Row{
		{"Field": "id", "Null": "NO"},
		{"Field": "bio", "Null": "YES"},
		{"Field": "other"},
	}
	out := p.ProcessSelect(nil, rows)
	assert.Equal(t, false, out[0]["Null"])
	assert.Equal(t, true, out[1]["Null"])
	_, ok := out[2]["Null"]
	assert.False(t, ok)
}

func TestPostgresProcessInsertGetIDUsesReturningColumn(t *testing.T) {
	p := NewPostgres()
	conn := &fakeConn{rows: []lihtne.Row{{"id": int64(7)}}}
	id, err := p.ProcessInsertGetID(context.Background(), nil, conn, `insert into "users" ("name") values (?)`, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestPostgresProcessInsertGetIDUsesCustomSequenceColumn(t *testing.T) {
	p := NewPostgres()
	conn := &fakeConn{rows: []lihtne.Row{{"uid": int64(9)}}}
	id, err := p.ProcessInsertGetID(context.Background(), nil, conn, `insert into "users" ("name") values (?)`, nil, "uid")
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestPostgresProcessInsertGetIDNoRowsReturnsZero(t *testing.T) {
	p := NewPostgres()
	conn := &fakeConn{rows: nil}
	id, err := p.ProcessInsertGetID(context.Background(), nil, conn, `insert into "users" ("name") values (?)`, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
}
