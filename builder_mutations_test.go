package lihtne_test

import (
	"context"
	"testing"

	"github.com/aagamezl/lihtne"
	"github.com/aagamezl/lihtne/grammar"
	"github.com/aagamezl/lihtne/processor"
)

// insertRecordingConn wraps pagedConn to capture the SQL/bindings an
// Insert call actually issued.
type insertRecordingConn struct {
	pagedConn
	lastSQL      string
	lastBindings []lihtne.Value
}

func (c *insertRecordingConn) Insert(ctx context.Context, sql string, bindings []lihtne.Value) (bool, error) {
	c.lastSQL = sql
	c.lastBindings = bindings
	return true, nil
}

// TestPairStagesColumnsForSingleRowInsert mirrors the teacher's
// InsertBuilder.Pair ergonomics: chained Pair calls accumulate one row's
// columns/values, consumed by Insert when no explicit row is given.
func TestPairStagesColumnsForSingleRowInsert(t *testing.T) {
	conn := &insertRecordingConn{}
	g := grammar.NewANSI("")
	b := lihtne.NewBuilder(conn, g, processor.New()).From("users")

	ok, err := b.Pair("email", "foo@example.com").Pair("name", "Foo").Insert(context.Background())
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if !ok {
		t.Fatal("Insert returned false, want true")
	}

	wantSQL := `insert into "users" ("email", "name") values (?, ?)`
	if conn.lastSQL != wantSQL {
		t.Fatalf("sql = %q, want %q", conn.lastSQL, wantSQL)
	}
	got := make([]interface{}, len(conn.lastBindings))
	for i, v := range conn.lastBindings {
		got[i] = v.Resolved("")
	}
	want := []interface{}{"foo@example.com", "Foo"}
	if len(got) != len(want) {
		t.Fatalf("bindings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bindings = %v, want %v", got, want)
		}
	}
}

// TestPairIsIgnoredWhenInsertReceivesExplicitValues confirms a staged
// Pair row never overrides a row the caller explicitly passes to Insert.
func TestPairIsIgnoredWhenInsertReceivesExplicitValues(t *testing.T) {
	conn := &insertRecordingConn{}
	g := grammar.NewANSI("")
	b := lihtne.NewBuilder(conn, g, processor.New()).From("users")

	b.Pair("email", "staged@example.com")
	_, err := b.Insert(context.Background(), map[string]interface{}{"email": "explicit@example.com"})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	wantSQL := `insert into "users" ("email") values (?)`
	if conn.lastSQL != wantSQL {
		t.Fatalf("sql = %q, want %q", conn.lastSQL, wantSQL)
	}
	if len(conn.lastBindings) != 1 || conn.lastBindings[0].Resolved("") != "explicit@example.com" {
		t.Fatalf("bindings = %v, want [explicit@example.com]", conn.lastBindings)
	}
}
