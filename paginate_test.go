package lihtne_test

import (
	"context"
	"testing"

	"github.com/aagamezl/lihtne"
	"github.com/aagamezl/lihtne/grammar"
	"github.com/aagamezl/lihtne/processor"
)

// recordingConn wraps pagedConn to capture the last compiled SQL/bindings
// a terminal issued, so tests can assert on the shape CursorPaginate
// actually sends to the driver.
type recordingConn struct {
	pagedConn
	lastSQL      string
	lastBindings []lihtne.Value
}

func (c *recordingConn) Select(ctx context.Context, sql string, bindings []lihtne.Value) ([]lihtne.Row, error) {
	c.lastSQL = sql
	c.lastBindings = bindings
	return c.pagedConn.Select(ctx, sql, bindings)
}

// TestCursorPaginateBuildsLexicographicOrChainForMultiColumnOrder locks
// in the keyset-pagination fix: a two-column order must constrain the
// next page with "(c1 op1 v1) or (c1 = v1 and c2 op2 v2)", not an
// independent AND of both columns' inequalities.
func TestCursorPaginateBuildsLexicographicOrChainForMultiColumnOrder(t *testing.T) {
	conn := &recordingConn{pagedConn: pagedConn{pages: [][]lihtne.Row{
		{{"created_at": "2020-01-02", "id": int64(5)}},
	}}}
	g := grammar.NewANSI("")
	b := lihtne.NewBuilder(conn, g, processor.New()).From("posts").
		OrderBy("created_at", lihtne.Asc).
		OrderBy("id", lihtne.Asc)

	cursor := &lihtne.Cursor{
		Values:       map[string]interface{}{"created_at": "2020-01-01", "id": int64(9)},
		PointsToNext: true,
	}
	if _, err := b.CursorPaginate(context.Background(), 15, nil, cursor); err != nil {
		t.Fatalf("CursorPaginate returned error: %v", err)
	}

	wantSQL := `select * from "posts" where (("created_at" > ?) or ("created_at" = ? and "id" > ?)) order by "created_at" asc, "id" asc limit 16`
	if conn.lastSQL != wantSQL {
		t.Fatalf("sql = %q, want %q", conn.lastSQL, wantSQL)
	}

	got := make([]interface{}, len(conn.lastBindings))
	for i, v := range conn.lastBindings {
		got[i] = v.Resolved("")
	}
	want := []interface{}{"2020-01-01", "2020-01-01", int64(9)}
	if len(got) != len(want) {
		t.Fatalf("bindings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bindings = %v, want %v", got, want)
		}
	}
}

// TestCursorPaginateReversesOperatorsWhenWalkingBackward confirms the
// direction flip: a cursor with PointsToNext false (walking toward the
// previous page) reverses every order column's comparison operator.
func TestCursorPaginateReversesOperatorsWhenWalkingBackward(t *testing.T) {
	conn := &recordingConn{pagedConn: pagedConn{pages: [][]lihtne.Row{
		{{"id": int64(5)}},
	}}}
	g := grammar.NewANSI("")
	b := lihtne.NewBuilder(conn, g, processor.New()).From("posts").
		OrderBy("id", lihtne.Asc)

	cursor := &lihtne.Cursor{
		Values:       map[string]interface{}{"id": int64(9)},
		PointsToNext: false,
	}
	if _, err := b.CursorPaginate(context.Background(), 15, nil, cursor); err != nil {
		t.Fatalf("CursorPaginate returned error: %v", err)
	}

	wantSQL := `select * from "posts" where (("id" < ?)) order by "id" asc limit 16`
	if conn.lastSQL != wantSQL {
		t.Fatalf("sql = %q, want %q", conn.lastSQL, wantSQL)
	}
}

// TestCursorPaginateOmitsConstraintOnFirstPage confirms a nil cursor
// (the first page) issues no WHERE constraint at all.
func TestCursorPaginateOmitsConstraintOnFirstPage(t *testing.T) {
	conn := &recordingConn{pagedConn: pagedConn{pages: [][]lihtne.Row{
		{{"id": int64(1)}},
	}}}
	g := grammar.NewANSI("")
	b := lihtne.NewBuilder(conn, g, processor.New()).From("posts").
		OrderBy("id", lihtne.Asc)

	if _, err := b.CursorPaginate(context.Background(), 15, nil, nil); err != nil {
		t.Fatalf("CursorPaginate returned error: %v", err)
	}

	wantSQL := `select * from "posts" order by "id" asc limit 16`
	if conn.lastSQL != wantSQL {
		t.Fatalf("sql = %q, want %q", conn.lastSQL, wantSQL)
	}
}
