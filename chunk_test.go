package lihtne_test

import (
	"context"
	"testing"

	"github.com/aagamezl/lihtne"
	"github.com/aagamezl/lihtne/grammar"
	"github.com/aagamezl/lihtne/processor"
)

// pagedConn replays a fixed sequence of Select results, one per call, and
// counts how many times Select was actually invoked.
type pagedConn struct {
	pages [][]lihtne.Row
	calls int
}

func (c *pagedConn) Select(ctx context.Context, sql string, bindings []lihtne.Value) ([]lihtne.Row, error) {
	var page []lihtne.Row
	if c.calls < len(c.pages) {
		page = c.pages[c.calls]
	}
	c.calls++
	return page, nil
}

func (c *pagedConn) Insert(ctx context.Context, sql string, bindings []lihtne.Value) (bool, error) {
	return true, nil
}
func (c *pagedConn) Update(ctx context.Context, sql string, bindings []lihtne.Value) (int64, error) {
	return 0, nil
}
func (c *pagedConn) Delete(ctx context.Context, sql string, bindings []lihtne.Value) (int64, error) {
	return 0, nil
}
func (c *pagedConn) AffectingStatement(ctx context.Context, sql string, bindings []lihtne.Value) (int64, error) {
	return 0, nil
}
func (c *pagedConn) Statement(ctx context.Context, sql string, bindings []lihtne.Value) (bool, error) {
	return true, nil
}
func (c *pagedConn) Escape(v lihtne.Value, binary bool) (string, error) { return "", nil }
func (c *pagedConn) GetConfig(key string) (interface{}, bool)          { return nil, false }

func newChunkBuilder(conn lihtne.Connection) *lihtne.Builder {
	return lihtne.NewBuilder(conn, grammar.NewANSI(""), processor.New()).From("users")
}

// TestChunkStopsWhenCallbackReturnsFalse exercises spec scenario S6: with
// page size 2 and pages [a,b], [c,d], [], a callback returning false after
// the first page must stop iteration immediately, and no second driver
// call may occur.
func TestChunkStopsWhenCallbackReturnsFalse(t *testing.T) {
	conn := &pagedConn{pages: [][]lihtne.Row{
		{{"id": int64(1)}, {"id": int64(2)}},
		{{"id": int64(3)}, {"id": int64(4)}},
		{},
	}}
	b := newChunkBuilder(conn).OrderBy("foobar", lihtne.Asc)

	var seen int
	ok, err := b.Chunk(context.Background(), 2, func(rows []lihtne.Row, page int) bool {
		seen++
		return false
	})
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	if ok {
		t.Fatal("Chunk returned true, want false after the callback stopped iteration")
	}
	if seen != 1 {
		t.Fatalf("callback invoked %d times, want 1", seen)
	}
	if conn.calls != 1 {
		t.Fatalf("Select invoked %d times, want exactly 1 (no second page fetched)", conn.calls)
	}
}

// TestChunkRunsToCompletionWhenCallbackKeepsReturningTrue confirms the
// counterpart to S6: a callback that never stops iteration drives every
// page, including the terminating empty page.
func TestChunkRunsToCompletionWhenCallbackKeepsReturningTrue(t *testing.T) {
	conn := &pagedConn{pages: [][]lihtne.Row{
		{{"id": int64(1)}, {"id": int64(2)}},
		{{"id": int64(3)}, {"id": int64(4)}},
		{},
	}}
	b := newChunkBuilder(conn).OrderBy("foobar", lihtne.Asc)

	var seen int
	ok, err := b.Chunk(context.Background(), 2, func(rows []lihtne.Row, page int) bool {
		seen++
		return true
	})
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	if !ok {
		t.Fatal("Chunk returned false, want true when the callback never stops iteration")
	}
	if seen != 2 {
		t.Fatalf("callback invoked %d times, want 2", seen)
	}
	if conn.calls != 3 {
		t.Fatalf("Select invoked %d times, want 3 (two data pages plus the empty terminator)", conn.calls)
	}
}

// TestChunkByIDStopsWhenCallbackReturnsFalse is S6 for the keyset-paginated
// variant: the callback stopping iteration must prevent any further Select
// call from being issued.
func TestChunkByIDStopsWhenCallbackReturnsFalse(t *testing.T) {
	conn := &pagedConn{pages: [][]lihtne.Row{
		{{"id": int64(1)}, {"id": int64(2)}},
		{{"id": int64(3)}, {"id": int64(4)}},
		{},
	}}
	b := newChunkBuilder(conn)

	var seen int
	ok, err := b.ChunkByID(context.Background(), 2, "id", "", func(rows []lihtne.Row, page int) bool {
		seen++
		return false
	})
	if err != nil {
		t.Fatalf("ChunkByID returned error: %v", err)
	}
	if ok {
		t.Fatal("ChunkByID returned true, want false after the callback stopped iteration")
	}
	if seen != 1 {
		t.Fatalf("callback invoked %d times, want 1", seen)
	}
	if conn.calls != 1 {
		t.Fatalf("Select invoked %d times, want exactly 1 (no second page fetched)", conn.calls)
	}
}
