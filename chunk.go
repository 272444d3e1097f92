package lihtne

import (
	"context"

	"github.com/aagamezl/lihtne/errcause"
)

// Chunk repeatedly fetches pages of n rows via forPage(page, n).get(),
// invoking cb(results, page) for each non-empty page. A page yielding
// fewer than n rows (including zero) ends the loop. If cb returns
// false, iteration stops immediately and Chunk returns false.
func (b *Builder) Chunk(ctx context.Context, n int, cb func(rows []Row, page int) bool) (bool, error) {
	page := 1
	for {
		rows, err := b.Clone().ForPage(page, n).Get(ctx)
		if err != nil {
			return false, err
		}
		if len(rows) == 0 {
			return true, nil
		}
		if !cb(rows, page) {
			return false, nil
		}
		if len(rows) < n {
			return true, nil
		}
		page++
	}
}

// ChunkByID is Chunk using keyset pagination instead of offset
// pagination, so rows inserted/deleted between pages cannot shift a row
// across a page boundary unseen. alias, when non-empty, is the column
// name lastId is read from in the result row (defaults to col).
func (b *Builder) ChunkByID(ctx context.Context, n int, col string, alias string, cb func(rows []Row, page int) bool) (bool, error) {
	return b.chunkByID(ctx, n, col, alias, cb, false)
}

// ChunkByIDDesc is ChunkByID walking in descending keyset order.
func (b *Builder) ChunkByIDDesc(ctx context.Context, n int, col string, alias string, cb func(rows []Row, page int) bool) (bool, error) {
	return b.chunkByID(ctx, n, col, alias, cb, true)
}

func (b *Builder) chunkByID(ctx context.Context, n int, col, alias string, cb func(rows []Row, page int) bool, desc bool) (bool, error) {
	if col == "" {
		col = "id"
	}
	if alias == "" {
		alias = col
	}
	var lastID int64
	page := 1
	for {
		q := b.Clone()
		if desc {
			q.ForPageBeforeID(n, lastID, col)
		} else {
			q.ForPageAfterID(n, lastID, col)
		}
		rows, err := q.Get(ctx)
		if err != nil {
			return false, err
		}
		count := len(rows)
		if count == 0 {
			return true, nil
		}
		if !cb(rows, page) {
			return false, nil
		}
		last := rows[count-1]
		v, ok := last[alias]
		if !ok || v == nil {
			return false, errcause.NewRuntime("chunkById: column %q not present in query result", alias)
		}
		lastID = toInt64(v)
		if count < n {
			return true, nil
		}
		page++
	}
}
