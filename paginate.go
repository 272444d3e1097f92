package lihtne

import "context"

// LengthAwarePaginator describes one page of results backed by a known
// total row count.
type LengthAwarePaginator struct {
	Items       []Row
	Total       int64
	PerPage     int
	CurrentPage int
}

// LastPage returns the highest valid page number for this result set.
func (p *LengthAwarePaginator) LastPage() int {
	if p.PerPage <= 0 {
		return 1
	}
	last := int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		last = 1
	}
	return last
}

// HasMorePages reports whether a page after CurrentPage exists.
func (p *LengthAwarePaginator) HasMorePages() bool { return p.CurrentPage < p.LastPage() }

// CursorPaginator describes one page of keyset-paginated results.
type CursorPaginator struct {
	Items      []Row
	PerPage    int
	NextCursor *Cursor
	PrevCursor *Cursor
}

// GetCountForPagination re-compiles the current query as a row count,
// stripping orders and the selected column list (replaced by cols, or
// "*" by default) so the count reflects only the where/group/having
// shape of the query.
func (b *Builder) GetCountForPagination(ctx context.Context, cols ...string) (int64, error) {
	counter := b.Clone()
	counter.ir.Orders = nil
	counter.ir.HasLimit = false
	counter.ir.HasOffset = false
	if len(b.ir.Groups) > 0 || len(b.ir.Havings) > 0 {
		return counter.runAggregateWrapped(ctx, cols)
	}
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	return counter.Count(ctx, cols...)
}

// runAggregateWrapped counts rows of a grouped/having query by wrapping
// it as a derived table, since "count(*) ... group by" counts groups,
// not rows.
func (b *Builder) runAggregateWrapped(ctx context.Context, cols []string) (int64, error) {
	inner := b.Clone()
	outer := b.newSub()
	outer.FromSub(inner, "lihtne_count_wrapper")
	return outer.Count(ctx, cols...)
}

// Paginate fetches one length-aware page. If total is nil,
// GetCountForPagination computes it first.
func (b *Builder) Paginate(ctx context.Context, perPage, page int, cols []string, total *int64) (*LengthAwarePaginator, error) {
	if perPage <= 0 {
		perPage = 15
	}
	if page <= 0 {
		page = 1
	}
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	var grandTotal int64
	if total != nil {
		grandTotal = *total
	} else {
		t, err := b.Clone().GetCountForPagination(ctx, cols...)
		if err != nil {
			return nil, err
		}
		grandTotal = t
	}
	var items []Row
	if grandTotal > 0 {
		rows, err := b.ForPage(page, perPage).Get(ctx, cols...)
		if err != nil {
			return nil, err
		}
		items = rows
	}
	return &LengthAwarePaginator{Items: items, Total: grandTotal, PerPage: perPage, CurrentPage: page}, nil
}

// CursorPaginate fetches a keyset-paginated page. cursor may be nil for
// the first page. It requires at least one OrderBy term to be present.
func (b *Builder) CursorPaginate(ctx context.Context, perPage int, cols []string, cursor *Cursor) (*CursorPaginator, error) {
	if perPage <= 0 {
		perPage = 15
	}
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	q := b.Clone()
	if cursor != nil {
		applyCursorConstraint(q, cursor)
	}
	rows, err := q.Take(perPage + 1).Get(ctx, cols...)
	if err != nil {
		return nil, err
	}
	hasMore := len(rows) > perPage
	if hasMore {
		rows = rows[:perPage]
	}
	out := &CursorPaginator{Items: rows, PerPage: perPage}
	if len(rows) > 0 {
		if hasMore || (cursor != nil && cursor.PointsToNext) {
			out.NextCursor = cursorFromRow(b.ir.Orders, rows[len(rows)-1], true)
		}
		if cursor != nil {
			out.PrevCursor = cursorFromRow(b.ir.Orders, rows[0], false)
		}
	}
	return out, nil
}

// applyCursorConstraint builds the lexicographic OR-chain a multi-column
// cursor requires: "(c1 op1 v1) or (c1 = v1 and c2 op2 v2) or ...", rather
// than ANDing every column's inequality together, which would both reject
// valid next-page rows and admit invalid ones whenever the leading order
// columns tie.
func applyCursorConstraint(b *Builder, cursor *Cursor) {
	var orders []OrderIR
	for _, o := range b.ir.Orders {
		if o.Column == "" {
			continue
		}
		if _, ok := cursor.Values[o.Column]; !ok {
			continue
		}
		orders = append(orders, o)
	}
	if len(orders) == 0 {
		return
	}
	forward := cursor.PointsToNext

	b.WhereGroup(func(group *Builder) {
		for i, o := range orders {
			i, o := i, o
			op := ">"
			switch {
			case o.Direction == Asc && forward, o.Direction == Desc && !forward:
				op = ">"
			default:
				op = "<"
			}
			group.OrWhereGroup(func(term *Builder) {
				for _, eq := range orders[:i] {
					term.Where(eq.Column, cursor.Values[eq.Column])
				}
				term.Where(o.Column, op, cursor.Values[o.Column])
			})
		}
	})
}

func cursorFromRow(orders []OrderIR, row Row, pointsToNext bool) *Cursor {
	values := map[string]interface{}{}
	for _, o := range orders {
		if o.Column == "" {
			continue
		}
		values[o.Column] = row[o.Column]
	}
	return &Cursor{Values: values, PointsToNext: pointsToNext}
}
