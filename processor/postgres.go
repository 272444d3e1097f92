package processor

import (
	"context"

	"github.com/aagamezl/lihtne"
)

// Postgres overrides ProcessInsertGetID with the RETURNING-based form
// spec.md §4.3 documents: Postgres has no portable last-insert-id
// driver hook, so the id is read back directly off the inserted row.
type Postgres struct {
	Default
}

// NewPostgres returns the Postgres Processor.
func NewPostgres() *Postgres { return &Postgres{} }

func (p *Postgres) ProcessInsertGetID(ctx context.Context, b *lihtne.Builder, conn lihtne.Connection, sql string, bindings []lihtne.Value, sequence string) (int64, error) {
	col := sequence
	if col == "" {
		col = "id"
	}
	sql += ` returning "` + col + `"`
	rows, err := conn.Select(ctx, sql, bindings)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0][col])
}
