// Package processor post-processes driver results: the default
// implementation is a no-op pass-through, mirroring the teacher's plain
// SelectDocBuilder/SelectBuilder results, while the mysql and postgres
// subtypes add the dialect-specific coercion spec.md §4.3 documents.
package processor

import (
	"context"
	"fmt"

	"github.com/aagamezl/lihtne"
)

// Default is the baseline Processor: ProcessSelect returns rows
// unchanged, ProcessInsertGetID executes the insert and reads the
// driver's last-insert-id back out of the connection's config bag
// (the narrow Connection interface has no dedicated accessor for it).
type Default struct{}

// New returns the baseline Processor used by ANSI, SQLite and SQL
// Server (which have no coercion or RETURNING-based id path of their
// own).
func New() *Default { return &Default{} }

func (p *Default) ProcessSelect(b *lihtne.Builder, rows []lihtne.Row) []lihtne.Row {
	return rows
}

func (p *Default) ProcessInsertGetID(ctx context.Context, b *lihtne.Builder, conn lihtne.Connection, sql string, bindings []lihtne.Value, sequence string) (int64, error) {
	if _, err := conn.Insert(ctx, sql, bindings); err != nil {
		return 0, err
	}
	v, ok := conn.GetConfig("lastInsertId")
	if !ok {
		return 0, nil
	}
	return toInt64(v)
}

func toInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("lihtne: lastInsertId config value has unexpected type %T", v)
	}
}
