package grammar

import "github.com/aagamezl/lihtne"

// NewANSI returns the baseline SQL-92 grammar every other dialect starts
// from: double-quote identifiers, no upsert/fulltext/JSON support, plain
// trailing limit/offset.
func NewANSI(prefix string) lihtne.Grammar {
	g := &Grammar{Prefix: prefix}
	g.D = Dialect{
		Name:      "ansi",
		DateFmt:   "Y-m-d H:i:s",
		QuoteChar: '"',
		Random:    func() string { return "random()" },
		Lock:      genericLock,
	}
	return g
}

func genericLock(ir *lihtne.QueryIR) string {
	switch ir.Lock {
	case lihtne.LockForUpdate:
		return "for update"
	case lihtne.LockForShare:
		return "for share"
	case lihtne.LockRaw:
		return ir.LockSQL
	default:
		return ""
	}
}
