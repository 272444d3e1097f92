package lihtne

import "github.com/aagamezl/lihtne/errcause"

// Builder is the fluent API that accumulates a QueryIR. Chained calls
// return the same *Builder (teacher idiom: dat.SelectBuilder chaining).
// A Builder owns exactly one QueryIR; construct a subquery by cloning or
// by calling newSub, never by sharing an IR between two Builders.
//
// Builder is not safe for concurrent use: each Builder and the QueryIR it
// owns are single-threaded-cooperative, per spec.md §5. Callers that want
// to fan out must Clone first.
type Builder struct {
	conn      Connection
	grammar   Grammar
	processor Processor
	ir        *QueryIR
	err       error
	macros    map[string]Macro

	pairCols []string
	pairRow  map[string]interface{}
}

// Macro is a registered fallback method, consulted when the Builder has
// no first-class method matching a caller's intent. Prefer adding a
// first-class method; Macro exists for the rare case an embedding
// application needs to extend the Builder without forking it.
type Macro func(b *Builder, args ...interface{}) interface{}

// NewBuilder constructs a Builder bound to a Connection, Grammar and
// Processor. conn may be nil for compile-only use (ToSQL/ToRawSQL/
// GetBindings); grammar must not be nil.
func NewBuilder(conn Connection, grammar Grammar, processor Processor) *Builder {
	return &Builder{
		conn:      conn,
		grammar:   grammar,
		processor: processor,
		ir:        NewQueryIR(),
	}
}

// Grammar returns the Grammar this Builder compiles against.
func (b *Builder) Grammar() Grammar { return b.grammar }

// Connection returns the Connection this Builder executes terminals
// against, or nil in compile-only use.
func (b *Builder) Connection() Connection { return b.conn }

// IR exposes the underlying QueryIR for Grammar implementations and
// tests; callers composing queries should prefer the fluent methods.
func (b *Builder) IR() *QueryIR { return b.ir }

// Err returns the first error recorded by any clause constructor, or nil.
// Builder methods are sticky on error: once set, further clause calls
// become no-ops so the error that matters (the first one) is the one
// ToSQL/terminal methods surface.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) failed() bool { return b.err != nil }

// Clone performs a deep copy of the IR and bindings so the returned
// Builder can be mutated independently of b.
func (b *Builder) Clone() *Builder {
	clone := &Builder{
		conn:      b.conn,
		grammar:   b.grammar,
		processor: b.processor,
		ir:        b.ir.Clone(),
		err:       b.err,
		macros:    b.macros,
	}
	if len(b.pairCols) > 0 {
		clone.pairCols = append([]string(nil), b.pairCols...)
		clone.pairRow = make(map[string]interface{}, len(b.pairRow))
		for k, v := range b.pairRow {
			clone.pairRow[k] = v
		}
	}
	return clone
}

// newSub constructs a fresh Builder sharing this Builder's
// connection/grammar/processor, the way subqueries are built by invoking
// a closure against a new Builder.
func (b *Builder) newSub() *Builder {
	return NewBuilder(b.conn, b.grammar, b.processor)
}

// buildSub invokes fn against a fresh sub-Builder and returns it. Used
// by every clause constructor that accepts a closure in place of a
// table/value/condition.
func (b *Builder) buildSub(fn func(*Builder)) *Builder {
	sub := b.newSub()
	fn(sub)
	return sub
}

// MacroFn registers a fallback closure under name, consulted by
// CallMacro.
func (b *Builder) MacroFn(name string, fn Macro) {
	if b.macros == nil {
		b.macros = make(map[string]Macro)
	}
	b.macros[name] = fn
}

// CallMacro invokes a registered macro by name, or returns an error if
// none is registered. This is the explicit replacement for the source
// library's __call forwarding.
func (b *Builder) CallMacro(name string, args ...interface{}) (interface{}, error) {
	if b.macros == nil {
		return nil, errcause.NewRuntime("no macro registered for %q", name)
	}
	fn, ok := b.macros[name]
	if !ok {
		return nil, errcause.NewRuntime("no macro registered for %q", name)
	}
	return fn(b, args...), nil
}

// Tap invokes fn with the Builder and returns the Builder unchanged,
// letting callers interleave side effects (logging, conditional setup)
// into a fluent chain.
func (b *Builder) Tap(fn func(*Builder)) *Builder {
	fn(b)
	return b
}

// When invokes cb(b) when value is true; otherwise invokes elseCb(b) if
// provided. elseCb may be nil.
func (b *Builder) When(value bool, cb func(*Builder), elseCb func(*Builder)) *Builder {
	if value {
		if cb != nil {
			cb(b)
		}
	} else if elseCb != nil {
		elseCb(b)
	}
	return b
}

// Unless is When with the condition inverted.
func (b *Builder) Unless(value bool, cb func(*Builder), elseCb func(*Builder)) *Builder {
	return b.When(!value, cb, elseCb)
}

// BeforeQuery registers a callback applied once, immediately before the
// first compilation of this Builder's IR.
func (b *Builder) BeforeQuery(cb func(*Builder)) *Builder {
	b.ir.beforeQueryCallbacks = append(b.ir.beforeQueryCallbacks, cb)
	return b
}

// applyBeforeQueryCallbacks runs and clears the before-query callback
// list exactly once per terminal invocation.
func (b *Builder) applyBeforeQueryCallbacks() {
	if len(b.ir.beforeQueryCallbacks) == 0 {
		return
	}
	cbs := b.ir.beforeQueryCallbacks
	b.ir.beforeQueryCallbacks = nil
	for _, cb := range cbs {
		cb(b)
	}
}
