package lihtne

// bindingSections is the fixed iteration order flatten() and
// mergeBindings walk, per spec.md §3.5/§5.
var bindingSections = []string{
	"select", "from", "join", "where", "groupBy", "having", "order", "union", "unionOrder",
}

const (
	SectionSelect     = "select"
	SectionFrom       = "from"
	SectionJoin       = "join"
	SectionWhere      = "where"
	SectionGroupBy    = "groupBy"
	SectionHaving     = "having"
	SectionOrder      = "order"
	SectionUnion      = "union"
	SectionUnionOrder = "unionOrder"
)

// BindingsBag is an ordered per-section binding store. Iteration order is
// fixed regardless of insertion order across sections, so Flatten()
// produces a deterministic binding array; within a section, values stay
// in insertion order.
type BindingsBag struct {
	sections map[string][]Value
}

// NewBindingsBag returns an empty, ready-to-use BindingsBag.
func NewBindingsBag() BindingsBag {
	b := BindingsBag{sections: make(map[string][]Value, len(bindingSections))}
	for _, s := range bindingSections {
		b.sections[s] = nil
	}
	return b
}

// AddBinding appends values to the named section.
func (b *BindingsBag) AddBinding(section string, values ...Value) {
	if b.sections == nil {
		*b = NewBindingsBag()
	}
	b.sections[section] = append(b.sections[section], values...)
}

// Section returns the values recorded for the named section, in
// insertion order.
func (b BindingsBag) Section(section string) []Value {
	return b.sections[section]
}

// MergeBindings extends each section of b with the corresponding section
// of other, preserving other's insertion order.
func (b *BindingsBag) MergeBindings(other BindingsBag) {
	if b.sections == nil {
		*b = NewBindingsBag()
	}
	for _, s := range bindingSections {
		if vs := other.sections[s]; len(vs) > 0 {
			b.sections[s] = append(b.sections[s], vs...)
		}
	}
}

// Flatten produces the deterministic binding array by walking the fixed
// section order.
func (b BindingsBag) Flatten() []Value {
	var out []Value
	for _, s := range bindingSections {
		out = append(out, b.sections[s]...)
	}
	return out
}

// Clone returns a deep copy of b.
func (b BindingsBag) Clone() BindingsBag {
	n := NewBindingsBag()
	for _, s := range bindingSections {
		n.sections[s] = append([]Value(nil), b.sections[s]...)
	}
	return n
}

// Len returns the total number of bindings across all sections.
func (b BindingsBag) Len() int {
	n := 0
	for _, s := range bindingSections {
		n += len(b.sections[s])
	}
	return n
}
