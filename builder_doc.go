package lihtne

import "github.com/aagamezl/lihtne/errcause"

// DocEntry is one named sub-query attached to a DocBuilder: a column
// alias paired with the Builder that produces its value.
type DocEntry struct {
	Alias string
	Sub   *Builder
}

// DocSpec collects every category of sub-query a DocBuilder has
// accumulated, handed to Grammar.CompileSelectDoc for dialect-specific
// assembly.
type DocSpec struct {
	With   []DocEntry
	Many   []DocEntry
	One    []DocEntry
	Vector []DocEntry
	Scalar []DocEntry
}

// DocBuilder composes a single JSON document per row out of a base
// select plus named sub-queries, grounded on the teacher's
// SelectDocBuilder: With loads a CTE, Many/Vector embed an aggregated
// array of rows/scalars under an alias, One embeds a single nested row,
// and Scalar embeds a single scalar directly into the parent document.
// Only dialects implementing a row-to-document primitive (Postgres'
// row_to_json) support it; others reject CompileSelectDoc with
// UnsupportedFeature.
type DocBuilder struct {
	*Builder
	spec DocSpec
}

// Doc upgrades a Builder into a DocBuilder, sharing the same IR.
func (b *Builder) Doc() *DocBuilder {
	return &DocBuilder{Builder: b}
}

func (d *DocBuilder) storeEntry(dst *[]DocEntry, column string, sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	if d.failed() {
		return d
	}
	sub, err := docSubBuilder(d.Builder, sqlOrBuilder, bindings)
	if err != nil {
		d.fail(err)
		return d
	}
	*dst = append(*dst, DocEntry{Alias: column, Sub: sub})
	return d
}

func docSubBuilder(parent *Builder, sqlOrBuilder interface{}, bindings []interface{}) (*Builder, error) {
	switch t := sqlOrBuilder.(type) {
	case *Builder:
		return t, nil
	case *DocBuilder:
		return t.Builder, nil
	case func(*Builder):
		return parent.buildSub(t), nil
	case string:
		return parent.newSub().SelectRaw(t, bindings...), nil
	default:
		return nil, unsupportedSubquery()
	}
}

// With loads a sub-query inserted as a named CTE ahead of the document
// select.
func (d *DocBuilder) With(column string, sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	return d.storeEntry(&d.spec.With, column, sqlOrBuilder, bindings...)
}

// Many embeds sqlOrBuilder's result rows as a JSON array under column.
func (d *DocBuilder) Many(column string, sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	return d.storeEntry(&d.spec.Many, column, sqlOrBuilder, bindings...)
}

// Vector embeds sqlOrBuilder's single-column result as a JSON array of
// scalars under column.
func (d *DocBuilder) Vector(column string, sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	return d.storeEntry(&d.spec.Vector, column, sqlOrBuilder, bindings...)
}

// One embeds sqlOrBuilder's first result row as a nested document under
// column.
func (d *DocBuilder) One(column string, sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	return d.storeEntry(&d.spec.One, column, sqlOrBuilder, bindings...)
}

// Scalar embeds sqlOrBuilder's single scalar result directly under
// column, rather than wrapping it in a nested object.
func (d *DocBuilder) Scalar(column string, sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	return d.storeEntry(&d.spec.Scalar, column, sqlOrBuilder, bindings...)
}

// Union appends a UNION member to the document's base select, compiled
// as part of the ordinary select that "lihtne_doc_base" wraps.
func (d *DocBuilder) Union(sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	if d.failed() {
		return d
	}
	sub, err := docSubBuilder(d.Builder, sqlOrBuilder, bindings)
	if err != nil {
		d.fail(err)
		return d
	}
	d.Builder.Union(sub)
	return d
}

// UnionAll is Union compiled as UNION ALL.
func (d *DocBuilder) UnionAll(sqlOrBuilder interface{}, bindings ...interface{}) *DocBuilder {
	if d.failed() {
		return d
	}
	sub, err := docSubBuilder(d.Builder, sqlOrBuilder, bindings)
	if err != nil {
		d.fail(err)
		return d
	}
	d.Builder.UnionAll(sub)
	return d
}

// ToSQL compiles the document query through the bound Grammar.
func (d *DocBuilder) ToSQL() (string, []interface{}, error) {
	d.applyBeforeQueryCallbacks()
	if d.err != nil {
		return "", nil, d.err
	}
	if err := d.validateJoinTarget(); err != nil {
		return "", nil, err
	}
	if d.grammar.Name() != "postgres" {
		return "", nil, errcause.NewUnsupportedFeature(d.grammar.Name(), "document queries (row-to-document primitive)")
	}
	sql, bindings, err := d.grammar.CompileSelectDoc(d.ir, &d.spec)
	if err != nil {
		return "", nil, err
	}
	return sql, resolveAll(bindings, d.grammar.GetDateFormat()), nil
}
