package lihtne

// Expression is an opaque raw SQL fragment. Grammars pass its SQL through
// unquoted and unmodified; its Args are resolved and bound in order,
// exactly like any other clause's arguments. Mirrors the teacher's
// dat.Expression, generalized to carry Values instead of interface{}.
type Expression struct {
	SQL  string
	Args []Value
}

// Expr builds a raw Expression from a SQL fragment and positional
// arguments. Arguments are normalised through ValueOf.
func Expr(sql string, args ...interface{}) *Expression {
	vals := make([]Value, len(args))
	for i, a := range args {
		vals[i] = ValueOf(a)
	}
	return &Expression{SQL: sql, Args: vals}
}
