package lihtne

import "github.com/aagamezl/lihtne/errcause"

// recognizedOperators is the set of comparison operators the grammars
// know how to compile directly. Anything else paired with a non-null
// value is coerced to "=" (value still bound); paired with a null value
// it is rejected as an illegal combination, per spec.md §4.1.
var recognizedOperators = map[string]bool{
	"=": true, "<": true, ">": true, "<=": true, ">=": true, "<>": true, "!=": true,
	"like": true, "like binary": true, "not like": true, "ilike": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, "&~": true,
	"rlike": true, "not rlike": true, "regexp": true, "not regexp": true,
	"~": true, "~*": true, "!~": true, "!~*": true, "similar to": true,
	"not similar to": true, "not ilike": true, "~~*": true, "!~~*": true,
}

func isRecognizedOperator(op string) bool {
	return recognizedOperators[op]
}

// prepareValueAndOperator mirrors the source library's argument
// normalisation: called with (value, operator, twoArguments). When only
// two arguments were supplied by the caller the operator defaults to
// "=" and value takes the position the operator would otherwise occupy.
func prepareValueAndOperator(value interface{}, operator string, twoArguments bool) (interface{}, string, error) {
	if twoArguments {
		return operator, "=", nil
	}
	if operator == "" {
		return value, "=", nil
	}
	if !isRecognizedOperator(operator) && value == nil {
		return nil, "", errcause.NewInvalidArgument("illegal operator and value combination: operator %q cannot be paired with a null value", operator)
	}
	return value, operator, nil
}

// normalizedOperator coerces an operator the grammar doesn't recognise
// down to "=", per spec.md's documented (if surprising) behaviour.
func normalizedOperator(op string) string {
	if isRecognizedOperator(op) {
		return op
	}
	return "="
}

func unsupportedSubquery() error {
	return errcause.NewInvalidArgument("value must be a *Builder or a func(*Builder) closure")
}

// firstScalarIfArray implements the documented behaviour: when value is a
// slice and the operator is =/!=/<>, only the first element is used.
func firstScalarIfArray(value interface{}, op string) interface{} {
	if op != "=" && op != "!=" && op != "<>" {
		return value
	}
	switch vs := value.(type) {
	case []interface{}:
		if len(vs) > 0 {
			return vs[0]
		}
	case []int:
		if len(vs) > 0 {
			return vs[0]
		}
	case []string:
		if len(vs) > 0 {
			return vs[0]
		}
	}
	return value
}
