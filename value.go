package lihtne

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tags the concrete payload carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDateTime
	KindBytes
	KindUUID
	KindRaw
	KindSub
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindBytes:
		return "bytes"
	case KindUUID:
		return "uuid"
	case KindRaw:
		return "raw"
	case KindSub:
		return "sub"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Value is the tagged union of scalars + Raw + SubQuery that flows through
// the Builder and BindingsBag. It is a value type so it can be stored,
// copied and compared cheaply; the exported constructors are the only
// supported way to build one.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	byts []byte
	u    uuid.UUID
	raw  *Expression
	sub  *Builder
	doc  interface{}
}

// NullValue returns the SQL NULL value.
func NullValue() Value { return Value{kind: KindNull} }

// Bool wraps a boolean scalar.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int wraps an integer scalar.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a floating point scalar.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Str wraps a string scalar.
func Str(v string) Value { return Value{kind: KindString, s: v} }

// DateTime wraps a time.Time scalar; the grammar resolves its textual
// representation lazily, using its own date format, at bind time.
func DateTime(v time.Time) Value { return Value{kind: KindDateTime, t: v} }

// Bytes wraps a binary scalar.
func Bytes(v []byte) Value { return Value{kind: KindBytes, byts: v} }

// UUID wraps a uuid.UUID scalar.
func UUID(v uuid.UUID) Value { return Value{kind: KindUUID, u: v} }

// RawVal wraps an Expression: its SQL is emitted verbatim and it
// contributes zero placeholders/bindings of its own.
func RawVal(e *Expression) Value { return Value{kind: KindRaw, raw: e} }

// SubVal wraps a sub-Builder. The grammar compiles it recursively and
// splices its bindings into the caller's bag at the point of use.
func SubVal(b *Builder) Value { return Value{kind: KindSub, sub: b} }

// JSON wraps a structured Go value (a map or slice, typically) that
// should be marshaled to a JSON text binding rather than stringified.
// Grammars that merge several JSON-path assignments into one document
// (json_set, jsonb_set, json_patch) read the original value back out
// through JSONData instead of Resolved, so they can merge before
// marshaling.
func JSON(v interface{}) Value { return Value{kind: KindJSON, doc: v} }

// Kind reports the tag of this Value.
func (v Value) Kind() Kind { return v.kind }

// IsRaw reports whether v is a Raw expression.
func (v Value) IsRaw() bool { return v.kind == KindRaw }

// IsSub reports whether v is a sub-query.
func (v Value) IsSub() bool { return v.kind == KindSub }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Raw returns the underlying Expression; only valid when IsRaw().
func (v Value) Raw() *Expression { return v.raw }

// Sub returns the underlying sub-Builder; only valid when IsSub().
func (v Value) Sub() *Builder { return v.sub }

// IsJSON reports whether v wraps a structured document value.
func (v Value) IsJSON() bool { return v.kind == KindJSON }

// JSONData returns the underlying Go value; only valid when IsJSON().
func (v Value) JSONData() interface{} { return v.doc }

// ValueOf converts an arbitrary Go value into a Value using the same
// coercions the Builder applies to caller-supplied where/insert/update
// arguments. Values that are already a Value, *Expression or *Builder are
// recognised directly; everything else is matched by concrete Go type.
func ValueOf(arg interface{}) Value {
	switch t := arg.(type) {
	case Value:
		return t
	case nil:
		return NullValue()
	case *Expression:
		return RawVal(t)
	case Expression:
		return RawVal(&t)
	case *Builder:
		return SubVal(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return Int(int64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return Str(t)
	case []byte:
		return Bytes(t)
	case time.Time:
		return DateTime(t)
	case uuid.UUID:
		return UUID(t)
	case map[string]interface{}:
		return JSON(t)
	case []interface{}:
		return JSON(t)
	default:
		return Str(fmt.Sprintf("%v", t))
	}
}

// MergeNative returns v as a plain Go value suitable for embedding in a
// JSON document being built up for a merge-style update (json_patch,
// json_set, jsonb_set): unlike Resolved, booleans stay bool and
// date/times stay time.Time-formatted text rather than driver-binding
// shapes. Raw and Sub values have no native JSON representation and
// are returned as their literal SQL text.
func (v Value) MergeNative(dateFormat string) interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindDateTime:
		return v.t.Format(goDateFormat(dateFormat))
	case KindBytes:
		return v.byts
	case KindUUID:
		return v.u.String()
	case KindJSON:
		return v.doc
	case KindRaw:
		return v.raw.SQL
	default:
		return nil
	}
}

// Resolved returns the value that should actually be bound to the driver
// placeholder for this Value, given a grammar's date format. Booleans are
// coerced to 0/1 and date/times are formatted as strings, matching the
// source library's documented (if surprising) binding behaviour. Raw and
// Sub values never reach this path; callers must branch on IsRaw/IsSub
// before calling Resolved.
func (v Value) Resolved(dateFormat string) interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		if v.b {
			return int64(1)
		}
		return int64(0)
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindDateTime:
		return v.t.Format(goDateFormat(dateFormat))
	case KindBytes:
		return v.byts
	case KindUUID:
		return v.u.String()
	case KindJSON:
		b, err := json.Marshal(v.doc)
		if err != nil {
			return "{}"
		}
		return string(b)
	default:
		panic(fmt.Sprintf("lihtne: cannot resolve a %s value to a binding", v.kind))
	}
}

// goDateFormat translates the date-format tokens the grammars emit (e.g.
// "Y-m-d H:i:s", "Y-m-d H:i:s.v") into the equivalent Go reference layout.
// Only the tokens the grammars actually use are supported.
func goDateFormat(layout string) string {
	return phpToGoDateReplacer.Replace(layout)
}

var phpToGoDateReplacer = strings.NewReplacer(
	"Y", "2006",
	"m", "01",
	"d", "02",
	"H", "15",
	"i", "04",
	"s", "05",
	"v", "000",
)
