package option

import (
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Kind tells which scalar a Token carries.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt
	KindFloat
)

// Scalar is the set of Go types an option value may hold.
type Scalar interface {
	~string | constraints.Integer | constraints.Float
}

// Token is one positional command argument: a string, an integer or a float.
// The zero Token is the empty string.
type Token struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// Str wraps a string token.
func Str(s string) Token { return Token{kind: KindString, s: s} }

// Int wraps an integer token.
func Int(i int64) Token { return Token{kind: KindInt, i: i} }

// Float wraps a floating-point token.
func Float(f float64) Token { return Token{kind: KindFloat, f: f} }

// TokenOf converts a dynamic value into a Token. Strings, byte slices, every
// integer width and both float widths are accepted; anything else yields a
// *TypeError.
func TokenOf(v any) (Token, error) {
	switch t := v.(type) {
	case Token:
		return t, nil
	case string:
		return Str(t), nil
	case []byte:
		return Str(string(t)), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	}
	// named scalar types (type Unit string, ...)
	if v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.String:
			return Str(rv.String()), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return Int(rv.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Int(int64(rv.Uint())), nil
		case reflect.Float32, reflect.Float64:
			return Float(rv.Float()), nil
		}
	}
	return Token{}, &TypeError{Value: v, Index: -1}
}

// ScalarToken converts a statically typed scalar. It never fails.
func ScalarToken[T Scalar](v T) Token {
	t, _ := TokenOf(v)
	return t
}

// Kind returns the scalar kind; the zero Token reports KindString.
func (t Token) Kind() Kind {
	if t.kind == 0 {
		return KindString
	}
	return t.kind
}

// Value returns the token as string, int64 or float64.
func (t Token) Value() any {
	switch t.kind {
	case KindInt:
		return t.i
	case KindFloat:
		return t.f
	default:
		return t.s
	}
}

// String formats the token the way it travels on the wire.
func (t Token) String() string {
	switch t.kind {
	case KindInt:
		return strconv.FormatInt(t.i, 10)
	case KindFloat:
		return FormatFloat(t.f)
	default:
		return t.s
	}
}

// FormatFloat renders f with the shortest exact representation.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Tokens is an ordered command fragment.
type Tokens []Token

// Strs builds a fragment from literal strings.
func Strs(ss ...string) Tokens {
	out := make(Tokens, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

// Of builds a fragment from dynamic values, failing on the first value that
// is not a scalar.
func Of(vs ...any) (Tokens, error) {
	out := make(Tokens, 0, len(vs))
	for i, v := range vs {
		t, err := TokenOf(v)
		if err != nil {
			if te, ok := err.(*TypeError); ok {
				te.Index = i
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Args returns the fragment as go-redis arguments.
func (ts Tokens) Args() []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t.Value()
	}
	return out
}

// Strings returns the textual form of each token.
func (ts Tokens) Strings() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

// String joins the textual forms with single spaces.
func (ts Tokens) String() string { return strings.Join(ts.Strings(), " ") }

// Concat appends every fragment in order.
func Concat(parts ...Tokens) Tokens {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make(Tokens, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
