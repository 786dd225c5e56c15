// Package query provides an AST and helpers for building composable
// RediSearch query strings with correct escaping and grouping.
//
//	import q "github.com/manojoshi/redisearch/query"
//
//	title, _ := q.Text("title", "star wars")
//	genres, _ := q.In("genre", "sci-fi", "action")
//	filter := q.And(
//	    title,
//	    genres,
//	    q.Not(q.Eq("is_deleted", 1)),
//	    q.GreaterThan("year", 1977),
//	)
//	q.Compile(filter) // @title:(star wars) @genre:{sci\-fi|action} -@is_deleted:{1} @year:[(1977 +inf]
package query

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/manojoshi/redisearch/escape"
	"github.com/manojoshi/redisearch/option"
)

// ErrNoTerms is returned by facets built without any term.
var ErrNoTerms = errors.New("query: at least one term required")

// -------------------------------------------------------------------
// Expr – the root interface. Every node knows how to write itself
// into a bytes.Buffer and how tightly it binds. Compile logic lives
// in compile.go so nodes stay dumb data containers.
// -------------------------------------------------------------------

type Expr interface {
	compile(*bytes.Buffer)
	// priority decides whether the node needs parentheses inside a parent.
	priority() int
	// empty nodes render nothing and need no separator.
	empty() bool
}

const (
	prioAnd     = 1 // multi-child intersection
	prioOperand = 2 // minimum for OR members and negated nodes
	prioLeaf    = 3 // terms, facets, self-parenthesised unions
)

// Number is any numeric facet bound.
type Number interface {
	constraints.Integer | constraints.Float
}

// ------------
// Leaf nodes
// ------------

// Text matches one term ("@title:hello") or any of several
// ("@title:(hello|world)"). Terms are escaped.
func Text(field string, terms ...string) (Expr, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("query: text facet %q: %w", field, ErrNoTerms)
	}
	vs := make([]string, len(terms))
	for i, t := range terms {
		vs[i] = escape.Word(t)
	}
	return &textFacet{f: field, vs: vs}, nil
}

// Tag matches tag values: "@genre:{a|b}". Values are escaped, spaces
// included.
func Tag(field string, tags ...string) (Expr, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("query: tag facet %q: %w", field, ErrNoTerms)
	}
	vs := make([]string, len(tags))
	for i, t := range tags {
		vs[i] = escape.Tag(t)
	}
	return &tagFacet{f: field, vs: vs}, nil
}

// Eq("field", value)  ➜  "@field:{value}"
func Eq(field string, v any) Expr {
	return &tagFacet{f: field, vs: []string{escape.Tag(toStr(v))}}
}

// In("field", v1, v2) ➜ "@field:{v1|v2}". Values are stringified like
// command arguments. No values is ErrNoTerms.
func In(field string, vs ...any) (Expr, error) {
	if len(vs) == 0 {
		return nil, fmt.Errorf("query: tag facet %q: %w", field, ErrNoTerms)
	}
	tags := make([]string, len(vs))
	for i, v := range vs {
		tags[i] = escape.Tag(toStr(v))
	}
	return &tagFacet{f: field, vs: tags}, nil
}

// Bound is one end of a numeric range.
type Bound struct {
	v         string
	exclusive bool
	unbounded bool
}

// Inclusive includes v in the range.
func Inclusive[T Number](v T) Bound { return Bound{v: option.ScalarToken(v).String()} }

// Exclusive excludes v from the range.
func Exclusive[T Number](v T) Bound {
	return Bound{v: option.ScalarToken(v).String(), exclusive: true}
}

// Unbounded leaves the range open on that side (-inf or +inf).
func Unbounded() Bound { return Bound{unbounded: true} }

// Range("price", Inclusive(10), Exclusive(100))  ➜ "@price:[10 (100]"
func Range(field string, lo, hi Bound) Expr { return &rng{f: field, lo: lo, hi: hi} }

// GreaterThan ➜ "@field:[(v +inf]"
func GreaterThan[T Number](field string, v T) Expr {
	return Range(field, Exclusive(v), Unbounded())
}

// GreaterThanOrEquals ➜ "@field:[v +inf]"
func GreaterThanOrEquals[T Number](field string, v T) Expr {
	return Range(field, Inclusive(v), Unbounded())
}

// LessThan ➜ "@field:[-inf (v]"
func LessThan[T Number](field string, v T) Expr {
	return Range(field, Unbounded(), Exclusive(v))
}

// LessThanOrEquals ➜ "@field:[-inf v]"
func LessThanOrEquals[T Number](field string, v T) Expr {
	return Range(field, Unbounded(), Inclusive(v))
}

// EqualsTo ➜ "@field:[v v]"
func EqualsTo[T Number](field string, v T) Expr {
	return Range(field, Inclusive(v), Inclusive(v))
}

// Between ➜ "@field:[lo hi]", both ends included.
func Between[T Number](field string, lo, hi T) Expr {
	return Range(field, Inclusive(lo), Inclusive(hi))
}

// GeoUnits lists the radius units the server accepts.
var GeoUnits = []string{"m", "km", "mi", "ft"}

// Geo matches points within radius of lon/lat: "@loc:[lon lat radius unit]".
func Geo(field string, lon, lat, radius float64, unit string) (Expr, error) {
	if err := option.OneOf(GeoUnits...)(unit); err != nil {
		return nil, &option.ValueError{Option: "geo unit", Value: unit, Reason: err.Error()}
	}
	if radius < 0 {
		return nil, &option.ValueError{Option: "geo radius", Value: radius, Reason: "must not be negative"}
	}
	return &geo{f: field, lon: lon, lat: lat, radius: radius, unit: unit}, nil
}

// Word is a free-text term, escaped. Under Not a leading digit is escaped
// as well so "-5" is never read as a number.
func Word(s string) Expr { return &term{s: escape.Word(s), neg: escape.Negation(s)} }

// Exact matches a phrase: "\"hello world\"".
func Exact(s string) Expr { return newTerm(`"` + escape.ExactMatch(s) + `"`) }

// Prefix matches terms starting with s: "hel*".
func Prefix(s string) Expr {
	return &term{s: escape.Word(s) + "*", neg: escape.Negation(s) + "*"}
}

// Fuzzy matches terms within a Levenshtein distance of 1 to 3: "%%hello%%".
func Fuzzy(s string, distance int) (Expr, error) {
	if err := option.Between(1, 3)(distance); err != nil {
		return nil, &option.ValueError{Option: "fuzzy distance", Value: distance, Reason: err.Error()}
	}
	pad := strings.Repeat("%", distance)
	return newTerm(pad + escape.Fuzzy(s) + pad), nil
}

// Optional marks a term as optional: "~hello". Matching documents rank
// higher but the term does not filter.
func Optional(s string) Expr { return newTerm("~" + escape.Optional(s)) }

// Raw inserts s untouched. The caller is responsible for escaping.
func Raw(s string) Expr { return newTerm(escape.Nothing(s)) }

// MatchAll matches every document: "*".
func MatchAll() Expr { return matchAll{} }

// ------------
// Combinators
// ------------

func And(xs ...Expr) Expr { return &group{op: opAnd, xs: xs} } // implicit space
func Or(xs ...Expr) Expr  { return &group{op: opOr, xs: xs} }  // |
func Not(x Expr) Expr     { return &not{x} }                   // unary -

// -------------------------------------------------------------------
// internal node types
// -------------------------------------------------------------------

type groupOp uint8

const (
	opAnd groupOp = iota
	opOr
)

type (
	textFacet struct {
		f  string
		vs []string
	}
	tagFacet struct {
		f  string
		vs []string
	}
	rng struct {
		f      string
		lo, hi Bound
	}
	geo struct {
		f                string
		lon, lat, radius float64
		unit             string
	}
	group struct {
		op groupOp
		xs []Expr
	}
	// term holds its rendering s and neg, the rendering used after '-'.
	term struct {
		s, neg string
	}
	not      struct{ x Expr }
	matchAll struct{}
)

func newTerm(s string) *term { return &term{s: s, neg: s} }

func field(f string) string {
	return "@" + escape.FieldName(strings.TrimPrefix(f, "@"))
}
