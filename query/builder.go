package query

import (
	"github.com/manojoshi/redisearch/internal"
)

// -------------------------------------------------------------------
// Builder – fluent top-level query, an implicit AND of everything added
// -------------------------------------------------------------------

// Builder collects facets and terms into one intersection. Facet errors are
// kept until Render, which also resets the builder for the next query.
//
//	q, err := query.NewBuilder().
//	    Text("title", "matrix").
//	    Tag("genre", "sci-fi").
//	    Range("year", query.Inclusive(1999), query.Unbounded()).
//	    Render()
type Builder struct {
	xs  []Expr
	err error
}

// NewBuilder starts an empty query.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) keep(x Expr, err error) *Builder {
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.xs = append(b.xs, x)
	return b
}

// Add appends ready-made expressions.
func (b *Builder) Add(xs ...Expr) *Builder {
	b.xs = append(b.xs, internal.Filter(xs, func(x Expr) bool { return x != nil })...)
	return b
}

// Text adds a text facet. No terms is an error reported by Render.
func (b *Builder) Text(field string, terms ...string) *Builder { return b.keep(Text(field, terms...)) }

// Tag adds a tag facet.
func (b *Builder) Tag(field string, tags ...string) *Builder { return b.keep(Tag(field, tags...)) }

// In adds a tag facet over stringified values.
func (b *Builder) In(field string, vs ...any) *Builder { return b.keep(In(field, vs...)) }

// Range adds a numeric facet.
func (b *Builder) Range(field string, lo, hi Bound) *Builder { return b.Add(Range(field, lo, hi)) }

// Between adds an inclusive numeric facet.
func (b *Builder) Between(field string, lo, hi float64) *Builder {
	return b.Add(Between(field, lo, hi))
}

// Geo adds a radius facet.
func (b *Builder) Geo(field string, lon, lat, radius float64, unit string) *Builder {
	return b.keep(Geo(field, lon, lat, radius, unit))
}

// Term adds an escaped free-text word.
func (b *Builder) Term(s string) *Builder { return b.Add(Word(s)) }

// Raw adds pre-escaped query text.
func (b *Builder) Raw(s string) *Builder { return b.Add(Raw(s)) }

// Or adds a union of xs.
func (b *Builder) Or(xs ...Expr) *Builder { return b.Add(Or(xs...)) }

// Not adds a negated expression.
func (b *Builder) Not(x Expr) *Builder { return b.Add(Not(x)) }

// Err returns the first facet error recorded so far.
func (b *Builder) Err() error { return b.err }

// Expr returns the collected intersection without resetting.
func (b *Builder) Expr() Expr { return And(append([]Expr(nil), b.xs...)...) }

// String previews the query without resetting.
func (b *Builder) String() string {
	if q := Compile(b.Expr()); q != "" {
		return q
	}
	return "*"
}

// Render returns the query string, "*" when nothing was added, and resets
// the builder.
func (b *Builder) Render() (string, error) {
	defer b.Reset()
	if b.err != nil {
		return "", b.err
	}
	return b.String(), nil
}

// Reset drops everything added so far.
func (b *Builder) Reset() { b.xs, b.err = nil, nil }
