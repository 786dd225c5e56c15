package aggregate

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/manojoshi/redisearch/option"
)

// prop returns field as a property reference, "@" prefixed.
func prop(field string) option.Token {
	if !strings.HasPrefix(field, "@") {
		field = "@" + field
	}
	return option.Str(field)
}

// Dir is a sort direction.
type Dir string

const (
	Asc  Dir = "ASC"
	Desc Dir = "DESC"
)

// DirectionError lists the sort directions that are neither ASC nor DESC.
type DirectionError struct {
	Values []string
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("aggregate: unknown sort direction: %s", strings.Join(e.Values, ", "))
}

// normalize accepts the zero Dir, Asc and Desc. Matching is case sensitive.
func (d Dir) normalize() (Dir, error) {
	switch d {
	case "", Asc, Desc:
		return d, nil
	default:
		return "", &DirectionError{Values: []string{string(d)}}
	}
}

// -------------------------------------------------------------------
// GROUPBY
// -------------------------------------------------------------------

// Group is a `GROUPBY n @p... REDUCE ...` step. An empty property list is
// valid and groups every record together.
type Group struct {
	props    *option.Numbered
	reducers []Reducer
}

// GroupBy groups records by properties and reduces each group.
func GroupBy(properties []string, reducers ...Reducer) *Group {
	g := &Group{props: option.NewNumbered("GROUPBY").AllowEmpty()}
	for _, p := range properties {
		g.props.AddTokens(prop(p))
	}
	return g.Reduce(reducers...)
}

// Reduce appends reducers.
func (g *Group) Reduce(reducers ...Reducer) *Group {
	g.reducers = append(g.reducers, reducers...)
	return g
}

// Reducers returns the group's reducers.
func (g *Group) Reducers() []Reducer { return append([]Reducer(nil), g.reducers...) }

func (g *Group) Valid() bool { return true }

func (g *Group) Render(v *semver.Version) option.Tokens {
	out := g.props.Render(v)
	for _, r := range g.reducers {
		out = append(out, r.Render()...)
	}
	return out
}

func (g *Group) String() string { return g.Render(nil).String() }

// -------------------------------------------------------------------
// SORTBY
// -------------------------------------------------------------------

// SortKey orders by one property. An empty Dir lets the server pick.
type SortKey struct {
	Property string
	Dir      Dir
}

// Sort is a `SORTBY n @p [ASC|DESC]... [MAX m]` step, n counting every
// token after it.
type Sort struct {
	keys *option.Numbered
	max  *option.Named[int64]
}

// SortBy orders records by keys, keeping at most top of them when top > 0.
// Every direction is checked; a *DirectionError names all the bad ones.
func SortBy(keys []SortKey, top int64) (*Sort, error) {
	s := &Sort{
		keys: option.NewNumbered("SORTBY").AllowEmpty(),
		max:  option.NewNamed[int64]("MAX"),
	}
	var bad []string
	for _, k := range keys {
		d, err := k.Dir.normalize()
		if err != nil {
			bad = append(bad, string(k.Dir))
			continue
		}
		s.keys.AddTokens(prop(k.Property))
		if d != "" {
			s.keys.AddTokens(option.Str(string(d)))
		}
	}
	if len(bad) > 0 {
		return nil, &DirectionError{Values: bad}
	}
	if top > 0 {
		s.max.Set(top)
	}
	return s, nil
}

func (s *Sort) Valid() bool { return true }

func (s *Sort) Render(v *semver.Version) option.Tokens {
	return append(s.keys.Render(v), s.max.Render(v)...)
}

func (s *Sort) String() string { return s.Render(nil).String() }

// -------------------------------------------------------------------
// APPLY / FILTER / LIMIT
// -------------------------------------------------------------------

// Apply evaluates expr per record and stores it as alias:
// `APPLY expr AS alias`. Both parts are required.
func Apply(expr, alias string) *option.Group {
	e := option.NewNameless[string]()
	a := option.NewNamed[string]("AS")
	if expr != "" {
		e.Set(expr)
	}
	if alias != "" {
		a.Set(alias)
	}
	return option.NewGroup("APPLY").Lead("APPLY").
		Require("expression", option.NotEmpty(e)).
		Require("AS", option.NotEmpty(a)).
		Enable()
}

// Filter drops records not matching expr: `FILTER expr`.
func Filter(expr string) *option.Group {
	e := option.NewNameless[string]()
	if expr != "" {
		e.Set(expr)
	}
	return option.NewGroup("FILTER").Lead("FILTER").
		Require("expression", option.NotEmpty(e)).
		Enable()
}

// Limit pages the records: `LIMIT offset size`.
func Limit(offset, size int64) *option.Limit {
	return option.NewLimit().Set(offset, size)
}
