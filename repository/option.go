package repository

import (
	"github.com/manojoshi/redisearch/aggregate"
	"github.com/manojoshi/redisearch/search"
)

// Opt is applied to whichever builder is in play. If the helper doesn't make
// sense for that builder the method is left nil and becomes a no-op.
type Opt interface {
	applySearch(*search.Builder)
	applyAgg(*aggPlan)
}

// aggPlan collects aggregate options. Grouping is gathered first so that
// Group and the reducer helpers can be passed in any order; every other
// step is replayed in call order after the GROUPBY.
type aggPlan struct {
	groupBy  []string
	grouped  bool
	reducers []aggregate.Reducer
	after    []func(*aggregate.Builder)
}

func (p *aggPlan) build(b *aggregate.Builder) *aggregate.Builder {
	if p.grouped || len(p.reducers) > 0 {
		b.GroupBy(p.groupBy, p.reducers...)
	}
	for _, f := range p.after {
		f(b)
	}
	return b
}

// optFunc is a concrete Opt implementation that holds functions for
// each builder.
type optFunc struct {
	search func(*search.Builder)
	agg    func(*aggPlan)
}

// applySearch applies the Opt to the search builder if it is not nil.
func (o optFunc) applySearch(b *search.Builder) {
	if o.search != nil {
		o.search(b)
	}
}

// applyAgg applies the Opt to the aggregate plan if it is not nil.
func (o optFunc) applyAgg(p *aggPlan) {
	if o.agg != nil {
		o.agg(p)
	}
}

func step(f func(*aggregate.Builder)) func(*aggPlan) {
	return func(p *aggPlan) { p.after = append(p.after, f) }
}

// ---------- COMMON helpers ----------

// Select limits the returned fields: RETURN for FT.SEARCH, LOAD for
// FT.AGGREGATE.
func Select(fields ...string) Opt {
	return optFunc{
		search: func(b *search.Builder) { b.Return(fields...) },
		agg:    step(func(b *aggregate.Builder) { b.Load(fields...) }),
	}
}

// Limit pages FT.SEARCH results or appends a LIMIT step to FT.AGGREGATE.
func Limit(offset, size int64) Opt {
	return optFunc{
		search: func(b *search.Builder) { b.Limit(offset, size) },
		agg:    step(func(b *aggregate.Builder) { b.Limit(offset, size) }),
	}
}

// SortAsc SORT
func SortAsc(field string) Opt  { return sortOpt(field, search.Asc, aggregate.Asc) }
func SortDesc(field string) Opt { return sortOpt(field, search.Desc, aggregate.Desc) }

func sortOpt(f string, sd search.Dir, ad aggregate.Dir) Opt {
	return optFunc{
		search: func(b *search.Builder) { b.SortBy(f, sd) },
		agg: step(func(b *aggregate.Builder) {
			b.SortBy([]aggregate.SortKey{{Property: f, Dir: ad}}, 0)
		}),
	}
}

// Verbatim disables stemming of the query terms.
func Verbatim() Opt {
	return optFunc{
		search: func(b *search.Builder) { b.Verbatim() },
		agg:    step(func(b *aggregate.Builder) { b.Verbatim() }),
	}
}

// Param binds $name in the query.
func Param(name string, value any) Opt {
	return optFunc{
		search: func(b *search.Builder) { b.Param(name, value) },
		agg:    step(func(b *aggregate.Builder) { b.Param(name, value) }),
	}
}

// Dialect selects the query dialect.
func Dialect(d int64) Opt {
	return optFunc{
		search: func(b *search.Builder) { b.Dialect(d) },
		agg:    step(func(b *aggregate.Builder) { b.Dialect(d) }),
	}
}

// SEARCH-only helpers

func WithScores() Opt { return optFunc{search: func(b *search.Builder) { b.WithScores() }} }

func NoContent() Opt { return optFunc{search: func(b *search.Builder) { b.NoContent() }} }

func Highlight(fields ...string) Opt {
	return optFunc{search: func(b *search.Builder) { b.Highlight(fields, "", "") }}
}

// AGGREGATE-only helpers

func Group(properties ...string) Opt {
	return optFunc{
		agg: func(p *aggPlan) {
			p.grouped = true
			p.groupBy = append(p.groupBy, properties...)
		},
	}
}

// Reduce adds any reducer to the GROUPBY step.
func Reduce(r aggregate.Reducer) Opt {
	return optFunc{
		agg: func(p *aggPlan) { p.reducers = append(p.reducers, r) },
	}
}

func Count(alias string) Opt      { return Reduce(aggregate.Count().As(alias)) }
func Sum(field, alias string) Opt { return Reduce(aggregate.Sum(field).As(alias)) }
func Avg(field, alias string) Opt { return Reduce(aggregate.Average(field).As(alias)) }

func Apply(expr, alias string) Opt {
	return optFunc{agg: step(func(b *aggregate.Builder) { b.Apply(expr, alias) })}
}

func Filter(expr string) Opt {
	return optFunc{agg: step(func(b *aggregate.Builder) { b.Filter(expr) })}
}
