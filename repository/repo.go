// Package repository offers a thin, type-safe façade on top of the lower-level
// builders in the search and aggregate packages. It follows the
// functional-options pattern so callers can keep code terse while still
// reaching every RediSearch option through the builders.
//
//	repo := repository.New("order_idx", conn)
//	wh, _ := q.In("warehouse_id", 45, 46)
//	res, err := repo.Search(ctx,
//	    q.And(q.Eq("status", "PENDING"), wh),
//	    repository.Select("order_id", "qty"),
//	    repository.SortAsc("promise_ts"),
//	    repository.Limit(0, 1000),
//	)
package repository

import (
	"context"

	"github.com/manojoshi/redisearch/aggregate"
	"github.com/manojoshi/redisearch/driver"
	q "github.com/manojoshi/redisearch/query"
	"github.com/manojoshi/redisearch/scan"
	"github.com/manojoshi/redisearch/search"
)

// Repository binds a RediSearch index to a transport.
type Repository struct {
	index string
	exec  driver.Executor
}

// New constructs a repository bound to a RediSearch index.
func New(index string, exec driver.Executor) *Repository {
	return &Repository{index: index, exec: exec}
}

// Index returns the bound index name.
func (r *Repository) Index() string { return r.index }

// -------------------------------------------------------------------
// SEARCH
// -------------------------------------------------------------------

// Search executes FT.SEARCH using the provided where Expr and any search
// options (Select, SortAsc, Limit, …). A nil where matches everything.
func (r *Repository) Search(ctx context.Context, where q.Expr, opts ...Opt) (*search.Result, error) {
	sb := search.NewBuilder(r.index).Where(where)
	for _, opt := range opts {
		opt.applySearch(sb)
	}
	return sb.Run(ctx, r.exec)
}

// Find runs Search and decodes every document into T, a struct tagged with
// `redisearch:"field"` or map[string]string.
func Find[T any](ctx context.Context, r *Repository, where q.Expr, opts ...Opt) ([]T, error) {
	res, err := r.Search(ctx, where, opts...)
	if err != nil {
		return nil, err
	}
	return search.Decode[T](res)
}

// -------------------------------------------------------------------
// AGGREGATE
// -------------------------------------------------------------------

// Aggregate runs FT.AGGREGATE. Caller supplies group-by properties and
// reducers through Group, Count, Sum, Avg and Reduce; the other options
// become pipeline steps in the order given.
func (r *Repository) Aggregate(ctx context.Context, where q.Expr, opts ...Opt) ([]map[string]string, error) {
	plan := &aggPlan{}
	for _, opt := range opts {
		opt.applyAgg(plan)
	}
	res, err := plan.build(aggregate.NewBuilder(r.index).Where(where)).Run(ctx, r.exec)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// AggregateInto runs Aggregate and decodes every row into T.
func AggregateInto[T any](ctx context.Context, r *Repository, where q.Expr, opts ...Opt) ([]T, error) {
	rows, err := r.Aggregate(ctx, where, opts...)
	if err != nil {
		return nil, err
	}
	return scan.DecodeSlice[T](rows)
}
