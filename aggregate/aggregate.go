// Package aggregate assembles FT.AGGREGATE pipelines and the FT.CURSOR
// commands that page through them.
//
//	top, _ := aggregate.SortBy([]aggregate.SortKey{{Property: "n", Dir: aggregate.Desc}}, 10)
//	res, err := aggregate.NewBuilder("idx:orders").
//	    Where(query.Eq("status", "PAID")).
//	    GroupBy([]string{"city"}, aggregate.Count().As("n")).
//	    Step(top).
//	    Run(ctx, conn)
//
// Steps (GROUPBY, SORTBY, APPLY, FILTER, LIMIT) render in the order they were
// added; the server runs them as a pipeline in that order.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/option"
	"github.com/manojoshi/redisearch/query"
)

// ErrNoIndexName is returned when a command is assembled without an index.
var ErrNoIndexName = errors.New("aggregate: index name is required")

// Builder assembles FT.AGGREGATE:
//
//	FT.AGGREGATE idx query [VERBATIM] [LOAD n @p...] [TIMEOUT ms]
//	    steps... [WITHCURSOR [COUNT c] [MAXIDLE ms]] [PARAMS n k v...]
//	    [DIALECT d]
//
// The first invalid value given to a setter is kept and reported by Args
// and Run.
type Builder struct {
	index   string
	query   string
	version *semver.Version
	err     error

	verbatim *option.Flag
	load     *option.Numbered
	loadAll  bool
	timeout  *option.Validated[int64]
	steps    []option.Option

	cursor      *option.Group
	cursorCount *option.Named[int64]
	maxIdle     *option.Named[int64]

	params  *option.Numbered
	dialect *option.Validated[int64]
}

// NewBuilder returns a builder over index matching every document.
func NewBuilder(index string) *Builder {
	b := &Builder{index: index}
	b.init()
	return b
}

func (b *Builder) init() {
	b.query = "*"
	b.err = nil
	b.verbatim = option.NewFlag("VERBATIM")
	b.load = option.NewNumbered("LOAD")
	b.loadAll = false
	b.timeout = option.NewValidated("TIMEOUT", option.NonNegative[int64]())
	b.steps = nil

	b.cursorCount = option.NewNamed[int64]("COUNT")
	b.maxIdle = option.NewNamed[int64]("MAXIDLE")
	b.cursor = option.NewGroup("WITHCURSOR").Lead("WITHCURSOR").
		Add("COUNT", b.cursorCount).
		Add("MAXIDLE", b.maxIdle)

	b.params = option.NewNumbered("PARAMS")
	b.dialect = option.NewValidated("DIALECT", option.Positive[int64]())
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil && err != nil {
		b.err = err
	}
	return b
}

// Index sets the index name.
func (b *Builder) Index(name string) *Builder { b.index = name; return b }

// Version sets the target server version used for version-gated keywords.
func (b *Builder) Version(v *semver.Version) *Builder { b.version = v; return b }

// Query sets a raw query string. An empty string matches everything.
func (b *Builder) Query(q string) *Builder {
	if q == "" {
		q = "*"
	}
	b.query = q
	return b
}

// Where compiles e into the query string.
func (b *Builder) Where(e query.Expr) *Builder { return b.Query(query.Compile(e)) }

// Verbatim disables stemming of query terms.
func (b *Builder) Verbatim() *Builder { b.verbatim.Set(true); return b }

// Load loads document properties that are not sortable attributes.
func (b *Builder) Load(properties ...string) *Builder {
	for _, p := range properties {
		b.load.AddTokens(prop(p))
	}
	return b
}

// LoadAll loads every document property: LOAD *.
func (b *Builder) LoadAll() *Builder { b.loadAll = true; return b }

// Timeout overrides the server query timeout, in milliseconds.
func (b *Builder) Timeout(ms int64) *Builder { return b.fail(b.timeout.Set(ms)) }

// Step appends ready-made pipeline steps. Steps that are incomplete are
// rejected.
func (b *Builder) Step(steps ...option.Option) *Builder {
	for _, s := range steps {
		if s == nil {
			return b.fail(errors.New("aggregate: nil step"))
		}
		if v, ok := s.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return b.fail(fmt.Errorf("aggregate: step %d: %w", len(b.steps), err))
			}
		}
		if !s.Valid() {
			return b.fail(fmt.Errorf("aggregate: step %d is incomplete", len(b.steps)))
		}
		b.steps = append(b.steps, s)
	}
	return b
}

// GroupBy appends a GROUPBY step.
func (b *Builder) GroupBy(properties []string, reducers ...Reducer) *Builder {
	return b.Step(GroupBy(properties, reducers...))
}

// SortBy appends a SORTBY step.
func (b *Builder) SortBy(keys []SortKey, top int64) *Builder {
	s, err := SortBy(keys, top)
	if err != nil {
		return b.fail(err)
	}
	return b.Step(s)
}

// Apply appends an APPLY step.
func (b *Builder) Apply(expr, alias string) *Builder { return b.Step(Apply(expr, alias)) }

// Filter appends a FILTER step.
func (b *Builder) Filter(expr string) *Builder { return b.Step(Filter(expr)) }

// Limit appends a LIMIT step.
func (b *Builder) Limit(offset, size int64) *Builder { return b.Step(Limit(offset, size)) }

// WithCursor asks for a cursor. count and maxIdle are sent when positive.
func (b *Builder) WithCursor(count, maxIdle int64) *Builder {
	b.cursor.Enable()
	if count > 0 {
		b.cursorCount.Set(count)
	}
	if maxIdle > 0 {
		b.maxIdle.Set(maxIdle)
	}
	return b
}

// Param binds a query parameter referenced as $name.
func (b *Builder) Param(name string, value any) *Builder {
	return b.fail(b.params.Add(name, value))
}

// Dialect selects the query dialect.
func (b *Builder) Dialect(d int64) *Builder { return b.fail(b.dialect.Set(d)) }

// Err returns the first setter error.
func (b *Builder) Err() error { return b.err }

// Args returns the full FT.AGGREGATE command.
func (b *Builder) Args() (option.Tokens, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.index == "" {
		return nil, ErrNoIndexName
	}

	v := b.version
	out := option.Strs("FT.AGGREGATE", b.index, b.query)
	out = append(out, b.verbatim.Render(v)...)
	if b.loadAll {
		out = append(out, option.Str("LOAD"), option.Str("*"))
	} else {
		out = append(out, b.load.Render(v)...)
	}
	out = append(out, b.timeout.Render(v)...)
	for _, s := range b.steps {
		out = append(out, s.Render(v)...)
	}
	out = append(out, b.cursor.Render(v)...)
	out = append(out, b.params.Render(v)...)
	out = append(out, b.dialect.Render(v)...)
	return out, nil
}

// String previews the command, or the setter error.
func (b *Builder) String() string {
	args, err := b.Args()
	if err != nil {
		return err.Error()
	}
	return args.String()
}

// Reset drops everything but the index name and target version.
func (b *Builder) Reset() { b.init() }

// Run sends FT.AGGREGATE and decodes the rows. On success the builder is
// reset.
func (b *Builder) Run(ctx context.Context, exec driver.Executor) (*Result, error) {
	args, err := b.Args()
	if err != nil {
		return nil, err
	}
	raw, err := exec.Do(ctx, args.Args()...)
	if err != nil {
		return nil, fmt.Errorf("aggregate: FT.AGGREGATE %s: %w", b.index, driver.MapError(err))
	}
	res, err := ParseResult(raw, b.cursor.Enabled())
	if err != nil {
		return nil, err
	}
	b.Reset()
	return res, nil
}

// -------------------------------------------------------------------
// FT.CURSOR
// -------------------------------------------------------------------

// ReadCursorArgs returns `FT.CURSOR READ idx cursor [COUNT n]`.
func ReadCursorArgs(index string, cursor, count int64) (option.Tokens, error) {
	if index == "" {
		return nil, ErrNoIndexName
	}
	out := option.Tokens{option.Str("FT.CURSOR"), option.Str("READ"), option.Str(index), option.Int(cursor)}
	if count > 0 {
		out = append(out, option.Str("COUNT"), option.Int(count))
	}
	return out, nil
}

// ReadCursor fetches the next batch of a cursor opened with WithCursor.
func ReadCursor(ctx context.Context, exec driver.Executor, index string, cursor, count int64) (*Result, error) {
	args, err := ReadCursorArgs(index, cursor, count)
	if err != nil {
		return nil, err
	}
	raw, err := exec.Do(ctx, args.Args()...)
	if err != nil {
		return nil, fmt.Errorf("aggregate: FT.CURSOR READ %s %d: %w", index, cursor, driver.MapError(err))
	}
	return ParseResult(raw, true)
}

// DeleteCursor releases a cursor before it is exhausted.
func DeleteCursor(ctx context.Context, exec driver.Executor, index string, cursor int64) error {
	if index == "" {
		return ErrNoIndexName
	}
	if _, err := exec.Do(ctx, "FT.CURSOR", "DEL", index, cursor); err != nil {
		return fmt.Errorf("aggregate: FT.CURSOR DEL %s %d: %w", index, cursor, driver.MapError(err))
	}
	return nil
}
