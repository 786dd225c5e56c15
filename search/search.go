// Package search assembles FT.SEARCH and decodes its reply.
//
//	res, err := search.NewBuilder("idx:movie").
//	    Where(query.And(title, query.GreaterThan("year", 1990))).
//	    Return("title", "year").
//	    SortBy("year", search.Desc).
//	    Limit(0, 20).
//	    Run(ctx, conn)
package search

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/option"
	"github.com/manojoshi/redisearch/query"
)

// ErrNoIndexName is returned when a command is assembled without an index.
var ErrNoIndexName = errors.New("search: index name is required")

// Dir is a SORTBY direction.
type Dir string

const (
	Asc  Dir = "ASC"
	Desc Dir = "DESC"
)

// Summary configures SUMMARIZE. Zero values are left to the server.
type Summary struct {
	Fields    []string
	Frags     int64
	Len       int64
	Separator string
}

// Builder assembles FT.SEARCH. Options render in this order whatever the
// order of the setter calls:
//
//	FT.SEARCH idx query [NOCONTENT] [VERBATIM] [NOSTOPWORDS] [WITHSCORES]
//	    [WITHPAYLOADS] [WITHSORTKEYS] [FILTER f min max]...
//	    [GEOFILTER f lon lat r unit]... [INKEYS n k...] [INFIELDS n f...]
//	    [RETURN n f [AS a]...] [SUMMARIZE ...] [HIGHLIGHT ...] [SLOP s]
//	    [TIMEOUT ms] [INORDER] [LANGUAGE l] [EXPANDER e] [SCORER s]
//	    [PAYLOAD p] [SORTBY f [ASC|DESC]] [LIMIT o n] [PARAMS n k v...]
//	    [DIALECT d]
type Builder struct {
	index   string
	query   string
	version *semver.Version
	err     error

	noContent    *option.Flag
	verbatim     *option.Flag
	noStopWords  *option.Flag
	withScores   *option.Flag
	withPayloads *option.Flag
	withSortKeys *option.Flag

	filters    []option.Option
	geoFilters []option.Option

	inKeys   *option.Numbered
	inFields *option.Numbered
	ret      *option.Numbered

	summarize *option.Group
	highlight *option.Group

	slop     *option.Validated[int64]
	timeout  *option.Validated[int64]
	inOrder  *option.Flag
	language *option.Validated[string]
	expander *option.Named[string]
	scorer   *option.Named[string]
	payload  *option.Named[string]

	sortBy    *option.Group
	sortField *option.Nameless[string]
	sortDir   *option.Validated[string]

	limit   *option.Limit
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

	b.noContent = option.NewFlag("NOCONTENT")
	b.verbatim = option.NewFlag("VERBATIM")
	b.noStopWords = option.NewFlag("NOSTOPWORDS")
	b.withScores = option.NewFlag("WITHSCORES")
	b.withPayloads = option.NewFlag("WITHPAYLOADS")
	b.withSortKeys = option.NewFlag("WITHSORTKEYS")

	b.filters, b.geoFilters = nil, nil

	b.inKeys = option.NewNumbered("INKEYS")
	b.inFields = option.NewNumbered("INFIELDS")
	b.ret = option.NewNumbered("RETURN")

	b.summarize = option.NewGroup("SUMMARIZE").Lead("SUMMARIZE")
	b.highlight = option.NewGroup("HIGHLIGHT").Lead("HIGHLIGHT")

	b.slop = option.NewValidated("SLOP", option.NonNegative[int64]())
	b.timeout = option.NewValidated("TIMEOUT", option.NonNegative[int64]())
	b.inOrder = option.NewFlag("INORDER")
	b.language = option.NewValidated("LANGUAGE", option.Language())
	b.expander = option.NewNamed[string]("EXPANDER")
	b.scorer = option.NewNamed[string]("SCORER")
	b.payload = option.NewNamed[string]("PAYLOAD")

	b.sortField = option.NewNameless[string]()
	b.sortDir = option.Validate[string]("SORTBY direction", option.NewNameless[string](),
		option.OneOf(string(Asc), string(Desc)))
	b.sortBy = option.NewGroup("SORTBY").Lead("SORTBY").
		Require("field", option.NotEmpty(b.sortField)).
		Add("direction", b.sortDir).
		Enable()

	b.limit = option.NewLimit()
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

func (b *Builder) NoContent() *Builder    { b.noContent.Set(true); return b }
func (b *Builder) Verbatim() *Builder     { b.verbatim.Set(true); return b }
func (b *Builder) NoStopWords() *Builder  { b.noStopWords.Set(true); return b }
func (b *Builder) WithScores() *Builder   { b.withScores.Set(true); return b }
func (b *Builder) WithPayloads() *Builder { b.withPayloads.Set(true); return b }
func (b *Builder) WithSortKeys() *Builder { b.withSortKeys.Set(true); return b }
func (b *Builder) InOrder() *Builder      { b.inOrder.Set(true); return b }

// Filter keeps documents whose numeric field lies in [lo, hi]. Pass
// math.Inf for an open end.
func (b *Builder) Filter(field string, lo, hi float64) *Builder {
	if field == "" {
		return b.fail(errors.New("search: FILTER needs a field"))
	}
	if lo > hi {
		return b.fail(&option.ValueError{Option: "FILTER " + field, Value: lo, Reason: "min is above max"})
	}
	b.filters = append(b.filters, fragment{option.Str("FILTER"), option.Str(field), bound(lo), bound(hi)})
	return b
}

// GeoFilter keeps documents within radius of lon/lat.
func (b *Builder) GeoFilter(field string, lon, lat, radius float64, unit string) *Builder {
	if err := option.OneOf(query.GeoUnits...)(unit); err != nil {
		return b.fail(&option.ValueError{Option: "GEOFILTER unit", Value: unit, Reason: err.Error()})
	}
	if radius < 0 {
		return b.fail(&option.ValueError{Option: "GEOFILTER radius", Value: radius, Reason: "must not be negative"})
	}
	b.geoFilters = append(b.geoFilters, fragment{option.Str("GEOFILTER"), option.Str(field),
		option.Float(lon), option.Float(lat), option.Float(radius), option.Str(unit)})
	return b
}

// InKeys limits the search to the given document keys.
func (b *Builder) InKeys(keys ...string) *Builder { b.inKeys.AddStrings(keys...); return b }

// InFields limits term matching to the given TEXT fields.
func (b *Builder) InFields(fields ...string) *Builder { b.inFields.AddStrings(fields...); return b }

// Return limits the returned fields.
func (b *Builder) Return(fields ...string) *Builder { b.ret.AddStrings(fields...); return b }

// ReturnAs returns field under alias.
func (b *Builder) ReturnAs(field, alias string) *Builder {
	b.ret.AddStrings(field, "AS", alias)
	return b
}

// Summarize returns fragments of the matching text fields.
func (b *Builder) Summarize(s Summary) *Builder {
	g := option.NewGroup("SUMMARIZE").Lead("SUMMARIZE").Enable()
	if len(s.Fields) > 0 {
		g.Add("FIELDS", option.NewNumbered("FIELDS").AddStrings(s.Fields...))
	}
	for _, o := range []struct {
		kw string
		v  int64
	}{{"FRAGS", s.Frags}, {"LEN", s.Len}} {
		if o.v < 0 {
			return b.fail(&option.ValueError{Option: "SUMMARIZE " + o.kw, Value: o.v, Reason: "must not be negative"})
		}
		if o.v > 0 {
			n := option.NewNamed[int64](o.kw)
			n.Set(o.v)
			g.Add(o.kw, n)
		}
	}
	if s.Separator != "" {
		sep := option.NewNamed[string]("SEPARATOR")
		sep.Set(s.Separator)
		g.Add("SEPARATOR", sep)
	}
	b.summarize = g
	return b
}

// Highlight wraps matched terms of fields (every field when none given) in
// open and close tags. Tags are sent only when both are set.
func (b *Builder) Highlight(fields []string, openTag, closeTag string) *Builder {
	g := option.NewGroup("HIGHLIGHT").Lead("HIGHLIGHT").Enable()
	if len(fields) > 0 {
		g.Add("FIELDS", option.NewNumbered("FIELDS").AddStrings(fields...))
	}
	if openTag != "" || closeTag != "" {
		if openTag == "" || closeTag == "" {
			return b.fail(&option.IncompleteError{Group: "HIGHLIGHT TAGS", Missing: []string{"open", "close"}})
		}
		o, c := option.NewNameless[string](), option.NewNameless[string]()
		o.Set(openTag)
		c.Set(closeTag)
		g.Add("TAGS", option.NewGroup("TAGS").Lead("TAGS").Require("open", o).Require("close", c).Enable())
	}
	b.highlight = g
	return b
}

// Slop allows up to n unmatched terms between phrase terms.
func (b *Builder) Slop(n int64) *Builder { return b.fail(b.slop.Set(n)) }

// Timeout overrides the server query timeout, in milliseconds.
func (b *Builder) Timeout(ms int64) *Builder { return b.fail(b.timeout.Set(ms)) }

// Language sets the stemming language of the query.
func (b *Builder) Language(lang string) *Builder { return b.fail(b.language.Set(lang)) }

func (b *Builder) Expander(name string) *Builder { b.expander.Set(name); return b }
func (b *Builder) Scorer(name string) *Builder   { b.scorer.Set(name); return b }
func (b *Builder) Payload(p string) *Builder     { b.payload.Set(p); return b }

// SortBy orders results by a sortable field. The zero Dir leaves the
// direction to the server; anything but Asc or Desc is an error.
func (b *Builder) SortBy(field string, dir Dir) *Builder {
	b.sortField.Set(field)
	if dir == "" {
		return b
	}
	return b.fail(b.sortDir.Set(string(dir)))
}

// Limit pages the results.
func (b *Builder) Limit(offset, size int64) *Builder {
	if offset < 0 || size < 0 {
		return b.fail(&option.ValueError{Option: "LIMIT", Value: fmt.Sprintf("%d %d", offset, size), Reason: "must not be negative"})
	}
	b.limit.Set(offset, size)
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

// Args returns the full FT.SEARCH command.
func (b *Builder) Args() (option.Tokens, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.index == "" {
		return nil, ErrNoIndexName
	}

	v := b.version
	out := option.Strs("FT.SEARCH", b.index, b.query)
	opts := []option.Option{b.noContent, b.verbatim, b.noStopWords, b.withScores, b.withPayloads, b.withSortKeys}
	opts = append(opts, b.filters...)
	opts = append(opts, b.geoFilters...)
	opts = append(opts,
		b.inKeys, b.inFields, b.ret, b.summarize, b.highlight,
		b.slop, b.timeout, b.inOrder, b.language, b.expander, b.scorer, b.payload,
		b.sortBy, b.limit, b.params, b.dialect,
	)
	for _, o := range opts {
		if o.Valid() {
			out = append(out, o.Render(v)...)
		}
	}
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

// Shape describes the reply layout the current options produce.
func (b *Builder) Shape() Shape {
	return Shape{
		NoContent:    b.noContent.On(),
		WithScores:   b.withScores.On(),
		WithPayloads: b.withPayloads.On(),
		WithSortKeys: b.withSortKeys.On(),
	}
}

// Run sends FT.SEARCH and decodes the reply. On success the builder is
// reset.
func (b *Builder) Run(ctx context.Context, exec driver.Executor) (*Result, error) {
	args, err := b.Args()
	if err != nil {
		return nil, err
	}
	raw, err := exec.Do(ctx, args.Args()...)
	if err != nil {
		return nil, fmt.Errorf("search: FT.SEARCH %s: %w", b.index, driver.MapError(err))
	}
	res, err := ParseResult(raw, b.Shape())
	if err != nil {
		return nil, err
	}
	b.Reset()
	return res, nil
}

// fragment is a fixed run of tokens.
type fragment option.Tokens

func (f fragment) Valid() bool                          { return len(f) > 0 }
func (f fragment) Render(*semver.Version) option.Tokens { return option.Tokens(f) }

func bound(f float64) option.Token {
	switch {
	case math.IsInf(f, 1):
		return option.Str("+inf")
	case math.IsInf(f, -1):
		return option.Str("-inf")
	default:
		return option.Float(f)
	}
}
