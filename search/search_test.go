package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/internal/drivertest"
	"github.com/manojoshi/redisearch/option"
	"github.com/manojoshi/redisearch/query"
	"github.com/manojoshi/redisearch/scan"
)

func TestBuilderArgsOrder(t *testing.T) {
	t.Parallel()
	b := NewBuilder("idx:movie").
		Query("@title:matrix").
		Dialect(2).
		Param("lim", 5).
		Limit(0, 10).
		SortBy("year", Desc).
		Payload("p").
		Scorer("BM25").
		Expander("SYNONYM").
		Language("english").
		InOrder().
		Timeout(100).
		Slop(1).
		Highlight([]string{"title"}, "<b>", "</b>").
		Summarize(Summary{Fields: []string{"plot"}, Frags: 3, Len: 20, Separator: "..."}).
		Return("title").
		ReturnAs("year", "y").
		InFields("title").
		InKeys("movie:1", "movie:2").
		GeoFilter("loc", -122.4, 37.7, 10, "km").
		Filter("year", 1990, math.Inf(1)).
		WithSortKeys().
		WithPayloads().
		WithScores().
		NoStopWords().
		Verbatim().
		NoContent()
	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, "FT.SEARCH idx:movie @title:matrix NOCONTENT VERBATIM NOSTOPWORDS WITHSCORES "+
		"WITHPAYLOADS WITHSORTKEYS FILTER year 1990 +inf GEOFILTER loc -122.4 37.7 10 km "+
		"INKEYS 2 movie:1 movie:2 INFIELDS 1 title RETURN 4 title year AS y "+
		"SUMMARIZE FIELDS 1 plot FRAGS 3 LEN 20 SEPARATOR ... HIGHLIGHT FIELDS 1 title TAGS <b> </b> "+
		"SLOP 1 TIMEOUT 100 INORDER LANGUAGE english EXPANDER SYNONYM SCORER BM25 PAYLOAD p "+
		"SORTBY year DESC LIMIT 0 10 PARAMS 2 lim 5 DIALECT 2", args.String())
	assert.Equal(t, Shape{NoContent: true, WithScores: true, WithPayloads: true, WithSortKeys: true}, b.Shape())
}

func TestBuilderMinimal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		b    *Builder
		want string
	}{
		{"match all", NewBuilder("idx"), "FT.SEARCH idx *"},
		{"empty where", NewBuilder("idx").Where(query.Or()), "FT.SEARCH idx *"},
		{"where", NewBuilder("idx").Where(query.Eq("genre", "drama")), "FT.SEARCH idx @genre:{drama}"},
		{"bare summarize", NewBuilder("idx").Summarize(Summary{}), "FT.SEARCH idx * SUMMARIZE"},
		{"bare highlight", NewBuilder("idx").Highlight(nil, "", ""), "FT.SEARCH idx * HIGHLIGHT"},
		{"sort default dir", NewBuilder("idx").SortBy("year", ""), "FT.SEARCH idx * SORTBY year"},
		{"open filter", NewBuilder("idx").Filter("n", math.Inf(-1), 5), "FT.SEARCH idx * FILTER n -inf 5"},
		{"two filters", NewBuilder("idx").Filter("a", 1, 2).Filter("b", 3, 4), "FT.SEARCH idx * FILTER a 1 2 FILTER b 3 4"},
		{"limit zero size", NewBuilder("idx").Limit(10, 0), "FT.SEARCH idx * LIMIT 10 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.b.String())
		})
	}
}

func TestBuilderErrors(t *testing.T) {
	t.Parallel()
	_, err := NewBuilder("").Args()
	assert.ErrorIs(t, err, ErrNoIndexName)

	var ve *option.ValueError
	tests := []struct {
		name string
		b    *Builder
	}{
		{"geo unit", NewBuilder("idx").GeoFilter("loc", 0, 0, 1, "parsec")},
		{"geo radius", NewBuilder("idx").GeoFilter("loc", 0, 0, -1, "m")},
		{"filter bounds", NewBuilder("idx").Filter("n", 5, 1)},
		{"sort dir", NewBuilder("idx").SortBy("year", "UP")},
		{"sort dir case", NewBuilder("idx").SortBy("year", "desc")},
		{"language", NewBuilder("idx").Language("klingon")},
		{"limit", NewBuilder("idx").Limit(-1, 10)},
		{"frags", NewBuilder("idx").Summarize(Summary{Frags: -1})},
		{"dialect", NewBuilder("idx").Dialect(0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.b.Args()
			assert.ErrorAs(t, err, &ve)
		})
	}

	_, err = NewBuilder("idx").Highlight(nil, "<b>", "").Args()
	var ie *option.IncompleteError
	assert.ErrorAs(t, err, &ie)

	_, err = NewBuilder("idx").Filter("", 1, 2).Args()
	assert.Error(t, err)
}

func TestRunRESP2(t *testing.T) {
	t.Parallel()
	rec := drivertest.New([]interface{}{
		int64(7),
		"movie:1", "1.5", []interface{}{"title", "Matrix", "year", "1999"},
		"movie:2", "0.5", []interface{}{"title", "Heat", "year", "1995"},
	})
	b := NewBuilder("idx").Query("action").WithScores().Limit(0, 2)
	res, err := b.Run(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Total)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, Document{ID: "movie:1", Score: 1.5, Fields: map[string]string{"title": "Matrix", "year": "1999"}}, res.Documents[0])
	assert.Equal(t, []any{"FT.SEARCH", "idx", "action", "WITHSCORES", "LIMIT", int64(0), int64(2)}, rec.Last())
	assert.Equal(t, "FT.SEARCH idx *", b.String(), "builder resets after a run")

	type movie struct {
		Title string `redisearch:"@title"`
		Year  int    `redisearch:"year"`
	}
	movies, err := Decode[movie](res)
	require.NoError(t, err)
	assert.Equal(t, []movie{{"Matrix", 1999}, {"Heat", 1995}}, movies)
}

func TestParseResult(t *testing.T) {
	t.Parallel()
	res, err := ParseResult([]interface{}{int64(2), "a", "b"}, Shape{NoContent: true})
	require.NoError(t, err)
	assert.Equal(t, []Document{{ID: "a"}, {ID: "b"}}, res.Documents)

	res, err = ParseResult([]interface{}{int64(1), "a", "pl", "$sk", nil}, Shape{WithPayloads: true, WithSortKeys: true})
	require.NoError(t, err)
	assert.Equal(t, []Document{{ID: "a", Payload: "pl", SortKey: "$sk", Fields: map[string]string{}}}, res.Documents)

	res, err = ParseResult(map[interface{}]interface{}{
		"total_results": int64(1),
		"results": []interface{}{
			map[interface{}]interface{}{
				"id":               "movie:1",
				"score":            1.25,
				"extra_attributes": map[interface{}]interface{}{"title": "Matrix"},
			},
		},
	}, Shape{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, []Document{{ID: "movie:1", Score: 1.25, Fields: map[string]string{"title": "Matrix"}}}, res.Documents)

	_, err = ParseResult([]interface{}{int64(2), "a", []interface{}{}, "b"}, Shape{})
	assert.ErrorIs(t, err, scan.ErrUnexpectedReply)
	_, err = ParseResult([]interface{}{}, Shape{})
	assert.ErrorIs(t, err, scan.ErrUnexpectedReply)
	_, err = ParseResult("OK", Shape{})
	assert.ErrorIs(t, err, scan.ErrUnexpectedReply)
}

func TestRunMapsErrors(t *testing.T) {
	t.Parallel()
	rec := drivertest.New().Fail(errors.New("idx: no such index"))
	b := NewBuilder("idx").Query("x")
	_, err := b.Run(context.Background(), rec)
	assert.ErrorIs(t, err, driver.ErrIndexNotFound)
	assert.Equal(t, "FT.SEARCH idx x", b.String(), "failed run keeps state")
}
