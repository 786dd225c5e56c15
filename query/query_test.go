package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/redisearch/option"
)

// must unwraps a constructor result: must(t)(Text("title", "x")).
func must(t *testing.T) func(Expr, error) Expr {
	return func(e Expr, err error) Expr {
		t.Helper()
		require.NoError(t, err)
		return e
	}
}

func TestNumericFacets(t *testing.T) {
	t.Parallel()
	tests := []struct {
		e    Expr
		want string
	}{
		{GreaterThan("num", 10), "@num:[(10 +inf]"},
		{GreaterThanOrEquals("num", 10), "@num:[10 +inf]"},
		{LessThan("num", 10), "@num:[-inf (10]"},
		{LessThanOrEquals("num", 10), "@num:[-inf 10]"},
		{EqualsTo("num", 10), "@num:[10 10]"},
		{Between("price", 1.5, 9.99), "@price:[1.5 9.99]"},
		{Range("price", Exclusive(int64(-3)), Exclusive(uint8(7))), "@price:[(-3 (7]"},
		{Range("price", Unbounded(), Unbounded()), "@price:[-inf +inf]"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, Compile(tc.e))
		})
	}
}

func TestTextAndTagFacets(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "@title:hello", Compile(must(t)(Text("title", "hello"))))
	assert.Equal(t, "@title:(hello|world)", Compile(must(t)(Text("title", "hello", "world"))))
	assert.Equal(t, "@title:(star wars)", Compile(must(t)(Text("title", "star wars"))))
	assert.Equal(t, `@title:o\'neil`, Compile(must(t)(Text("@title", "o'neil"))))
	assert.Equal(t, `@first\-name:bob`, Compile(must(t)(Text("first-name", "bob"))))

	assert.Equal(t, "@genre:{drama}", Compile(must(t)(Tag("genre", "drama"))))
	assert.Equal(t, `@genre:{sci\-fi|new\ wave}`, Compile(must(t)(Tag("genre", "sci-fi", "new wave"))))

	_, err := Text("title")
	assert.ErrorIs(t, err, ErrNoTerms)
	_, err = Tag("genre")
	assert.ErrorIs(t, err, ErrNoTerms)
	assert.ErrorContains(t, err, "at least one term required")

	assert.Equal(t, "@status:{PENDING}", Compile(Eq("status", "PENDING")))
	assert.Equal(t, `@wh:{12|15|2\.5}`, Compile(must(t)(In("wh", 12, int64(15), 2.5))))

	e, err := In("genre")
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrNoTerms)
	assert.ErrorContains(t, err, `"genre"`)
}

func TestGeo(t *testing.T) {
	t.Parallel()
	e := must(t)(Geo("loc", -122.41, 37.77, 5, "km"))
	assert.Equal(t, "@loc:[-122.41 37.77 5 km]", Compile(e))

	_, err := Geo("loc", 0, 0, 5, "parsec")
	var ve *option.ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "parsec", ve.Value)

	_, err = Geo("loc", 0, 0, -1, "m")
	assert.Error(t, err)
}

func TestTerms(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `hello\!`, Compile(Word("hello!")))
	assert.Equal(t, "-5", Compile(Word("-5")))
	assert.Equal(t, `"hello world"`, Compile(Exact("hello world")))
	assert.Equal(t, "hel*", Compile(Prefix("hel")))
	assert.Equal(t, "%%hello%%", Compile(must(t)(Fuzzy("hello", 2))))
	assert.Equal(t, "~bonus", Compile(Optional("bonus")))
	assert.Equal(t, "@a:(x|y)", Compile(Raw("@a:(x|y)")))
	assert.Equal(t, "*", Compile(MatchAll()))

	_, err := Fuzzy("hello", 4)
	assert.Error(t, err)
	_, err = Fuzzy("hello", 0)
	assert.Error(t, err)
}

func TestGroups(t *testing.T) {
	t.Parallel()
	a, b, c := Word("a"), Word("b"), Word("c")
	tests := []struct {
		name string
		e    Expr
		want string
	}{
		{"and", And(a, b), "a b"},
		{"or", Or(a, b), "(a|b)"},
		{"single or", Or(a), "a"},
		{"single and", And(a), "a"},
		{"or of and", Or(And(a, b), c), "((a b)|c)"},
		{"and of or", And(Or(a, b), c), "(a|b) c"},
		{"nested and", And(And(a, b), c), "a b c"},
		{"not leaf", Not(a), "-a"},
		{"not digit", Not(Word("5")), `-\5`},
		{"not negative", Not(Word("-5")), "--5"},
		{"not digit prefix", Not(Prefix("4k")), `-\4k*`},
		{"not exact", Not(Exact("5 stars")), `-"5 stars"`},
		{"not single group", Not(And(Or(), Word("7"))), `-\7`},
		{"not and", Not(And(a, b)), "-(a b)"},
		{"not or", Not(Or(a, b)), "-(a|b)"},
		{"empty skipped", And(a, And(), Or(), b), "a b"},
		{"single survivor", Or(And(), And(a, b)), "a b"},
		{"empty", And(Or(), And()), ""},
		{"not empty", Not(And()), ""},
		{"nil child", And(nil, a), "a"},
		{"facets", And(
			must(t)(Text("title", "matrix")),
			Or(Eq("genre", "action"), GreaterThan("rating", 8)),
			Not(Eq("deleted", 1)),
		), "@title:matrix (@genre:{action}|@rating:[(8 +inf]) -@deleted:{1}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compile(tc.e))
		})
	}
	assert.Equal(t, "", Compile(nil))
}

func TestBuilder(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	q, err := b.Render()
	require.NoError(t, err)
	assert.Equal(t, "*", q)

	q, err = b.Text("title", "matrix").
		Tag("genre", "sci-fi").
		Range("year", Inclusive(1999), Unbounded()).
		Not(Eq("deleted", 1)).
		Render()
	require.NoError(t, err)
	assert.Equal(t, `@title:matrix @genre:{sci\-fi} @year:[1999 +inf] -@deleted:{1}`, q)

	q, err = b.Term("again").Render()
	require.NoError(t, err)
	assert.Equal(t, "again", q, "render resets the builder")

	_, err = b.Or(Word("x"), Word("y")).Text("title").Render()
	assert.ErrorIs(t, err, ErrNoTerms)

	_, err = b.Term("shoes").In("genre").Render()
	assert.ErrorIs(t, err, ErrNoTerms, "an empty tag list is reported, not dropped")

	q, err = b.In("wh", 1, 2).Render()
	require.NoError(t, err)
	assert.Equal(t, "@wh:{1|2}", q)

	q, err = b.Between("price", 1, 2).Geo("loc", 1, 2, 3, "mi").Raw("@x:y").Render()
	require.NoError(t, err)
	assert.Equal(t, "@price:[1 2] @loc:[1 2 3 mi] @x:y", q, "error cleared by render")

	b.Term("peek")
	assert.Equal(t, "peek", b.String())
	assert.Equal(t, "peek", Compile(b.Expr()))
	assert.NoError(t, b.Err())
}
