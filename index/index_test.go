package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/internal/drivertest"
	"github.com/manojoshi/redisearch/option"
)

func TestTagField(t *testing.T) {
	t.Parallel()
	f, err := TagField("ean", Separator("%"), NoIndex())
	require.NoError(t, err)
	assert.Equal(t, option.Strs("ean", "TAG", "SEPARATOR", "%", "NOINDEX"), f.Render(nil))
	assert.True(t, f.NoIndex())
	assert.False(t, f.Sortable())

	_, err = TagField("ean", Separator("%%"))
	var ve *option.ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "SEPARATOR", ve.Option)
	assert.ErrorContains(t, err, "must be single char")
}

func TestFieldRender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		f    *Field
		want string
	}{
		{"text", Must(TextField("title", Weight(2), NoStem(), Sortable())), "title TEXT NOSTEM WEIGHT 2 SORTABLE"},
		{"alias", Must(TextField("$.title", As("title"))), "$.title AS title TEXT"},
		{"unf", Must(TagField("sku", UNF())), "sku TAG SORTABLE UNF"},
		{"phonetic", Must(TextField("name", Phonetic("dm:fr"))), "name TEXT PHONETIC dm:fr"},
		{"numeric", Must(NumericField("price", Sortable(), NoIndex())), "price NUMERIC SORTABLE NOINDEX"},
		{"geo", Must(GeoField("loc")), "loc GEO"},
		{"flat", Must(VectorField("v", Flat,
			VectorType("FLOAT32"), Dim(128), DistanceMetric("COSINE"))),
			"v VECTOR FLAT 6 TYPE FLOAT32 DIM 128 DISTANCE_METRIC COSINE"},
		{"hnsw", Must(VectorField("v", HNSW,
			VectorType("FLOAT64"), Dim(4), DistanceMetric("L2"), M(16), EFRuntime(20))),
			"v VECTOR HNSW 10 TYPE FLOAT64 DIM 4 DISTANCE_METRIC L2 M 16 EF_RUNTIME 20"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.f.Render(nil).String())
		})
	}
}

func TestFieldOptionsApplicability(t *testing.T) {
	t.Parallel()
	_, err := TagField("t", Weight(2))
	var ae *AttributeError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "WEIGHT", ae.Attribute)
	assert.Equal(t, TypeTag, ae.Type)

	_, err = NumericField("n", UNF())
	assert.ErrorAs(t, err, &ae)

	_, err = VectorField("v", HNSW, BlockSize(10))
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, HNSW, ae.Algorithm)
	assert.EqualError(t, ae, "index: BLOCK_SIZE does not apply to HNSW vectors")

	_, err = VectorField("v", Flat, M(16))
	assert.ErrorAs(t, err, &ae)

	_, err = VectorField("v", Flat, VectorType("FLOAT32"), Dim(8))
	var ie *option.IncompleteError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, []string{"DISTANCE_METRIC"}, ie.Missing)

	_, err = VectorField("v", Algorithm("ANNOY"))
	assert.Error(t, err)

	_, err = TextField("")
	assert.ErrorIs(t, err, ErrNoFieldName)

	_, err = TextField("t", Phonetic("dm:de"))
	assert.Error(t, err)
}

func TestFieldVersionGates(t *testing.T) {
	t.Parallel()
	f := Must(TagField("t", WithSuffixTrie(), IndexMissing()))
	assert.Equal(t, "t TAG WITHSUFFIXTRIE INDEXMISSING", f.Render(nil).String())
	assert.Equal(t, "t TAG WITHSUFFIXTRIE", f.Render(semver.MustParse("2.8.0")).String())
	assert.Equal(t, "t TAG", f.Render(semver.MustParse("2.4.0")).String())
}

func TestParseField_RoundTrip(t *testing.T) {
	t.Parallel()
	fields := []*Field{
		Must(TextField("title", Weight(2.5), Phonetic("dm:en"), Sortable(), UNF())),
		Must(TextField("$.body", As("body"), NoStem(), WithSuffixTrie())),
		Must(TagField("ean", Separator("%"), CaseSensitive(), NoIndex())),
		Must(NumericField("price", Sortable(), IndexMissing())),
		Must(GeoField("loc")),
		Must(VectorField("v", HNSW, VectorType("FLOAT32"), Dim(3), DistanceMetric("IP"),
			InitialCap(100), EFConstruction(200), Epsilon(0.01))),
		Must(VectorField("w", Flat, VectorType("FLOAT32"), Dim(3), DistanceMetric("L2"), BlockSize(1024))),
	}
	for _, f := range fields {
		t.Run(f.Name(), func(t *testing.T) {
			got, err := ParseField(f.Render(nil).Args()...)
			require.NoError(t, err)
			assert.True(t, f.Equal(got), "want %s, got %s", f, got)
			assert.Equal(t, f.Type(), got.Type())
			assert.Equal(t, f.Alias(), got.Alias())
		})
	}
}

func TestParseField_Errors(t *testing.T) {
	t.Parallel()
	tests := [][]any{
		{},
		{"title"},
		{"title", "BLOB"},
		{"title", "TEXT", "WEIGHT"},
		{"title", "TEXT", "WEIGHT", "heavy"},
		{"title", "TEXT", "FROBNICATE"},
		{"v", "VECTOR", "FLAT", 3, "TYPE", "FLOAT32", "DIM"},
		{"v", "VECTOR", "FLAT", 2, "TYPE", "FLOAT32", "extra"},
	}
	for _, args := range tests {
		_, err := ParseField(args...)
		assert.Error(t, err, "%v", args)
	}
	_, err := ParseField("title", "TEXT", "WEIGHT")
	assert.ErrorIs(t, err, ErrMalformedField)
}

func TestFieldFromInfo(t *testing.T) {
	t.Parallel()
	f, err := FieldFromInfo([]any{"identifier", "title", "attribute", "title", "type", "TEXT", "WEIGHT", "1", "SORTABLE"})
	require.NoError(t, err)
	assert.Equal(t, "title TEXT WEIGHT 1 SORTABLE", f.String())

	f, err = FieldFromInfo([]any{"identifier", "$.tags", "attribute", "tags", "type", "TAG", "SEPARATOR", ","})
	require.NoError(t, err)
	assert.Equal(t, "$.tags AS tags TAG SEPARATOR ,", f.String())

	f, err = FieldFromInfo([]any{
		"identifier", "v", "attribute", "v", "type", "VECTOR",
		"algorithm", "FLAT", "data_type", "FLOAT32", "dim", int64(4), "distance_metric", "COSINE",
	})
	require.NoError(t, err)
	assert.Equal(t, "v VECTOR FLAT 6 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE", f.String())

	f, err = FieldFromInfo(map[any]any{
		"identifier": "price", "attribute": "price", "type": "NUMERIC",
		"flags": []any{"SORTABLE", "UNKNOWN_FLAG"},
	})
	require.NoError(t, err)
	assert.Equal(t, "price NUMERIC SORTABLE", f.String())

	f, err = FieldFromInfo([]any{"body", "type", "TEXT", "WEIGHT", "1"})
	require.NoError(t, err)
	assert.Equal(t, "body", f.Name())

	_, err = FieldFromInfo([]any{"type"})
	assert.Error(t, err)
}

func sampleFields() []*Field {
	return []*Field{
		Must(TextField("title", Weight(2))),
		Must(TagField("ean", Separator("%"), NoIndex())),
	}
}

func TestBuilder_Args(t *testing.T) {
	t.Parallel()
	args, err := NewBuilder("idx").
		OnHash().
		Prefix("doc:", "blog:").
		StopWords("the").
		NoOffsets().
		SkipInitialScan().
		Language("English").
		Score(0.5).
		Filter("@age>16").
		Field(sampleFields()...).
		Args()
	require.NoError(t, err)
	assert.Equal(t,
		"FT.CREATE idx ON HASH PREFIX 2 doc: blog: STOPWORDS 1 the NOOFFSETS SKIPINITIALSCAN "+
			"FILTER @age>16 LANGUAGE English SCORE 0.5 SCHEMA title TEXT WEIGHT 2 ean TAG SEPARATOR % NOINDEX",
		args.String())
	assert.Equal(t, []any{"FT.CREATE", "idx"}, args.Args()[:2])
}

func TestBuilder_Minimal(t *testing.T) {
	t.Parallel()
	args, err := NewBuilder("idx").Field(Must(TextField("title"))).Args()
	require.NoError(t, err)
	assert.Equal(t, option.Tokens{option.Str("FT.CREATE"), option.Str("idx"), option.Str("SCHEMA"),
		option.Str("title"), option.Str("TEXT")}, args)

	args, err = NewBuilder("idx").StopWords().Filter("").Field(Must(TextField("title"))).Args()
	require.NoError(t, err)
	assert.Equal(t, "FT.CREATE idx STOPWORDS 0 SCHEMA title TEXT", args.String())
}

func TestBuilder_Errors(t *testing.T) {
	t.Parallel()
	_, err := NewBuilder("").Field(Must(TextField("title"))).Args()
	assert.ErrorIs(t, err, ErrNoIndexName)

	_, err = NewBuilder("idx").Args()
	assert.Error(t, err)

	_, err = NewBuilder("idx").Language("klingon").Field(Must(TextField("title"))).Args()
	var ve *option.ValueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "klingon", ve.Value)

	_, err = NewBuilder("idx").Score(1.5).Field(Must(TextField("title"))).Args()
	assert.ErrorAs(t, err, &ve)

	_, err = NewBuilder("idx").Field(nil).Args()
	assert.Error(t, err)
}

func TestBuilder_Limits(t *testing.T) {
	t.Parallel()
	many := make([]*Field, 0, MaxFields+1)
	for i := 0; i <= MaxFields; i++ {
		many = append(many, Must(NumericField(fmt.Sprintf("n%d", i))))
	}
	rec := drivertest.New("OK")
	_, err := NewBuilder("idx").Field(many...).Execute(context.Background(), rec)
	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "fields", le.Limit)
	assert.ErrorContains(t, err, "too many fields")
	assert.Empty(t, rec.Commands(), "nothing is sent")

	text := make([]*Field, 0, MaxTextFields+1)
	for i := 0; i <= MaxTextFields; i++ {
		text = append(text, Must(TextField(fmt.Sprintf("t%d", i))))
	}
	_, err = NewBuilder("idx").Field(text...).Args()
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "text fields", le.Limit)
	assert.Equal(t, MaxTextFields+1, le.Got)
}

func TestBuilder_Execute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rec := drivertest.New("OK")
	b := NewBuilder("idx").Prefix("doc:").Field(sampleFields()...)
	ok, err := b.Execute(ctx, rec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "FT.CREATE", rec.Last()[0])
	assert.Empty(t, b.Fields(), "state is reset after success")

	rec = drivertest.New("QUEUED")
	b = NewBuilder("idx").Field(sampleFields()...)
	ok, err = b.Execute(ctx, rec)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, b.Fields(), 2, "state is kept for a retry")

	rec = drivertest.New().Fail(errors.New("Index already exists"))
	_, err = b.Execute(ctx, rec)
	assert.ErrorIs(t, err, driver.ErrIndexExists)
}

func TestDropAndAlter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	args, err := DropArgs("idx", true)
	require.NoError(t, err)
	assert.Equal(t, "FT.DROPINDEX idx DD", args.String())

	rec := drivertest.New().Fail(errors.New("Unknown Index name"))
	err = Drop(ctx, rec, "idx", false)
	assert.ErrorIs(t, err, driver.ErrIndexNotFound)
	assert.Equal(t, []any{"FT.DROPINDEX", "idx"}, rec.Last())

	args, err = AlterArgs("idx", true, Must(NumericField("year", Sortable())), nil)
	require.NoError(t, err)
	assert.Equal(t, "FT.ALTER idx SKIPINITIALSCAN SCHEMA ADD year NUMERIC SORTABLE", args.String())

	rec = drivertest.New("OK")
	require.NoError(t, Alter(ctx, rec, "idx", false, Must(TagField("genre"))))
	assert.Equal(t, []any{"FT.ALTER", "idx", "SCHEMA", "ADD", "genre", "TAG"}, rec.Last())

	_, err = AlterArgs("", false, nil, nil)
	assert.ErrorIs(t, err, ErrNoIndexName)
}

func TestParseInfo(t *testing.T) {
	t.Parallel()
	raw := []any{
		"index_name", "idx",
		"index_options", []any{"NOOFFSETS"},
		"index_definition", []any{"key_type", "HASH", "prefixes", []any{"doc:"}, "default_score", "1"},
		"attributes", []any{
			[]any{"identifier", "title", "attribute", "title", "type", "TEXT", "WEIGHT", "1"},
			[]any{"identifier", "price", "attribute", "price", "type", "NUMERIC", "SORTABLE"},
		},
		"num_docs", "42",
		"max_doc_id", "50",
		"num_terms", int64(100),
		"indexing", "0",
		"percent_indexed", "1",
		"hash_indexing_failures", "0",
	}
	info, err := ParseInfo(raw)
	require.NoError(t, err)
	assert.Equal(t, "idx", info.Name)
	assert.Equal(t, []string{"NOOFFSETS"}, info.Options)
	assert.Equal(t, Definition{KeyType: "HASH", Prefixes: []string{"doc:"}, DefaultScore: 1}, info.Definition)
	assert.Equal(t, int64(42), info.NumDocs)
	assert.Equal(t, int64(50), info.MaxDocID)
	assert.Equal(t, int64(100), info.NumTerms)
	assert.False(t, info.Indexing)
	assert.Equal(t, 1.0, info.PercentIndexed)
	require.Len(t, info.Fields, 2)

	price, ok := info.Field("price")
	require.True(t, ok)
	assert.True(t, price.Sortable())

	rec := drivertest.New(raw)
	got, err := GetInfo(context.Background(), rec, "idx")
	require.NoError(t, err)
	assert.Equal(t, info.Name, got.Name)

	_, err = ParseInfo("garbage")
	assert.Error(t, err)
}

type order struct {
	ID     string  `redisearch:"@order_id,PK"`
	Status string  `redisearch:"@status,TAG,SEPARATOR=;"`
	Qty    int     `redisearch:"@qty,NUMERIC,SORTABLE"`
	Note   string  `redisearch:"@note,WEIGHT=0.5,NOSTEM"`
	Loc    string  `redisearch:"@loc,GEO"`
	Price  float64 `redisearch:"-"`
	Other  string
}

func TestFromStruct(t *testing.T) {
	t.Parallel()
	fields, err := FromStruct(&order{})
	require.NoError(t, err)
	require.Len(t, fields, 5)

	want := []string{
		"order_id TEXT NOINDEX",
		"status TAG SEPARATOR ;",
		"qty NUMERIC SORTABLE",
		"note TEXT NOSTEM WEIGHT 0.5",
		"loc GEO",
	}
	for i, f := range fields {
		assert.Equal(t, want[i], f.String())
	}

	type bad struct {
		X int `redisearch:"@x,NUMERIC,NOSTEM"`
	}
	_, err = FromStruct(bad{})
	var ae *AttributeError
	assert.ErrorAs(t, err, &ae)

	type hidden struct {
		Name string  `redisearch:"@name"`
		rank float64 `redisearch:"rank,NUMERIC"`
	}
	fields, err = FromStruct(hidden{})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "name TEXT", fields[0].String())

	_, err = FromStruct(42)
	assert.Error(t, err)
}

func TestAutoCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rec := drivertest.New("OK")
	require.NoError(t, AutoCreate(ctx, rec, order{}, WithPrefixes("order:"), OnJSON()))
	cmd := option.Strs(stringsOf(rec.Last())...).String()
	assert.Equal(t, "FT.CREATE order_idx ON JSON PREFIX 1 order: SCHEMA "+
		"order_id TEXT NOINDEX status TAG SEPARATOR ; qty NUMERIC SORTABLE note TEXT NOSTEM WEIGHT 0.5 loc GEO", cmd)

	rec = drivertest.New().Fail(errors.New("Index already exists"))
	assert.NoError(t, AutoCreate(ctx, rec, order{}, WithName("orders")))
	assert.Equal(t, "orders", rec.Last()[1])

	rec = drivertest.New().Fail(errors.New("ERR syntax error"))
	assert.Error(t, AutoCreate(ctx, rec, order{}))
}

func stringsOf(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = fmt.Sprint(a)
	}
	return out
}
