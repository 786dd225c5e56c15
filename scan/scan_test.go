package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	v, err := Normalize(map[interface{}]interface{}{"a": int64(1), int64(2): "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": int64(1), "2": "b"}, v)

	v, err = Normalize([]interface{}{"x"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x"}, v)

	cmd := redis.NewCmd(context.Background(), "FT.SEARCH")
	cmd.SetVal([]interface{}{int64(0)})
	v, err = Normalize(cmd)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(0)}, v)

	cmd = redis.NewCmd(context.Background(), "FT.SEARCH")
	cmd.SetErr(errors.New("boom"))
	_, err = Normalize(cmd)
	assert.EqualError(t, err, "boom")

	_, err = Normalize("OK")
	assert.ErrorIs(t, err, ErrUnexpectedReply)
	_, err = Normalize(nil)
	assert.ErrorIs(t, err, ErrUnexpectedReply)
}

func TestPairs(t *testing.T) {
	t.Parallel()

	m, err := Pairs([]interface{}{"a", int64(1), []byte("b"), "2", "dangling"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "b": "2"}, m)

	m, err = Pairs(map[interface{}]interface{}{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, m)

	_, err = Pairs(42)
	assert.ErrorIs(t, err, ErrUnexpectedReply)

	sm, err := StringMap([]interface{}{"n", int64(3), "f", 2.5, "s", " padded ", "nil", nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n": "3", "f": "2.5", "s": "padded", "nil": ""}, sm)
}

func TestAssign(t *testing.T) {
	t.Parallel()

	type movie struct {
		Title  string  `redisearch:"@title"`
		Year   int     `redisearch:"year,SORTABLE"`
		Rating float64 `redisearch:"rating"`
		Seen   bool    `redisearch:"seen"`
		Skip   string  `redisearch:"-"`
		Plain  string
		secret string  `redisearch:"secret"`
	}
	var m movie
	require.NoError(t, Assign(&m, map[string]string{
		"title": "Heat", "year": "1995", "rating": " 8.3", "seen": "TRUE", "Skip": "x", "Plain": "y",
		"secret": "leaked",
	}))
	assert.Equal(t, movie{Title: "Heat", Year: 1995, Rating: 8.3, Seen: true}, m)

	// unparsable values leave the field alone
	m = movie{Year: 7}
	require.NoError(t, Assign(&m, map[string]string{"year": "soon"}))
	assert.Equal(t, 7, m.Year)

	var raw map[string]string
	require.NoError(t, Assign(&raw, map[string]string{"a": "b"}))
	assert.Equal(t, map[string]string{"a": "b"}, raw)

	var n int
	assert.Error(t, Assign(&n, map[string]string{}))

	rows, err := DecodeSlice[movie]([]map[string]string{{"title": "A"}, {"title": "B", "seen": "1"}})
	require.NoError(t, err)
	assert.Equal(t, []movie{{Title: "A"}, {Title: "B", Seen: true}}, rows)
}

func TestScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      any
		want    int64
		wantOK  bool
		wantF   float64
		wantFOK bool
	}{
		{int64(4), 4, true, 4, true},
		{7, 7, true, 7, true},
		{2.9, 2, true, 2.9, true},
		{" 12 ", 12, true, 12, true},
		{"1.5", 1, true, 1.5, true},
		{"nan-ish", 0, false, 0, false},
		{nil, 0, false, 0, false},
	}
	for _, tc := range tests {
		n, ok := Int64(tc.in)
		assert.Equal(t, tc.wantOK, ok, "Int64(%v)", tc.in)
		assert.Equal(t, tc.want, n, "Int64(%v)", tc.in)
		f, ok := Float64(tc.in)
		assert.Equal(t, tc.wantFOK, ok, "Float64(%v)", tc.in)
		assert.Equal(t, tc.wantF, f, "Float64(%v)", tc.in)
	}

	assert.Equal(t, "0.1", String(0.1))
	assert.Equal(t, "true", String(true))
	assert.Equal(t, []string{"a", "1"}, Strings([]interface{}{"a", int64(1)}))
	assert.Nil(t, Strings("a"))

	l, ok := List([]interface{}{1})
	assert.True(t, ok)
	assert.Len(t, l, 1)
	_, ok = List("x")
	assert.False(t, ok)
}
