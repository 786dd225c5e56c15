package aggregate

import (
	"github.com/manojoshi/redisearch/option"
)

// Reducer is one `REDUCE fn nargs args... [AS alias]` clause. Reducers are
// values: As returns a modified copy and the original stays usable.
//
//	byCity := aggregate.GroupBy([]string{"city"},
//	    aggregate.Count().As("n"),
//	    aggregate.Average("age").As("avg_age"),
//	)
type Reducer struct {
	fn    string
	args  option.Tokens
	alias string
}

func newReducer(fn string, args ...option.Token) Reducer {
	return Reducer{fn: fn, args: args}
}

// As names the reducer's output property.
func (r Reducer) As(alias string) Reducer {
	r.alias = alias
	return r
}

// Func returns the reducer function, e.g. "COUNT_DISTINCT".
func (r Reducer) Func() string { return r.fn }

// Alias returns the output property name, if any.
func (r Reducer) Alias() string { return r.alias }

// Args returns a copy of the reducer arguments.
func (r Reducer) Args() option.Tokens { return append(option.Tokens(nil), r.args...) }

// Render returns the REDUCE clause tokens.
func (r Reducer) Render() option.Tokens {
	out := make(option.Tokens, 0, len(r.args)+5)
	out = append(out, option.Str("REDUCE"), option.Str(r.fn), option.Int(int64(len(r.args))))
	out = append(out, r.args...)
	if r.alias != "" {
		out = append(out, option.Str("AS"), option.Str(r.alias))
	}
	return out
}

func (r Reducer) String() string { return r.Render().String() }

// -------------------------------------------------------------------
// factories
// -------------------------------------------------------------------

// Count counts the records of each group: REDUCE COUNT 0.
func Count() Reducer { return newReducer("COUNT") }

// CountDistinct counts the distinct values of property.
func CountDistinct(property string) Reducer {
	return newReducer("COUNT_DISTINCT", prop(property))
}

// CountDistinctish is the approximate, HyperLogLog based CountDistinct.
func CountDistinctish(property string) Reducer {
	return newReducer("COUNT_DISTINCTISH", prop(property))
}

func Sum(property string) Reducer     { return newReducer("SUM", prop(property)) }
func Min(property string) Reducer     { return newReducer("MIN", prop(property)) }
func Max(property string) Reducer     { return newReducer("MAX", prop(property)) }
func Average(property string) Reducer { return newReducer("AVG", prop(property)) }
func StdDev(property string) Reducer  { return newReducer("STDDEV", prop(property)) }

// ToList collects the distinct values of property into a list.
func ToList(property string) Reducer { return newReducer("TOLIST", prop(property)) }

// Quantile returns the value of property at quantile q, 0 <= q <= 1.
func Quantile(property string, q float64) (Reducer, error) {
	if err := option.Between(0.0, 1.0)(q); err != nil {
		return Reducer{}, &option.ValueError{Option: "QUANTILE", Value: q, Reason: err.Error()}
	}
	return newReducer("QUANTILE", prop(property), option.Float(q)), nil
}

// Median is QUANTILE 0.5.
func Median(property string) Reducer {
	return newReducer("QUANTILE", prop(property), option.Float(0.5))
}

// FirstValue returns the first value of property in each group, in server
// order.
func FirstValue(property string) Reducer {
	return newReducer("FIRST_VALUE", prop(property))
}

// FirstValueBy returns the value of property in the record ranked first by
// sortBy. The direction token is emitted only when dir is Asc or Desc; the
// zero Dir leaves the order to the server.
func FirstValueBy(property, sortBy string, dir Dir) (Reducer, error) {
	if sortBy == "" {
		return FirstValue(property), nil
	}
	d, err := dir.normalize()
	if err != nil {
		return Reducer{}, err
	}
	args := option.Tokens{prop(property), option.Str("BY"), prop(sortBy)}
	if d != "" {
		args = append(args, option.Str(string(d)))
	}
	return newReducer("FIRST_VALUE", args...), nil
}

// RandomSample picks up to size random values of property per group.
func RandomSample(property string, size int64) (Reducer, error) {
	if err := option.Positive[int64]()(size); err != nil {
		return Reducer{}, &option.ValueError{Option: "RANDOM_SAMPLE", Value: size, Reason: err.Error()}
	}
	return newReducer("RANDOM_SAMPLE", prop(property), option.Int(size)), nil
}
