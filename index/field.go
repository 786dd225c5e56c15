package index

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/manojoshi/redisearch/option"
)

// FieldType is the schema type of a field. It never changes after
// construction.
type FieldType string

const (
	TypeText    FieldType = "TEXT"
	TypeNumeric FieldType = "NUMERIC"
	TypeGeo     FieldType = "GEO"
	TypeTag     FieldType = "TAG"
	TypeVector  FieldType = "VECTOR"
)

// Algorithm is a vector index algorithm.
type Algorithm string

const (
	Flat Algorithm = "FLAT"
	HNSW Algorithm = "HNSW"
)

var (
	phoneticMatchers = []string{"dm:en", "dm:fr", "dm:pt", "dm:es"}
	vectorTypes      = []string{"FLOAT32", "FLOAT64", "BFLOAT16", "FLOAT16"}
	distanceMetrics  = []string{"L2", "IP", "COSINE"}
)

// ErrNoFieldName is returned for fields constructed with an empty name.
var ErrNoFieldName = errors.New("index: field name is required")

// AttributeError reports an option applied to a field type, or vector
// algorithm, it does not belong to.
type AttributeError struct {
	Attribute string
	Type      FieldType
	Algorithm Algorithm
}

func (e *AttributeError) Error() string {
	if e.Algorithm != "" {
		return fmt.Sprintf("index: %s does not apply to %s vectors", e.Attribute, e.Algorithm)
	}
	return fmt.Sprintf("index: %s does not apply to %s fields", e.Attribute, e.Type)
}

// Field is one schema entry of FT.CREATE. Build it with TextField,
// NumericField, GeoField, TagField or VectorField; every FieldOption is
// checked against the field type when it is applied.
type Field struct {
	name  string
	typ   FieldType
	alg   Algorithm
	alias *option.Named[string]
	attrs *option.Group

	// nil when the attribute does not apply to the field type
	noStem        *option.Flag
	weight        *option.Validated[float64]
	phonetic      *option.Validated[string]
	separator     *option.Validated[string]
	caseSensitive *option.Flag
	suffixTrie    *option.Flag
	indexMissing  *option.Flag
	sortable      *option.Flag
	unf           *option.Flag
	noIndex       *option.Flag

	vecType        *option.Validated[string]
	dim            *option.Validated[int64]
	metric         *option.Validated[string]
	initialCap     *option.Validated[int64]
	blockSize      *option.Validated[int64]
	m              *option.Validated[int64]
	efConstruction *option.Validated[int64]
	efRuntime      *option.Validated[int64]
	epsilon        *option.Validated[float64]
}

// FieldOption configures a field at construction.
type FieldOption func(*Field) error

// TextField returns a full-text field.
func TextField(name string, opts ...FieldOption) (*Field, error) {
	return build(newField(name, TypeText, ""), opts)
}

// NumericField returns a numeric range field.
func NumericField(name string, opts ...FieldOption) (*Field, error) {
	return build(newField(name, TypeNumeric, ""), opts)
}

// GeoField returns a lon/lat field.
func GeoField(name string, opts ...FieldOption) (*Field, error) {
	return build(newField(name, TypeGeo, ""), opts)
}

// TagField returns an exact-match tag field.
func TagField(name string, opts ...FieldOption) (*Field, error) {
	return build(newField(name, TypeTag, ""), opts)
}

// VectorField returns a vector similarity field. Type, Dim and
// DistanceMetric are required.
func VectorField(name string, alg Algorithm, opts ...FieldOption) (*Field, error) {
	if alg != Flat && alg != HNSW {
		return nil, &option.ValueError{Option: "algorithm", Value: alg, Reason: "must be one of FLAT, HNSW"}
	}
	f, err := build(newField(name, TypeVector, alg), opts)
	if err != nil {
		return nil, err
	}
	if err := f.attrs.Validate(); err != nil {
		return nil, fmt.Errorf("index: field %q: %w", name, err)
	}
	return f, nil
}

// Must panics when err is not nil. It suits static schemas.
func Must(f *Field, err error) *Field {
	if err != nil {
		panic(err)
	}
	return f
}

func build(f *Field, opts []FieldOption) (*Field, error) {
	if f.name == "" {
		return nil, ErrNoFieldName
	}
	for _, o := range opts {
		if err := o(f); err != nil {
			return nil, fmt.Errorf("index: field %q: %w", f.name, err)
		}
	}
	return f, nil
}

func newField(name string, typ FieldType, alg Algorithm) *Field {
	f := &Field{
		name:  name,
		typ:   typ,
		alg:   alg,
		alias: option.NewNamed[string]("AS"),
		attrs: option.NewGroup(string(typ)),
	}

	if typ == TypeVector {
		f.vecType = option.NewValidated("TYPE", option.OneOf(vectorTypes...))
		f.dim = option.NewValidated("DIM", option.Positive[int64]())
		f.metric = option.NewValidated("DISTANCE_METRIC", option.OneOf(distanceMetrics...))
		f.initialCap = option.NewValidated("INITIAL_CAP", option.NonNegative[int64]())
		f.attrs.
			Require("TYPE", f.vecType).
			Require("DIM", f.dim).
			Require("DISTANCE_METRIC", f.metric).
			Add("INITIAL_CAP", f.initialCap)

		switch alg {
		case Flat:
			f.blockSize = option.NewValidated("BLOCK_SIZE", option.Positive[int64]())
			f.attrs.Add("BLOCK_SIZE", f.blockSize)
		case HNSW:
			f.m = option.NewValidated("M", option.Positive[int64]())
			f.efConstruction = option.NewValidated("EF_CONSTRUCTION", option.Positive[int64]())
			f.efRuntime = option.NewValidated("EF_RUNTIME", option.Positive[int64]())
			f.epsilon = option.NewValidated("EPSILON", option.Positive[float64]())
			f.attrs.
				Add("M", f.m).
				Add("EF_CONSTRUCTION", f.efConstruction).
				Add("EF_RUNTIME", f.efRuntime).
				Add("EPSILON", f.epsilon)
		}
		return f
	}

	switch typ {
	case TypeText:
		f.noStem = option.NewFlag("NOSTEM")
		f.weight = option.NewValidated("WEIGHT", option.Positive[float64]())
		f.phonetic = option.NewValidated("PHONETIC", option.OneOf(phoneticMatchers...))
		f.attrs.
			Add("NOSTEM", f.noStem).
			Add("WEIGHT", f.weight).
			Add("PHONETIC", f.phonetic)
	case TypeTag:
		f.separator = option.NewValidated("SEPARATOR", option.SingleChar())
		f.caseSensitive = option.NewFlag("CASESENSITIVE")
		f.attrs.
			Add("SEPARATOR", f.separator).
			Add("CASESENSITIVE", f.caseSensitive)
	}
	if typ == TypeText || typ == TypeTag {
		f.suffixTrie = option.NewFlag("WITHSUFFIXTRIE").Since(">=2.6.0")
		f.attrs.Add("WITHSUFFIXTRIE", f.suffixTrie)
	}

	f.indexMissing = option.NewFlag("INDEXMISSING").Since(">=2.10.0")
	f.sortable = option.NewFlag("SORTABLE")
	f.attrs.Add("INDEXMISSING", f.indexMissing).Add("SORTABLE", f.sortable)
	if typ == TypeText || typ == TypeTag {
		f.unf = option.NewFlag("UNF")
		f.attrs.Add("UNF", f.unf)
	}
	f.noIndex = option.NewFlag("NOINDEX")
	f.attrs.Add("NOINDEX", f.noIndex)
	return f
}

// Name returns the field name (the JSON path for JSON indexes).
func (f *Field) Name() string { return f.name }

// Alias returns the AS name, or "" when there is none.
func (f *Field) Alias() string {
	a, _ := f.alias.Get()
	return a
}

// Type returns the schema type.
func (f *Field) Type() FieldType { return f.typ }

// Algorithm returns the vector algorithm; "" for scalar fields.
func (f *Field) Algorithm() Algorithm { return f.alg }

// Sortable reports whether SORTABLE is set.
func (f *Field) Sortable() bool { return f.sortable != nil && f.sortable.On() }

// NoIndex reports whether NOINDEX is set.
func (f *Field) NoIndex() bool { return f.noIndex != nil && f.noIndex.On() }

// Attribute returns the option behind a schema keyword such as "WEIGHT".
func (f *Field) Attribute(keyword string) (option.Option, bool) { return f.attrs.Child(keyword) }

func (f *Field) Valid() bool { return f.attrs.Valid() }

// Render returns the schema tokens of the field:
//
//	name [AS alias] TYPE attrs... [SORTABLE [UNF]] [NOINDEX]
//	name [AS alias] VECTOR ALGORITHM count attr value...
func (f *Field) Render(v *semver.Version) option.Tokens {
	out := option.Strs(f.name)
	out = append(out, f.alias.Render(v)...)
	out = append(out, option.Str(string(f.typ)))

	attrs := f.attrs.Render(v)
	if f.typ == TypeVector {
		out = append(out, option.Str(string(f.alg)), option.Int(int64(len(attrs))))
	}
	return append(out, attrs...)
}

// Equal reports whether both fields render identically.
func (f *Field) Equal(o *Field) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.typ == o.typ && f.alg == o.alg && slices.Equal(f.Render(nil), o.Render(nil))
}

func (f *Field) String() string { return f.Render(nil).String() }

// -------------------------------------------------------------------
// options
// -------------------------------------------------------------------

func (f *Field) unsupported(attr string) error {
	if f.typ == TypeVector {
		return &AttributeError{Attribute: attr, Type: f.typ, Algorithm: f.alg}
	}
	return &AttributeError{Attribute: attr, Type: f.typ}
}

func flagOpt(keyword string, pick func(*Field) *option.Flag) FieldOption {
	return func(f *Field) error {
		fl := pick(f)
		if fl == nil {
			return f.unsupported(keyword)
		}
		fl.Set(true)
		return nil
	}
}

func valueOpt[T option.Scalar](keyword string, v T, pick func(*Field) *option.Validated[T]) FieldOption {
	return func(f *Field) error {
		o := pick(f)
		if o == nil {
			return f.unsupported(keyword)
		}
		return o.Set(v)
	}
}

// As indexes the field under another name.
func As(alias string) FieldOption {
	return func(f *Field) error {
		if alias == "" {
			return &option.ValueError{Option: "AS", Value: alias, Reason: "must not be empty"}
		}
		f.alias.Set(alias)
		return nil
	}
}

// Sortable keeps the field in the sorting vector.
func Sortable() FieldOption {
	return flagOpt("SORTABLE", func(f *Field) *option.Flag { return f.sortable })
}

// UNF disables normalization of the sortable value. It implies Sortable.
func UNF() FieldOption {
	return func(f *Field) error {
		if f.unf == nil {
			return f.unsupported("UNF")
		}
		f.sortable.Set(true)
		f.unf.Set(true)
		return nil
	}
}

// NoIndex keeps the field out of the index; only useful with Sortable.
func NoIndex() FieldOption {
	return flagOpt("NOINDEX", func(f *Field) *option.Flag { return f.noIndex })
}

// NoStem disables stemming of a TEXT field.
func NoStem() FieldOption {
	return flagOpt("NOSTEM", func(f *Field) *option.Flag { return f.noStem })
}

// Weight sets the importance of a TEXT field.
func Weight(w float64) FieldOption {
	return valueOpt("WEIGHT", w, func(f *Field) *option.Validated[float64] { return f.weight })
}

// Phonetic enables phonetic matching with one of dm:en, dm:fr, dm:pt, dm:es.
func Phonetic(matcher string) FieldOption {
	return valueOpt("PHONETIC", matcher, func(f *Field) *option.Validated[string] { return f.phonetic })
}

// Separator sets the single-character TAG separator.
func Separator(sep string) FieldOption {
	return valueOpt("SEPARATOR", sep, func(f *Field) *option.Validated[string] { return f.separator })
}

// CaseSensitive keeps the case of TAG values.
func CaseSensitive() FieldOption {
	return flagOpt("CASESENSITIVE", func(f *Field) *option.Flag { return f.caseSensitive })
}

// WithSuffixTrie adds a suffix trie to TEXT and TAG fields (RediSearch 2.6+).
func WithSuffixTrie() FieldOption {
	return flagOpt("WITHSUFFIXTRIE", func(f *Field) *option.Flag { return f.suffixTrie })
}

// IndexMissing makes documents lacking the field searchable with ismissing()
// (RediSearch 2.10+).
func IndexMissing() FieldOption {
	return flagOpt("INDEXMISSING", func(f *Field) *option.Flag { return f.indexMissing })
}

// VectorType sets the vector element type, e.g. FLOAT32.
func VectorType(t string) FieldOption {
	return valueOpt("TYPE", t, func(f *Field) *option.Validated[string] { return f.vecType })
}

// Dim sets the vector dimension.
func Dim(n int64) FieldOption {
	return valueOpt("DIM", n, func(f *Field) *option.Validated[int64] { return f.dim })
}

// DistanceMetric sets one of L2, IP, COSINE.
func DistanceMetric(m string) FieldOption {
	return valueOpt("DISTANCE_METRIC", m, func(f *Field) *option.Validated[string] { return f.metric })
}

// InitialCap sets the initial vector capacity.
func InitialCap(n int64) FieldOption {
	return valueOpt("INITIAL_CAP", n, func(f *Field) *option.Validated[int64] { return f.initialCap })
}

// BlockSize sets the FLAT block size.
func BlockSize(n int64) FieldOption {
	return valueOpt("BLOCK_SIZE", n, func(f *Field) *option.Validated[int64] { return f.blockSize })
}

// M sets the HNSW maximum outgoing edges per node.
func M(n int64) FieldOption {
	return valueOpt("M", n, func(f *Field) *option.Validated[int64] { return f.m })
}

// EFConstruction sets the HNSW build-time candidate list size.
func EFConstruction(n int64) FieldOption {
	return valueOpt("EF_CONSTRUCTION", n, func(f *Field) *option.Validated[int64] { return f.efConstruction })
}

// EFRuntime sets the HNSW query-time candidate list size.
func EFRuntime(n int64) FieldOption {
	return valueOpt("EF_RUNTIME", n, func(f *Field) *option.Validated[int64] { return f.efRuntime })
}

// Epsilon sets the HNSW range query boundary factor.
func Epsilon(e float64) FieldOption {
	return valueOpt("EPSILON", e, func(f *Field) *option.Validated[float64] { return f.epsilon })
}
