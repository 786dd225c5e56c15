// Package index builds the schema side of RediSearch: field definitions,
// FT.CREATE, FT.ALTER, FT.DROPINDEX and FT.INFO.
//
// Schemas can also be derived from struct tags. AutoCreate creates the
// index when it is missing:
//
//	type Order struct {
//	    ID        string  `redisearch:"@order_id,PK"`
//	    Status    string  `redisearch:"@status,TAG,SEPARATOR=;"`
//	    Qty       int     `redisearch:"@qty,NUMERIC,SORTABLE"`
//	    Note      string  `redisearch:"@note,WEIGHT=0.5"`
//	}
//
//	if err := index.AutoCreate(ctx, conn, Order{},
//	    index.WithName("order_idx"),
//	    index.WithPrefixes("order:"),
//	); err != nil {
//	    log.Fatal(err)
//	}
package index

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/scan"
)

// ------------------------------------------------------------------
// Options
// ------------------------------------------------------------------

// CreateOpt tweaks the builder AutoCreate assembles.
type CreateOpt func(*Builder)

func WithName(name string) CreateOpt     { return func(b *Builder) { b.Name(name) } }
func WithPrefixes(p ...string) CreateOpt { return func(b *Builder) { b.Prefix(p...) } }
func OnJSON() CreateOpt                  { return func(b *Builder) { b.OnJSON() } }
func WithStopwords(words ...string) CreateOpt {
	return func(b *Builder) { b.StopWords(words...) }
}
func WithLanguage(lang string) CreateOpt { return func(b *Builder) { b.Language(lang) } }

// ------------------------------------------------------------------
// Public API
// ------------------------------------------------------------------

// AutoCreate builds a schema from the supplied struct model and runs
// FT.CREATE. An existing index is not an error, which makes the call safe
// to repeat at start-up.
func AutoCreate(
	ctx context.Context,
	exec driver.Executor,
	model any,
	opts ...CreateOpt,
) error {

	fields, err := FromStruct(model)
	if err != nil {
		return err
	}

	b := NewBuilder(inferIndexName(model)).Field(fields...)
	for _, o := range opts {
		o(b)
	}

	ok, err := b.Execute(ctx, exec)
	if err != nil {
		if errors.Is(err, driver.ErrIndexExists) {
			return nil
		}
		return err
	}
	if !ok {
		return fmt.Errorf("index: FT.CREATE %s: unexpected reply", b.name)
	}
	return nil
}

// FromStruct inspects the struct tags (`redisearch:"@field,TAG,SORTABLE"`)
// and returns the schema fields. The first tag part is the field name; the
// rest are a type (TEXT by default, NUMERIC, TAG, GEO), flags (SORTABLE,
// UNF, NOINDEX, NOSTEM, CASESENSITIVE, WITHSUFFIXTRIE, INDEXMISSING, PK) and
// KEY=value attributes (WEIGHT, PHONETIC, SEPARATOR, AS).
func FromStruct(model any) ([]*Field, error) {
	rt := reflect.TypeOf(model)
	if rt == nil {
		return nil, errors.New("index: nil model")
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("index: model must be a struct, got %s", rt)
	}

	var out []*Field
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get(scan.TagName)
		if tag == "" || tag == "-" || !sf.IsExported() {
			continue
		}
		f, err := fieldFromTag(tag)
		if err != nil {
			return nil, fmt.Errorf("index: %s.%s: %w", rt.Name(), sf.Name, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func fieldFromTag(tag string) (*Field, error) {
	parts := strings.Split(tag, ",")
	name := strings.TrimPrefix(strings.TrimSpace(parts[0]), "@")
	typ := TypeText // default

	// extra attributes (NUMERIC, TAG, GEO, SORTABLE, PK, KEY=value)
	var opts []FieldOption
	for _, a := range parts[1:] {
		a = strings.TrimSpace(a)
		key, val, hasVal := strings.Cut(a, "=")
		upper := strings.ToUpper(key)

		if hasVal {
			switch upper {
			case "WEIGHT":
				w, err := strconv.ParseFloat(val, 64)
				if err != nil {
					return nil, fmt.Errorf("WEIGHT %q: %w", val, err)
				}
				opts = append(opts, Weight(w))
			case "PHONETIC":
				opts = append(opts, Phonetic(val))
			case "SEPARATOR":
				opts = append(opts, Separator(val))
			case "AS":
				opts = append(opts, As(val))
			default:
				return nil, fmt.Errorf("unknown tag attribute %q", key)
			}
			continue
		}

		switch upper {
		case "TEXT", "NUMERIC", "TAG", "GEO":
			typ = FieldType(upper)
		case "VECTOR":
			return nil, errors.New("vector fields cannot be declared with tags")
		case "SORTABLE":
			opts = append(opts, Sortable())
		case "UNF":
			opts = append(opts, UNF())
		case "NOINDEX", "PK":
			opts = append(opts, NoIndex())
		case "NOSTEM":
			opts = append(opts, NoStem())
		case "CASESENSITIVE":
			opts = append(opts, CaseSensitive())
		case "WITHSUFFIXTRIE":
			opts = append(opts, WithSuffixTrie())
		case "INDEXMISSING":
			opts = append(opts, IndexMissing())
		case "":
		default:
			return nil, fmt.Errorf("unknown tag attribute %q", a)
		}
	}
	return build(newField(name, typ, ""), opts)
}

// inferIndexName defaults to struct type name snake_cased + "_idx".
func inferIndexName(model any) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return snake(t.Name()) + "_idx"
}

// snake converts CamelCase to snake_case.
func snake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
