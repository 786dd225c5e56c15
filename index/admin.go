package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/option"
	"github.com/manojoshi/redisearch/scan"
)

// DropArgs returns `FT.DROPINDEX name [DD]`.
func DropArgs(name string, deleteDocs bool) (option.Tokens, error) {
	if name == "" {
		return nil, ErrNoIndexName
	}
	out := option.Strs("FT.DROPINDEX", name)
	return append(out, option.NewFlag("DD").Set(deleteDocs).Render(nil)...), nil
}

// Drop removes an index, and its documents when deleteDocs is set. A missing
// index yields an error wrapping driver.ErrIndexNotFound.
func Drop(ctx context.Context, exec driver.Executor, name string, deleteDocs bool) error {
	args, err := DropArgs(name, deleteDocs)
	if err != nil {
		return err
	}
	if _, err := exec.Do(ctx, args.Args()...); err != nil {
		return fmt.Errorf("index: FT.DROPINDEX %s: %w", name, driver.MapError(err))
	}
	return nil
}

// AlterArgs returns `FT.ALTER name [SKIPINITIALSCAN] SCHEMA ADD field`.
func AlterArgs(name string, skipInitialScan bool, f *Field, v *semver.Version) (option.Tokens, error) {
	if name == "" {
		return nil, ErrNoIndexName
	}
	if f == nil {
		return nil, fmt.Errorf("index: FT.ALTER %s: nil field", name)
	}
	out := option.Strs("FT.ALTER", name)
	out = append(out, option.NewFlag("SKIPINITIALSCAN").Set(skipInitialScan).Render(v)...)
	out = append(out, option.Strs("SCHEMA", "ADD")...)
	return append(out, f.Render(v)...), nil
}

// Alter adds a field to an existing index.
func Alter(ctx context.Context, exec driver.Executor, name string, skipInitialScan bool, f *Field) error {
	args, err := AlterArgs(name, skipInitialScan, f, nil)
	if err != nil {
		return err
	}
	if _, err := exec.Do(ctx, args.Args()...); err != nil {
		return fmt.Errorf("index: FT.ALTER %s: %w", name, driver.MapError(err))
	}
	return nil
}

// Definition is the index_definition section of FT.INFO.
type Definition struct {
	KeyType      string
	Prefixes     []string
	Filter       string
	DefaultScore float64
}

// Info is the decoded FT.INFO reply. Raw keeps every top-level entry for
// the statistics not lifted into fields.
type Info struct {
	Name                 string
	Options              []string
	Definition           Definition
	Fields               []*Field
	NumDocs              int64
	MaxDocID             int64
	NumTerms             int64
	NumRecords           int64
	Indexing             bool
	PercentIndexed       float64
	HashIndexingFailures int64
	Raw                  map[string]any
}

// GetInfo runs FT.INFO and decodes the reply.
func GetInfo(ctx context.Context, exec driver.Executor, name string) (*Info, error) {
	if name == "" {
		return nil, ErrNoIndexName
	}
	raw, err := exec.Do(ctx, "FT.INFO", name)
	if err != nil {
		return nil, fmt.Errorf("index: FT.INFO %s: %w", name, driver.MapError(err))
	}
	return ParseInfo(raw)
}

// ParseInfo decodes an FT.INFO reply in either protocol.
func ParseInfo(raw any) (*Info, error) {
	kv, err := scan.Pairs(raw)
	if err != nil {
		return nil, fmt.Errorf("index: FT.INFO: %w", err)
	}

	info := &Info{
		Name:    scan.String(kv["index_name"]),
		Options: scan.Strings(kv["index_options"]),
		Raw:     kv,
	}
	info.NumDocs, _ = scan.Int64(kv["num_docs"])
	info.MaxDocID, _ = scan.Int64(kv["max_doc_id"])
	info.NumTerms, _ = scan.Int64(kv["num_terms"])
	info.NumRecords, _ = scan.Int64(kv["num_records"])
	info.PercentIndexed, _ = scan.Float64(kv["percent_indexed"])
	info.HashIndexingFailures, _ = scan.Int64(kv["hash_indexing_failures"])
	if n, ok := scan.Int64(kv["indexing"]); ok {
		info.Indexing = n != 0
	}

	if def, ok := kv["index_definition"]; ok {
		d, err := scan.Pairs(def)
		if err != nil {
			return nil, fmt.Errorf("index: FT.INFO definition: %w", err)
		}
		info.Definition = Definition{
			KeyType:  scan.String(d["key_type"]),
			Prefixes: scan.Strings(d["prefixes"]),
			Filter:   scan.String(d["filter"]),
		}
		info.Definition.DefaultScore, _ = scan.Float64(d["default_score"])
	}

	rows, ok := scan.List(kv["attributes"])
	if !ok {
		rows, _ = scan.List(kv["fields"])
	}
	for i, r := range rows {
		f, err := FieldFromInfo(r)
		if err != nil {
			return nil, fmt.Errorf("index: FT.INFO attribute %d: %w", i, err)
		}
		info.Fields = append(info.Fields, f)
	}
	return info, nil
}

// Field returns the schema field named or aliased name.
func (i *Info) Field(name string) (*Field, bool) {
	for _, f := range i.Fields {
		if f.Name() == name || f.Alias() == name || strings.EqualFold(f.Name(), "$."+name) {
			return f, true
		}
	}
	return nil, false
}
