package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/index"
	"github.com/manojoshi/redisearch/internal"
	"github.com/manojoshi/redisearch/scan"
)

const (
	// scanCount is the COUNT hint sent with every SCAN.
	scanCount = 500
	// bulkBatch caps the commands sent in one pipeline.
	bulkBatch = 1000
)

/*───────────────────────────────────────────────────────────────
|  Administrative helpers                                        |
└───────────────────────────────────────────────────────────────*/

// EnsureIndex – thin wrapper over index.AutoCreate with the index name
// injected.
func (r *Repository) EnsureIndex(ctx context.Context, model any, opts ...index.CreateOpt) error {
	opts = append(opts, index.WithName(r.index))
	return index.AutoCreate(ctx, r.exec, model, opts...)
}

// Info returns the FT.INFO of the bound index.
func (r *Repository) Info(ctx context.Context) (*index.Info, error) {
	return index.GetInfo(ctx, r.exec, r.index)
}

// DropIndex drops the index, and its documents when deleteDocs is set. A
// missing index is not an error.
func (r *Repository) DropIndex(ctx context.Context, deleteDocs bool) error {
	err := index.Drop(ctx, r.exec, r.index, deleteDocs)
	if errors.Is(err, driver.ErrIndexNotFound) {
		return nil
	}
	return err
}

// Purge deletes every key starting with one of prefixes and returns how
// many were removed.
func (r *Repository) Purge(ctx context.Context, prefixes ...string) (int64, error) {
	var total int64
	for _, p := range internal.Unique(prefixes) {
		cursor := "0"
		for {
			raw, err := r.exec.Do(ctx, "SCAN", cursor, "MATCH", p+"*", "COUNT", scanCount)
			if err != nil {
				return total, fmt.Errorf("repository: scan %s*: %w", p, err)
			}
			page, ok := scan.List(raw)
			if !ok || len(page) != 2 {
				return total, fmt.Errorf("%w: SCAN reply %v", scan.ErrUnexpectedReply, raw)
			}
			if keys := scan.Strings(page[1]); len(keys) > 0 {
				args := append([]any{"DEL"}, internal.Map(keys, func(k string) any { return k })...)
				n, err := r.exec.Do(ctx, args...)
				if err != nil {
					return total, fmt.Errorf("repository: del: %w", err)
				}
				deleted, _ := scan.Int64(n)
				total += deleted
			}
			if cursor = scan.String(page[0]); cursor == "0" || cursor == "" {
				break
			}
		}
	}
	return total, nil
}

/*───────────────────────────────────────────────────────────────
|  Data-loading helpers                                          |
└───────────────────────────────────────────────────────────────*/

// LoadHash inserts one record into a HASH (field tags drive column names).
func (r *Repository) LoadHash(ctx context.Context, key string, record any) error {
	args, err := hsetArgs(key, record)
	if err != nil {
		return err
	}
	if _, err := r.exec.Do(ctx, args...); err != nil {
		return fmt.Errorf("repository: hset %s: %w", key, err)
	}
	return nil
}

// LoadBulk writes many records; prefix is prepended when keyFn returns a
// bare ID. The writes are pipelined in batches when the transport supports
// it. Batches already sent stay written when a later one fails.
func (r *Repository) LoadBulk(
	ctx context.Context,
	prefix string,
	records []any,
	keyFn func(any) string,
) error {
	cmds := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		key := keyFn(rec)
		if !strings.HasPrefix(key, prefix) {
			key = prefix + key
		}
		args, err := hsetArgs(key, rec)
		if err != nil {
			return err
		}
		cmds = append(cmds, args)
	}

	p, ok := r.exec.(driver.Pipeliner)
	if !ok {
		for _, c := range cmds {
			if _, err := r.exec.Do(ctx, c...); err != nil {
				return fmt.Errorf("repository: hset %s: %w", c[1], err)
			}
		}
		return nil
	}
	for _, batch := range internal.Chunk(cmds, bulkBatch) {
		replies, err := p.Pipeline(ctx, batch)
		if err != nil {
			return fmt.Errorf("repository: bulk load: %w", err)
		}
		for i, rep := range replies {
			if e, isErr := rep.(error); isErr {
				return fmt.Errorf("repository: hset %s: %w", batch[i][1], e)
			}
		}
	}
	return nil
}

func hsetArgs(key string, record any) ([]interface{}, error) {
	vals, err := structToMap(record)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("repository: %s: record has no tagged fields", key)
	}
	args := make([]interface{}, 0, 2+2*len(vals))
	args = append(args, "HSET", key)
	for _, kv := range vals {
		args = append(args, kv.name, kv.value)
	}
	return args, nil
}

type hashField struct {
	name  string
	value any
}

// structToMap flattens a struct or map into hash fields. Struct fields are
// taken in declaration order, maps in key order.
func structToMap(v any) ([]hashField, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	// maps are passed straight through
	if rv.Kind() == reflect.Map {
		out := make([]hashField, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out = append(out, hashField{fmt.Sprint(iter.Key()), iter.Value().Interface()})
		}
		slices.SortFunc(out, func(a, b hashField) int { return cmp.Compare(a.name, b.name) })
		return out, nil
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("repository: cannot store %T", v)
	}

	// struct: use redisearch tags
	rt := rv.Type()
	out := make([]hashField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get(scan.TagName)
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		name := strings.TrimPrefix(strings.Split(tag, ",")[0], "@")
		out = append(out, hashField{name, rv.Field(i).Interface()})
	}
	return out, nil
}
