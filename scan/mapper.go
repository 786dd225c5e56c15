// Package scan flattens raw RediSearch replies into Go values. It knows both
// reply encodings: RESP2 flat arrays (`[k1, v1, k2, v2, ...]`) and RESP3
// maps, and it can copy a string map into a struct tagged with
// `redisearch:"@field"`.
package scan

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrUnexpectedReply is wrapped by every shape mismatch.
var ErrUnexpectedReply = errors.New("scan: unexpected reply")

/*───────────────────────────────
|  Top-level normalisation       |
└───────────────────────────────*/

// Normalize unwraps go-redis command values and converts interface-keyed
// maps into string-keyed ones.
func Normalize(raw any) (any, error) {
	switch v := raw.(type) {
	case *redis.Cmd:
		return v.Result()
	case *redis.SliceCmd:
		return v.Val(), nil
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		return v, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[String(k)] = val
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unsupported reply type %T", ErrUnexpectedReply, raw)
	}
}

/*───────────────────────────────
|  KV payload → map              |
└───────────────────────────────*/

// Pairs turns a flat key/value array or a map into a string-keyed map.
// Values are left untouched. A trailing key without a value is dropped.
func Pairs(v any) (map[string]any, error) {
	switch t := v.(type) {
	case []interface{}:
		m := make(map[string]any, len(t)/2)
		for i := 0; i+1 < len(t); i += 2 {
			m[String(t[i])] = t[i+1]
		}
		return m, nil
	case map[string]interface{}:
		return t, nil
	case map[interface{}]interface{}:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[String(k)] = val
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unsupported kv type %T", ErrUnexpectedReply, v)
	}
}

// StringMap is Pairs with every value stringified.
func StringMap(v any) (map[string]string, error) {
	p, err := Pairs(v)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(p))
	for k, val := range p {
		m[k] = String(val)
	}
	return m, nil
}

/*───────────────────────────────
|  Struct assignment w/ cache    |
└───────────────────────────────*/

var metaCache sync.Map // reflect.Type → []fieldMeta

type fieldMeta struct {
	name  string
	index []int
	kind  reflect.Kind
}

// Assign copies kv into the struct (or map[string]string) behind ptr.
// Values that do not parse into the target kind are skipped.
func Assign[T any](ptr *T, kv map[string]string) error {
	// fast-path: target is map[string]string
	var zero T
	if _, ok := any(zero).(map[string]string); ok {
		*ptr = any(kv).(T)
		return nil
	}

	val := reflect.ValueOf(ptr).Elem()
	rt := val.Type()
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("scan: cannot assign into %s", rt)
	}

	metaAny, _ := metaCache.Load(rt)
	if metaAny == nil {
		metaAny = buildMeta(rt)
		metaCache.Store(rt, metaAny)
	}
	for _, fm := range metaAny.([]fieldMeta) {
		if s, ok := kv[fm.name]; ok {
			f := val.FieldByIndex(fm.index)
			switch fm.kind {
			case reflect.String:
				f.SetString(s)
			case reflect.Int, reflect.Int64, reflect.Int32:
				if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
					f.SetInt(n)
				}
			case reflect.Float32, reflect.Float64:
				if fl, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					f.SetFloat(fl)
				}
			case reflect.Bool:
				f.SetBool(s == "1" || strings.EqualFold(s, "true"))
			}
		}
	}
	return nil
}

// DecodeSlice assigns every row into a fresh T.
func DecodeSlice[T any](rows []map[string]string) ([]T, error) {
	out := make([]T, len(rows))
	for i, kv := range rows {
		if err := Assign(&out[i], kv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// TagName is the struct tag read by Assign. Unexported fields are skipped.
const TagName = "redisearch"

func buildMeta(rt reflect.Type) []fieldMeta {
	out := make([]fieldMeta, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get(TagName)
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		name := strings.TrimPrefix(strings.Split(tag, ",")[0], "@")
		out = append(out, fieldMeta{name, f.Index, f.Type.Kind()})
	}
	return out
}

/*───────────────────────────────
|  Small util fns                |
└───────────────────────────────*/

// String stringifies a reply element.
func String(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Int64 reads an integer that may arrive as a number or a string.
func Int64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(t), 64)
			return int64(f), ferr == nil
		}
		return n, true
	default:
		return 0, false
	}
}

// Float64 reads a float that may arrive as a number or a string.
func Float64(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// List asserts an array element.
func List(v interface{}) ([]interface{}, bool) {
	l, ok := v.([]interface{})
	return l, ok
}

// Strings stringifies every element of an array element.
func Strings(v interface{}) []string {
	l, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = String(e)
	}
	return out
}
