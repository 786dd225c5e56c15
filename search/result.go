package search

import (
	"fmt"

	"github.com/manojoshi/redisearch/scan"
)

// Shape tells ParseResult which optional per-document entries a RESP2
// reply carries, in the order the server writes them.
type Shape struct {
	NoContent    bool
	WithScores   bool
	WithPayloads bool
	WithSortKeys bool
}

// Document is one search hit.
type Document struct {
	ID      string
	Score   float64
	Payload string
	SortKey string
	Fields  map[string]string
}

// Result is a page of hits.
type Result struct {
	// Total counts every match, not only this page.
	Total     int64
	Documents []Document
}

// Decode copies the document fields into []T, see scan.Assign.
func Decode[T any](r *Result) ([]T, error) {
	rows := make([]map[string]string, len(r.Documents))
	for i, d := range r.Documents {
		rows[i] = d.Fields
	}
	return scan.DecodeSlice[T](rows)
}

// ParseResult decodes an FT.SEARCH reply in either protocol.
func ParseResult(raw any, shape Shape) (*Result, error) {
	raw, err := scan.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if l, ok := scan.List(raw); ok {
		return parseArray(l, shape)
	}
	return parseMap(raw)
}

// parseArray reads the RESP2 layout:
// [total, id, [score], [payload], [sortkey], [[k, v, ...]], id, ...].
func parseArray(l []interface{}, shape Shape) (*Result, error) {
	if len(l) == 0 {
		return nil, fmt.Errorf("%w: empty search reply", scan.ErrUnexpectedReply)
	}
	res := &Result{}
	var ok bool
	if res.Total, ok = scan.Int64(l[0]); !ok {
		return nil, fmt.Errorf("%w: search total %v", scan.ErrUnexpectedReply, l[0])
	}

	stride := 1
	for _, on := range []bool{shape.WithScores, shape.WithPayloads, shape.WithSortKeys, !shape.NoContent} {
		if on {
			stride++
		}
	}
	rest := l[1:]
	if len(rest)%stride != 0 {
		return nil, fmt.Errorf("%w: %d entries do not split into documents of %d", scan.ErrUnexpectedReply, len(rest), stride)
	}
	for i := 0; i < len(rest); i += stride {
		doc := Document{ID: scan.String(rest[i])}
		j := i + 1
		if shape.WithScores {
			doc.Score, _ = scan.Float64(rest[j])
			j++
		}
		if shape.WithPayloads {
			doc.Payload = scan.String(rest[j])
			j++
		}
		if shape.WithSortKeys {
			doc.SortKey = scan.String(rest[j])
			j++
		}
		if !shape.NoContent {
			fields, err := fieldMap(rest[j])
			if err != nil {
				return nil, fmt.Errorf("search: document %s: %w", doc.ID, err)
			}
			doc.Fields = fields
		}
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}

// parseMap reads the RESP3 layout:
// {total_results: n, results: [{id, score, payload, sortkey, extra_attributes}]}.
func parseMap(raw any) (*Result, error) {
	kv, err := scan.Pairs(raw)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	res.Total, _ = scan.Int64(kv["total_results"])
	rows, _ := scan.List(kv["results"])
	for i, row := range rows {
		m, err := scan.Pairs(row)
		if err != nil {
			return nil, fmt.Errorf("search: document %d: %w", i, err)
		}
		doc := Document{
			ID:      scan.String(m["id"]),
			Payload: scan.String(m["payload"]),
			SortKey: scan.String(m["sortkey"]),
		}
		doc.Score, _ = scan.Float64(m["score"])
		if doc.Fields, err = fieldMap(m["extra_attributes"]); err != nil {
			return nil, fmt.Errorf("search: document %s: %w", doc.ID, err)
		}
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}

// fieldMap stringifies a document's fields. A nil entry, sent for a
// document deleted mid-query, is an empty map.
func fieldMap(v any) (map[string]string, error) {
	if v == nil {
		return map[string]string{}, nil
	}
	return scan.StringMap(v)
}
