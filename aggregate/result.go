package aggregate

import (
	"fmt"

	"github.com/manojoshi/redisearch/scan"
)

// Result is one batch of aggregated rows.
type Result struct {
	// Total is the server's result count. It is not the number of rows
	// in this batch.
	Total int64
	Rows  []map[string]string
	// Cursor is the id to pass to ReadCursor; 0 once exhausted or when no
	// cursor was requested.
	Cursor int64
}

// Done reports whether there is nothing left to read.
func (r *Result) Done() bool { return r.Cursor == 0 }

// Decode copies the rows into []T, see scan.Assign.
func Decode[T any](r *Result) ([]T, error) { return scan.DecodeSlice[T](r.Rows) }

// ParseResult decodes an FT.AGGREGATE or FT.CURSOR READ reply in either
// protocol. withCursor tells whether the reply is wrapped as [batch, cursor].
func ParseResult(raw any, withCursor bool) (*Result, error) {
	raw, err := scan.Normalize(raw)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if withCursor {
		pair, ok := scan.List(raw)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: cursor reply is not [rows, cursor]", scan.ErrUnexpectedReply)
		}
		if res.Cursor, ok = scan.Int64(pair[1]); !ok {
			return nil, fmt.Errorf("%w: cursor id %v", scan.ErrUnexpectedReply, pair[1])
		}
		if raw, err = scan.Normalize(pair[0]); err != nil {
			return nil, err
		}
	}

	if l, ok := scan.List(raw); ok {
		return res, res.parseArray(l)
	}
	return res, res.parseMap(raw)
}

// parseArray reads the RESP2 shape: [total, [k, v, ...], ...].
func (r *Result) parseArray(l []interface{}) error {
	if len(l) == 0 {
		return nil
	}
	r.Total, _ = scan.Int64(l[0])
	for i, row := range l[1:] {
		kv, err := scan.StringMap(row)
		if err != nil {
			return fmt.Errorf("aggregate: row %d: %w", i, err)
		}
		r.Rows = append(r.Rows, kv)
	}
	return nil
}

// parseMap reads the RESP3 shape:
// {total_results: n, results: [{extra_attributes: {...}}, ...]}.
func (r *Result) parseMap(raw any) error {
	kv, err := scan.Pairs(raw)
	if err != nil {
		return err
	}
	r.Total, _ = scan.Int64(kv["total_results"])
	rows, _ := scan.List(kv["results"])
	for i, row := range rows {
		m, err := scan.Pairs(row)
		if err != nil {
			return fmt.Errorf("aggregate: row %d: %w", i, err)
		}
		attrs := map[string]string{}
		if extra, ok := m["extra_attributes"]; ok && extra != nil {
			attrs, err = scan.StringMap(extra)
		}
		if err != nil {
			return fmt.Errorf("aggregate: row %d: %w", i, err)
		}
		r.Rows = append(r.Rows, attrs)
	}
	return nil
}
