package index

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manojoshi/redisearch/option"
	"github.com/manojoshi/redisearch/scan"
)

// ErrMalformedField is wrapped by every ParseField failure.
var ErrMalformedField = errors.New("index: malformed field definition")

// ParseField rebuilds a Field from its schema tokens, as produced by
// Field.Render. Unknown keywords are an error.
func ParseField(args ...any) (*Field, error) {
	ts, err := option.Of(args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedField, err)
	}
	p := &fieldParser{toks: ts.Strings(), strict: true}
	return p.parse()
}

type fieldParser struct {
	toks   []string
	pos    int
	strict bool
}

func (p *fieldParser) done() bool { return p.pos >= len(p.toks) }

func (p *fieldParser) next(what string) (string, error) {
	if p.done() {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedField, what)
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *fieldParser) peekFold(kw string) bool {
	return !p.done() && strings.EqualFold(p.toks[p.pos], kw)
}

func (p *fieldParser) parse() (*Field, error) {
	name, err := p.next("name")
	if err != nil {
		return nil, err
	}
	var opts []FieldOption
	if p.peekFold("AS") {
		p.pos++
		alias, err := p.next("alias")
		if err != nil {
			return nil, err
		}
		opts = append(opts, As(alias))
	}
	rawType, err := p.next("type")
	if err != nil {
		return nil, err
	}

	typ := FieldType(strings.ToUpper(rawType))
	switch typ {
	case TypeVector:
		return p.parseVector(name, opts)
	case TypeText, TypeNumeric, TypeGeo, TypeTag:
		more, err := p.parseScalarAttrs()
		if err != nil {
			return nil, err
		}
		return build(newField(name, typ, ""), append(opts, more...))
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedField, rawType)
	}
}

func (p *fieldParser) parseScalarAttrs() ([]FieldOption, error) {
	var opts []FieldOption
	for !p.done() {
		kw, _ := p.next("keyword")
		switch strings.ToUpper(kw) {
		case "NOSTEM":
			opts = append(opts, NoStem())
		case "SORTABLE":
			opts = append(opts, Sortable())
		case "UNF":
			opts = append(opts, UNF())
		case "NOINDEX":
			opts = append(opts, NoIndex())
		case "CASESENSITIVE":
			opts = append(opts, CaseSensitive())
		case "WITHSUFFIXTRIE":
			opts = append(opts, WithSuffixTrie())
		case "INDEXMISSING":
			opts = append(opts, IndexMissing())
		case "WEIGHT":
			v, err := p.float("WEIGHT")
			if err != nil {
				return nil, err
			}
			opts = append(opts, Weight(v))
		case "PHONETIC":
			v, err := p.next("PHONETIC value")
			if err != nil {
				return nil, err
			}
			opts = append(opts, Phonetic(v))
		case "SEPARATOR":
			v, err := p.next("SEPARATOR value")
			if err != nil {
				return nil, err
			}
			opts = append(opts, Separator(v))
		default:
			if p.strict {
				return nil, fmt.Errorf("%w: unknown attribute %q", ErrMalformedField, kw)
			}
		}
	}
	return opts, nil
}

func (p *fieldParser) parseVector(name string, opts []FieldOption) (*Field, error) {
	rawAlg, err := p.next("algorithm")
	if err != nil {
		return nil, err
	}
	n, err := p.int("attribute count")
	if err != nil {
		return nil, err
	}
	if n%2 != 0 || p.pos+int(n) > len(p.toks) {
		return nil, fmt.Errorf("%w: vector attribute count %d", ErrMalformedField, n)
	}
	end := p.pos + int(n)
	for p.pos < end {
		k, _ := p.next("attribute")
		v, _ := p.next("value")
		o, err := vectorAttr(k, v)
		if err != nil {
			return nil, err
		}
		if o != nil {
			opts = append(opts, o)
		}
	}
	if !p.done() {
		return nil, fmt.Errorf("%w: trailing tokens after vector attributes", ErrMalformedField)
	}
	return VectorField(name, Algorithm(strings.ToUpper(rawAlg)), opts...)
}

// vectorAttr maps one vector attribute, in schema or FT.INFO spelling, to
// an option. Unknown informational keys map to nil.
func vectorAttr(key, val string) (FieldOption, error) {
	asInt := func() (int64, error) {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q: %w", ErrMalformedField, key, val, err)
		}
		return n, nil
	}

	switch strings.ToUpper(key) {
	case "TYPE", "DATA_TYPE":
		return VectorType(strings.ToUpper(val)), nil
	case "DISTANCE_METRIC":
		return DistanceMetric(strings.ToUpper(val)), nil
	case "EPSILON":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: EPSILON %q: %w", ErrMalformedField, val, err)
		}
		return Epsilon(f), nil
	case "DIM", "INITIAL_CAP", "BLOCK_SIZE", "M", "EF_CONSTRUCTION", "EF_RUNTIME":
		n, err := asInt()
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(key) {
		case "DIM":
			return Dim(n), nil
		case "INITIAL_CAP":
			return InitialCap(n), nil
		case "BLOCK_SIZE":
			return BlockSize(n), nil
		case "M":
			return M(n), nil
		case "EF_CONSTRUCTION":
			return EFConstruction(n), nil
		default:
			return EFRuntime(n), nil
		}
	default:
		return nil, nil
	}
}

func (p *fieldParser) float(what string) (float64, error) {
	s, err := p.next(what)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", ErrMalformedField, what, s, err)
	}
	return f, nil
}

func (p *fieldParser) int(what string) (int64, error) {
	s, err := p.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", ErrMalformedField, what, s, err)
	}
	return n, nil
}

// -------------------------------------------------------------------
// FT.INFO attributes
// -------------------------------------------------------------------

// FieldFromInfo maps one entry of the FT.INFO "attributes" list to a Field.
// RESP2 rows look like
//
//	identifier title attribute title type TEXT WEIGHT 1 SORTABLE
//
// and RESP3 rows are maps with a "flags" list. Attributes this package does
// not model are skipped.
func FieldFromInfo(row any) (*Field, error) {
	var identifier, attribute, typ string
	var rest []string
	var pairs [][2]string

	switch r := row.(type) {
	case []interface{}:
		toks := scan.Strings(r)
		for i := 0; i < len(toks); i++ {
			switch strings.ToLower(toks[i]) {
			case "identifier", "attribute", "type":
				if i+1 >= len(toks) {
					return nil, fmt.Errorf("%w: %s without value", ErrMalformedField, toks[i])
				}
				switch strings.ToLower(toks[i]) {
				case "identifier":
					identifier = toks[i+1]
				case "attribute":
					attribute = toks[i+1]
				default:
					typ = toks[i+1]
				}
				i++
			default:
				rest = append(rest, toks[i])
			}
		}
	default:
		kv, err := scan.Pairs(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedField, err)
		}
		for k, v := range kv {
			switch strings.ToLower(k) {
			case "identifier":
				identifier = scan.String(v)
			case "attribute":
				attribute = scan.String(v)
			case "type":
				typ = scan.String(v)
			case "flags":
				rest = append(rest, scan.Strings(v)...)
			default:
				pairs = append(pairs, [2]string{k, scan.String(v)})
			}
		}
	}

	if identifier == "" {
		identifier = attribute
	}
	// RediSearch 1.x rows open with the bare field name
	if identifier == "" && len(rest) > 0 {
		identifier, rest = rest[0], rest[1:]
	}
	if identifier == "" || typ == "" {
		return nil, fmt.Errorf("%w: attribute row without identifier or type", ErrMalformedField)
	}

	var opts []FieldOption
	if attribute != "" && attribute != identifier {
		opts = append(opts, As(attribute))
	}

	ft := FieldType(strings.ToUpper(typ))
	if ft == TypeVector {
		alg := ""
		for i := 0; i+1 < len(rest); i += 2 {
			pairs = append(pairs, [2]string{rest[i], rest[i+1]})
		}
		for _, kv := range pairs {
			if strings.EqualFold(kv[0], "algorithm") {
				alg = strings.ToUpper(kv[1])
				continue
			}
			o, err := vectorAttr(kv[0], kv[1])
			if err != nil {
				return nil, err
			}
			if o != nil {
				opts = append(opts, o)
			}
		}
		return VectorField(identifier, Algorithm(alg), opts...)
	}

	// map rows carry valued attributes as pairs; flatten them back
	for _, kv := range pairs {
		rest = append(rest, kv[0], kv[1])
	}
	p := &fieldParser{toks: rest, strict: false}
	more, err := p.parseScalarAttrs()
	if err != nil {
		return nil, err
	}
	switch ft {
	case TypeText, TypeNumeric, TypeGeo, TypeTag:
		return build(newField(identifier, ft, ""), append(opts, more...))
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedField, typ)
	}
}
