package query

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/manojoshi/redisearch/internal"
	"github.com/manojoshi/redisearch/option"
)

// Compile turns an Expr tree into a RediSearch query string. An empty tree
// compiles to "".
func Compile(e Expr) string {
	if e == nil || e.empty() {
		return ""
	}
	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)
	e.compile(buf)
	return buf.String()
}

// -------------------------------------------------------------------
// node writers – kept in a central file so cross-node helpers don’t
// cause import cycles. Only expr.go’s structs know about these funcs.
// -------------------------------------------------------------------

func (n *textFacet) compile(sb *bytes.Buffer) {
	sb.WriteString(field(n.f))
	sb.WriteByte(':')
	// a single word stays bare; several words of one term, or several
	// alternatives, need parentheses to stay inside the field
	if len(n.vs) == 1 && !strings.ContainsAny(n.vs[0], " \t") {
		sb.WriteString(n.vs[0])
		return
	}
	sb.WriteByte('(')
	sb.WriteString(strings.Join(n.vs, "|"))
	sb.WriteByte(')')
}
func (n *textFacet) priority() int { return prioLeaf }
func (n *textFacet) empty() bool   { return len(n.vs) == 0 }

func (n *tagFacet) compile(sb *bytes.Buffer) {
	sb.WriteString(field(n.f) + ":{")
	for i, v := range n.vs {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(v)
	}
	sb.WriteByte('}')
}
func (n *tagFacet) priority() int { return prioLeaf }
func (n *tagFacet) empty() bool   { return len(n.vs) == 0 }

func (n *rng) compile(sb *bytes.Buffer) {
	fmt.Fprintf(sb, "%s:[%s %s]", field(n.f), n.lo.render("-inf"), n.hi.render("+inf"))
}
func (n *rng) priority() int { return prioLeaf }
func (n *rng) empty() bool   { return false }

func (b Bound) render(inf string) string {
	switch {
	case b.unbounded:
		return inf
	case b.exclusive:
		return "(" + b.v
	default:
		return b.v
	}
}

func (n *geo) compile(sb *bytes.Buffer) {
	fmt.Fprintf(sb, "%s:[%s %s %s %s]", field(n.f),
		option.FormatFloat(n.lon), option.FormatFloat(n.lat), option.FormatFloat(n.radius), n.unit)
}
func (n *geo) priority() int { return prioLeaf }
func (n *geo) empty() bool   { return false }

func (n *term) compile(sb *bytes.Buffer) { sb.WriteString(n.s) }
func (n *term) priority() int            { return prioLeaf }
func (n *term) empty() bool              { return n.s == "" }

func (matchAll) compile(sb *bytes.Buffer) { sb.WriteByte('*') }
func (matchAll) priority() int            { return prioLeaf }
func (matchAll) empty() bool              { return false }

func (n *group) compile(sb *bytes.Buffer) {
	kids := n.kids()
	switch len(kids) {
	case 0:
		return
	case 1:
		kids[0].compile(sb)
		return
	}
	if n.op == opOr {
		operands(sb, kids, "|", prioOperand, true)
		return
	}
	operands(sb, kids, " ", 0, false)
}

func (n *group) priority() int {
	kids := n.kids()
	switch {
	case len(kids) == 1:
		return kids[0].priority()
	case n.op == opAnd:
		return prioAnd
	default:
		return prioLeaf
	}
}

func (n *group) empty() bool { return len(n.kids()) == 0 }

func (n *group) kids() []Expr {
	return internal.Filter(n.xs, func(x Expr) bool { return x != nil && !x.empty() })
}

func (n *not) compile(sb *bytes.Buffer) {
	sb.WriteByte('-')
	if t := soleTerm(n.x); t != nil {
		sb.WriteString(t.neg)
		return
	}
	operand(sb, n.x, prioOperand)
}

// soleTerm finds the term x renders as, looking through single-child groups.
func soleTerm(x Expr) *term {
	for {
		switch n := x.(type) {
		case *term:
			return n
		case *group:
			kids := n.kids()
			if len(kids) != 1 {
				return nil
			}
			x = kids[0]
		default:
			return nil
		}
	}
}
func (n *not) priority() int { return prioLeaf }
func (n *not) empty() bool   { return n.x == nil || n.x.empty() }

// operands writes xs joined by sep; (a b)|(c) style wrapping is applied to
// members binding looser than floor.
func operands(sb *bytes.Buffer, xs []Expr, sep string, floor int, parens bool) {
	if parens {
		sb.WriteByte('(')
	}
	for i, x := range xs {
		if i > 0 {
			sb.WriteString(sep)
		}
		operand(sb, x, floor)
	}
	if parens {
		sb.WriteByte(')')
	}
}

func operand(sb *bytes.Buffer, x Expr, floor int) {
	if x.priority() < floor {
		sb.WriteByte('(')
		x.compile(sb)
		sb.WriteByte(')')
		return
	}
	x.compile(sb)
}

// -------------------------------------------------------------------
// Small utility: stringify a tag value.
// -------------------------------------------------------------------

func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		if tok, err := option.TokenOf(v); err == nil {
			return tok.String()
		}
		return fmt.Sprint(t)
	}
}
