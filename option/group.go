package option

import "github.com/Masterminds/semver/v3"

// Group is a composite option: named children rendered in declaration order,
// optionally opened by a leading keyword. The group is invalid, and renders
// nothing, while any required child is invalid.
type Group struct {
	name     string
	lead     *Flag
	names    []string
	children map[string]Option
	required map[string]bool
}

// NewGroup returns an empty group. name identifies it in errors.
func NewGroup(name string) *Group {
	return &Group{
		name:     name,
		children: map[string]Option{},
		required: map[string]bool{},
	}
}

// Lead opens the group with keyword. The keyword is a required flag which
// stays off until Enable is called.
func (g *Group) Lead(keyword string) *Group {
	g.lead = NewFlag(keyword)
	return g
}

// Since restricts the leading keyword, and with it the whole group, to
// servers matching constraint.
func (g *Group) Since(constraint string) *Group {
	if g.lead == nil {
		g.lead = NewFlag(g.name)
	}
	g.lead.Since(constraint)
	return g
}

// Enable switches the leading keyword on.
func (g *Group) Enable() *Group {
	if g.lead != nil {
		g.lead.Set(true)
	}
	return g
}

// Disable switches the leading keyword off.
func (g *Group) Disable() *Group {
	if g.lead != nil {
		g.lead.Set(false)
	}
	return g
}

// Enabled reports whether the leading keyword is on. Groups without one are
// always enabled.
func (g *Group) Enabled() bool { return g.lead == nil || g.lead.On() }

// Add appends an optional child.
func (g *Group) Add(name string, o Option) *Group { return g.add(name, o, false) }

// Require appends a mandatory child.
func (g *Group) Require(name string, o Option) *Group { return g.add(name, o, true) }

func (g *Group) add(name string, o Option, required bool) *Group {
	if _, dup := g.children[name]; !dup {
		g.names = append(g.names, name)
	}
	g.children[name] = o
	g.required[name] = required
	return g
}

// Child returns the child registered under name.
func (g *Group) Child(name string) (Option, bool) {
	o, ok := g.children[name]
	return o, ok
}

// Names returns the children in render order.
func (g *Group) Names() []string { return append([]string(nil), g.names...) }

// Missing lists the required children that are not valid yet.
func (g *Group) Missing() []string {
	var out []string
	if g.lead != nil && !g.lead.On() {
		out = append(out, g.lead.Keyword())
	}
	for _, n := range g.names {
		if g.required[n] && !g.children[n].Valid() {
			out = append(out, n)
		}
	}
	return out
}

// Validate returns an *IncompleteError naming every missing child.
func (g *Group) Validate() error {
	if m := g.Missing(); len(m) > 0 {
		return &IncompleteError{Group: g.name, Missing: m}
	}
	return nil
}

func (g *Group) Valid() bool { return len(g.Missing()) == 0 }

// Len counts the valid children.
func (g *Group) Len() int {
	var n int
	for _, name := range g.names {
		if g.children[name].Valid() {
			n++
		}
	}
	return n
}

func (g *Group) Render(v *semver.Version) Tokens {
	if !g.Valid() {
		return nil
	}
	var out Tokens
	if g.lead != nil {
		lead := g.lead.Render(v)
		if len(lead) == 0 {
			return nil
		}
		out = append(out, lead...)
	}
	for _, name := range g.names {
		if c := g.children[name]; c.Valid() {
			out = append(out, c.Render(v)...)
		}
	}
	return out
}

// -------------------------------------------------------------------
// Limit
// -------------------------------------------------------------------

// Limit renders `LIMIT offset size`. Both values are required.
type Limit struct {
	*Group
	offset *Nameless[int64]
	size   *Nameless[int64]
}

// NewLimit returns an unset LIMIT option.
func NewLimit() *Limit {
	l := &Limit{offset: NewNameless[int64](), size: NewNameless[int64]()}
	l.Group = NewGroup("LIMIT").Lead("LIMIT").
		Require("offset", l.offset).
		Require("size", l.size).
		Enable()
	return l
}

// SetOffset sets the first result to return.
func (l *Limit) SetOffset(offset int64) *Limit { l.offset.Set(offset); return l }

// SetSize sets the number of results to return.
func (l *Limit) SetSize(size int64) *Limit { l.size.Set(size); return l }

// Set sets both values.
func (l *Limit) Set(offset, size int64) *Limit { return l.SetOffset(offset).SetSize(size) }

// Clear unsets both values.
func (l *Limit) Clear() { l.offset.Clear(); l.size.Clear() }

// Get returns the configured paging and whether it is complete.
func (l *Limit) Get() (offset, size int64, ok bool) {
	o, okO := l.offset.Get()
	s, okS := l.size.Get()
	return o, s, okO && okS
}
