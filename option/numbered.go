package option

import "github.com/Masterminds/semver/v3"

// Numbered renders `KEYWORD count item...`, with count the number of item
// tokens. It is valid once it holds at least one item, or always when
// AllowEmpty was called (rendering `KEYWORD 0`).
type Numbered struct {
	keyword    string
	items      Tokens
	allowEmpty bool
	gate
}

// NewNumbered returns an empty counted list.
func NewNumbered(keyword string) *Numbered { return &Numbered{keyword: keyword} }

// AllowEmpty makes the empty list valid.
func (n *Numbered) AllowEmpty() *Numbered { n.allowEmpty = true; return n }

// Since restricts the option to servers matching constraint.
func (n *Numbered) Since(constraint string) *Numbered {
	n.gate = mustGate(constraint)
	return n
}

// Add appends items. The whole call fails, leaving the list untouched, when
// any item is not a scalar.
func (n *Numbered) Add(items ...any) error {
	ts, err := Of(items...)
	if err != nil {
		return err
	}
	n.items = append(n.items, ts...)
	return nil
}

// AddStrings appends string items.
func (n *Numbered) AddStrings(items ...string) *Numbered {
	n.items = append(n.items, Strs(items...)...)
	return n
}

// AddTokens appends ready-made tokens.
func (n *Numbered) AddTokens(items ...Token) *Numbered {
	n.items = append(n.items, items...)
	return n
}

// Items returns a copy of the held items.
func (n *Numbered) Items() Tokens { return append(Tokens(nil), n.items...) }

// Reset empties the list.
func (n *Numbered) Reset() { n.items = nil }

// Keyword returns the option's keyword.
func (n *Numbered) Keyword() string { return n.keyword }

func (n *Numbered) Len() int { return len(n.items) }

func (n *Numbered) Valid() bool { return n.allowEmpty || len(n.items) > 0 }

func (n *Numbered) Render(v *semver.Version) Tokens {
	if !n.Valid() || !n.supports(v) {
		return nil
	}
	out := make(Tokens, 0, len(n.items)+2)
	out = append(out, Str(n.keyword), Int(int64(len(n.items))))
	return append(out, n.items...)
}
