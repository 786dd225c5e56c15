// Package option holds the small building blocks every RediSearch command is
// made of: flags, keyword/value pairs, positional values, counted lists and
// groups of those.
//
// Each option answers two questions: is it configured enough to be emitted
// (Valid), and what tokens does it contribute (Render). An option that is not
// valid renders nothing. Validation is lazy on purpose so callers can fill a
// group in any order and only then render it.
//
//	limit := option.NewLimit()
//	limit.SetOffset(10)
//	limit.Render(nil) // empty, size not set yet
//	limit.SetSize(20)
//	limit.Render(nil) // LIMIT 10 20
package option

import "github.com/Masterminds/semver/v3"

// Option is one self-validating command fragment. Render receives the target
// server version; nil means "assume compatible".
type Option interface {
	Valid() bool
	Render(v *semver.Version) Tokens
}

// Sized is an option that can report how much data it holds.
type Sized interface {
	Option
	Len() int
}

// Settable is an option whose single value can be assigned.
type Settable[T Scalar] interface {
	Option
	Set(v T)
}

// -------------------------------------------------------------------
// Flag
// -------------------------------------------------------------------

// Flag renders a bare keyword while it is switched on.
type Flag struct {
	keyword string
	on      bool
	gate
}

// NewFlag returns a switched-off flag.
func NewFlag(keyword string) *Flag { return &Flag{keyword: keyword} }

// Since restricts the flag to servers matching constraint, e.g. ">=2.6.0".
// It panics on a malformed constraint.
func (f *Flag) Since(constraint string) *Flag {
	f.gate = mustGate(constraint)
	return f
}

// Set switches the flag.
func (f *Flag) Set(on bool) *Flag { f.on = on; return f }

// On reports whether the flag is switched on.
func (f *Flag) On() bool { return f.on }

// Keyword returns the flag's keyword.
func (f *Flag) Keyword() string { return f.keyword }

func (f *Flag) Valid() bool { return f.on }

func (f *Flag) Len() int {
	if f.on {
		return 1
	}
	return 0
}

func (f *Flag) Render(v *semver.Version) Tokens {
	if !f.on || !f.supports(v) {
		return nil
	}
	return Tokens{Str(f.keyword)}
}

// -------------------------------------------------------------------
// Named
// -------------------------------------------------------------------

// Named renders `KEYWORD value` once a value is set.
type Named[T Scalar] struct {
	keyword string
	value   T
	set     bool
	gate
}

// NewNamed returns an unset keyword/value option.
func NewNamed[T Scalar](keyword string) *Named[T] { return &Named[T]{keyword: keyword} }

// Since restricts the option to servers matching constraint.
func (n *Named[T]) Since(constraint string) *Named[T] {
	n.gate = mustGate(constraint)
	return n
}

func (n *Named[T]) Set(v T) { n.value, n.set = v, true }

// Clear unsets the value.
func (n *Named[T]) Clear() {
	var zero T
	n.value, n.set = zero, false
}

// Get returns the value and whether it is set.
func (n *Named[T]) Get() (T, bool) { return n.value, n.set }

// Keyword returns the option's keyword.
func (n *Named[T]) Keyword() string { return n.keyword }

func (n *Named[T]) Valid() bool { return n.set }

func (n *Named[T]) Len() int { return scalarLen(n.value, n.set) }

func (n *Named[T]) Render(v *semver.Version) Tokens {
	if !n.set || !n.supports(v) {
		return nil
	}
	return Tokens{Str(n.keyword), ScalarToken(n.value)}
}

// -------------------------------------------------------------------
// Nameless
// -------------------------------------------------------------------

// Nameless renders a single positional value once it is set.
type Nameless[T Scalar] struct {
	value T
	set   bool
}

// NewNameless returns an unset positional option.
func NewNameless[T Scalar]() *Nameless[T] { return &Nameless[T]{} }

func (n *Nameless[T]) Set(v T) { n.value, n.set = v, true }

// Clear unsets the value.
func (n *Nameless[T]) Clear() {
	var zero T
	n.value, n.set = zero, false
}

// Get returns the value and whether it is set.
func (n *Nameless[T]) Get() (T, bool) { return n.value, n.set }

func (n *Nameless[T]) Valid() bool { return n.set }

func (n *Nameless[T]) Len() int { return scalarLen(n.value, n.set) }

func (n *Nameless[T]) Render(*semver.Version) Tokens {
	if !n.set {
		return nil
	}
	return Tokens{ScalarToken(n.value)}
}

// -------------------------------------------------------------------
// NotEmpty
// -------------------------------------------------------------------

type notEmpty struct{ inner Sized }

// NotEmpty makes o invalid while it holds no data, even where o itself would
// accept being empty.
func NotEmpty(o Sized) Option { return notEmpty{inner: o} }

func (o notEmpty) Valid() bool { return o.inner.Valid() && o.inner.Len() > 0 }

func (o notEmpty) Render(v *semver.Version) Tokens {
	if !o.Valid() {
		return nil
	}
	return o.inner.Render(v)
}

// scalarLen is 0 for unset values and empty strings, 1 otherwise.
func scalarLen[T Scalar](v T, set bool) int {
	if !set {
		return 0
	}
	if t := ScalarToken(v); t.Kind() == KindString && t.String() == "" {
		return 0
	}
	return 1
}
