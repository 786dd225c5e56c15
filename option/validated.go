package option

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/exp/constraints"
)

// Checker rejects a value by returning the reason.
type Checker[T Scalar] func(T) error

// Validated guards an inner option with a checker. A rejected value is
// reported immediately and never reaches the inner option.
type Validated[T Scalar] struct {
	name  string
	inner Settable[T]
	check Checker[T]
}

// Validate decorates inner. name identifies the option in errors.
func Validate[T Scalar](name string, inner Settable[T], check Checker[T]) *Validated[T] {
	return &Validated[T]{name: name, inner: inner, check: check}
}

// NewValidated is Validate over a fresh Named option.
func NewValidated[T Scalar](keyword string, check Checker[T]) *Validated[T] {
	return Validate[T](keyword, NewNamed[T](keyword), check)
}

// Set assigns v or returns a *ValueError.
func (o *Validated[T]) Set(v T) error {
	if o.check != nil {
		if err := o.check(v); err != nil {
			return &ValueError{Option: o.name, Value: v, Reason: err.Error()}
		}
	}
	o.inner.Set(v)
	return nil
}

// Inner returns the decorated option.
func (o *Validated[T]) Inner() Settable[T] { return o.inner }

func (o *Validated[T]) Valid() bool { return o.inner.Valid() }

func (o *Validated[T]) Render(v *semver.Version) Tokens { return o.inner.Render(v) }

// -------------------------------------------------------------------
// stock checkers
// -------------------------------------------------------------------

// OneOf accepts only the listed values.
func OneOf[T Scalar](allowed ...T) Checker[T] {
	return func(v T) error {
		for _, a := range allowed {
			if a == v {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v", allowed)
	}
}

// OneOfFold is OneOf for strings, ignoring case.
func OneOfFold(allowed ...string) Checker[string] {
	return func(v string) error {
		for _, a := range allowed {
			if strings.EqualFold(a, v) {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

// Between accepts lo <= v <= hi.
func Between[T constraints.Integer | constraints.Float](lo, hi T) Checker[T] {
	return func(v T) error {
		if v < lo || v > hi {
			return fmt.Errorf("must be between %v and %v", lo, hi)
		}
		return nil
	}
}

// Positive accepts v > 0.
func Positive[T constraints.Integer | constraints.Float]() Checker[T] {
	return func(v T) error {
		if v <= 0 {
			return errors.New("must be positive")
		}
		return nil
	}
}

// NonNegative accepts v >= 0.
func NonNegative[T constraints.Integer | constraints.Float]() Checker[T] {
	return func(v T) error {
		if v < 0 {
			return errors.New("must not be negative")
		}
		return nil
	}
}

// SingleChar accepts strings of exactly one character.
func SingleChar() Checker[string] {
	return func(v string) error {
		if utf8.RuneCountInString(v) != 1 {
			return errors.New("must be single char")
		}
		return nil
	}
}

// NotBlank rejects empty and whitespace-only strings.
func NotBlank() Checker[string] {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.New("must not be blank")
		}
		return nil
	}
}

// Languages lists the stemming languages the server accepts.
var Languages = []string{
	"arabic", "armenian", "basque", "catalan", "chinese", "danish", "dutch",
	"english", "finnish", "french", "german", "greek", "hindi", "hungarian",
	"indonesian", "irish", "italian", "lithuanian", "nepali", "norwegian",
	"portuguese", "romanian", "russian", "serbian", "spanish", "swedish",
	"tamil", "turkish", "yiddish",
}

// Language accepts the names in Languages, ignoring case.
func Language() Checker[string] { return OneOfFold(Languages...) }
