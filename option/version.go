package option

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a "major.minor.patch" module version.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("option: parse version %q: %w", s, err)
	}
	return v, nil
}

// Supports reports whether v satisfies constraint. A nil version is assumed
// compatible.
func Supports(v *semver.Version, constraint string) (bool, error) {
	if v == nil {
		return true, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("option: parse constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}

// gate is an optional version constraint shared by keyword options.
type gate struct {
	constraint *semver.Constraints
}

func mustGate(constraint string) gate {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		panic(fmt.Sprintf("option: bad version constraint %q: %v", constraint, err))
	}
	return gate{constraint: c}
}

func (g gate) supports(v *semver.Version) bool {
	if g.constraint == nil || v == nil {
		return true
	}
	return g.constraint.Check(v)
}

// Constraint returns the declared constraint, or "" when there is none.
func (g gate) Constraint() string {
	if g.constraint == nil {
		return ""
	}
	return g.constraint.String()
}
