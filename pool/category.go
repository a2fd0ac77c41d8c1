// Package pool holds the validator pool data model and the snapshot registry
// that serves read queries over it.
package pool

import (
	"encoding/json"
	"fmt"

	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
)

// Category identifies the admission track a validator joined the pool under.
// The set is closed; the chain encodes it as a single byte.
type Category uint8

const (
	// StakeValidator is admitted by bonded economic stake.
	StakeValidator Category = iota
	// ParliamentaryValidator is admitted by a governance seat delegation.
	ParliamentaryValidator
	// MeritValidator is admitted by sustained reputation across prior eras.
	MeritValidator
)

// Categories returns the closed set of admission categories in chain order.
func Categories() []Category {
	return []Category{StakeValidator, ParliamentaryValidator, MeritValidator}
}

func (c Category) String() string {
	switch c {
	case StakeValidator:
		return "stake"
	case ParliamentaryValidator:
		return "parliamentary"
	case MeritValidator:
		return "merit"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Label returns the human-readable name of the category.
func (c Category) Label() string {
	switch c {
	case StakeValidator:
		return "Stake Validator"
	case ParliamentaryValidator:
		return "Parliamentary Validator"
	case MeritValidator:
		return "Merit Validator"
	default:
		return "Unknown"
	}
}

// Requirement returns the static eligibility description shown alongside the
// category on query surfaces.
func (c Category) Requirement() string {
	switch c {
	case StakeValidator:
		return "bonded stake at or above the pool minimum"
	case ParliamentaryValidator:
		return "an active seat delegation from the parliament"
	case MeritValidator:
		return "reputation in the Good tier or better across recent eras"
	default:
		return ""
	}
}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case StakeValidator, ParliamentaryValidator, MeritValidator:
		return true
	default:
		return false
	}
}

// ParseCategory maps the wire string form back to a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "stake":
		return StakeValidator, nil
	case "parliamentary":
		return ParliamentaryValidator, nil
	case "merit":
		return MeritValidator, nil
	default:
		return 0, poolerrors.ErrInvalidCategory.Wrapf("%q", s)
	}
}

// MarshalJSON encodes the category as its string form.
func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, poolerrors.ErrInvalidCategory.Wrapf("%d", uint8(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes the string form, rejecting unknown values.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
