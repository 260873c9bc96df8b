package domain

import (
	"fmt"
	"strings"
)

// ValidationIssue describes one invalid entry found while validating a
// composition.
type ValidationIssue struct {
	Isotope Iso    `json:"isotope,omitempty"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

func (i ValidationIssue) String() string {
	if i.Isotope != 0 {
		return fmt.Sprintf("%s of isotope %d: %s", i.Field, int(i.Isotope), i.Reason)
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Reason)
}

// InvalidCompositionError aggregates every invalid isotope or fraction found
// in a composition. It is raised before a composition is accepted into the
// registry or decay chain cache, never on transient arithmetic intermediates.
type InvalidCompositionError struct {
	Issues []ValidationIssue
}

func (e InvalidCompositionError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("invalid composition: %s", strings.Join(parts, "; "))
}

// NegativeQuantityError reports a subtraction that would drive an isotope's
// absolute quantity below zero. The operation is aborted and inputs are left
// untouched.
type NegativeQuantityError struct {
	Isotope   Iso
	Available float64
	Requested float64
}

func (e NegativeQuantityError) Error() string {
	return fmt.Sprintf("subtracting %v of isotope %d exceeds available %v", e.Requested, int(e.Isotope), e.Available)
}

// BasisMismatchError reports arithmetic mixing mass- and atom-based
// compositions without an explicit conversion step.
type BasisMismatchError struct {
	Left  Basis
	Right Basis
}

func (e BasisMismatchError) Error() string {
	return fmt.Sprintf("basis mismatch: %s vs %s", e.Left, e.Right)
}

// DuplicateRecipeError reports an attempt to register a recipe name twice.
type DuplicateRecipeError struct {
	Name string
}

func (e DuplicateRecipeError) Error() string {
	return fmt.Sprintf("recipe %q already registered", e.Name)
}

// UnknownRecipeError reports a lookup of a recipe name that was never
// registered.
type UnknownRecipeError struct {
	Name string
}

func (e UnknownRecipeError) Error() string {
	return fmt.Sprintf("unknown recipe %q", e.Name)
}

// UnknownIdentityError reports a reference to a state id absent from the
// composition arena.
type UnknownIdentityError struct {
	ID Identity
}

func (e UnknownIdentityError) Error() string {
	return fmt.Sprintf("unknown composition identity %d", int64(e.ID))
}
