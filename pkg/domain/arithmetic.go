package domain

import (
	"fmt"
	"math"
)

// Add combines two compositions of matching basis, summing absolute
// per-isotope quantities and re-deriving normalizers. The result is a new,
// unregistered composition; inputs are never mutated.
func Add(a, b Composition) (Composition, error) {
	if a.basis != b.basis {
		return Composition{}, BasisMismatchError{Left: a.basis, Right: b.basis}
	}
	combined := make(map[Iso]float64, len(a.fractions)+len(b.fractions))
	for tope, f := range a.fractions {
		combined[tope] += f * a.norm()
	}
	for tope, f := range b.fractions {
		combined[tope] += f * b.norm()
	}
	return NewCompositionWithBasis(combined, a.basis)
}

// Subtract removes b's absolute per-isotope quantities from a's. It fails
// with NegativeQuantityError when any isotope in b exceeds the corresponding
// quantity in a; there is no implicit clamping to zero. Exact cancellations
// (within EpsFraction relative) drop the isotope from the result.
func Subtract(a, b Composition) (Composition, error) {
	if a.basis != b.basis {
		return Composition{}, BasisMismatchError{Left: a.basis, Right: b.basis}
	}
	remaining := make(map[Iso]float64, len(a.fractions))
	for tope, f := range a.fractions {
		remaining[tope] = f * a.norm()
	}
	for tope, f := range b.fractions {
		take := f * b.norm()
		have := remaining[tope]
		diff := have - take
		if diff < -EpsFraction*math.Max(have, take) {
			return Composition{}, NegativeQuantityError{Isotope: tope, Available: have, Requested: take}
		}
		if diff <= EpsFraction*math.Max(have, take) {
			delete(remaining, tope)
			continue
		}
		remaining[tope] = diff
	}
	return NewCompositionWithBasis(remaining, a.basis)
}

// Scale multiplies the composition's normalizers by factor, leaving fractions
// untouched, so scaling is O(1) in the isotope count. Factor must be
// positive.
func Scale(a Composition, factor float64) (Composition, error) {
	if !(factor > 0) {
		return Composition{}, fmt.Errorf("scale factor must be positive, got %v", factor)
	}
	out := a.detached()
	out.massNorm *= factor
	out.atomNorm *= factor
	return out, nil
}

// Divide scales the composition by the reciprocal of factor.
func Divide(a Composition, factor float64) (Composition, error) {
	if factor == 0 {
		return Composition{}, fmt.Errorf("divide by zero")
	}
	return Scale(a, 1/factor)
}

// Equal reports whether every isotope appearing in either composition has the
// same absolute mass quantity within EpsFraction relative tolerance. Isotopes
// absent from one side count as zero.
func Equal(a, b Composition) bool {
	seen := make(map[Iso]struct{}, len(a.fractions)+len(b.fractions))
	for tope := range a.fractions {
		seen[tope] = struct{}{}
	}
	for tope := range b.fractions {
		seen[tope] = struct{}{}
	}
	for tope := range seen {
		qa := a.MassQuantity(tope)
		qb := b.MassQuantity(tope)
		if math.Abs(qa-qb) > EpsFraction*math.Max(math.Abs(qa), math.Abs(qb)) {
			return false
		}
	}
	return true
}

// norm returns the normalizer matching the composition's own basis.
func (c Composition) norm() float64 {
	if c.basis == BasisAtom {
		return c.atomNorm
	}
	return c.massNorm
}
