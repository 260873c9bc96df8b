package domain

import (
	"errors"
	"testing"
)

func mustComposition(t *testing.T, masses map[Iso]float64) Composition {
	t.Helper()
	comp, err := NewComposition(masses)
	if err != nil {
		t.Fatalf("new composition: %v", err)
	}
	return comp
}

func TestAddSumsAbsoluteQuantities(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 1, 92238: 9})
	b := mustComposition(t, map[Iso]float64{92238: 1, 8016: 5})

	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := sum.MassNormalizer(); got != 16 {
		t.Fatalf("mass normalizer = %v, want 16", got)
	}
	checks := map[Iso]float64{92235: 1, 92238: 10, 8016: 5}
	for tope, want := range checks {
		if got := sum.MassQuantity(tope); !almostEqual(got, want, 1e-12) {
			t.Fatalf("isotope %d quantity = %v, want %v", int(tope), got, want)
		}
	}
	if sum.Logged() {
		t.Fatal("sum must be unregistered")
	}
}

func TestAddBasisMismatch(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 1})
	atoms, err := a.ToAtomBasis()
	if err != nil {
		t.Fatalf("to atom basis: %v", err)
	}
	_, err = Add(a, atoms)
	var mismatch BasisMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected BasisMismatchError, got %v", err)
	}
	if mismatch.Left != BasisMass || mismatch.Right != BasisAtom {
		t.Fatalf("mismatch = %+v", mismatch)
	}
}

func TestSubtractInverseOfAdd(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 3, 92238: 97})
	b := mustComposition(t, map[Iso]float64{92235: 1, 8016: 2})

	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	diff, err := Subtract(sum, b)
	if err != nil {
		t.Fatalf("subtract: %v", err)
	}
	if !Equal(diff, a) {
		t.Fatalf("subtract(add(a,b),b) differs from a: %v vs %v", diff.MassFractions(), a.MassFractions())
	}
}

func TestSubtractNegativeQuantity(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 1})
	b := mustComposition(t, map[Iso]float64{92235: 2})

	_, err := Subtract(a, b)
	var neg NegativeQuantityError
	if !errors.As(err, &neg) {
		t.Fatalf("expected NegativeQuantityError, got %v", err)
	}
	if neg.Isotope != 92235 || neg.Available != 1 || neg.Requested != 2 {
		t.Fatalf("error detail = %+v", neg)
	}
}

func TestSubtractMissingIsotope(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 1})
	b := mustComposition(t, map[Iso]float64{92238: 1})
	var neg NegativeQuantityError
	if _, err := Subtract(a, b); !errors.As(err, &neg) {
		t.Fatalf("expected NegativeQuantityError, got %v", err)
	}
}

func TestSubtractExactCancellationDropsIsotope(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 1, 92238: 4})
	b := mustComposition(t, map[Iso]float64{92235: 1})

	diff, err := Subtract(a, b)
	if err != nil {
		t.Fatalf("subtract: %v", err)
	}
	if got := len(diff.Isotopes()); got != 1 {
		t.Fatalf("isotope count = %d, want 1", got)
	}
	if got := diff.MassQuantity(92238); !almostEqual(got, 4, 1e-12) {
		t.Fatalf("remaining quantity = %v, want 4", got)
	}
}

func TestScale(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 2, 92238: 8})
	scaled, err := Scale(a, 2.5)
	if err != nil {
		t.Fatalf("scale: %v", err)
	}
	if got := scaled.MassNormalizer(); got != 25 {
		t.Fatalf("mass normalizer = %v, want 25", got)
	}
	for _, tope := range a.Isotopes() {
		if scaled.MassFraction(tope) != a.MassFraction(tope) {
			t.Fatalf("isotope %d: fraction changed under scale", int(tope))
		}
	}

	for _, factor := range []float64{0, -1} {
		if _, err := Scale(a, factor); err == nil {
			t.Fatalf("expected error for factor %v", factor)
		}
	}
}

func TestDivide(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 10})
	half, err := Divide(a, 2)
	if err != nil {
		t.Fatalf("divide: %v", err)
	}
	if got := half.MassNormalizer(); got != 5 {
		t.Fatalf("mass normalizer = %v, want 5", got)
	}
	if _, err := Divide(a, 0); err == nil {
		t.Fatal("expected divide-by-zero error")
	}
}

func TestEqual(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 1, 92238: 3})
	same := mustComposition(t, map[Iso]float64{92238: 3, 92235: 1})
	different := mustComposition(t, map[Iso]float64{92235: 1, 92238: 3.1})
	extra := mustComposition(t, map[Iso]float64{92235: 1, 92238: 3, 8016: 1})

	if !Equal(a, same) {
		t.Fatal("identical compositions should be equal")
	}
	if Equal(a, different) {
		t.Fatal("differing quantities should not be equal")
	}
	if Equal(a, extra) {
		t.Fatal("differing isotope sets should not be equal")
	}
}

func TestEqualAcrossBases(t *testing.T) {
	a := mustComposition(t, map[Iso]float64{92235: 4, 8016: 1})
	atoms, err := a.ToAtomBasis()
	if err != nil {
		t.Fatalf("to atom basis: %v", err)
	}
	if !Equal(a, atoms) {
		t.Fatal("basis conversion should preserve absolute quantities")
	}
}
