package domain

import "fmt"

const (
	minAtomicNum = 1
	maxAtomicNum = 118
)

// ValidateIsotope checks that an isotope identifier decomposes into a valid
// atomic number (1-118) and a mass number no smaller than the atomic number.
func ValidateIsotope(tope Iso) error {
	z := AtomicNum(tope)
	a := MassNum(tope)
	if z < minAtomicNum || z > maxAtomicNum {
		return fmt.Errorf("atomic number %d out of range [%d,%d]", z, minAtomicNum, maxAtomicNum)
	}
	if a < z {
		return fmt.Errorf("mass number %d smaller than atomic number %d", a, z)
	}
	return nil
}

// ValidateFraction checks that a fraction value is non-negative.
func ValidateFraction(fraction float64) error {
	if fraction < 0 {
		return fmt.Errorf("fraction must be non-negative, got %v", fraction)
	}
	return nil
}

// ValidateComposition validates every isotope/fraction pair plus the
// normalizer and provenance invariants, aggregating all violations rather
// than stopping at the first. It returns a single InvalidCompositionError
// listing every bad entry when any exist.
func ValidateComposition(c Composition) error {
	var issues []ValidationIssue
	for _, tope := range c.Isotopes() {
		if err := ValidateIsotope(tope); err != nil {
			issues = append(issues, ValidationIssue{Isotope: tope, Field: "isotope", Reason: err.Error()})
		}
		if err := ValidateFraction(c.fractions[tope]); err != nil {
			issues = append(issues, ValidationIssue{Isotope: tope, Field: "fraction", Reason: err.Error()})
		}
	}
	if !(c.massNorm > 0) {
		issues = append(issues, ValidationIssue{Field: "normalizer", Reason: fmt.Sprintf("mass normalizer must be positive, got %v", c.massNorm)})
	}
	if c.parent == 0 && c.elapsed != 0 {
		issues = append(issues, ValidationIssue{Field: "provenance", Reason: fmt.Sprintf("decay elapsed %d without a parent", c.elapsed)})
	}
	if c.elapsed < 0 {
		issues = append(issues, ValidationIssue{Field: "provenance", Reason: fmt.Sprintf("decay elapsed must be non-negative, got %d", c.elapsed)})
	}
	if len(issues) > 0 {
		return InvalidCompositionError{Issues: issues}
	}
	return nil
}
