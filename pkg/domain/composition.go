// Package domain defines the isotopic composition value type, its arithmetic,
// and the rule evaluation and persistence primitives used by isocore.
package domain

import (
	"fmt"
	"sort"
)

// Iso is an isotope identifier in ZZZAAA form: atomic number times 1000 plus
// mass number (92235 is uranium-235).
type Iso int

// Identity is the stable state id assigned to a composition once it is
// registered. Zero means unregistered.
type Identity int64

// Basis declares whether a composition's fractions are expressed per unit
// mass or per unit atom count.
type Basis string

// Supported fraction bases.
const (
	BasisMass Basis = "mass"
	BasisAtom Basis = "atom"
)

// Numeric limits shared across the package.
const (
	// Avogadro is the number of entities per mole.
	Avogadro = 6.02e23
	// EpsKg is the smallest mass quantity considered non-zero.
	EpsKg = 1e-6
	// EpsFraction is the relative tolerance for quantity comparisons.
	EpsFraction = 1e-14
)

// AtomicNum returns the atomic number encoded in an isotope identifier.
func AtomicNum(tope Iso) int { return int(tope) / 1000 }

// MassNum returns the mass number encoded in an isotope identifier. It doubles
// as the molar-mass approximation used for mass/atom basis conversion.
func MassNum(tope Iso) int { return int(tope) % 1000 }

// Composition is an immutable isotopic makeup of one material at one point in
// time. Fractions are normalized within the declared basis; the normalizers
// carry the absolute totals so that fraction*normalizer recovers the absolute
// quantity of each isotope. A composition with a non-zero identity is shared
// read-only by every holder of that identity and is never mutated in place.
type Composition struct {
	id        Identity
	basis     Basis
	fractions map[Iso]float64
	massNorm  float64
	atomNorm  float64
	parent    Identity
	elapsed   int64
}

// NewComposition builds a mass-based composition from absolute per-isotope
// masses. The input map is copied, never retained.
func NewComposition(masses map[Iso]float64) (Composition, error) {
	return NewCompositionWithBasis(masses, BasisMass)
}

// NewCompositionWithBasis builds a composition from absolute per-isotope
// quantities in the given basis (masses for BasisMass, atom counts for
// BasisAtom). Quantities must sum to a positive total; per-isotope validity is
// checked later, at registration time.
func NewCompositionWithBasis(quantities map[Iso]float64, basis Basis) (Composition, error) {
	if basis != BasisMass && basis != BasisAtom {
		return Composition{}, fmt.Errorf("unknown basis %q", basis)
	}
	var total float64
	for _, q := range quantities {
		total += q
	}
	if !(total > 0) {
		return Composition{}, InvalidCompositionError{Issues: []ValidationIssue{{
			Field:  "normalizer",
			Reason: fmt.Sprintf("total quantity must be positive, got %v", total),
		}}}
	}
	fractions := make(map[Iso]float64, len(quantities))
	for tope, q := range quantities {
		if q == 0 {
			continue
		}
		fractions[tope] = q / total
	}
	c := Composition{basis: basis, fractions: fractions}
	c.deriveNormalizers(total)
	return c, nil
}

// deriveNormalizers fills massNorm and atomNorm from the normalized fractions
// and the absolute total in the composition's own basis.
func (c *Composition) deriveNormalizers(total float64) {
	switch c.basis {
	case BasisMass:
		c.massNorm = total
		var atoms float64
		for tope, f := range c.fractions {
			if mn := MassNum(tope); mn > 0 {
				atoms += f * total / float64(mn)
			}
		}
		c.atomNorm = atoms
	case BasisAtom:
		c.atomNorm = total
		var mass float64
		for tope, f := range c.fractions {
			mass += f * total * float64(MassNum(tope))
		}
		c.massNorm = mass
	}
}

// ID returns the composition's state id (zero when unregistered).
func (c Composition) ID() Identity { return c.id }

// Basis returns the declared fraction basis.
func (c Composition) Basis() Basis { return c.basis }

// Logged reports whether the composition has been registered.
func (c Composition) Logged() bool { return c.id > 0 }

// Parent returns the identity this composition decayed from, zero for roots.
func (c Composition) Parent() Identity { return c.parent }

// DecayElapsed returns the elapsed months from Parent to this state.
func (c Composition) DecayElapsed() int64 { return c.elapsed }

// MassNormalizer returns the total absolute mass of a unit instance.
func (c Composition) MassNormalizer() float64 { return c.massNorm }

// AtomNormalizer returns the total atom count of a unit instance.
func (c Composition) AtomNormalizer() float64 { return c.atomNorm }

// Isotopes returns the isotopes present, in ascending identifier order.
func (c Composition) Isotopes() []Iso {
	out := make([]Iso, 0, len(c.fractions))
	for tope := range c.fractions {
		out = append(out, tope)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MassFraction returns the normalized mass fraction of an isotope.
func (c Composition) MassFraction(tope Iso) float64 {
	switch c.basis {
	case BasisMass:
		return c.fractions[tope]
	default:
		if c.massNorm <= 0 {
			return 0
		}
		return c.fractions[tope] * float64(MassNum(tope)) * c.atomNorm / c.massNorm
	}
}

// AtomFraction returns the normalized atom (mole) fraction of an isotope,
// converting from mass basis using the isotope's mass number.
func (c Composition) AtomFraction(tope Iso) float64 {
	switch c.basis {
	case BasisAtom:
		return c.fractions[tope]
	default:
		if c.atomNorm <= 0 || MassNum(tope) == 0 {
			return 0
		}
		return c.fractions[tope] * c.massNorm / float64(MassNum(tope)) / c.atomNorm
	}
}

// MassQuantity returns the absolute mass of an isotope in a unit instance.
func (c Composition) MassQuantity(tope Iso) float64 {
	return c.MassFraction(tope) * c.massNorm
}

// IsZero reports whether an isotope's absolute mass is below EpsKg.
func (c Composition) IsZero(tope Iso) bool {
	return c.MassQuantity(tope) < EpsKg
}

// MassFractions returns a copy of the normalized mass-fraction map.
func (c Composition) MassFractions() map[Iso]float64 {
	out := make(map[Iso]float64, len(c.fractions))
	for tope := range c.fractions {
		out[tope] = c.MassFraction(tope)
	}
	return out
}

// ToAtomBasis returns an unregistered atom-based rendition of the
// composition. Converting back with ToMassBasis reproduces the original
// fractions within floating-point tolerance.
func (c Composition) ToAtomBasis() (Composition, error) {
	if c.basis == BasisAtom {
		return c.detached(), nil
	}
	atoms := make(map[Iso]float64, len(c.fractions))
	for tope, f := range c.fractions {
		if mn := MassNum(tope); mn > 0 {
			atoms[tope] = f * c.massNorm / float64(mn)
		}
	}
	return NewCompositionWithBasis(atoms, BasisAtom)
}

// ToMassBasis returns an unregistered mass-based rendition of the composition.
func (c Composition) ToMassBasis() (Composition, error) {
	if c.basis == BasisMass {
		return c.detached(), nil
	}
	masses := make(map[Iso]float64, len(c.fractions))
	for tope, f := range c.fractions {
		masses[tope] = f * c.atomNorm * float64(MassNum(tope))
	}
	return NewCompositionWithBasis(masses, BasisMass)
}

// Normalized returns an unregistered copy whose mass normalizer is unity,
// preserving relative isotopics.
func (c Composition) Normalized() Composition {
	out := c.detached()
	if c.massNorm > 0 {
		out.atomNorm = c.atomNorm / c.massNorm
		out.massNorm = 1
	}
	return out
}

// detached clones the composition without identity or provenance. The
// fraction map is copied so the clone never aliases registered state.
func (c Composition) detached() Composition {
	fractions := make(map[Iso]float64, len(c.fractions))
	for tope, f := range c.fractions {
		fractions[tope] = f
	}
	return Composition{
		basis:     c.basis,
		fractions: fractions,
		massNorm:  c.massNorm,
		atomNorm:  c.atomNorm,
	}
}

// StateRecord is the serializable full state of a composition, used for
// snapshots and for the durable state archive.
type StateRecord struct {
	ID             Identity        `json:"id"`
	Basis          Basis           `json:"basis"`
	Fractions      map[Iso]float64 `json:"fractions"`
	MassNormalizer float64         `json:"mass_normalizer"`
	AtomNormalizer float64         `json:"atom_normalizer"`
	Parent         Identity        `json:"parent,omitempty"`
	DecayElapsed   int64           `json:"decay_elapsed,omitempty"`
}

// Record captures the composition's full state.
func (c Composition) Record() StateRecord {
	fractions := make(map[Iso]float64, len(c.fractions))
	for tope, f := range c.fractions {
		fractions[tope] = f
	}
	return StateRecord{
		ID:             c.id,
		Basis:          c.basis,
		Fractions:      fractions,
		MassNormalizer: c.massNorm,
		AtomNormalizer: c.atomNorm,
		Parent:         c.parent,
		DecayElapsed:   c.elapsed,
	}
}

// CompositionFromRecord rebuilds a composition from its recorded state.
func CompositionFromRecord(rec StateRecord) (Composition, error) {
	if rec.Basis != BasisMass && rec.Basis != BasisAtom {
		return Composition{}, fmt.Errorf("unknown basis %q", rec.Basis)
	}
	if !(rec.MassNormalizer > 0) {
		return Composition{}, fmt.Errorf("mass normalizer must be positive, got %v", rec.MassNormalizer)
	}
	fractions := make(map[Iso]float64, len(rec.Fractions))
	for tope, f := range rec.Fractions {
		fractions[tope] = f
	}
	return Composition{
		id:        rec.ID,
		basis:     rec.Basis,
		fractions: fractions,
		massNorm:  rec.MassNormalizer,
		atomNorm:  rec.AtomNormalizer,
		parent:    rec.Parent,
		elapsed:   rec.DecayElapsed,
	}, nil
}

// WithIdentity returns a copy carrying the assigned state id. Used by stores
// when a composition is accepted into the identity arena.
func (c Composition) WithIdentity(id Identity) Composition {
	out := c.detached()
	out.id = id
	out.parent = c.parent
	out.elapsed = c.elapsed
	return out
}

// AsDaughterOf returns an unregistered copy carrying decay provenance from
// the given parent identity over elapsed months.
func (c Composition) AsDaughterOf(parent Identity, elapsed int64) Composition {
	out := c.detached()
	out.parent = parent
	out.elapsed = elapsed
	return out
}
