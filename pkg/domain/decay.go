package domain

// DecayProvider computes the physical nuclide transformation for a
// composition over elapsed simulation months. Implementations live outside
// this core; the contract requires determinism, a non-increasing total mass,
// and no negative output quantities.
type DecayProvider interface {
	// Decay receives normalized mass fractions and the absolute mass
	// normalizer, and returns absolute per-isotope masses after elapsed
	// months.
	Decay(fractions map[Iso]float64, normalizer float64, elapsed int64) (map[Iso]float64, error)
}

// DecayProviderFunc adapts a function to the DecayProvider interface.
type DecayProviderFunc func(fractions map[Iso]float64, normalizer float64, elapsed int64) (map[Iso]float64, error)

// Decay implements DecayProvider.
func (f DecayProviderFunc) Decay(fractions map[Iso]float64, normalizer float64, elapsed int64) (map[Iso]float64, error) {
	return f(fractions, normalizer, elapsed)
}
