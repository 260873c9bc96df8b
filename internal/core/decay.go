package core

import (
	"context"
	"fmt"

	"isocore/pkg/domain"
)

// RegisterDecayProduct records child as the daughter of the registered parent
// after elapsed months, inserting the chain edge into the cache. The child
// gains an identity and decay provenance.
func (s *Service) RegisterDecayProduct(ctx context.Context, parent Identity, child Composition, elapsed int64) (Composition, Result, error) {
	var logged Composition
	var result Result
	err := s.observe(ctx, "register_decay_product", func(ctx context.Context) error {
		if elapsed <= 0 {
			return fmt.Errorf("decay elapsed must be positive, got %d", elapsed)
		}
		var err error
		result, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			logged, txErr = tx.LogDecayProduct(parent, child, elapsed)
			return txErr
		})
		return err
	})
	return logged, result, err
}

// Decay returns the composition after elapsed months of radioactive decay.
// Zero elapsed returns the input unchanged. For registered compositions the
// chain cache is consulted first and the computed daughter is memoized;
// unregistered inputs are decayed ad hoc and the result carries no
// provenance.
func (s *Service) Decay(ctx context.Context, comp Composition, elapsed int64) (Composition, error) {
	var out Composition
	err := s.observe(ctx, "decay", func(ctx context.Context) error {
		if elapsed < 0 {
			return fmt.Errorf("decay elapsed must be non-negative, got %d", elapsed)
		}
		if elapsed == 0 {
			out = comp
			return nil
		}
		if comp.Logged() {
			var cached Composition
			var hit bool
			if err := s.store.View(ctx, func(view TransactionView) error {
				cached, hit = view.Daughter(comp.ID(), elapsed)
				return nil
			}); err != nil {
				return err
			}
			if hit {
				s.logger.Debug("decay cache hit", "parent", int64(comp.ID()), "elapsed", elapsed)
				out = cached
				return nil
			}
		}
		child, err := s.computeDecay(comp, elapsed)
		if err != nil {
			return err
		}
		if !comp.Logged() {
			out = child
			return nil
		}
		logged, _, err := s.RegisterDecayProduct(ctx, comp.ID(), child, elapsed)
		if err != nil {
			return err
		}
		out = logged
		return nil
	})
	return out, err
}

// computeDecay invokes the configured provider and checks its contract: no
// negative quantities and a non-increasing total mass.
func (s *Service) computeDecay(comp Composition, elapsed int64) (Composition, error) {
	if s.decayer == nil {
		return Composition{}, fmt.Errorf("no decay provider configured")
	}
	mass := comp
	if comp.Basis() != BasisMass {
		converted, err := comp.ToMassBasis()
		if err != nil {
			return Composition{}, err
		}
		mass = converted
	}
	masses, err := s.decayer.Decay(mass.MassFractions(), mass.MassNormalizer(), elapsed)
	if err != nil {
		return Composition{}, fmt.Errorf("decay provider: %w", err)
	}
	var total float64
	for tope, q := range masses {
		if q < 0 {
			return Composition{}, fmt.Errorf("decay provider returned negative quantity %v for isotope %d", q, int(tope))
		}
		total += q
	}
	if total > mass.MassNormalizer()*(1+domain.EpsFraction) {
		return Composition{}, fmt.Errorf("decay provider increased total mass from %v to %v", mass.MassNormalizer(), total)
	}
	return domain.NewComposition(masses)
}

// DecayTimes returns the sorted elapsed times cached for a parent identity.
func (s *Service) DecayTimes(ctx context.Context, parent Identity) []int64 {
	var times []int64
	_ = s.store.View(ctx, func(view TransactionView) error {
		times = view.DecayTimes(parent)
		return nil
	})
	return times
}

// Daughter returns the cached daughter of parent after elapsed months.
func (s *Service) Daughter(ctx context.Context, parent Identity, elapsed int64) (Composition, bool) {
	var child Composition
	var ok bool
	_ = s.store.View(ctx, func(view TransactionView) error {
		child, ok = view.Daughter(parent, elapsed)
		return nil
	})
	return child, ok
}

// Daughters returns every cached daughter of a parent keyed by elapsed
// months.
func (s *Service) Daughters(ctx context.Context, parent Identity) map[int64]Composition {
	var kids map[int64]Composition
	_ = s.store.View(ctx, func(view TransactionView) error {
		kids = view.Daughters(parent)
		return nil
	})
	return kids
}
