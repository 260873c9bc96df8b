package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"isocore/pkg/domain"
)

func mustComposition(t *testing.T, masses map[domain.Iso]float64) domain.Composition {
	t.Helper()
	comp, err := domain.NewComposition(masses)
	if err != nil {
		t.Fatalf("new composition: %v", err)
	}
	return comp
}

func registerRecipe(t *testing.T, store *Store, name string, comp domain.Composition) domain.Composition {
	t.Helper()
	var logged domain.Composition
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var txErr error
		logged, txErr = tx.LogRecipe(name, comp)
		return txErr
	})
	if err != nil {
		t.Fatalf("register recipe %s: %v", name, err)
	}
	return logged
}

func TestLogRecipeAssignsMonotoneIdentities(t *testing.T) {
	store := NewStore(nil)
	first := registerRecipe(t, store, "leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))
	second := registerRecipe(t, store, "natural_u", mustComposition(t, map[domain.Iso]float64{92235: 0.7, 92238: 99.3}))

	if first.ID() != 1 || second.ID() != 2 {
		t.Fatalf("identities = %d, %d; want 1, 2", first.ID(), second.ID())
	}
	got, ok := store.Recipe("leu")
	if !ok || got.ID() != first.ID() {
		t.Fatalf("recipe lookup = %v, %v", got.ID(), ok)
	}
	if store.RecipeCount() != 2 {
		t.Fatalf("recipe count = %d, want 2", store.RecipeCount())
	}
}

func TestDuplicateRecipeFailsWholeTransaction(t *testing.T) {
	store := NewStore(nil)
	registerRecipe(t, store, "leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.LogRecipe("heu", mustComposition(t, map[domain.Iso]float64{92235: 90, 92238: 10})); err != nil {
			return err
		}
		_, err := tx.LogRecipe("leu", mustComposition(t, map[domain.Iso]float64{92235: 1}))
		return err
	})
	var dup domain.DuplicateRecipeError
	if !errors.As(err, &dup) || dup.Name != "leu" {
		t.Fatalf("expected DuplicateRecipeError for leu, got %v", err)
	}
	// The heu registration from the failed transaction must be discarded.
	if _, ok := store.Recipe("heu"); ok {
		t.Fatal("failed transaction leaked state")
	}
	if store.RecipeCount() != 1 {
		t.Fatalf("recipe count = %d, want 1", store.RecipeCount())
	}
}

func TestRegisteredCompositionGainsAlias(t *testing.T) {
	store := NewStore(nil)
	logged := registerRecipe(t, store, "leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))
	alias := registerRecipe(t, store, "fuel", logged)

	if alias.ID() != logged.ID() {
		t.Fatalf("alias identity = %d, want %d", alias.ID(), logged.ID())
	}
	if store.RecipeCount() != 2 {
		t.Fatalf("recipe count = %d, want 2", store.RecipeCount())
	}
}

func TestLogCompositionUnknownIdentity(t *testing.T) {
	store := NewStore(nil)
	phantom := mustComposition(t, map[domain.Iso]float64{92235: 1}).WithIdentity(42)
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.LogComposition(phantom)
		return err
	})
	var unknown domain.UnknownIdentityError
	if !errors.As(err, &unknown) || unknown.ID != 42 {
		t.Fatalf("expected UnknownIdentityError for 42, got %v", err)
	}
}

func TestLogDecayProductBuildsChain(t *testing.T) {
	store := NewStore(nil)
	parent := registerRecipe(t, store, "leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))
	child := mustComposition(t, map[domain.Iso]float64{92235: 2, 92238: 96})

	var logged domain.Composition
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var txErr error
		logged, txErr = tx.LogDecayProduct(parent.ID(), child, 120)
		return txErr
	})
	if err != nil {
		t.Fatalf("log decay product: %v", err)
	}
	if logged.Parent() != parent.ID() || logged.DecayElapsed() != 120 {
		t.Fatalf("provenance parent=%d elapsed=%d", logged.Parent(), logged.DecayElapsed())
	}

	if err := store.View(context.Background(), func(view TransactionView) error {
		times := view.DecayTimes(parent.ID())
		if len(times) != 1 || times[0] != 120 {
			return fmt.Errorf("decay times = %v", times)
		}
		daughter, ok := view.Daughter(parent.ID(), 120)
		if !ok || daughter.ID() != logged.ID() {
			return fmt.Errorf("daughter lookup = %v, %v", daughter.ID(), ok)
		}
		kids := view.Daughters(parent.ID())
		if len(kids) != 1 || kids[120].ID() != logged.ID() {
			return fmt.Errorf("daughters = %v", kids)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestLogDecayProductUnknownParent(t *testing.T) {
	store := NewStore(nil)
	child := mustComposition(t, map[domain.Iso]float64{92235: 1})
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.LogDecayProduct(99, child, 6)
		return err
	})
	var unknown domain.UnknownIdentityError
	if !errors.As(err, &unknown) || unknown.ID != 99 {
		t.Fatalf("expected UnknownIdentityError for 99, got %v", err)
	}
}

func TestMarkRecordedOnlyOnce(t *testing.T) {
	store := NewStore(nil)
	logged := registerRecipe(t, store, "leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))

	var first, second bool
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var txErr error
		first, txErr = tx.MarkRecorded(logged.ID())
		return txErr
	}); err != nil {
		t.Fatalf("mark recorded: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var txErr error
		second, txErr = tx.MarkRecorded(logged.ID())
		return txErr
	}); err != nil {
		t.Fatalf("mark recorded twice: %v", err)
	}
	if !first || second {
		t.Fatalf("first=%v second=%v; want true, false", first, second)
	}

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.MarkRecorded(77)
		return err
	})
	var unknown domain.UnknownIdentityError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownIdentityError, got %v", err)
	}
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block_all" }

func (blockAllRule) Evaluate(_ context.Context, _ TransactionView, changes []Change) (Result, error) {
	res := Result{}
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{Rule: "block_all", Severity: domain.SeverityBlock})
	}
	return res, nil
}

func TestBlockingRuleDiscardsTransaction(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.LogRecipe("leu", mustComposition(t, map[domain.Iso]float64{92235: 1}))
		return txErr
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if len(violation.Result.Violations) == 0 {
		t.Fatal("expected violations in result")
	}
	if store.RecipeCount() != 0 {
		t.Fatal("blocked transaction leaked state")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := NewStore(nil)
	parent := registerRecipe(t, src, "leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))
	if _, err := src.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.LogDecayProduct(parent.ID(), mustComposition(t, map[domain.Iso]float64{92235: 2}), 60); err != nil {
			return err
		}
		_, err := tx.MarkRecorded(parent.ID())
		return err
	}); err != nil {
		t.Fatalf("populate store: %v", err)
	}

	dst := NewStore(nil)
	dst.ImportState(src.ExportState())

	if dst.RecipeCount() != 1 {
		t.Fatalf("recipe count = %d, want 1", dst.RecipeCount())
	}
	restored, ok := dst.Recipe("leu")
	if !ok || !domain.Equal(restored, parent) {
		t.Fatalf("restored recipe mismatch: %v, %v", restored, ok)
	}
	if err := dst.View(context.Background(), func(view TransactionView) error {
		if !view.IsRecorded(parent.ID()) {
			return fmt.Errorf("recorded flag lost")
		}
		if _, ok := view.Daughter(parent.ID(), 60); !ok {
			return fmt.Errorf("decay edge lost")
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// Identity assignment continues past imported ids.
	next := registerRecipe(t, dst, "heu", mustComposition(t, map[domain.Iso]float64{92235: 90, 92238: 10}))
	if next.ID() != 3 {
		t.Fatalf("next identity = %d, want 3", next.ID())
	}
}
