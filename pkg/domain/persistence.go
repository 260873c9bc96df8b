package domain

import "context"

// Transaction exposes the registry mutations a persistence implementation
// must support within an atomic scope. No mutation is visible outside the
// transaction until it commits, and blocking rule violations discard it.
type Transaction interface {
	Snapshot() TransactionView
	// LogComposition accepts a composition into the identity arena, assigning
	// the next state id when the composition is unregistered. Registering an
	// already-registered composition is a no-op returning the arena value.
	LogComposition(c Composition) (Composition, error)
	// LogRecipe binds a name to a composition, assigning an identity first if
	// needed. Fails with DuplicateRecipeError when the name is taken; a
	// composition already registered under another name gains an alias.
	LogRecipe(name string, c Composition) (Composition, error)
	// LogDecayProduct registers child as the daughter of parent after elapsed
	// months, inserting the chain edge into the decay cache.
	LogDecayProduct(parent Identity, child Composition, elapsed int64) (Composition, error)
	// MarkRecorded flags an identity as durably recorded, returning true only
	// the first time it is seen.
	MarkRecorded(id Identity) (bool, error)
}

// TransactionView provides read-only access to registry state for rules and
// callers.
type TransactionView interface {
	Composition(id Identity) (Composition, bool)
	Recipe(name string) (Composition, bool)
	RecipeNames() []string
	RecipeCount() int
	DecayTimes(parent Identity) []int64
	Daughter(parent Identity, elapsed int64) (Composition, bool)
	Daughters(parent Identity) map[int64]Composition
	IsRecorded(id Identity) bool
	Identities() []Identity
}

// PersistentStore is a minimal abstraction over registry backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Composition(id Identity) (Composition, bool)
	Recipe(name string) (Composition, bool)
	RecipeCount() int
}

// StateArchive is the external durable store consumed by RecordState. The
// core never reads payloads back; it only checks existence before writing a
// state exactly once per identity.
type StateArchive interface {
	Exists(ctx context.Context, id Identity) (bool, error)
	Write(ctx context.Context, id Identity, rec StateRecord) error
}
