// Package memory provides the in-memory implementation of the registry
// persistence store. It is the canonical semantics; durable backends embed it
// and snapshot its state.
package memory

import (
	"context"
	"sort"
	"sync"

	"isocore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Composition aliases domain.Composition for in-memory persistence operations.
	Composition = domain.Composition
	// Identity aliases domain.Identity.
	Identity = domain.Identity
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	compositions map[Identity]Composition
	recipes      map[string]Identity
	decayTimes   map[Identity][]int64
	daughters    map[Identity]map[int64]Identity
	recorded     map[Identity]bool
	nextID       Identity
}

// Snapshot captures a point-in-time serializable clone of the store state.
type Snapshot struct {
	Compositions map[Identity]domain.StateRecord `json:"compositions"`
	Recipes      map[string]Identity             `json:"recipes"`
	DecayTimes   map[Identity][]int64            `json:"decay_times"`
	Daughters    map[Identity]map[int64]Identity `json:"daughters"`
	Recorded     []Identity                      `json:"recorded"`
	NextID       Identity                        `json:"next_id"`
}

func newMemoryState() memoryState {
	return memoryState{
		compositions: make(map[Identity]Composition),
		recipes:      make(map[string]Identity),
		decayTimes:   make(map[Identity][]int64),
		daughters:    make(map[Identity]map[int64]Identity),
		recorded:     make(map[Identity]bool),
	}
}

// clone copies the container level of the state. Composition values are
// immutable once registered, so they are shared between clones.
func (s memoryState) clone() memoryState {
	out := memoryState{
		compositions: make(map[Identity]Composition, len(s.compositions)),
		recipes:      make(map[string]Identity, len(s.recipes)),
		decayTimes:   make(map[Identity][]int64, len(s.decayTimes)),
		daughters:    make(map[Identity]map[int64]Identity, len(s.daughters)),
		recorded:     make(map[Identity]bool, len(s.recorded)),
		nextID:       s.nextID,
	}
	for id, c := range s.compositions {
		out.compositions[id] = c
	}
	for name, id := range s.recipes {
		out.recipes[name] = id
	}
	for id, times := range s.decayTimes {
		cp := make([]int64, len(times))
		copy(cp, times)
		out.decayTimes[id] = cp
	}
	for id, kids := range s.daughters {
		cp := make(map[int64]Identity, len(kids))
		for t, kid := range kids {
			cp[t] = kid
		}
		out.daughters[id] = cp
	}
	for id, v := range s.recorded {
		out.recorded[id] = v
	}
	return out
}

// Store is the in-memory registry store. All mutations run through
// RunInTransaction against a cloned state that replaces the live state only
// after rules pass.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
}

// NewStore constructs an empty in-memory store evaluating the given rules
// engine on every transaction (nil disables rule evaluation).
func NewStore(engine *RulesEngine) *Store {
	return &Store{state: newMemoryState(), engine: engine}
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *RulesEngine { return s.engine }

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy replaces the live state only when fn and all registered
// rules succeed, so failed transactions leave the registry untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := &stateView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&stateView{state: &s.state})
}

// Composition returns the arena entry for an identity.
func (s *Store) Composition(id Identity) (Composition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.compositions[id]
	return c, ok
}

// Recipe returns the composition registered under a recipe name.
func (s *Store) Recipe(name string) (Composition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.state.recipes[name]
	if !ok {
		return Composition{}, false
	}
	c, ok := s.state.compositions[id]
	return c, ok
}

// RecipeCount returns the number of registered recipe names.
func (s *Store) RecipeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.recipes)
}

// ExportState captures a serializable snapshot of the full store state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Compositions: make(map[Identity]domain.StateRecord, len(s.state.compositions)),
		Recipes:      make(map[string]Identity, len(s.state.recipes)),
		DecayTimes:   make(map[Identity][]int64, len(s.state.decayTimes)),
		Daughters:    make(map[Identity]map[int64]Identity, len(s.state.daughters)),
		NextID:       s.state.nextID,
	}
	for id, c := range s.state.compositions {
		snap.Compositions[id] = c.Record()
	}
	for name, id := range s.state.recipes {
		snap.Recipes[name] = id
	}
	for id, times := range s.state.decayTimes {
		cp := make([]int64, len(times))
		copy(cp, times)
		snap.DecayTimes[id] = cp
	}
	for id, kids := range s.state.daughters {
		cp := make(map[int64]Identity, len(kids))
		for t, kid := range kids {
			cp[t] = kid
		}
		snap.Daughters[id] = cp
	}
	for id, v := range s.state.recorded {
		if v {
			snap.Recorded = append(snap.Recorded, id)
		}
	}
	sort.Slice(snap.Recorded, func(i, j int) bool { return snap.Recorded[i] < snap.Recorded[j] })
	return snap
}

// ImportState replaces the store state with the snapshot contents. Records
// that fail to rebuild are skipped; durable backends persist only states that
// passed validation on the way in.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := newMemoryState()
	state.nextID = snap.NextID
	for id, rec := range snap.Compositions {
		c, err := domain.CompositionFromRecord(rec)
		if err != nil {
			continue
		}
		state.compositions[id] = c
		if id > state.nextID {
			state.nextID = id
		}
	}
	for name, id := range snap.Recipes {
		state.recipes[name] = id
	}
	for id, times := range snap.DecayTimes {
		cp := make([]int64, len(times))
		copy(cp, times)
		sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
		state.decayTimes[id] = cp
	}
	for id, kids := range snap.Daughters {
		cp := make(map[int64]Identity, len(kids))
		for t, kid := range kids {
			cp[t] = kid
		}
		state.daughters[id] = cp
	}
	for _, id := range snap.Recorded {
		state.recorded[id] = true
	}
	s.state = state
}

type transaction struct {
	state   memoryState
	changes []Change
}

var _ Transaction = (*transaction)(nil)

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return &stateView{state: &tx.state}
}

// LogComposition accepts a composition into the identity arena.
func (tx *transaction) LogComposition(c Composition) (Composition, error) {
	if c.Logged() {
		if existing, ok := tx.state.compositions[c.ID()]; ok {
			return existing, nil
		}
		return Composition{}, domain.UnknownIdentityError{ID: c.ID()}
	}
	tx.state.nextID++
	logged := c.WithIdentity(tx.state.nextID)
	tx.state.compositions[logged.ID()] = logged
	tx.recordChange(Change{Entity: domain.EntityComposition, Action: domain.ActionCreate, After: logged.Record()})
	return logged, nil
}

// LogRecipe binds a name to a composition, assigning an identity if needed.
func (tx *transaction) LogRecipe(name string, c Composition) (Composition, error) {
	if _, exists := tx.state.recipes[name]; exists {
		return Composition{}, domain.DuplicateRecipeError{Name: name}
	}
	logged, err := tx.LogComposition(c)
	if err != nil {
		return Composition{}, err
	}
	tx.state.recipes[name] = logged.ID()
	tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionCreate, After: name})
	return logged, nil
}

// LogDecayProduct registers child as the daughter of parent after elapsed
// months and inserts the chain edge.
func (tx *transaction) LogDecayProduct(parent Identity, child Composition, elapsed int64) (Composition, error) {
	if _, ok := tx.state.compositions[parent]; !ok {
		return Composition{}, domain.UnknownIdentityError{ID: parent}
	}
	logged, err := tx.LogComposition(child.AsDaughterOf(parent, elapsed))
	if err != nil {
		return Composition{}, err
	}
	times := tx.state.decayTimes[parent]
	if !containsTime(times, elapsed) {
		times = append(times, elapsed)
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		tx.state.decayTimes[parent] = times
	}
	kids := tx.state.daughters[parent]
	if kids == nil {
		kids = make(map[int64]Identity)
		tx.state.daughters[parent] = kids
	}
	kids[elapsed] = logged.ID()
	tx.recordChange(Change{Entity: domain.EntityDecayEdge, Action: domain.ActionCreate, After: [3]int64{int64(parent), elapsed, int64(logged.ID())}})
	return logged, nil
}

// MarkRecorded flags an identity as durably recorded exactly once.
func (tx *transaction) MarkRecorded(id Identity) (bool, error) {
	if _, ok := tx.state.compositions[id]; !ok {
		return false, domain.UnknownIdentityError{ID: id}
	}
	if tx.state.recorded[id] {
		return false, nil
	}
	tx.state.recorded[id] = true
	tx.recordChange(Change{Entity: domain.EntityStateRecord, Action: domain.ActionCreate, After: id})
	return true, nil
}

func containsTime(times []int64, t int64) bool {
	for _, existing := range times {
		if existing == t {
			return true
		}
	}
	return false
}

// stateView adapts a memoryState to the read-only TransactionView contract.
type stateView struct {
	state *memoryState
}

var _ TransactionView = (*stateView)(nil)

func (v *stateView) Composition(id Identity) (Composition, bool) {
	c, ok := v.state.compositions[id]
	return c, ok
}

func (v *stateView) Recipe(name string) (Composition, bool) {
	id, ok := v.state.recipes[name]
	if !ok {
		return Composition{}, false
	}
	c, ok := v.state.compositions[id]
	return c, ok
}

func (v *stateView) RecipeNames() []string {
	out := make([]string, 0, len(v.state.recipes))
	for name := range v.state.recipes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (v *stateView) RecipeCount() int { return len(v.state.recipes) }

func (v *stateView) DecayTimes(parent Identity) []int64 {
	times := v.state.decayTimes[parent]
	out := make([]int64, len(times))
	copy(out, times)
	return out
}

func (v *stateView) Daughter(parent Identity, elapsed int64) (Composition, bool) {
	kids, ok := v.state.daughters[parent]
	if !ok {
		return Composition{}, false
	}
	id, ok := kids[elapsed]
	if !ok {
		return Composition{}, false
	}
	c, ok := v.state.compositions[id]
	return c, ok
}

func (v *stateView) Daughters(parent Identity) map[int64]Composition {
	kids := v.state.daughters[parent]
	out := make(map[int64]Composition, len(kids))
	for t, id := range kids {
		if c, ok := v.state.compositions[id]; ok {
			out[t] = c
		}
	}
	return out
}

func (v *stateView) IsRecorded(id Identity) bool { return v.state.recorded[id] }

func (v *stateView) Identities() []Identity {
	out := make([]Identity, 0, len(v.state.compositions))
	for id := range v.state.compositions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
