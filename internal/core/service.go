package core

import (
	"context"
	"fmt"
	"time"

	"isocore/pkg/domain"

	"isocore/internal/infra/persistence/memory"
)

// Logger is the minimal structured logging contract used by the service.
// Arguments follow the slog convention of alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan finishes a span opened by a Tracer.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type serviceOptions struct {
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	decayer DecayProvider
	archive StateArchive
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:  noopLogger{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
}

// ServiceOption customizes service construction.
type ServiceOption func(*serviceOptions)

// WithLogger overrides the default no-op logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMetricsRecorder wires operation metrics.
func WithMetricsRecorder(metrics MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithTracer wires operation tracing.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithDecayProvider supplies the external decay calculator used by Decay.
func WithDecayProvider(provider DecayProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.decayer = provider
	}
}

// WithStateArchive supplies the durable archive written by RecordState.
func WithStateArchive(archive StateArchive) ServiceOption {
	return func(o *serviceOptions) {
		o.archive = archive
	}
}

// Service exposes the transactional registry operations: recipe registration
// and lookup, decay-chain caching, and durable state recording.
type Service struct {
	store   PersistentStore
	logger  Logger
	clock   Clock
	metrics MetricsRecorder
	tracer  Tracer
	decayer DecayProvider
	archive StateArchive
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:   store,
		logger:  options.logger,
		clock:   options.clock,
		metrics: options.metrics,
		tracer:  options.tracer,
		decayer: options.decayer,
		archive: options.archive,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying persistence implementation.
func (s *Service) Store() PersistentStore { return s.store }

// observe wraps an operation with tracing, metrics and logging.
func (s *Service) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Error(operation+" failed", "error", err, "duration_ms", float64(duration)/float64(time.Millisecond))
	} else {
		s.logger.Debug(operation+" completed", "duration_ms", float64(duration)/float64(time.Millisecond))
	}
	return err
}

// RegisterRecipe binds name to the composition, assigning a state identity
// when the composition is not yet in the arena. Duplicate names fail with
// DuplicateRecipeError; registering an already-logged composition under a new
// name creates an alias.
func (s *Service) RegisterRecipe(ctx context.Context, name string, comp Composition) (Composition, Result, error) {
	var logged Composition
	var result Result
	err := s.observe(ctx, "register_recipe", func(ctx context.Context) error {
		if name == "" {
			return fmt.Errorf("recipe name cannot be empty")
		}
		var err error
		result, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			logged, txErr = tx.LogRecipe(name, comp)
			return txErr
		})
		return err
	})
	return logged, result, err
}

// LookupRecipe returns the composition registered under name.
func (s *Service) LookupRecipe(ctx context.Context, name string) (Composition, error) {
	var found Composition
	err := s.observe(ctx, "lookup_recipe", func(context.Context) error {
		c, ok := s.store.Recipe(name)
		if !ok {
			return domain.UnknownRecipeError{Name: name}
		}
		found = c
		return nil
	})
	return found, err
}

// IsLogged reports whether the composition holds an identity present in the
// arena.
func (s *Service) IsLogged(comp Composition) bool {
	if !comp.Logged() {
		return false
	}
	_, ok := s.store.Composition(comp.ID())
	return ok
}

// Composition returns the arena entry for an identity.
func (s *Service) Composition(ctx context.Context, id Identity) (Composition, error) {
	var found Composition
	err := s.observe(ctx, "get_composition", func(context.Context) error {
		c, ok := s.store.Composition(id)
		if !ok {
			return domain.UnknownIdentityError{ID: id}
		}
		found = c
		return nil
	})
	return found, err
}

// RecipeCount returns the number of registered recipe names.
func (s *Service) RecipeCount(context.Context) int {
	return s.store.RecipeCount()
}

// RecipeNames returns a sorted snapshot of the registered recipe names.
func (s *Service) RecipeNames(ctx context.Context) []string {
	var names []string
	_ = s.store.View(ctx, func(view TransactionView) error {
		names = view.RecipeNames()
		return nil
	})
	return names
}

// LoadRecipes ingests every definition from the source in a single
// transaction, converting atom-based definitions to mass basis before
// registration. Returns the number of recipes registered; any failure
// discards the whole batch.
func (s *Service) LoadRecipes(ctx context.Context, src RecipeSource) (int, error) {
	var count int
	err := s.observe(ctx, "load_recipes", func(ctx context.Context) error {
		defs, err := src.Recipes(ctx)
		if err != nil {
			return fmt.Errorf("reading recipe source: %w", err)
		}
		_, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			for _, def := range defs {
				comp, err := domain.NewCompositionWithBasis(def.Fractions, def.Basis)
				if err != nil {
					return fmt.Errorf("recipe %q: %w", def.Name, err)
				}
				if comp.Basis() == BasisAtom {
					comp, err = comp.ToMassBasis()
					if err != nil {
						return fmt.Errorf("recipe %q: %w", def.Name, err)
					}
				}
				if _, err := tx.LogRecipe(def.Name, comp); err != nil {
					return err
				}
				count++
			}
			return nil
		})
		if err != nil {
			count = 0
		}
		return err
	})
	return count, err
}

// RecordState assigns an identity to the composition if needed and writes its
// full state to the archive exactly once. The boolean reports whether this
// call performed the first durable recording of the identity.
func (s *Service) RecordState(ctx context.Context, comp Composition) (Composition, bool, error) {
	var logged Composition
	var first bool
	err := s.observe(ctx, "record_state", func(ctx context.Context) error {
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			logged, txErr = tx.LogComposition(comp)
			if txErr != nil {
				return txErr
			}
			first, txErr = tx.MarkRecorded(logged.ID())
			if txErr != nil {
				return txErr
			}
			if !first || s.archive == nil {
				return nil
			}
			exists, txErr := s.archive.Exists(ctx, logged.ID())
			if txErr != nil {
				return fmt.Errorf("archive existence check for %d: %w", int64(logged.ID()), txErr)
			}
			if exists {
				return nil
			}
			if txErr := s.archive.Write(ctx, logged.ID(), logged.Record()); txErr != nil {
				return fmt.Errorf("archive write for %d: %w", int64(logged.ID()), txErr)
			}
			return nil
		})
		if err != nil {
			first = false
		}
		return err
	})
	return logged, first, err
}
