package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubRule struct {
	name   string
	result Result
	err    error
}

func (r stubRule) Name() string { return r.name }

func (r stubRule) Evaluate(context.Context, TransactionView, []Change) (Result, error) {
	return r.result, r.err
}

func TestResultMergeAndBlocking(t *testing.T) {
	var res Result
	if res.HasBlocking() {
		t.Fatal("empty result should not block")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	if res.HasBlocking() {
		t.Fatal("warn should not block")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	if !res.HasBlocking() {
		t.Fatal("block severity should block")
	}
	if got := len(res.Violations); got != 2 {
		t.Fatalf("violations = %d, want 2", got)
	}
}

func TestRulesEngineAggregates(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "warn", result: Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}}})
	engine.Register(stubRule{name: "block", result: Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := len(res.Violations); got != 2 {
		t.Fatalf("violations = %d, want 2", got)
	}
	if !res.HasBlocking() {
		t.Fatal("expected blocking result")
	}
}

func TestRulesEnginePropagatesError(t *testing.T) {
	engine := NewRulesEngine()
	wantErr := fmt.Errorf("rule exploded")
	engine.Register(stubRule{name: "boom", err: wantErr})

	_, err := engine.Evaluate(context.Background(), nil, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestRuleViolationError(t *testing.T) {
	err := RuleViolationError{Result: Result{Violations: []Violation{{Rule: "x", Severity: SeverityBlock}}}}
	if err.Error() == "" {
		t.Fatal("expected message")
	}
}
