package core

import (
	"context"
	"fmt"
	"strconv"
)

// NewLineageIntegrityRule blocks transactions that break decay-chain
// provenance: a daughter must reference a parent present in the arena with a
// positive elapsed time, and every chain edge must connect two arena
// identities.
func NewLineageIntegrityRule() Rule {
	return lineageIntegrityRule{}
}

type lineageIntegrityRule struct{}

func (lineageIntegrityRule) Name() string { return "lineage_integrity" }

func (lineageIntegrityRule) Evaluate(_ context.Context, view TransactionView, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		if change.After == nil {
			continue
		}
		switch change.Entity {
		case EntityComposition:
			rec, ok := change.After.(StateRecord)
			if !ok || rec.Parent == 0 {
				continue
			}
			if _, found := view.Composition(rec.Parent); !found {
				res.Violations = append(res.Violations, lineageViolation(rec.ID,
					fmt.Sprintf("composition %d references missing parent %d", int64(rec.ID), int64(rec.Parent))))
			}
			if rec.DecayElapsed <= 0 {
				res.Violations = append(res.Violations, lineageViolation(rec.ID,
					fmt.Sprintf("composition %d has parent %d but elapsed %d", int64(rec.ID), int64(rec.Parent), rec.DecayElapsed)))
			}
		case EntityDecayEdge:
			edge, ok := change.After.([3]int64)
			if !ok {
				continue
			}
			parent, elapsed, child := Identity(edge[0]), edge[1], Identity(edge[2])
			if _, found := view.Composition(parent); !found {
				res.Violations = append(res.Violations, lineageViolation(parent,
					fmt.Sprintf("chain edge references missing parent %d", int64(parent))))
			}
			if _, found := view.Composition(child); !found {
				res.Violations = append(res.Violations, lineageViolation(child,
					fmt.Sprintf("chain edge references missing daughter %d", int64(child))))
			}
			if elapsed <= 0 {
				res.Violations = append(res.Violations, lineageViolation(parent,
					fmt.Sprintf("chain edge from %d has non-positive elapsed %d", int64(parent), elapsed)))
			}
		}
	}
	return res, nil
}

func lineageViolation(id Identity, message string) Violation {
	return Violation{
		Rule:     "lineage_integrity",
		Severity: SeverityBlock,
		Message:  message,
		Entity:   EntityDecayEdge,
		EntityID: strconv.FormatInt(int64(id), 10),
	}
}
