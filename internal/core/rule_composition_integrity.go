package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"isocore/pkg/domain"
)

// NewCompositionIntegrityRule blocks transactions that admit compositions
// with invalid isotope identifiers, negative fractions, or a non-positive
// mass normalizer into the arena. Every issue found is reported, not just the
// first.
func NewCompositionIntegrityRule() Rule {
	return compositionIntegrityRule{}
}

type compositionIntegrityRule struct{}

func (compositionIntegrityRule) Name() string { return "composition_integrity" }

func (compositionIntegrityRule) Evaluate(_ context.Context, _ TransactionView, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		if change.Entity != EntityComposition || change.After == nil {
			continue
		}
		rec, ok := change.After.(StateRecord)
		if !ok {
			continue
		}
		comp, err := domain.CompositionFromRecord(rec)
		if err != nil {
			res.Violations = append(res.Violations, compositionViolation(rec.ID, err.Error()))
			continue
		}
		if err := domain.ValidateComposition(comp); err != nil {
			var invalid domain.InvalidCompositionError
			if errors.As(err, &invalid) {
				for _, issue := range invalid.Issues {
					res.Violations = append(res.Violations, compositionViolation(rec.ID, issue.String()))
				}
				continue
			}
			res.Violations = append(res.Violations, compositionViolation(rec.ID, err.Error()))
		}
	}
	return res, nil
}

func compositionViolation(id Identity, message string) Violation {
	return Violation{
		Rule:     "composition_integrity",
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("composition %d: %s", int64(id), message),
		Entity:   EntityComposition,
		EntityID: strconv.FormatInt(int64(id), 10),
	}
}
