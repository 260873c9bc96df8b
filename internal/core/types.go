package core

import "isocore/pkg/domain"

type (
	Iso                = domain.Iso
	Identity           = domain.Identity
	Basis              = domain.Basis
	Composition        = domain.Composition
	StateRecord        = domain.StateRecord
	EntityType         = domain.EntityType
	Change             = domain.Change
	Action             = domain.Action
	Severity           = domain.Severity
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
	StateArchive       = domain.StateArchive
	DecayProvider      = domain.DecayProvider
	RecipeDefinition   = domain.RecipeDefinition
	RecipeSource       = domain.RecipeSource
)

const (
	BasisMass = domain.BasisMass
	BasisAtom = domain.BasisAtom
)

const (
	EntityComposition = domain.EntityComposition
	EntityRecipe      = domain.EntityRecipe
	EntityDecayEdge   = domain.EntityDecayEdge
	EntityStateRecord = domain.EntityStateRecord
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
)
