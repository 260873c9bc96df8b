package domain

import "context"

// RecipeDefinition is one named recipe supplied by an external recipe source
// at simulation start. Fractions are absolute quantities in the declared
// basis; atom-based definitions are converted before registration.
type RecipeDefinition struct {
	Name      string          `json:"name"`
	Basis     Basis           `json:"basis"`
	Fractions map[Iso]float64 `json:"fractions"`
}

// RecipeSource supplies recipe definitions for startup ingestion. Parsing of
// recipe files is outside this core; sources hand over already-structured
// definitions.
type RecipeSource interface {
	Recipes(ctx context.Context) ([]RecipeDefinition, error)
}

// StaticRecipeSource is an in-memory RecipeSource over a fixed definition
// list.
type StaticRecipeSource []RecipeDefinition

// Recipes implements RecipeSource.
func (s StaticRecipeSource) Recipes(context.Context) ([]RecipeDefinition, error) {
	out := make([]RecipeDefinition, len(s))
	copy(out, s)
	return out, nil
}
