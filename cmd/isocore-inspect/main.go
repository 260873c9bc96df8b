// Command isocore-inspect opens the configured registry store and prints its
// contents as JSON lines: recipes, decay-chain edges, and recorded
// identities. Intended for debugging persisted registries.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"isocore/internal/core"
	"isocore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}

type recipeLine struct {
	Kind      string             `json:"kind"`
	Name      string             `json:"name"`
	ID        domain.Identity    `json:"id"`
	Basis     domain.Basis       `json:"basis"`
	Fractions map[string]float64 `json:"fractions"`
}

type edgeLine struct {
	Kind     string          `json:"kind"`
	Parent   domain.Identity `json:"parent"`
	Elapsed  int64           `json:"elapsed"`
	Daughter domain.Identity `json:"daughter"`
}

type recordedLine struct {
	Kind string          `json:"kind"`
	ID   domain.Identity `json:"id"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("isocore-inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showRecipes := fs.Bool("recipes", true, "print registered recipes")
	showChains := fs.Bool("chains", true, "print decay-chain edges")
	showRecorded := fs.Bool("recorded", true, "print durably recorded identities")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	err = store.View(context.Background(), func(view domain.TransactionView) error {
		if *showRecipes {
			for _, name := range view.RecipeNames() {
				comp, ok := view.Recipe(name)
				if !ok {
					continue
				}
				fractions := make(map[string]float64, len(comp.Isotopes()))
				for tope, f := range comp.MassFractions() {
					fractions[fmt.Sprintf("%d", int(tope))] = f
				}
				if err := enc.Encode(recipeLine{Kind: "recipe", Name: name, ID: comp.ID(), Basis: comp.Basis(), Fractions: fractions}); err != nil {
					return err
				}
			}
		}
		if *showChains {
			for _, parent := range view.Identities() {
				for _, elapsed := range view.DecayTimes(parent) {
					child, ok := view.Daughter(parent, elapsed)
					if !ok {
						continue
					}
					if err := enc.Encode(edgeLine{Kind: "decay_edge", Parent: parent, Elapsed: elapsed, Daughter: child.ID()}); err != nil {
						return err
					}
				}
			}
		}
		if *showRecorded {
			for _, id := range view.Identities() {
				if view.IsRecorded(id) {
					if err := enc.Encode(recordedLine{Kind: "recorded", ID: id}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(stderr, "inspect: %v\n", err)
		return 1
	}
	return 0
}
