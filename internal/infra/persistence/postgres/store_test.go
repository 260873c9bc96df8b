package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"isocore/internal/infra/persistence/postgres/testutil"
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

func TestPostgresStoreSnapshotsBuckets(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	var parent domain.Composition
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var txErr error
		parent, txErr = tx.LogRecipe("leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))
		return txErr
	}); err != nil {
		t.Fatalf("register recipe: %v", err)
	}

	payload, ok := conn.State["recipes"]
	if !ok {
		t.Fatalf("recipes bucket not persisted, state=%v", conn.State)
	}
	var recipes map[string]domain.Identity
	if err := json.Unmarshal(payload, &recipes); err != nil {
		t.Fatalf("decode recipes bucket: %v", err)
	}
	if recipes["leu"] != parent.ID() {
		t.Fatalf("persisted recipe id = %d, want %d", recipes["leu"], parent.ID())
	}
	for _, bucket := range []string{"compositions", "decay_times", "daughters", "recorded", "counter"} {
		if _, ok := conn.State[bucket]; !ok {
			t.Fatalf("bucket %s not persisted", bucket)
		}
	}

	sawDDL := false
	for _, q := range conn.Execs {
		if strings.Contains(strings.ToUpper(q), "CREATE TABLE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatal("expected state table DDL on open")
	}
}

func TestPostgresStoreHydratesFromSnapshot(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	store, err := NewStore("postgres://stub/isocore", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, txErr := tx.LogRecipe("leu", mustComposition(t, map[domain.Iso]float64{92235: 4, 92238: 96}))
		return txErr
	}); err != nil {
		t.Fatalf("register recipe: %v", err)
	}
	restore()

	// Second open against a stub seeded with the first connection's rows.
	db2, conn2 := testutil.NewStubDB()
	for bucket, payload := range conn.State {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		conn2.State[bucket] = cp
	}
	restore = OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db2, nil })
	defer restore()

	reopened, err := NewStore("postgres://stub/isocore", nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if reopened.RecipeCount() != 1 {
		t.Fatalf("recipe count after hydrate = %d, want 1", reopened.RecipeCount())
	}
	if _, ok := reopened.Recipe("leu"); !ok {
		t.Fatal("recipe lost across hydrate")
	}
}

func TestPostgresStoreOpenFailures(t *testing.T) {
	t.Run("ping failure", func(t *testing.T) {
		db, conn := testutil.NewStubDB()
		conn.FailPing = true
		restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
		defer restore()
		if _, err := NewStore("", nil); err == nil {
			t.Fatal("expected ping error")
		}
	})

	t.Run("ddl failure", func(t *testing.T) {
		db, conn := testutil.NewStubDB()
		conn.FailExec = true
		restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
		defer restore()
		if _, err := NewStore("", nil); err == nil {
			t.Fatal("expected exec error")
		}
	})

	t.Run("query failure", func(t *testing.T) {
		db, conn := testutil.NewStubDB()
		conn.FailQuery = true
		restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
		defer restore()
		if _, err := NewStore("", nil); err == nil {
			t.Fatal("expected query error")
		}
	})
}

func TestPostgresStorePersistFailureSurfaces(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	conn.FailCommit = true
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, txErr := tx.LogRecipe("leu", mustComposition(t, map[domain.Iso]float64{92235: 1}))
		return txErr
	}); err == nil {
		t.Fatal("expected commit error to surface")
	}
}
