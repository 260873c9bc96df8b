package core

import (
	"context"
	"path/filepath"
	"testing"

	"isocore/internal/infra/persistence/memory"
	"isocore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("ISOCORE_STORAGE_DRIVER", string(StorageMemory))
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("store type = %T, want *memory.Store", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isocore.db")
	t.Setenv("ISOCORE_STORAGE_DRIVER", string(StorageSQLite))
	t.Setenv("ISOCORE_SQLITE_PATH", path)

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sq, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("store type = %T, want *sqlite.Store", store)
	}
	if sq.Path() != path {
		t.Fatalf("path = %s, want %s", sq.Path(), path)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("ISOCORE_STORAGE_DRIVER", "etcd")
	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenStateArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("ISOCORE_ARCHIVE_DRIVER", "")
		archive, err := OpenStateArchive(ctx)
		if err != nil || archive != nil {
			t.Fatalf("archive = %v, %v; want nil, nil", archive, err)
		}
	})

	t.Run("memory", func(t *testing.T) {
		t.Setenv("ISOCORE_ARCHIVE_DRIVER", "memory")
		archive, err := OpenStateArchive(ctx)
		if err != nil || archive == nil {
			t.Fatalf("archive = %v, %v", archive, err)
		}
	})

	t.Run("fs", func(t *testing.T) {
		t.Setenv("ISOCORE_ARCHIVE_DRIVER", "fs")
		t.Setenv("ISOCORE_ARCHIVE_FS_ROOT", t.TempDir())
		archive, err := OpenStateArchive(ctx)
		if err != nil || archive == nil {
			t.Fatalf("archive = %v, %v", archive, err)
		}
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		t.Setenv("ISOCORE_ARCHIVE_DRIVER", "s3")
		t.Setenv("ISOCORE_ARCHIVE_S3_BUCKET", "")
		if _, err := OpenStateArchive(ctx); err == nil {
			t.Fatal("expected error without bucket")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("ISOCORE_ARCHIVE_DRIVER", "tape")
		if _, err := OpenStateArchive(ctx); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})
}
