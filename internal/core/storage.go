package core

import (
	"context"
	"fmt"
	"os"

	blobcore "isocore/internal/blob/core"
	blobfs "isocore/internal/blob/fs"
	blobmemory "isocore/internal/blob/memory"
	blobs3 "isocore/internal/blob/s3"
	"isocore/internal/infra/persistence/memory"
	"isocore/internal/infra/persistence/postgres"
	"isocore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a registry backend using environment variables.
// Defaults to sqlite when unset.
//
//	ISOCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ISOCORE_SQLITE_PATH: path to sqlite file (default ./isocore.db)
//	ISOCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("ISOCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("ISOCORE_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("ISOCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// OpenStateArchive selects a durable archive backend using environment
// variables. An empty driver disables archiving and returns nil.
//
//	ISOCORE_ARCHIVE_DRIVER: memory|fs|s3 (default empty, archiving off)
//	ISOCORE_ARCHIVE_FS_ROOT: root directory for the fs driver
//	ISOCORE_ARCHIVE_S3_*: bucket, region, endpoint for the s3 driver
func OpenStateArchive(ctx context.Context) (StateArchive, error) {
	driver := os.Getenv("ISOCORE_ARCHIVE_DRIVER")
	switch blobcore.Driver(driver) {
	case "":
		return nil, nil
	case blobcore.DriverMemory:
		return NewBlobStateArchive(blobmemory.New()), nil
	case blobcore.DriverFilesystem:
		store, err := blobfs.New(os.Getenv("ISOCORE_ARCHIVE_FS_ROOT"))
		if err != nil {
			return nil, err
		}
		return NewBlobStateArchive(store), nil
	case blobcore.DriverS3:
		store, err := blobs3.OpenFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		return NewBlobStateArchive(store), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
