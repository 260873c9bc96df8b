package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	blobcore "isocore/internal/blob/core"
	"isocore/pkg/domain"
)

// BlobStateArchive stores one JSON state record per identity on a blob
// store. Records are immutable; a second write of the same identity is a
// no-op.
type BlobStateArchive struct {
	blobs blobcore.Store
}

var _ domain.StateArchive = (*BlobStateArchive)(nil)

// NewBlobStateArchive wraps a blob store as a state archive.
func NewBlobStateArchive(blobs blobcore.Store) *BlobStateArchive {
	return &BlobStateArchive{blobs: blobs}
}

func archiveKey(id Identity) string {
	return fmt.Sprintf("states/%d.json", int64(id))
}

// Exists reports whether a state record was already archived for id.
func (a *BlobStateArchive) Exists(ctx context.Context, id Identity) (bool, error) {
	_, err := a.blobs.Head(ctx, archiveKey(id))
	if errors.Is(err, blobcore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Write archives the full state record for id. Writing an identity that is
// already archived succeeds without touching the stored payload.
func (a *BlobStateArchive) Write(ctx context.Context, id Identity, rec StateRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = a.blobs.Put(ctx, archiveKey(id), bytes.NewReader(payload), blobcore.PutOptions{
		ContentType: "application/json",
	})
	if errors.Is(err, blobcore.ErrExists) {
		return nil
	}
	return err
}

// Read returns the archived state record for id.
func (a *BlobStateArchive) Read(ctx context.Context, id Identity) (StateRecord, error) {
	_, body, err := a.blobs.Get(ctx, archiveKey(id))
	if err != nil {
		return StateRecord{}, err
	}
	defer func() { _ = body.Close() }()
	var rec StateRecord
	if err := json.NewDecoder(body).Decode(&rec); err != nil {
		return StateRecord{}, err
	}
	return rec, nil
}
