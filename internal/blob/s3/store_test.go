package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"isocore/internal/blob/core"
)

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 {
		t.Fatalf("driver = %s", store.Driver())
	}

	info, err := store.Put(ctx, "states/3.json", strings.NewReader(`{"id":3}`), core.PutOptions{
		ContentType: "application/json",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 8 {
		t.Fatalf("info = %+v", info)
	}

	got, body, err := store.Get(ctx, "states/3.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	_ = body.Close()
	if string(data) != `{"id":3}` {
		t.Fatalf("body = %q", data)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("content type = %s", got.ContentType)
	}
}

func TestS3StoreCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestS3StoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
}

func TestS3StoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	for _, key := range []string{"states/1.json", "states/2.json", "other/x"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "states/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "states/1.json" {
		t.Fatalf("list = %+v", infos)
	}

	if _, err := store.Delete(ctx, "states/1.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Head(ctx, "states/1.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("ISOCORE_ARCHIVE_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("expected error without bucket")
	}
}
