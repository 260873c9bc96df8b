package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunAgainstEmptyMemoryStore(t *testing.T) {
	t.Setenv("ISOCORE_STORAGE_DRIVER", "memory")
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected no output for empty store, got %q", stdout.String())
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	t.Setenv("ISOCORE_STORAGE_DRIVER", "memory")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-bogus"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "bogus") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunFailsOnUnknownDriver(t *testing.T) {
	t.Setenv("ISOCORE_STORAGE_DRIVER", "tape")
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
