package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/ports"
)

// ContentLoaderContractTest is a reusable suite that verifies an adapter complies with ports.ContentLoader.
// setupData maps content paths to the exact bytes the loader is expected to return.
func ContentLoaderContractTest(t *testing.T, loader ports.ContentLoader, setupData map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for path, expected := range setupData {
			content, err := loader.Load(ctx, path)
			if err != nil {
				t.Fatalf("unexpected error loading %s: %v", path, err)
			}
			if string(content) != string(expected) {
				t.Errorf("content mismatch for %s. got %q, want %q", path, content, expected)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "program/does-not-exist.json")
		if err == nil {
			t.Fatal("expected error for missing content, got nil")
		}
		if !errors.Is(err, domain.ErrContentNotFound) {
			t.Errorf("expected ErrContentNotFound, got %v", err)
		}
	})

	lister, ok := loader.(ports.ContentLister)
	if !ok {
		return
	}

	t.Run("List", func(t *testing.T) {
		paths, err := lister.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing content: %v", err)
		}

		lookup := make(map[string]bool)
		for _, p := range paths {
			lookup[p] = true
		}
		for p := range setupData {
			if !lookup[p] {
				t.Errorf("path %s missing from list", p)
			}
		}
	})
}
