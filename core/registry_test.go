package core

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

func TestRegistryPreservesOrder(t *testing.T) {
	r, err := NewRegistry(
		model.AccessPoint{ID: "b"},
		model.AccessPoint{ID: "a"},
		model.AccessPoint{ID: "c"},
	)
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}

	got := r.List()
	want := []string{"b", "a", "c"}
	for i, ap := range got {
		if ap.ID != want[i] {
			t.Fatalf("List()[%d] = %q, want %q", i, ap.ID, want[i])
		}
	}

	if err := r.Remove("a"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if got := r.List(); got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("order after remove = %v", got)
	}
	if err := r.Remove("a"); !errors.Is(err, ErrAccessPointMiss) {
		t.Fatalf("expected ErrAccessPointMiss, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(model.AccessPoint{ID: "AP1"}, model.AccessPoint{ID: "AP1"})
	if !errors.Is(err, ErrAccessPointExists) {
		t.Fatalf("expected ErrAccessPointExists, got %v", err)
	}

	var r Registry
	if err := r.Add(model.AccessPoint{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for empty id, got %v", err)
	}
	if err := r.Add(model.AccessPoint{ID: "x"}); err != nil {
		t.Fatalf("zero-value registry Add: %v", err)
	}
	if _, ok := r.Get("x"); !ok {
		t.Fatalf("Get(x) missing after Add")
	}
}
