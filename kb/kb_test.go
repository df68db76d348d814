package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

func testScenario(name string) *core.Scenario {
	bounds := model.Rect{Width: 20, Height: 10}
	return &core.Scenario{
		Name:     name,
		Building: bounds,
		Params:   core.DefaultPropagationParams(),
		Grid:     core.GridSpec{Bounds: bounds, Cols: 10, Rows: 5},
		AccessPoints: []model.AccessPoint{
			{ID: "AP1", Position: model.Point{X: 5, Y: 5}, TxPowerDBm: 20, Channel: 1},
		},
	}
}

func TestPutAndGetDeployment(t *testing.T) {
	store := NewKnowledgeBase()

	created, err := store.PutDeployment("d1", testScenario("first"))
	if err != nil {
		t.Fatalf("PutDeployment error: %v", err)
	}
	if !created {
		t.Fatalf("first PutDeployment should report created")
	}

	got, err := store.GetDeployment("d1")
	if err != nil {
		t.Fatalf("GetDeployment error: %v", err)
	}
	if got.Name != "first" {
		t.Fatalf("GetDeployment returned %q, want first", got.Name)
	}

	created, err = store.PutDeployment("d1", testScenario("second"))
	if err != nil {
		t.Fatalf("replace PutDeployment error: %v", err)
	}
	if created {
		t.Fatalf("replacing PutDeployment should not report created")
	}
	if got, _ := store.GetDeployment("d1"); got.Name != "second" {
		t.Fatalf("deployment not replaced, got %q", got.Name)
	}
}

func TestPutDeploymentValidates(t *testing.T) {
	store := NewKnowledgeBase()

	bad := testScenario("bad")
	bad.AccessPoints = nil
	if _, err := store.PutDeployment("bad", bad); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := store.PutDeployment("", testScenario("x")); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for empty id, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("invalid deployments were stored")
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	store := NewKnowledgeBase()
	if _, err := store.GetDeployment("nope"); !errors.Is(err, ErrDeploymentNotFound) {
		t.Fatalf("expected ErrDeploymentNotFound, got %v", err)
	}
	if err := store.DeleteDeployment("nope"); !errors.Is(err, ErrDeploymentNotFound) {
		t.Fatalf("expected ErrDeploymentNotFound, got %v", err)
	}
}

func TestListDeploymentIDsSorted(t *testing.T) {
	store := NewKnowledgeBase()
	for _, id := range []string{"c", "a", "b"} {
		if _, err := store.PutDeployment(id, testScenario(id)); err != nil {
			t.Fatalf("PutDeployment(%s) error: %v", id, err)
		}
	}

	got := store.ListDeploymentIDs()
	want := []string{"a", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("ListDeploymentIDs = %v, want %v", got, want)
	}
}

func TestSubscribeEvents(t *testing.T) {
	store := NewKnowledgeBase()

	var events []Event
	unsubscribe := store.Subscribe(func(e Event) {
		events = append(events, e)
	})

	if _, err := store.PutDeployment("d1", testScenario("a")); err != nil {
		t.Fatalf("PutDeployment error: %v", err)
	}
	if _, err := store.PutDeployment("d1", testScenario("b")); err != nil {
		t.Fatalf("PutDeployment error: %v", err)
	}
	if err := store.DeleteDeployment("d1"); err != nil {
		t.Fatalf("DeleteDeployment error: %v", err)
	}

	want := []EventType{EventDeploymentCreated, EventDeploymentUpdated, EventDeploymentDeleted}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Type != want[i] || e.DeploymentID != "d1" {
			t.Fatalf("event %d = %v/%s, want %v/d1", i, e.Type, e.DeploymentID, want[i])
		}
	}
	if events[2].Scenario != nil {
		t.Fatalf("delete event should not carry a scenario")
	}

	unsubscribe()
	if _, err := store.PutDeployment("d2", testScenario("c")); err != nil {
		t.Fatalf("PutDeployment error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("received event after unsubscribe")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewKnowledgeBase()
	if _, err := store.PutDeployment("d1", testScenario("x")); err != nil {
		t.Fatalf("PutDeployment error: %v", err)
	}

	var wg sync.WaitGroup
	// Concurrent readers/writers
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.GetDeployment("d1")
			_ = store.ListDeploymentIDs()
		}()
		go func() {
			defer wg.Done()
			_, _ = store.PutDeployment(fmt.Sprintf("d-%d", i), testScenario("y"))
		}()
	}
	wg.Wait()

	if store.Len() != 11 {
		t.Fatalf("Len = %d, want 11", store.Len())
	}
}
