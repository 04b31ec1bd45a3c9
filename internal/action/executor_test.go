package action

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/pkg/config"
)

type scriptedRunner struct {
	results []StepResult
	calls   []Step
}

func (r *scriptedRunner) RunStep(ctx context.Context, tabID int, step Step) StepResult {
	r.calls = append(r.calls, step)
	if len(r.calls) <= len(r.results) {
		return r.results[len(r.calls)-1]
	}
	return StepResult{Success: true}
}

func TestExecutor_OneShot(t *testing.T) {
	store := NewStore()
	planner := NewPlanner(config.DefaultSites(), store)
	runner := &scriptedRunner{}
	executor := NewExecutor(store, runner, observability.NewLogger(), time.Millisecond)

	plan, _ := planner.Plan("find pricing", 5, "https://example.com")
	if plan == nil {
		t.Fatal("Expected a plan")
	}

	summary := executor.Execute(context.Background(), 5)
	if summary != "✅ Executed 1/1 actions successfully!" {
		t.Errorf("Unexpected summary: %q", summary)
	}
	if store.Has(5) {
		t.Error("Execution must consume the plan")
	}

	// A second confirmation has nothing to run.
	summary = executor.Execute(context.Background(), 5)
	if !strings.HasPrefix(summary, "No action plan found") {
		t.Errorf("Expected the no-plan message, got %q", summary)
	}
	if len(runner.calls) != 1 {
		t.Errorf("Expected exactly one step sent to the tab, got %d", len(runner.calls))
	}
}

func TestExecutor_PartialFailureRunsAllSteps(t *testing.T) {
	store := NewStore()
	runner := &scriptedRunner{results: []StepResult{
		{Success: true},
		{Success: false, Error: "element not found"},
		{Success: true},
	}}
	executor := NewExecutor(store, runner, observability.NewLogger(), time.Millisecond)

	store.Put(&Plan{
		OwnerTab:  9,
		CreatedAt: time.Now(),
		Steps: []Step{
			{Kind: StepFill, Selector: "#a", Value: "x", Description: "Fill the search box"},
			{Kind: StepClick, Selector: "#b", Description: "Click search"},
			{Kind: StepSubmenu, Selector: "#c", Description: "Choose the bulk action"},
		},
	})

	summary := executor.Execute(context.Background(), 9)

	if len(runner.calls) != 3 {
		t.Fatalf("A failed step must not abort the rest; ran %d of 3", len(runner.calls))
	}
	if !strings.Contains(summary, "2/3") {
		t.Errorf("Expected a 2/3 summary, got %q", summary)
	}
	if !strings.Contains(summary, "element not found") {
		t.Errorf("Summary must carry the per-step error, got %q", summary)
	}
}

func TestStore_OverwriteAndDelete(t *testing.T) {
	store := NewStore()

	first := &Plan{OwnerTab: 2, CreatedAt: time.Now(), Steps: []Step{{Kind: StepClick}}}
	if overwrote := store.Put(first); overwrote {
		t.Error("Fresh Put must not report an overwrite")
	}

	second := &Plan{OwnerTab: 2, CreatedAt: time.Now(), Steps: []Step{{Kind: StepFill}}}
	if overwrote := store.Put(second); !overwrote {
		t.Error("Replacing a pending plan must report an overwrite")
	}

	if got := store.Get(2); got != second {
		t.Error("Get must return the newest plan")
	}

	store.Delete(2)
	if store.Has(2) {
		t.Error("Delete must remove the plan")
	}
}
