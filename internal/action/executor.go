package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/saarthi/internal/observability"
)

// NoPlanMessage is returned when execution is requested for a tab
// without a stored plan.
const NoPlanMessage = "No action plan found. Tell me what you want to do first."

// StepRunner sends one step to the in-page script of a tab and waits
// for its result. Failures come back in the StepResult, not as errors.
type StepRunner interface {
	RunStep(ctx context.Context, tabID int, step Step) StepResult
}

// Executor runs stored plans step by step. Execution is strictly
// one-shot: the plan is deleted when Execute returns, whatever
// happened, so a failed run can only be re-planned, never resumed.
type Executor struct {
	Store     *Store
	Runner    StepRunner
	Logger    *observability.Logger
	StepDelay time.Duration
}

func NewExecutor(store *Store, runner StepRunner, logger *observability.Logger, stepDelay time.Duration) *Executor {
	return &Executor{
		Store:     store,
		Runner:    runner,
		Logger:    logger,
		StepDelay: stepDelay,
	}
}

// Execute runs the plan stored for tabID in strict order. A failed
// step never aborts the remaining steps; partial success is a normal
// outcome, reported per step in the summary.
func (e *Executor) Execute(ctx context.Context, tabID int) string {
	plan := e.Store.Get(tabID)
	if plan == nil {
		return NoPlanMessage
	}
	defer e.Store.Delete(tabID)

	observability.SetStatus(observability.RoleActing, "executing page actions")
	defer observability.ClearStatus()

	results := make([]StepResult, 0, len(plan.Steps))
	for i, step := range plan.Steps {
		if i > 0 {
			// Give the page time to react to the previous step.
			// Submenu steps depend on a freshly opened menu and get
			// twice the delay.
			delay := e.StepDelay
			if step.Kind == StepSubmenu {
				delay *= 2
			}
			select {
			case <-ctx.Done():
				results = append(results, StepResult{Success: false, Error: ctx.Err().Error()})
				e.Logger.LogStep(tabID, i, step.Kind, false, ctx.Err().Error())
				continue
			case <-time.After(delay):
			}
		}

		res := e.Runner.RunStep(ctx, tabID, step)
		results = append(results, res)
		e.Logger.LogStep(tabID, i, step.Kind, res.Success, res.Error)
	}

	return summarize(plan, results)
}

func summarize(plan *Plan, results []StepResult) string {
	succeeded := 0
	var failures []string
	for i, res := range results {
		if res.Success {
			succeeded++
			continue
		}
		desc := ""
		if i < len(plan.Steps) {
			desc = plan.Steps[i].Description
		}
		failures = append(failures, fmt.Sprintf("- Step %d (%s): %s", i+1, desc, res.Error))
	}

	if succeeded == len(plan.Steps) {
		return fmt.Sprintf("✅ Executed %d/%d actions successfully!", succeeded, len(plan.Steps))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Executed %d/%d actions successfully.\n\nFailed steps:\n", succeeded, len(plan.Steps))
	b.WriteString(strings.Join(failures, "\n"))
	return b.String()
}
