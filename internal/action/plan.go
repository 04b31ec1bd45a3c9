package action

import (
	"sync"
	"time"
)

// Step kinds. Submenu steps depend on the menu opened by the step
// before them, so the executor waits longer before running one.
const (
	StepFill    = "fill"
	StepClick   = "click"
	StepSubmenu = "submenu"
)

// Step is one proposed DOM action. Immutable once stored. Confidence
// is a static per-kind heuristic shown to the user; it never gates
// execution.
type Step struct {
	Kind        string  `json:"kind"`
	Selector    string  `json:"selector"`
	Value       string  `json:"value,omitempty"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// StepResult is the outcome of sending one step to a tab.
type StepResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Plan is a pending, tab-scoped sequence of steps awaiting
// confirmation.
type Plan struct {
	Steps     []Step
	OwnerTab  int
	CreatedAt time.Time
}

// Store holds at most one plan per tab. A new plan overwrites the old
// one; execution consumes and deletes it. Plans are never expired by
// time, only by overwrite or execution. A stale plan confirmed much
// later runs against whatever the page looks like then; overwrites of
// unconsumed plans are therefore reported to the caller for logging.
type Store struct {
	mu    sync.Mutex
	plans map[int]*Plan
}

func NewStore() *Store {
	return &Store{plans: make(map[int]*Plan)}
}

// Put stores the plan for its owner tab, returning whether an
// unconsumed plan was overwritten.
func (s *Store) Put(plan *Plan) (overwrote bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, overwrote = s.plans[plan.OwnerTab]
	s.plans[plan.OwnerTab] = plan
	return overwrote
}

func (s *Store) Get(tabID int) *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans[tabID]
}

func (s *Store) Has(tabID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.plans[tabID]
	return ok
}

func (s *Store) Delete(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, tabID)
}
