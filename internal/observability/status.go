package observability

import (
	"sync"
	"time"
)

type Role string

const (
	RoleIdle       Role = "IDLE"
	RoleRouting    Role = "ROUTING"
	RoleSearching  Role = "SEARCHING"
	RoleActing     Role = "ACTING"
	RoleExtracting Role = "EXTRACTING"
)

// Snapshot is a point-in-time copy of the system status for rendering.
type Snapshot struct {
	Role           Role
	Task           string
	LastHeartbeat  time.Time
	TabsOpen       int
	SearchesActive int
}

type systemStatus struct {
	mu             sync.RWMutex
	role           Role
	task           string
	lastHeartbeat  time.Time
	tabsOpen       int
	searchesActive int
}

var globalStatus = &systemStatus{
	role:          RoleIdle,
	lastHeartbeat: time.Now(),
}

// SetStatus records what the system is busy with right now.
func SetStatus(role Role, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.role = role
	globalStatus.task = task
}

// ClearStatus returns the system to idle.
func ClearStatus() {
	SetStatus(RoleIdle, "")
}

// TrackTab adjusts the open-tab gauge. Pass +1 on open, -1 on close.
func TrackTab(delta int) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.tabsOpen += delta
	if globalStatus.tabsOpen < 0 {
		globalStatus.tabsOpen = 0
	}
}

// TrackSearch adjusts the in-flight search gauge.
func TrackSearch(delta int) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.searchesActive += delta
	if globalStatus.searchesActive < 0 {
		globalStatus.searchesActive = 0
	}
}

// GetStatus retrieves a copy of the current system status.
func GetStatus() Snapshot {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return Snapshot{
		Role:           globalStatus.role,
		Task:           globalStatus.task,
		LastHeartbeat:  globalStatus.lastHeartbeat,
		TabsOpen:       globalStatus.tabsOpen,
		SearchesActive: globalStatus.searchesActive,
	}
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.lastHeartbeat = time.Now()
}
