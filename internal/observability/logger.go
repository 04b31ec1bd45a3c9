package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeRoute     EventType = "route"
	EventTypeIntent    EventType = "intent"
	EventTypePlan      EventType = "plan"
	EventTypeStep      EventType = "step"
	EventTypeExtract   EventType = "extract"
	EventTypeTab       EventType = "tab"
	EventTypeBroadcast EventType = "broadcast"
	EventTypeHeartbeat EventType = "heartbeat"
	EventTypeLLM       EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	TabID     int       `json:"tab_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogRoute(sessionID string, msgType string, keepOpen bool) {
	l.Log(Event{
		Type:      EventTypeRoute,
		SessionID: sessionID,
		Data: map[string]any{
			"message_type": msgType,
			"keep_open":    keepOpen,
		},
	})
}

func (l *Logger) LogIntent(sessionID string, tabID int, kind string, text string) {
	l.Log(Event{
		Type:      EventTypeIntent,
		SessionID: sessionID,
		TabID:     tabID,
		Data: map[string]string{
			"kind": kind,
			"text": text,
		},
	})
}

func (l *Logger) LogPlan(tabID int, steps int, overwrote bool) {
	l.Log(Event{
		Type:  EventTypePlan,
		TabID: tabID,
		Data: map[string]any{
			"steps":     steps,
			"overwrote": overwrote,
		},
	})
}

func (l *Logger) LogStep(tabID int, index int, kind string, success bool, errMsg string) {
	l.Log(Event{
		Type:  EventTypeStep,
		TabID: tabID,
		Data: map[string]any{
			"index":   index,
			"kind":    kind,
			"success": success,
			"error":   errMsg,
		},
	})
}

func (l *Logger) LogExtract(tabID int, platform string, found int, success bool) {
	l.Log(Event{
		Type:  EventTypeExtract,
		TabID: tabID,
		Data: map[string]any{
			"platform": platform,
			"found":    found,
			"success":  success,
		},
	})
}

func (l *Logger) LogTab(tabID int, action string, url string) {
	l.Log(Event{
		Type:  EventTypeTab,
		TabID: tabID,
		Data: map[string]string{
			"action": action,
			"url":    url,
		},
	})
}

func (l *Logger) LogBroadcast(sessionID string, preview string) {
	l.Log(Event{
		Type:      EventTypeBroadcast,
		SessionID: sessionID,
		Data:      map[string]string{"preview": preview},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(sessionID string, prompt any, response string, toolCalls any) {
	l.Log(Event{
		Type:      EventTypeLLM,
		SessionID: sessionID,
		Data: map[string]any{
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}
