package store

import (
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
	"github.com/tmc/langchaingo/llms"
)

// HistoryStore keeps per-session chat history in sqlite. Sessions map
// 1:1 to chat surfaces (a Telegram chat, a Discord channel).
type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	query := `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		role TEXT,
		content TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err = db.Exec(query); err != nil {
		return nil, err
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) AddMessage(sessionID string, role string, content string) error {
	query := `INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)`
	_, err := h.DB.Exec(query, sessionID, role, content)
	return err
}

// ClearHistory drops every message of a session.
func (h *HistoryStore) ClearHistory(sessionID string) error {
	query := `DELETE FROM messages WHERE session_id = ?`
	_, err := h.DB.Exec(query, sessionID)
	return err
}

// GetHistory returns the last `limit` messages of a session in
// chronological order.
func (h *HistoryStore) GetHistory(sessionID string, limit int) ([]llms.MessageContent, error) {
	query := `SELECT role, content FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := h.DB.Query(query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []llms.MessageContent
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}

		var msgRole llms.ChatMessageType
		switch role {
		case "human":
			msgRole = llms.ChatMessageTypeHuman
		case "ai":
			msgRole = llms.ChatMessageTypeAI
		case "system":
			msgRole = llms.ChatMessageTypeSystem
		default:
			msgRole = llms.ChatMessageTypeHuman
		}

		history = append(history, llms.MessageContent{
			Role: msgRole,
			Parts: []llms.ContentPart{
				llms.TextPart(content),
			},
		})
	}

	// Reverse to get chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}
