package gateway

// Messenger is a chat surface: it turns user text into intent messages
// for the router and delivers responses and broadcasts back.
type Messenger interface {
	// Start begins the message listening loop
	Start() error
	// Send sends a message to a specific session
	Send(sessionID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}
