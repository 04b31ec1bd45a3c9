package router

// Inbound message types, one router branch each.
const (
	TypeSendMessage           = "SEND_MESSAGE"
	TypeNavigate              = "NAVIGATE"
	TypeExtractInfo           = "EXTRACT_INFO"
	TypeClearChat             = "CLEAR_CHAT"
	TypeSetContext            = "SET_CONTEXT"
	TypeContentScriptReady    = "CONTENT_SCRIPT_READY"
	TypeAnalyzeSearchElements = "ANALYZE_SEARCH_ELEMENTS"
	TypeGetPageAnalysis       = "GET_PAGE_ANALYSIS"
	TypeCloseTab              = "CLOSE_TAB"
)

// Outbound message types.
const (
	TypeMessage          = "MESSAGE"
	TypeNavigation       = "NAVIGATION"
	TypeExtractionResult = "EXTRACTION_RESULT"
	TypeError            = "ERROR"
)

// Inbound is one intent message from a chat surface or an in-page
// script, discriminated by Type. TabID is a pointer because "no tab"
// and "tab 0" are different things.
type Inbound struct {
	Type         string `json:"type"`
	Text         string `json:"text,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	TabID        *int   `json:"tab_id,omitempty"`
	TabURL       string `json:"tab_url,omitempty"`
	TabTitle     string `json:"tab_title,omitempty"`
	URL          string `json:"url,omitempty"`
	Title        string `json:"title,omitempty"`
	Content      string `json:"content,omitempty"`
	UseAsContext bool   `json:"use_as_context,omitempty"`
	HTML         string `json:"html,omitempty"`
}

// Outbound is the single response to one Inbound. Broadcasts reuse the
// MESSAGE shape but travel over the bus, not the response callback.
type Outbound struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Success   bool   `json:"success"`
	URL       string `json:"url,omitempty"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

func messageResponse(sessionID, text string) Outbound {
	return Outbound{Type: TypeMessage, SessionID: sessionID, Success: true, Text: text}
}

func errorResponse(message string) Outbound {
	return Outbound{Type: TypeError, Message: message}
}
