package intent

// Kind is the classified type of a free-text command.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindAction       Kind = "action"
	KindNavigation   Kind = "navigation"
	KindSearch       Kind = "search"
	KindChat         Kind = "chat"
)

// Engine identifies a search destination.
type Engine string

const (
	EngineGoogle   Engine = "google"
	EngineBilibili Engine = "bilibili"
	EngineZhihu    Engine = "zhihu"
)

// Intent is the typed result of classifying one command. Query and
// Engine are derived exactly once here and never re-derived mid-flow.
type Intent struct {
	Kind   Kind
	Text   string // The original command text
	Query  string // Search query (KindSearch)
	Engine Engine // Search destination (KindSearch)
	URL    string // Normalized target (KindNavigation)
}
