package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/rahul/saarthi/internal/action"
	"github.com/rahul/saarthi/internal/browser"
	"github.com/rahul/saarthi/internal/governance"
	"github.com/rahul/saarthi/internal/intent"
	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/internal/pagectx"
	"github.com/rahul/saarthi/internal/search"
)

// noTab marks messages that did not originate from a tab.
const noTab = -1

// ChatBrain is the free-text fallthrough.
type ChatBrain interface {
	Chat(ctx context.Context, sessionID string, input string, page *pagectx.PageContext) (string, error)
}

// HistoryClearer wipes a session's chat history.
type HistoryClearer interface {
	ClearHistory(sessionID string) error
}

// Tabs is the slice of the browser session the router drives directly.
type Tabs interface {
	Navigate(ctx context.Context, tabID int, url string) error
	OpenTab(ctx context.Context, url string, background bool) (int, error)
	CloseTab(tabID int)
	PageAnalysis(ctx context.Context, tabID int) (string, error)
}

// result is the tagged outcome of one handler: exactly one of resp
// (respond before Route returns) or run (respond later, exactly once)
// is set. The keep-channel-open boolean falls out of which one it is,
// so no handler can start async work after reporting "already done".
type result struct {
	resp *Outbound
	run  func(send func(Outbound))
}

func syncResult(o Outbound) result {
	return result{resp: &o}
}

func asyncResult(run func(send func(Outbound))) result {
	return result{run: run}
}

// Router is the single entry point for inbound intent messages.
type Router struct {
	Plans        *action.Store
	Planner      *action.Planner
	Executor     *action.Executor
	PageInfo     pagectx.InfoProvider
	Context      *pagectx.Store
	Orchestrator *search.Orchestrator
	Brain        ChatBrain
	History      HistoryClearer
	Policy       *governance.NavigationPolicy
	Tabs         Tabs
	Logger       *observability.Logger
}

// Route classifies and dispatches one message. The return value tells
// the host channel whether to keep the response callback alive: true
// means the callback fires later (exactly once), false means it
// already fired. The decision is made before any asynchronous work
// starts.
func (r *Router) Route(ctx context.Context, msg Inbound, respond func(Outbound)) (keepOpen bool) {
	observability.SetStatus(observability.RoleRouting, msg.Type)

	res := r.dispatch(ctx, msg)

	if res.run != nil {
		r.Logger.LogRoute(msg.SessionID, msg.Type, true)
		go r.runAsync(res.run, respond)
		return true
	}

	r.Logger.LogRoute(msg.SessionID, msg.Type, false)
	respond(*res.resp)
	observability.ClearStatus()
	return false
}

// runAsync guarantees exactly one callback invocation: the first send
// wins, a panic becomes a typed ERROR, and a handler that forgot to
// respond produces one too.
func (r *Router) runAsync(run func(send func(Outbound)), respond func(Outbound)) {
	var once sync.Once
	send := func(o Outbound) {
		once.Do(func() { respond(o) })
	}

	defer observability.ClearStatus()
	defer func() {
		if rec := recover(); rec != nil {
			send(errorResponse(fmt.Sprintf("internal error: %v", rec)))
			return
		}
		send(errorResponse("handler finished without a response"))
	}()

	run(send)
}

func (r *Router) dispatch(ctx context.Context, msg Inbound) result {
	switch msg.Type {
	case TypeSendMessage:
		return r.handleSendMessage(ctx, msg)
	case TypeNavigate:
		return r.handleNavigate(ctx, msg)
	case TypeExtractInfo:
		return r.handleExtractInfo(ctx, msg)
	case TypeClearChat:
		return r.handleClearChat(msg)
	case TypeSetContext:
		return r.handleSetContext(msg)
	case TypeContentScriptReady:
		return r.handleContentScriptReady(msg)
	case TypeAnalyzeSearchElements:
		return r.handleAnalyzeElements(msg)
	case TypeGetPageAnalysis:
		return r.handleGetPageAnalysis(ctx, msg)
	case TypeCloseTab:
		return r.handleCloseTab(msg)
	default:
		return syncResult(errorResponse(fmt.Sprintf("unknown message type: %s", msg.Type)))
	}
}

func tabOf(msg Inbound) int {
	if msg.TabID == nil {
		return noTab
	}
	return *msg.TabID
}

func (r *Router) handleSendMessage(ctx context.Context, msg Inbound) result {
	if msg.Text == "" {
		return syncResult(errorResponse("SEND_MESSAGE requires text"))
	}

	tabID := tabOf(msg)
	it := intent.Classify(msg.Text, tabID != noTab && r.Plans.Has(tabID))
	r.Logger.LogIntent(msg.SessionID, tabID, string(it.Kind), msg.Text)

	switch it.Kind {
	case intent.KindConfirmation:
		// Steps are driven through the page; a tab that never announced
		// readiness (or was never navigated by us) cannot take them.
		if !r.Context.IsReady(tabID) {
			return syncResult(messageResponse(msg.SessionID, "That tab isn't ready for page actions yet. Give it a moment to finish loading."))
		}
		return asyncResult(func(send func(Outbound)) {
			summary := r.Executor.Execute(ctx, tabID)
			send(messageResponse(msg.SessionID, summary))
		})

	case intent.KindAction:
		if tabID == noTab {
			return syncResult(errorResponse("action requests need an originating tab"))
		}
		plan, overwrote := r.Planner.Plan(msg.Text, tabID, msg.TabURL)
		if plan == nil {
			return syncResult(messageResponse(msg.SessionID, "I couldn't work out any page actions for that. Try something like \"find pricing\"."))
		}
		r.Logger.LogPlan(tabID, len(plan.Steps), overwrote)
		return syncResult(messageResponse(msg.SessionID, action.FormatProposal(plan)))

	case intent.KindNavigation:
		return r.navigateResult(ctx, msg.SessionID, tabID, it.URL)

	case intent.KindSearch:
		return asyncResult(func(send func(Outbound)) {
			r.Orchestrator.HandleSearch(ctx, it, tabID, msg.SessionID, func(ack string) {
				send(messageResponse(msg.SessionID, ack))
			})
		})

	default: // chat fallthrough
		return asyncResult(func(send func(Outbound)) {
			page := r.Context.GetContext(tabID)
			reply, err := r.Brain.Chat(ctx, msg.SessionID, msg.Text, page)
			if err != nil {
				reply = "I'm having trouble thinking right now..."
			}
			send(messageResponse(msg.SessionID, reply))
		})
	}
}

func (r *Router) handleNavigate(ctx context.Context, msg Inbound) result {
	if msg.URL == "" {
		return syncResult(errorResponse("NAVIGATE requires a url"))
	}
	return r.navigateResult(ctx, msg.SessionID, tabOf(msg), intent.NormalizeURL(msg.URL))
}

// navigateResult checks policy and drives the tab; both the policy
// denial and a host navigation failure come back as a failed
// NAVIGATION result, never as a dropped response.
func (r *Router) navigateResult(ctx context.Context, sessionID string, tabID int, url string) result {
	if verdict := r.Policy.Evaluate(url); verdict.Effect == governance.EffectDeny {
		return syncResult(Outbound{
			Type:      TypeNavigation,
			SessionID: sessionID,
			Success:   false,
			URL:       url,
			Error:     verdict.Reason,
		})
	}

	return asyncResult(func(send func(Outbound)) {
		target := tabID
		var err error
		if target == noTab {
			target, err = r.Tabs.OpenTab(ctx, url, false)
		} else {
			err = r.Tabs.Navigate(ctx, target, url)
		}

		if err == nil {
			// A page we just navigated is driveable, and its content
			// becomes the chat context. Best effort: an unreadable
			// page simply leaves the context slot alone.
			r.Context.MarkReady(target)
			if cerr := r.Context.AutoSetContext(ctx, target, r.PageInfo); cerr != nil {
				r.Logger.LogTab(target, "context_skip", url)
			}
		}

		out := Outbound{Type: TypeNavigation, SessionID: sessionID, Success: err == nil, URL: url}
		if err != nil {
			out.Error = err.Error()
		}
		send(out)
	})
}

func (r *Router) handleExtractInfo(ctx context.Context, msg Inbound) result {
	tabID := tabOf(msg)
	if tabID == noTab {
		return syncResult(errorResponse("EXTRACT_INFO requires a tab id"))
	}

	return asyncResult(func(send func(Outbound)) {
		info, err := r.PageInfo.PageInfo(ctx, tabID)
		if err != nil {
			send(Outbound{Type: TypeExtractionResult, SessionID: msg.SessionID, Success: false, Error: err.Error()})
			return
		}

		info.UseAsContext = true
		r.Context.SetContext(info, tabID)

		send(Outbound{
			Type:      TypeExtractionResult,
			SessionID: msg.SessionID,
			Success:   true,
			Title:     info.Title,
			URL:       info.URL,
			Content:   info.Content,
		})
	})
}

func (r *Router) handleClearChat(msg Inbound) result {
	if err := r.History.ClearHistory(msg.SessionID); err != nil {
		return syncResult(errorResponse(fmt.Sprintf("failed to clear chat: %v", err)))
	}
	r.Context.ClearContext()
	return syncResult(messageResponse(msg.SessionID, "Chat history cleared."))
}

func (r *Router) handleSetContext(msg Inbound) result {
	tabID := tabOf(msg)
	if tabID == noTab {
		return syncResult(errorResponse("SET_CONTEXT requires a tab id"))
	}

	r.Context.SetContext(pagectx.PageInfo{
		Title:        msg.Title,
		URL:          msg.URL,
		Content:      msg.Content,
		UseAsContext: msg.UseAsContext,
	}, tabID)
	return syncResult(messageResponse(msg.SessionID, "Context updated."))
}

func (r *Router) handleContentScriptReady(msg Inbound) result {
	tabID := tabOf(msg)
	if tabID == noTab {
		return syncResult(errorResponse("CONTENT_SCRIPT_READY requires a tab id"))
	}
	r.Context.MarkReady(tabID)
	return syncResult(messageResponse(msg.SessionID, "Ready."))
}

func (r *Router) handleGetPageAnalysis(ctx context.Context, msg Inbound) result {
	tabID := tabOf(msg)
	if tabID == noTab {
		return syncResult(errorResponse("GET_PAGE_ANALYSIS requires a tab id"))
	}

	return asyncResult(func(send func(Outbound)) {
		summary, err := r.Tabs.PageAnalysis(ctx, tabID)
		if err != nil {
			send(errorResponse(err.Error()))
			return
		}
		send(messageResponse(msg.SessionID, summary))
	})
}

// handleCloseTab tears a tab down everywhere it is known: the browser
// session, the readiness set, the context slot, and the plan store.
func (r *Router) handleCloseTab(msg Inbound) result {
	tabID := tabOf(msg)
	if tabID == noTab {
		return syncResult(errorResponse("CLOSE_TAB requires a tab id"))
	}

	r.Tabs.CloseTab(tabID)
	r.Context.DropReady(tabID)
	r.Context.ClearContextFor(tabID)
	r.Plans.Delete(tabID)
	return syncResult(messageResponse(msg.SessionID, "Tab closed."))
}

func (r *Router) handleAnalyzeElements(msg Inbound) result {
	if msg.HTML == "" {
		return syncResult(errorResponse("ANALYZE_SEARCH_ELEMENTS requires html"))
	}

	return asyncResult(func(send func(Outbound)) {
		summary, err := browser.SummarizeElements(msg.HTML)
		if err != nil {
			send(errorResponse(err.Error()))
			return
		}
		send(messageResponse(msg.SessionID, fmt.Sprintf("Interactive elements on %s:\n%s", msg.URL, summary)))
	})
}
