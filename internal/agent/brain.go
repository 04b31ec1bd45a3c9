package agent

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/internal/pagectx"
	"github.com/rahul/saarthi/internal/tools"
)

// HistoryStore is the slice of the message store the brain needs.
type HistoryStore interface {
	AddMessage(sessionID string, role string, content string) error
	GetHistory(sessionID string, limit int) ([]llms.MessageContent, error)
}

// Brain handles the chat fallthrough: commands that matched no typed
// intent become a tool-calling conversation with the model.
type Brain struct {
	Model    llms.Model
	Registry *tools.Registry
	History  HistoryStore
	Prompts  *PromptManager
	Logger   *observability.Logger
}

func NewBrain(model llms.Model, registry *tools.Registry, history HistoryStore, prompts *PromptManager, logger *observability.Logger) *Brain {
	return &Brain{
		Model:    model,
		Registry: registry,
		History:  history,
		Prompts:  prompts,
		Logger:   logger,
	}
}

// Chat answers free text. When the stored page context belongs to the
// originating tab and is flagged for use, its content is prefixed so
// the model can answer questions about the page.
func (b *Brain) Chat(ctx context.Context, sessionID string, input string, page *pagectx.PageContext) (string, error) {
	systemPrompt, err := b.Prompts.GetChatPrompt()
	if err != nil {
		b.Logger.Log(observability.Event{
			Type:      observability.EventTypeLLM,
			SessionID: sessionID,
			Data:      map[string]string{"warning": fmt.Sprintf("failed to load chat prompt: %v", err)},
		})
	}

	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		})
	}

	if history, err := b.History.GetHistory(sessionID, 10); err == nil {
		messages = append(messages, history...)
	}

	userText := input
	if page != nil && page.UseAsContext {
		userText = fmt.Sprintf("Current page: %s (%s)\n\n%s\n\n---\n\nUser: %s", page.Title, page.URL, page.Content, input)
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(userText)},
	})

	var llmTools []llms.Tool
	for _, t := range b.Registry.All() {
		llmTools = append(llmTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	maxSteps := 10
	var finalResponse string

	for i := 0; i < maxSteps; i++ {
		resp, err := b.Model.GenerateContent(ctx, messages, llms.WithTools(llmTools))
		if err != nil {
			return "", err
		}

		choice := resp.Choices[0]
		b.Logger.LogLLM(sessionID, userText, choice.Content, choice.ToolCalls)

		var assistantParts []llms.ContentPart
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})

		// No tool calls means this is the final answer
		if len(choice.ToolCalls) == 0 {
			finalResponse = choice.Content
			break
		}

		for _, tc := range choice.ToolCalls {
			tool := b.Registry.Get(tc.FunctionCall.Name)
			var result string

			if tool == nil {
				result = fmt.Sprintf("Error: Tool %s not found", tc.FunctionCall.Name)
			} else {
				res, err := tool.Execute(ctx, tc.FunctionCall.Arguments)
				if err != nil {
					res = fmt.Sprintf("Error: %v", err)
				}
				result = res
			}

			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    result,
					},
				},
			})
		}
	}

	if finalResponse == "" {
		finalResponse = "I've reached the maximum reasoning steps for this question. Please try a simpler request."
	}

	b.History.AddMessage(sessionID, "human", input)
	b.History.AddMessage(sessionID, "ai", finalResponse)

	return finalResponse, nil
}
