// Package model provides LLM integration adapters.
package model

import "context"

// ChatModel defines the interface for LLM chat providers.
//
// This interface abstracts the differences between various LLM providers
// (OpenAI, Anthropic, Google, local models), providing a unified API for
// chat-based interactions.
//
// Implementations should:
// - Handle provider-specific authentication.
// - Convert standard Message format to provider-specific format.
// - Parse provider responses back to standard ChatOut format.
// - Respect context cancellation and timeouts.
//
// Example usage:
//
//	model := openai.NewChatModel(apiKey, "gpt-4o")
//	messages := []model.Message{
//	    {Role: model.RoleUser, Content: "续写第三章。"},
//	}
//	out, err := model.Chat(ctx, messages)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out.Text)
type ChatModel interface {
	// Chat sends messages to the LLM and returns the response.
	//
	// Parameters:
	// - ctx: Context for cancellation and timeout control.
	// - messages: Conversation history (system, user, assistant messages).
	//
	// Returns:
	// - ChatOut: LLM response text plus token usage when reported.
	// - error: Provider errors, network errors, or context cancellation.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// StreamingChatModel is a ChatModel that can deliver the response
// incrementally.
//
// ChatStream invokes fn once per text fragment as it arrives and
// returns the assembled ChatOut when the stream completes. Providers
// that cannot stream may satisfy this by calling fn once with the full
// text.
type StreamingChatModel interface {
	ChatModel

	// ChatStream sends messages and streams the response through fn.
	ChatStream(ctx context.Context, messages []Message, fn func(token string)) (ChatOut, error)
}

// Message represents a single message in an LLM conversation.
//
// Messages are the fundamental unit of communication with LLM providers.
// They follow the common chat format used by OpenAI, Anthropic, Google,
// and other providers.
//
// Typical conversation structure:
// - System message (optional): Sets context and behavior.
// - User messages: User input or questions.
// - Assistant messages: LLM responses.
type Message struct {
	// Role identifies the message sender.
	// Standard roles: "system", "user", "assistant".
	// Use the Role* constants for consistency.
	Role string

	// Content contains the message text.
	Content string
}

// Standard role constants for LLM conversations.
// These align with the conventions used by major LLM providers.
const (
	// RoleSystem indicates a system message that sets context or instructions.
	// System messages typically appear first in a conversation.
	RoleSystem = "system"

	// RoleUser indicates a message from the human user.
	RoleUser = "user"

	// RoleAssistant indicates a response from the LLM.
	RoleAssistant = "assistant"
)

// ChatOut represents the output from an LLM chat completion.
type ChatOut struct {
	// Text contains the LLM's generated response.
	Text string

	// TokensIn is the prompt token count reported by the provider,
	// 0 when the provider does not report usage.
	TokensIn int

	// TokensOut is the completion token count reported by the provider,
	// 0 when the provider does not report usage.
	TokensOut int
}
