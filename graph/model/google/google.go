// Package google adapts the official generative-ai-go SDK to the model.ChatModel interface.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/novelgraph-go/graph/model"
)

// DefaultModel is used when no model name is provided.
const DefaultModel = "gemini-1.5-flash"

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// Multi-turn conversations are replayed through a chat session: all but
// the final message become history, and the final message is sent as
// the prompt.
//
// Close must be called when the model is no longer needed to release
// the underlying gRPC connection.
//
// Example usage:
//
//	m, err := google.NewChatModel(ctx, os.Getenv("GOOGLE_API_KEY"), "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
type ChatModel struct {
	client    *genai.Client
	modelName string
}

// NewChatModel creates a new Gemini ChatModel.
//
// Parameters:
//   - ctx: Context for client construction.
//   - apiKey: Google API key.
//   - modelName: Gemini model to use. Empty string uses DefaultModel.
func NewChatModel(ctx context.Context, apiKey, modelName string) (*ChatModel, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &ChatModel{
		client:    client,
		modelName: modelName,
	}, nil
}

// Close releases the underlying client connection.
func (m *ChatModel) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if len(messages) == 0 {
		return model.ChatOut{}, errors.New("google: no messages provided")
	}

	gm := m.client.GenerativeModel(m.modelName)

	// System messages become the system instruction; the rest form the
	// chat history with the final message sent as the prompt.
	var system []string
	var turns []model.Message
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(system) > 0 {
		gm.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}
	if len(turns) == 0 {
		return model.ChatOut{}, errors.New("google: no user messages provided")
	}

	session := gm.StartChat()
	for _, msg := range turns[:len(turns)-1] {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return model.ChatOut{}, err
	}

	return parseResponse(resp)
}

// parseResponse flattens the first candidate's text parts.
func parseResponse(resp *genai.GenerateContentResponse) (model.ChatOut, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.ChatOut{}, errors.New("google: response contained no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return model.ChatOut{}, errors.New("google: response contained no text parts")
	}

	out := model.ChatOut{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
