package openai

import (
	"testing"

	"github.com/dshills/novelgraph-go/graph/model"
)

func TestNewChatModelDefaults(t *testing.T) {
	m := NewChatModel("sk-test", "")
	if m.modelName != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, m.modelName)
	}

	m = NewChatModel("sk-test", "gpt-4o-mini")
	if m.modelName != "gpt-4o-mini" {
		t.Errorf("expected explicit model, got %q", m.modelName)
	}
}

func TestConvertMessages(t *testing.T) {
	converted := convertMessages([]model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	})

	if len(converted) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(converted))
	}
	if converted[0].OfSystem == nil {
		t.Error("system message not mapped to OfSystem")
	}
	if converted[1].OfUser == nil {
		t.Error("user message not mapped to OfUser")
	}
	if converted[2].OfAssistant == nil {
		t.Error("assistant message not mapped to OfAssistant")
	}
}
