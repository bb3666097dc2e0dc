package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/model"
)

// worldBuilderNode generates or revises the worldbuilding artifact.
// A structured-decode failure degrades to showing the raw text; only a
// failed generation call is a step fault.
type worldBuilderNode struct {
	model model.ChatModel
}

const worldBuilderSystemPrompt = `你是世界观架构师。根据用户要求设计或修改小说世界观。
以 JSON 返回：{"background": "背景设定", "power_system": "力量体系", "geography": "地理", "items": ["关键物品"], "concepts": ["核心概念"], "core_conflict": "核心冲突"}`

func (n *worldBuilderNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	var prompt strings.Builder
	if state.World != nil {
		prompt.WriteString("现有世界观：\n")
		prompt.WriteString(state.World.Background)
		prompt.WriteString("\n\n")
	}
	if state.KnowledgeContext != "" {
		prompt.WriteString(state.KnowledgeContext)
		prompt.WriteString("\n")
	}
	prompt.WriteString("用户要求：")
	prompt.WriteString(state.UserMessage)

	out, err := n.model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: worldBuilderSystemPrompt},
		{Role: model.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return graph.NodeResult[State]{Err: err}
	}

	var world WorldSetting
	if err := decodeJSON(out.Text, &world); err != nil || world.Background == "" {
		return graph.NodeResult[State]{
			Delta: State{AgentOutput: strings.TrimSpace(out.Text)},
		}
	}

	display := fmt.Sprintf("世界观已生成。\n背景：%s\n核心冲突：%s", firstLine(world.Background), world.CoreConflict)
	return graph.NodeResult[State]{
		Delta: State{World: &world, AgentOutput: display},
	}
}
