package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/model"
)

// castingDirectorNode generates or revises the character roster.
type castingDirectorNode struct {
	model model.ChatModel
}

const castingSystemPrompt = `你是选角导演。根据世界观和用户要求设计小说角色。
以 JSON 返回：{"characters": [{"id": "c-1", "name": "姓名", "role": "protagonist|antagonist|supporting", "personality": "性格", "relationships": {"c-2": "师徒"}}]}`

type castingVerdict struct {
	Characters []Character `json:"characters"`
}

func (n *castingDirectorNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	var prompt strings.Builder
	if state.KnowledgeContext != "" {
		prompt.WriteString(state.KnowledgeContext)
		prompt.WriteString("\n")
	}
	if len(state.Characters) > 0 {
		prompt.WriteString("现有角色：")
		for _, c := range state.Characters {
			prompt.WriteString(c.Name + " ")
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("用户要求：")
	prompt.WriteString(state.UserMessage)

	out, err := n.model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: castingSystemPrompt},
		{Role: model.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return graph.NodeResult[State]{Err: err}
	}

	var verdict castingVerdict
	if err := decodeJSON(out.Text, &verdict); err != nil || len(verdict.Characters) == 0 {
		return graph.NodeResult[State]{
			Delta: State{AgentOutput: strings.TrimSpace(out.Text)},
		}
	}

	names := make([]string, 0, len(verdict.Characters))
	for _, c := range verdict.Characters {
		names = append(names, c.Name)
	}
	display := fmt.Sprintf("已生成 %d 位角色：%s。", len(verdict.Characters), strings.Join(names, "、"))
	return graph.NodeResult[State]{
		Delta: State{Characters: verdict.Characters, AgentOutput: display},
	}
}
