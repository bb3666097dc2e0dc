package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/model"
)

// directorNode classifies the user's intent into one of the five route
// labels. Routing must never throw past this boundary: any model
// failure or unparseable output degrades to direct_response, with the
// raw text (or a generic fallback) shown to the user.
type directorNode struct {
	model model.ChatModel
}

// directorVerdict is the JSON payload the classification call returns.
type directorVerdict struct {
	Route  string `json:"route"`
	Reason string `json:"reason"`
}

const directorFallbackReason = "我来直接回应你的请求。"

func (n *directorNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	prompt := n.buildPrompt(state)

	out, err := n.model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: directorSystemPrompt},
		{Role: model.RoleUser, Content: prompt},
	})
	if err != nil {
		return graph.NodeResult[State]{
			Delta: State{Route: RouteDirectResponse, AgentOutput: directorFallbackReason},
		}
	}

	var verdict directorVerdict
	if err := decodeJSON(out.Text, &verdict); err != nil || !validRoute(verdict.Route) {
		// Show the raw text: it is usually a perfectly good direct answer.
		reply := strings.TrimSpace(out.Text)
		if reply == "" {
			reply = directorFallbackReason
		}
		return graph.NodeResult[State]{
			Delta: State{Route: RouteDirectResponse, AgentOutput: reply},
		}
	}

	return graph.NodeResult[State]{
		Delta: State{Route: verdict.Route, RouteReason: verdict.Reason},
	}
}

const directorSystemPrompt = `你是小说创作工作流的总导演。阅读用户输入和项目概况，判断应该调用哪个环节。
只能从以下五个选项中选择一个：
- world_builder：构建或修改世界观设定
- casting_director：设计或调整角色
- outliner：制定或修改大纲
- write_chapter：撰写当前章节正文
- direct_response：直接回答用户（闲聊、提问、其他请求）
以 JSON 返回：{"route": "...", "reason": "给用户看的一句话解释"}`

func (n *directorNode) buildPrompt(state State) string {
	var b strings.Builder
	if state.KnowledgeContext != "" {
		b.WriteString("项目概况：\n")
		b.WriteString(state.KnowledgeContext)
		b.WriteString("\n")
	}
	if state.MemorySummary != "" {
		b.WriteString("近期对话：\n")
		b.WriteString(state.MemorySummary)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "用户输入：%s", state.UserMessage)
	return b.String()
}

// directResponseNode produces the user-facing reply for the
// direct_response route. When an earlier step already prepared the
// reply this turn (director fallback, write-prepare reroute), it is
// used as-is; otherwise the model answers the user directly.
type directResponseNode struct {
	model model.ChatModel
}

func (n *directResponseNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	reply := state.AgentOutput

	if reply == "" {
		var msgs []model.Message
		msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: "你是一位温和专业的小说创作助手。简洁地回应用户。"})
		if state.MemorySummary != "" {
			msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: "近期对话：\n" + state.MemorySummary})
		}
		msgs = append(msgs, model.Message{Role: model.RoleUser, Content: state.UserMessage})

		out, err := n.model.Chat(ctx, msgs)
		if err != nil {
			return graph.NodeResult[State]{Err: err}
		}
		reply = strings.TrimSpace(out.Text)
	}

	return graph.NodeResult[State]{
		Delta: State{
			AgentOutput: reply,
			Messages:    []ChatMessage{{Role: model.RoleAssistant, Content: reply}},
		},
		Route: graph.Stop(),
	}
}
