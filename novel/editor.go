package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/model"
)

// passScore is the rubric threshold: score >= passScore is a pass.
const passScore = 80

// editorPassOutput is shown when the verdict passes without its own
// display text, and when a failed review call degrades to a pass.
const editorPassOutput = "审查完成，草稿质量达标。"

// editorNode reviews the current draft against the fixed rubric and
// returns a pass or revise verdict. A pass clears the critique; a
// revise verdict attaches the itemized issues as critique for the next
// writer pass. Review failures of any kind (call or decode) degrade to
// a pass so a flaky reviewer can never wedge the writing cycle.
type editorNode struct {
	model model.ChatModel
}

const editorSystemPrompt = `你是资深编辑。按以下标准审查章节草稿：结构节奏、情感密度、角色一致性、画面感（展示而非讲述）、结尾钩子。
评分 0-100，80 分及以上为通过。
以 JSON 返回：{"status": "PASS|REVISE", "score": 85, "issues": ["具体问题"], "agentOutput": "给用户看的一句话总结"}`

// editorVerdict is the rubric JSON payload.
type editorVerdict struct {
	Status      string   `json:"status"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	AgentOutput string   `json:"agentOutput"`
}

func (n *editorNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	prompt := fmt.Sprintf("【本章大纲】\n%s\n\n【草稿】\n%s", chapterBrief(state.CurrentChapter), state.Draft)

	out, err := n.model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: editorSystemPrompt},
		{Role: model.RoleUser, Content: prompt},
	})
	if err != nil {
		return pass(editorPassOutput)
	}

	var verdict editorVerdict
	if err := decodeJSON(out.Text, &verdict); err != nil {
		return pass(editorPassOutput)
	}

	if verdict.Score >= passScore || strings.EqualFold(verdict.Status, "PASS") {
		display := verdict.AgentOutput
		if display == "" {
			display = editorPassOutput
		}
		return pass(display)
	}

	critique := strings.Join(verdict.Issues, "\n")
	if critique == "" {
		critique = fmt.Sprintf("评分 %d，未达到 %d 分标准，请全面润色。", verdict.Score, passScore)
	}
	display := verdict.AgentOutput
	if display == "" {
		display = fmt.Sprintf("评分 %d，需要修改。", verdict.Score)
	}
	return graph.NodeResult[State]{
		Delta: State{Critique: critique, AgentOutput: display},
	}
}

func pass(display string) graph.NodeResult[State] {
	return graph.NodeResult[State]{
		Delta: State{ClearCritique: true, AgentOutput: display},
	}
}

func chapterBrief(ch *Chapter) string {
	if ch == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(ch.Title)
	if ch.Summary != "" {
		b.WriteString("\n")
		b.WriteString(ch.Summary)
	}
	for _, beat := range ch.Beats {
		b.WriteString("\n- ")
		b.WriteString(beat.Summary)
	}
	return b.String()
}
