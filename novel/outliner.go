package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/model"
)

// outlinerNode generates or revises the outline tree. Generated
// chapters default to PLANNED with stable ids assigned here when the
// model omits them.
type outlinerNode struct {
	model model.ChatModel
}

const outlinerSystemPrompt = `你是大纲规划师。根据世界观、角色和用户要求制定小说大纲。
以 JSON 返回：{"title": "书名", "volumes": [{"title": "卷名", "chapters": [{"id": "ch-1", "title": "章名", "summary": "概要", "beats": [{"summary": "情节节拍"}]}]}]}`

func (n *outlinerNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	var prompt strings.Builder
	if state.KnowledgeContext != "" {
		prompt.WriteString(state.KnowledgeContext)
		prompt.WriteString("\n")
	}
	if state.Outline != nil {
		fmt.Fprintf(&prompt, "现有大纲：共 %d 卷 %d 章。\n", len(state.Outline.Volumes), state.Outline.ChapterCount())
	}
	prompt.WriteString("用户要求：")
	prompt.WriteString(state.UserMessage)

	out, err := n.model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: outlinerSystemPrompt},
		{Role: model.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return graph.NodeResult[State]{Err: err}
	}

	var outline OutlineTree
	if err := decodeJSON(out.Text, &outline); err != nil || outline.ChapterCount() == 0 {
		return graph.NodeResult[State]{
			Delta: State{AgentOutput: strings.TrimSpace(out.Text)},
		}
	}

	normalizeOutline(&outline)
	display := fmt.Sprintf("大纲已生成：共 %d 卷 %d 章。", len(outline.Volumes), outline.ChapterCount())
	return graph.NodeResult[State]{
		Delta: State{Outline: &outline, AgentOutput: display},
	}
}

// normalizeOutline fills in missing chapter ids and statuses. Ids must
// be stable across edits, so existing ids are never rewritten.
func normalizeOutline(o *OutlineTree) {
	seq := 0
	for vi := range o.Volumes {
		for ci := range o.Volumes[vi].Chapters {
			seq++
			ch := &o.Volumes[vi].Chapters[ci]
			if ch.ID == "" {
				ch.ID = fmt.Sprintf("ch-%d", seq)
			}
			if ch.Status == "" {
				ch.Status = StatusPlanned
			}
		}
	}
}
