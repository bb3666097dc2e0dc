package novel

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/emit"
	"github.com/dshills/novelgraph-go/graph/model"
)

// writerNode drafts the current chapter from the accumulated context:
// world, characters, chapter beats, prior critique and draft, retrieved
// excerpts, and conversation memory. The revision counter increments
// unconditionally on every invocation, including the first.
//
// When the model supports streaming, text fragments are emitted as
// token events while the draft generates.
type writerNode struct {
	model   model.ChatModel
	emitter emit.Emitter
}

const writerSystemPrompt = `你是网文作者。根据设定和章节大纲撰写正文，沉浸式描写，多用对话和动作，避免总结式叙述。只输出正文，不要解释。`

func (n *writerNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	msgs := []model.Message{
		{Role: model.RoleSystem, Content: writerSystemPrompt},
		{Role: model.RoleUser, Content: n.buildPrompt(state)},
	}

	var out model.ChatOut
	var err error
	if streamer, ok := n.model.(model.StreamingChatModel); ok && n.emitter != nil {
		out, err = streamer.ChatStream(ctx, msgs, func(token string) {
			n.emitter.Emit(emit.Event{
				Type:     emit.TypeToken,
				ThreadID: state.ThreadID,
				NodeID:   NodeWriter,
				Msg:      token,
			})
		})
	} else {
		out, err = n.model.Chat(ctx, msgs)
	}
	if err != nil {
		return graph.NodeResult[State]{Err: err}
	}

	draft := strings.TrimSpace(out.Text)
	revision := state.RevisionCount + 1
	return graph.NodeResult[State]{
		Delta: State{
			Draft:         draft,
			RevisionCount: revision,
			AgentOutput:   fmt.Sprintf("正文草稿已生成（第 %d 版，约 %d 字）。", revision, utf8.RuneCountInString(draft)),
		},
	}
}

func (n *writerNode) buildPrompt(state State) string {
	var b strings.Builder

	if state.World != nil {
		b.WriteString("【世界观】\n")
		b.WriteString(state.World.Background)
		if state.World.PowerSystem != "" {
			b.WriteString("\n力量体系：")
			b.WriteString(state.World.PowerSystem)
		}
		b.WriteString("\n\n")
	}
	if len(state.Characters) > 0 {
		b.WriteString("【角色】\n")
		for _, c := range state.Characters {
			fmt.Fprintf(&b, "%s（%s）：%s\n", c.Name, c.Role, c.Personality)
		}
		b.WriteString("\n")
	}
	if ch := state.CurrentChapter; ch != nil {
		fmt.Fprintf(&b, "【本章】%s\n%s\n", ch.Title, ch.Summary)
		for i, beat := range ch.Beats {
			fmt.Fprintf(&b, "%d. %s\n", i+1, beat.Summary)
		}
		b.WriteString("\n")
	}
	if state.Retrieved != "" {
		b.WriteString("【前文参考】\n")
		b.WriteString(state.Retrieved)
		b.WriteString("\n")
	}
	if state.MemorySummary != "" {
		b.WriteString("【近期对话】\n")
		b.WriteString(state.MemorySummary)
		b.WriteString("\n")
	}
	if state.Critique != "" && state.Draft != "" {
		b.WriteString("【上一版草稿】\n")
		b.WriteString(state.Draft)
		b.WriteString("\n\n【编辑意见（必须逐条改进）】\n")
		b.WriteString(state.Critique)
		b.WriteString("\n\n请根据编辑意见重写本章。\n")
	} else {
		b.WriteString("请撰写本章正文。\n")
	}
	if state.UserMessage != "" {
		b.WriteString("用户补充要求：")
		b.WriteString(state.UserMessage)
	}

	return b.String()
}
