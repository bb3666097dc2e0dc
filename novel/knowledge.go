package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/emit"
	"github.com/dshills/novelgraph-go/retrieval"
	"github.com/dshills/novelgraph-go/storage"
)

// knowledgeLoaderNode pulls the project's stored artifacts (world,
// characters, outline, progress) into state and renders the compact
// context string the director and specialists prompt with. Threads
// without a project run with empty context.
type knowledgeLoaderNode struct {
	projects *storage.Store
}

func (n *knowledgeLoaderNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	if n.projects == nil || state.ProjectID == "" {
		return graph.NodeResult[State]{}
	}

	var delta State

	var world WorldSetting
	if err := n.projects.LoadDoc(state.ProjectID, storage.DocWorld, &world); err == nil {
		delta.World = &world
	}
	var characters []Character
	if err := n.projects.LoadDoc(state.ProjectID, storage.DocCharacters, &characters); err == nil {
		delta.Characters = characters
	}
	var outline OutlineTree
	if err := n.projects.LoadDoc(state.ProjectID, storage.DocOutline, &outline); err == nil {
		delta.Outline = &outline
	}
	var progress Progress
	if err := n.projects.LoadDoc(state.ProjectID, storage.DocProgress, &progress); err == nil {
		delta.Progress = &progress
	}

	delta.KnowledgeContext = renderContext(delta.World, delta.Characters, delta.Outline)
	return graph.NodeResult[State]{Delta: delta}
}

// renderContext builds the compact project summary used in prompts:
// world one-liner, character name/role list, volume/chapter counts.
func renderContext(world *WorldSetting, characters []Character, outline *OutlineTree) string {
	var b strings.Builder

	if world != nil && world.Background != "" {
		b.WriteString("【世界观】")
		b.WriteString(firstLine(world.Background))
		b.WriteString("\n")
	}
	if len(characters) > 0 {
		b.WriteString("【角色】")
		parts := make([]string, 0, len(characters))
		for _, c := range characters {
			parts = append(parts, c.Name+"("+c.Role+")")
		}
		b.WriteString(strings.Join(parts, "、"))
		b.WriteString("\n")
	}
	if outline != nil {
		fmt.Fprintf(&b, "【大纲】共 %d 卷 %d 章\n", len(outline.Volumes), outline.ChapterCount())
	}

	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// retrieverNode fetches prior-chapter excerpts similar to the current
// chapter's summary. An absent or failing retrieval backend degrades to
// empty context with a warning event only; drafting proceeds regardless.
type retrieverNode struct {
	index   *retrieval.Index
	emitter emit.Emitter
}

func (n *retrieverNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	if n.index == nil {
		return graph.NodeResult[State]{}
	}

	query := state.UserMessage
	if state.CurrentChapter != nil && state.CurrentChapter.Summary != "" {
		query = state.CurrentChapter.Summary
	}

	matches, err := n.index.Search(ctx, query, retrieval.DefaultTopK)
	if err != nil {
		n.warn(state, "retrieval unavailable: "+err.Error())
		return graph.NodeResult[State]{}
	}
	if len(matches) == 0 {
		return graph.NodeResult[State]{}
	}

	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "《%s》%s\n", m.Label, m.Excerpt)
	}
	return graph.NodeResult[State]{
		Delta: State{Retrieved: b.String()},
	}
}

func (n *retrieverNode) warn(state State, msg string) {
	if n.emitter == nil {
		return
	}
	n.emitter.Emit(emit.Event{
		Type:     emit.TypeWarning,
		ThreadID: state.ThreadID,
		NodeID:   NodeKnowledgeRetriever,
		Msg:      msg,
	})
}
