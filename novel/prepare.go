package novel

import (
	"context"

	"github.com/dshills/novelgraph-go/graph"
)

// User-facing precondition messages for the write route.
const (
	msgNoOutline = "还没有大纲。请先创建大纲再写正文。"
	msgNoChapter = "大纲中没有找到待写的章节。"
)

// writePrepareNode gates the writing cycle. It requires an outline and
// a progress pointer that resolves to a chapter; a failed precondition
// reroutes to direct response with an explanation instead of erroring.
//
// On success it selects the current chapter and resets the
// chapter-scoped fields (draft, critique, revision counter) so every
// writing cycle starts the revision loop from a clean slate.
type writePrepareNode struct{}

func (n *writePrepareNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	if state.Outline == nil || state.Outline.ChapterCount() == 0 {
		return reroute(msgNoOutline)
	}

	chapter, ok := resolveChapter(state.Outline, state.Progress)
	if !ok {
		return reroute(msgNoChapter)
	}

	picked := *chapter
	picked.Status = StatusDrafting
	return graph.NodeResult[State]{
		Delta: State{
			CurrentChapter:  &picked,
			ResetDraftCycle: true,
		},
	}
}

// resolveChapter finds the chapter the progress pointer names. The
// stable chapter id wins; (volume, chapter) indices are a bounds-checked
// fallback. With no pointer at all, the first non-DONE chapter is next.
func resolveChapter(outline *OutlineTree, progress *Progress) (*Chapter, bool) {
	if progress != nil {
		if _, _, ch, ok := outline.FindChapter(progress.ChapterID); ok {
			return ch, true
		}
		if ch, ok := outline.ChapterAt(progress.VolumeIndex, progress.ChapterIndex); ok {
			return ch, true
		}
		return nil, false
	}

	for vi := range outline.Volumes {
		for ci := range outline.Volumes[vi].Chapters {
			if outline.Volumes[vi].Chapters[ci].Status != StatusDone {
				return &outline.Volumes[vi].Chapters[ci], true
			}
		}
	}
	return nil, false
}

func reroute(explanation string) graph.NodeResult[State] {
	return graph.NodeResult[State]{
		Delta: State{AgentOutput: explanation},
		Route: graph.Goto(NodeDirectResponse),
	}
}
