package novel

import (
	"context"
	"fmt"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/model"
	"github.com/dshills/novelgraph-go/retrieval"
	"github.com/dshills/novelgraph-go/storage"
)

// saveSuffix is appended to the agent output after a successful save.
const saveSuffix = "\n\n[数据已保存]"

// saveNode persists whichever artifacts are present in state, keyed by
// project id. Without a project id the step no-ops entirely (ephemeral
// sessions get no suffix and no writes). After a successful draft save
// the chapter is marked DONE and the stored progress pointer advances.
//
// Persistence faults here are terminal: a half-saved turn must surface
// as an error, not as a silent success message.
type saveNode struct {
	projects *storage.Store
	index    *retrieval.Index
}

func (n *saveNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	if state.ProjectID == "" || n.projects == nil {
		return graph.NodeResult[State]{Route: graph.Stop()}
	}

	delta, err := n.persist(ctx, state)
	if err != nil {
		return graph.NodeResult[State]{Err: err}
	}

	out := state.AgentOutput + saveSuffix
	delta.AgentOutput = out
	delta.Messages = []ChatMessage{{Role: model.RoleAssistant, Content: out}}
	return graph.NodeResult[State]{
		Delta: delta,
		Route: graph.Stop(),
	}
}

// persist writes the non-empty artifacts and returns the state delta
// produced by draft completion (advanced progress, updated outline).
func (n *saveNode) persist(ctx context.Context, state State) (State, error) {
	var delta State

	if state.World != nil {
		if err := n.projects.SaveDoc(state.ProjectID, storage.DocWorld, state.World); err != nil {
			return State{}, fmt.Errorf("save world: %w", err)
		}
	}
	if len(state.Characters) > 0 {
		if err := n.projects.SaveDoc(state.ProjectID, storage.DocCharacters, state.Characters); err != nil {
			return State{}, fmt.Errorf("save characters: %w", err)
		}
	}

	outline := state.Outline

	if state.Draft != "" && state.CurrentChapter != nil {
		if err := n.projects.SaveChapter(state.ProjectID, state.CurrentChapter.ID, state.Draft); err != nil {
			return State{}, fmt.Errorf("save chapter: %w", err)
		}

		if outline != nil {
			if vi, ci, ch, ok := outline.FindChapter(state.CurrentChapter.ID); ok {
				ch.Status = StatusDone
				if next, ok := outline.NextAfter(vi, ci); ok {
					delta.Progress = &next
				} else {
					// Last chapter: park the pointer on the finished one.
					delta.Progress = &Progress{
						ChapterID:    ch.ID,
						VolumeIndex:  vi,
						ChapterIndex: ci,
					}
				}
				delta.Outline = outline
			}
		}

		if delta.Progress != nil {
			if err := n.projects.SaveDoc(state.ProjectID, storage.DocProgress, delta.Progress); err != nil {
				return State{}, fmt.Errorf("save progress: %w", err)
			}
		}

		// Feed the finished chapter to the retrieval index so later
		// chapters can reference it. Best effort: indexing failure must
		// not fail the save.
		if n.index != nil {
			_ = n.index.Upsert(ctx, retrieval.Document{
				ChapterID: state.CurrentChapter.ID,
				Label:     state.CurrentChapter.Title,
				Text:      state.Draft,
			})
		}
	}

	if outline != nil {
		if err := n.projects.SaveDoc(state.ProjectID, storage.DocOutline, outline); err != nil {
			return State{}, fmt.Errorf("save outline: %w", err)
		}
	}

	return delta, nil
}
