package novel

import (
	"context"
	"testing"
)

func TestWritePrepareNode(t *testing.T) {
	ctx := context.Background()
	n := &writePrepareNode{}

	outline := &OutlineTree{
		Volumes: []Volume{
			{Title: "卷一", Chapters: []Chapter{
				{ID: "ch-1", Title: "一", Status: StatusDone},
				{ID: "ch-2", Title: "二", Status: StatusPlanned, Summary: "少年入城"},
			}},
		},
	}

	t.Run("missing outline reroutes", func(t *testing.T) {
		result := n.Run(ctx, State{})
		if result.Route.To != NodeDirectResponse {
			t.Errorf("Route = %+v", result.Route)
		}
		if result.Delta.AgentOutput != msgNoOutline {
			t.Errorf("AgentOutput = %q", result.Delta.AgentOutput)
		}
	})

	t.Run("resolves by stable chapter id", func(t *testing.T) {
		result := n.Run(ctx, State{
			Outline:  outline,
			Progress: &Progress{ChapterID: "ch-2", VolumeIndex: 9, ChapterIndex: 9},
		})
		if result.Route.To != "" {
			t.Fatalf("unexpected reroute: %+v", result.Route)
		}
		if result.Delta.CurrentChapter == nil || result.Delta.CurrentChapter.ID != "ch-2" {
			t.Errorf("CurrentChapter = %+v", result.Delta.CurrentChapter)
		}
		if !result.Delta.ResetDraftCycle {
			t.Error("prepare must reset the draft cycle")
		}
		if result.Delta.CurrentChapter.Status != StatusDrafting {
			t.Errorf("selected chapter status = %s", result.Delta.CurrentChapter.Status)
		}
	})

	t.Run("falls back to bounds-checked indices", func(t *testing.T) {
		result := n.Run(ctx, State{
			Outline:  outline,
			Progress: &Progress{ChapterID: "ch-ghost", VolumeIndex: 0, ChapterIndex: 1},
		})
		if result.Delta.CurrentChapter == nil || result.Delta.CurrentChapter.ID != "ch-2" {
			t.Errorf("CurrentChapter = %+v", result.Delta.CurrentChapter)
		}
	})

	t.Run("unresolvable pointer reroutes", func(t *testing.T) {
		result := n.Run(ctx, State{
			Outline:  outline,
			Progress: &Progress{ChapterID: "ch-ghost", VolumeIndex: 5, ChapterIndex: 0},
		})
		if result.Route.To != NodeDirectResponse {
			t.Errorf("Route = %+v", result.Route)
		}
		if result.Delta.AgentOutput != msgNoChapter {
			t.Errorf("AgentOutput = %q", result.Delta.AgentOutput)
		}
	})

	t.Run("no pointer picks first unfinished chapter", func(t *testing.T) {
		result := n.Run(ctx, State{Outline: outline})
		if result.Delta.CurrentChapter == nil || result.Delta.CurrentChapter.ID != "ch-2" {
			t.Errorf("CurrentChapter = %+v", result.Delta.CurrentChapter)
		}
	})
}
