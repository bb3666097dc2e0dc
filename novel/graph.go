package novel

import (
	"errors"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/emit"
	"github.com/dshills/novelgraph-go/graph/model"
	"github.com/dshills/novelgraph-go/graph/store"
	"github.com/dshills/novelgraph-go/retrieval"
	"github.com/dshills/novelgraph-go/storage"
)

// Deps are the collaborators the workflow graph is built from. Model
// and Checkpoints are required; the rest degrade gracefully when nil
// (no transcript memory, no project persistence, no retrieval).
type Deps struct {
	// Model generates all text: routing, specialists, writing, editing.
	Model model.ChatModel

	// Checkpoints persists workflow state between steps and across
	// suspensions.
	Checkpoints store.Store[State]

	// Emitter receives the observability event stream. Optional.
	Emitter emit.Emitter

	// Projects is the JSON-file project store. Optional.
	Projects *storage.Store

	// Chats is the transcript store backing conversation memory. Optional.
	Chats *storage.ChatStore

	// Index retrieves prior-chapter context for the writer. Optional.
	Index *retrieval.Index

	// Options configures the engine (MaxSteps, Metrics).
	Options graph.Options
}

// Build wires the novel workflow graph:
//
//	memoryLoader → knowledgeLoader → director
//	director → directResponse | directorConfirm (suspend)
//	directorConfirm → worldBuilder | castingDirector | outliner | writePrepare
//	specialists → humanReview (suspend) → saveToStore → END
//	writePrepare → knowledgeRetriever → writer → editor
//	editor → saveToStore (pass) | writer (revise) | humanReview (revision budget spent)
//	directResponse → END
func Build(deps Deps) (*graph.Engine[State], error) {
	if deps.Model == nil {
		return nil, errors.New("novel: a chat model is required")
	}
	if deps.Checkpoints == nil {
		return nil, errors.New("novel: a checkpoint store is required")
	}

	engine := graph.New(Reduce, deps.Checkpoints, deps.Emitter, deps.Options)

	nodes := map[string]graph.Node[State]{
		NodeMemoryLoader:       &memoryLoaderNode{chats: deps.Chats},
		NodeKnowledgeLoader:    &knowledgeLoaderNode{projects: deps.Projects},
		NodeDirector:           &directorNode{model: deps.Model},
		NodeDirectorConfirm:    &directorConfirmNode{},
		NodeDirectResponse:     &directResponseNode{model: deps.Model},
		NodeWorldBuilder:       &worldBuilderNode{model: deps.Model},
		NodeCastingDirector:    &castingDirectorNode{model: deps.Model},
		NodeOutliner:           &outlinerNode{model: deps.Model},
		NodeWritePrepare:       &writePrepareNode{},
		NodeKnowledgeRetriever: &retrieverNode{index: deps.Index, emitter: deps.Emitter},
		NodeWriter:             &writerNode{model: deps.Model, emitter: deps.Emitter},
		NodeEditor:             &editorNode{model: deps.Model},
		NodeHumanReview:        &humanReviewNode{},
		NodeSave:               &saveNode{projects: deps.Projects, index: deps.Index},
	}
	for id, node := range nodes {
		if err := engine.Add(id, node); err != nil {
			return nil, err
		}
	}
	if err := engine.StartAt(NodeMemoryLoader); err != nil {
		return nil, err
	}

	type edge struct {
		from, to string
		when     graph.Predicate[State]
	}
	routeIs := func(route string) graph.Predicate[State] {
		return func(s State) bool { return s.Route == route }
	}
	edges := []edge{
		{NodeMemoryLoader, NodeKnowledgeLoader, nil},
		{NodeKnowledgeLoader, NodeDirector, nil},

		// Direct responses skip confirmation; everything else suspends
		// for user approval first.
		{NodeDirector, NodeDirectResponse, routeIs(RouteDirectResponse)},
		{NodeDirector, NodeDirectorConfirm, nil},

		{NodeDirectorConfirm, NodeWorldBuilder, routeIs(RouteWorldBuilder)},
		{NodeDirectorConfirm, NodeCastingDirector, routeIs(RouteCastingDirector)},
		{NodeDirectorConfirm, NodeOutliner, routeIs(RouteOutliner)},
		{NodeDirectorConfirm, NodeWritePrepare, routeIs(RouteWriteChapter)},
		{NodeDirectorConfirm, NodeDirectResponse, nil},

		{NodeWorldBuilder, NodeHumanReview, nil},
		{NodeCastingDirector, NodeHumanReview, nil},
		{NodeOutliner, NodeHumanReview, nil},

		// Precondition failures leave writePrepare through an explicit
		// reroute; the edge covers the success path.
		{NodeWritePrepare, NodeKnowledgeRetriever, nil},
		{NodeKnowledgeRetriever, NodeWriter, nil},
		{NodeWriter, NodeEditor, nil},

		// Revision loop termination policy. Edge order matters: pass
		// first, then the revision budget, then loop back.
		{NodeEditor, NodeSave, func(s State) bool { return s.Critique == "" }},
		{NodeEditor, NodeHumanReview, func(s State) bool { return s.RevisionCount >= maxRevisions }},
		{NodeEditor, NodeWriter, nil},

		{NodeHumanReview, NodeSave, nil},
	}
	for _, e := range edges {
		if err := engine.Connect(e.from, e.to, e.when); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// maxRevisions is the hard bound on writer passes per chapter cycle:
// once the counter reaches it on a revise verdict, the loop escalates
// to human review instead of regenerating again.
const maxRevisions = 3
