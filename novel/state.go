package novel

// ChatMessage is one turn of the visible conversation carried in state.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the workflow state shared by every node in the novel graph.
//
// Merge policy is per field and lives entirely in Reduce: Messages is
// append-only; every other field is replace-on-non-zero. Because a zero
// value means "unchanged", fields that must be cleared mid-workflow are
// cleared through the explicit reset flags below instead of by writing
// zero values.
type State struct {
	// ThreadID is the workflow thread identity.
	ThreadID string `json:"thread_id,omitempty"`

	// ProjectID binds the thread to a stored project. Empty for
	// ephemeral/anonymous sessions; the save step no-ops without it.
	ProjectID string `json:"project_id,omitempty"`

	// UserMessage is the user input driving the current turn. A
	// non-confirmation resume replaces it.
	UserMessage string `json:"user_message,omitempty"`

	// Messages is the append-only visible conversation.
	Messages []ChatMessage `json:"messages,omitempty"`

	// Route is the director's routing decision for this turn.
	Route string `json:"route,omitempty"`

	// RouteReason is the director's human-readable explanation, shown
	// while awaiting route confirmation.
	RouteReason string `json:"route_reason,omitempty"`

	// Artifacts loaded from the project store or produced this turn.
	World      *WorldSetting `json:"world,omitempty"`
	Characters []Character   `json:"characters,omitempty"`
	Outline    *OutlineTree  `json:"outline,omitempty"`
	Progress   *Progress     `json:"progress,omitempty"`

	// CurrentChapter is the chapter selected by write-prepare for the
	// active writing cycle.
	CurrentChapter *Chapter `json:"current_chapter,omitempty"`

	// Draft is the writer's latest chapter text.
	Draft string `json:"draft,omitempty"`

	// Critique is the editor's revision feedback. Empty means the last
	// verdict was a pass (or no editing has happened yet).
	Critique string `json:"critique,omitempty"`

	// RevisionCount counts writer passes in the active writing cycle.
	RevisionCount int `json:"revision_count,omitempty"`

	// AgentOutput is the user-visible output of the current turn.
	AgentOutput string `json:"agent_output,omitempty"`

	// Context assembled at the start of each invocation.
	MemorySummary    string `json:"memory_summary,omitempty"`
	KnowledgeContext string `json:"knowledge_context,omitempty"`
	Retrieved        string `json:"retrieved,omitempty"`

	// Reset flags. Set on a delta to clear fields that "zero means
	// unchanged" cannot express; always zero after a merge.

	// NewTurn clears the previous turn's outputs (AgentOutput, Route,
	// RouteReason). Set by the service on every fresh submit.
	NewTurn bool `json:"new_turn,omitempty"`

	// ResetDraftCycle clears Draft, Critique, and RevisionCount. Set by
	// write-prepare so each writing cycle starts from a clean slate.
	ResetDraftCycle bool `json:"reset_draft_cycle,omitempty"`

	// ClearCritique clears Critique. Set by the editor on a pass verdict.
	ClearCritique bool `json:"clear_critique,omitempty"`
}

// Reduce merges a node's partial update into the previous state. It is
// the single merge point for every field; nodes never mutate state in
// place.
func Reduce(prev, delta State) State {
	// Reset flags apply before field merges so a delta can clear and
	// rewrite a field in one step.
	if delta.NewTurn {
		prev.AgentOutput = ""
		prev.Route = ""
		prev.RouteReason = ""
	}
	if delta.ResetDraftCycle {
		prev.Draft = ""
		prev.Critique = ""
		prev.RevisionCount = 0
	}
	if delta.ClearCritique {
		prev.Critique = ""
	}

	if delta.ThreadID != "" {
		prev.ThreadID = delta.ThreadID
	}
	if delta.ProjectID != "" {
		prev.ProjectID = delta.ProjectID
	}
	if delta.UserMessage != "" {
		prev.UserMessage = delta.UserMessage
	}
	if len(delta.Messages) > 0 {
		prev.Messages = append(prev.Messages, delta.Messages...)
	}
	if delta.Route != "" {
		prev.Route = delta.Route
	}
	if delta.RouteReason != "" {
		prev.RouteReason = delta.RouteReason
	}
	if delta.World != nil {
		prev.World = delta.World
	}
	if len(delta.Characters) > 0 {
		prev.Characters = delta.Characters
	}
	if delta.Outline != nil {
		prev.Outline = delta.Outline
	}
	if delta.Progress != nil {
		prev.Progress = delta.Progress
	}
	if delta.CurrentChapter != nil {
		prev.CurrentChapter = delta.CurrentChapter
	}
	if delta.Draft != "" {
		prev.Draft = delta.Draft
	}
	if delta.Critique != "" {
		prev.Critique = delta.Critique
	}
	if delta.RevisionCount != 0 {
		prev.RevisionCount = delta.RevisionCount
	}
	if delta.AgentOutput != "" {
		prev.AgentOutput = delta.AgentOutput
	}
	if delta.MemorySummary != "" {
		prev.MemorySummary = delta.MemorySummary
	}
	if delta.KnowledgeContext != "" {
		prev.KnowledgeContext = delta.KnowledgeContext
	}
	if delta.Retrieved != "" {
		prev.Retrieved = delta.Retrieved
	}

	// Flags never persist past the merge.
	prev.NewTurn = false
	prev.ResetDraftCycle = false
	prev.ClearCritique = false

	return prev
}
