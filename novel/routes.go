package novel

// Route labels produced by the director. These are the only values the
// classification step may return; anything else degrades to
// RouteDirectResponse.
const (
	RouteWorldBuilder    = "world_builder"
	RouteCastingDirector = "casting_director"
	RouteOutliner        = "outliner"
	RouteWriteChapter    = "write_chapter"
	RouteDirectResponse  = "direct_response"
)

// Node IDs in the workflow graph.
const (
	NodeMemoryLoader       = "memoryLoader"
	NodeKnowledgeLoader    = "knowledgeLoader"
	NodeDirector           = "director"
	NodeDirectorConfirm    = "directorConfirm"
	NodeDirectResponse     = "directResponse"
	NodeWorldBuilder       = "worldBuilder"
	NodeCastingDirector    = "castingDirector"
	NodeOutliner           = "outliner"
	NodeWritePrepare       = "writePrepare"
	NodeKnowledgeRetriever = "knowledgeRetriever"
	NodeWriter             = "writer"
	NodeEditor             = "editor"
	NodeHumanReview        = "humanReview"
	NodeSave               = "saveToStore"
)

// ConfirmToken is the literal a user sends to approve a pending
// suspension without changing their input.
const ConfirmToken = "确认"

// validRoute reports whether label is a route the director may select.
func validRoute(label string) bool {
	switch label {
	case RouteWorldBuilder, RouteCastingDirector, RouteOutliner, RouteWriteChapter, RouteDirectResponse:
		return true
	}
	return false
}
