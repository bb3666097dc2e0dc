package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/storage"
)

// memoryMaxMessages bounds how many transcript messages feed the
// summary; memoryMaxChars bounds the summary length in runes.
const (
	memoryMaxMessages = 15
	memoryMaxChars    = 2000
)

// memoryLoaderNode replays the tail of the thread's chat transcript
// into MemorySummary so downstream prompts carry conversational
// context. A missing transcript (or no chat store at all) yields an
// empty summary, never an error.
type memoryLoaderNode struct {
	chats *storage.ChatStore
}

func (n *memoryLoaderNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	if n.chats == nil || state.ThreadID == "" {
		return graph.NodeResult[State]{}
	}

	records, err := n.chats.Recent(state.ThreadID, memoryMaxMessages)
	if err != nil || len(records) == 0 {
		return graph.NodeResult[State]{}
	}

	var b strings.Builder
	for _, rec := range records {
		line := fmt.Sprintf("%s: %s\n", rec.Role, rec.Content)
		b.WriteString(line)
	}

	summary := b.String()
	if runes := []rune(summary); len(runes) > memoryMaxChars {
		// Keep the most recent turns when truncating.
		summary = string(runes[len(runes)-memoryMaxChars:])
	}

	return graph.NodeResult[State]{
		Delta: State{MemorySummary: summary},
	}
}
