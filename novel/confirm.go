package novel

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/novelgraph-go/graph"
)

// directorConfirmNode suspends the workflow so the user can approve the
// director's routing decision before any generation runs.
//
// Resume contract: the literal ConfirmToken (or empty feedback)
// proceeds with the user input unchanged; any other feedback replaces
// UserMessage. Either way control continues to the previously selected
// route; the decision itself is not re-evaluated.
type directorConfirmNode struct{}

func (n *directorConfirmNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	instruction := fmt.Sprintf("%s\n即将进入「%s」环节，回复「%s」继续，或直接输入新的要求。",
		state.RouteReason, routeDisplayName(state.Route), ConfirmToken)

	return graph.NodeResult[State]{
		Interrupt: &graph.Interrupt{
			Instruction: instruction,
			Payload: map[string]interface{}{
				"route":  state.Route,
				"reason": state.RouteReason,
			},
		},
	}
}

func (n *directorConfirmNode) Resume(ctx context.Context, state State, input string) graph.NodeResult[State] {
	input = strings.TrimSpace(input)
	if input == "" || input == ConfirmToken {
		return graph.NodeResult[State]{}
	}
	return graph.NodeResult[State]{
		Delta: State{UserMessage: input},
	}
}

// humanReviewNode suspends after specialist output (or after the editor
// exhausts the revision budget) so the user can inspect the result.
// Resume follows the same confirmation-token contract as the director
// confirmation, after which control proceeds unconditionally to save.
type humanReviewNode struct{}

func (n *humanReviewNode) Run(ctx context.Context, state State) graph.NodeResult[State] {
	payload := map[string]interface{}{
		"agent_output": state.AgentOutput,
	}
	if state.Draft != "" {
		payload["draft"] = state.Draft
	}

	return graph.NodeResult[State]{
		Interrupt: &graph.Interrupt{
			Instruction: fmt.Sprintf("%s\n请审阅以上内容，回复「%s」保存，或提出修改意见。", state.AgentOutput, ConfirmToken),
			Payload:     payload,
		},
	}
}

func (n *humanReviewNode) Resume(ctx context.Context, state State, input string) graph.NodeResult[State] {
	input = strings.TrimSpace(input)
	if input == "" || input == ConfirmToken {
		return graph.NodeResult[State]{}
	}
	return graph.NodeResult[State]{
		Delta: State{UserMessage: input},
	}
}

func routeDisplayName(route string) string {
	switch route {
	case RouteWorldBuilder:
		return "世界观构建"
	case RouteCastingDirector:
		return "角色设计"
	case RouteOutliner:
		return "大纲规划"
	case RouteWriteChapter:
		return "章节写作"
	default:
		return "直接回应"
	}
}
