package graph

import (
	"encoding/json"
	"fmt"
)

// Reducer merges a partial state update into the previous state and
// returns the new state.
//
// The reducer is the single merge point for all node outputs: every
// field of S has exactly one merge policy (append for list-like fields,
// replace for scalars), and the reducer implements all of them.
// Reducers must be deterministic and must not mutate prev in place.
//
// Type parameter S is the state type shared across the workflow.
type Reducer[S any] func(prev, delta S) S

// deepCopy creates a deep copy of state S using JSON round-trip serialization.
//
// This approach works for any Go type that can be JSON-marshaled, including:
//   - Primitives (string, int, bool, float64)
//   - Structs with exported fields
//   - Slices, maps, and pointers (values are copied, not addresses)
//
// Limitations:
//   - Unexported struct fields are not copied
//   - Channels, functions, and types that don't marshal to JSON will fail
//   - Circular references will cause infinite loops
func deepCopy[S any](state S) (S, error) {
	var zero S

	data, err := json.Marshal(state)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return copied, nil
}
