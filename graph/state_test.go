package graph

import (
	"testing"
)

func TestDeepCopy(t *testing.T) {
	t.Run("copies nested maps and slices", func(t *testing.T) {
		original := testState{
			Value: "v",
			Count: 2,
			Tags:  map[string]string{"a": "1"},
		}

		copied, err := deepCopy(original)
		if err != nil {
			t.Fatalf("deepCopy: %v", err)
		}

		copied.Tags["a"] = "mutated"
		copied.Value = "changed"

		if original.Tags["a"] != "1" {
			t.Error("map mutation leaked into original")
		}
		if original.Value != "v" {
			t.Error("scalar mutation leaked into original")
		}
	})

	t.Run("zero value round-trips", func(t *testing.T) {
		copied, err := deepCopy(testState{})
		if err != nil {
			t.Fatalf("deepCopy: %v", err)
		}
		if copied.Value != "" || copied.Count != 0 || copied.Tags != nil {
			t.Errorf("zero value changed in copy: %+v", copied)
		}
	})

	t.Run("unmarshalable type fails", func(t *testing.T) {
		if _, err := deepCopy(make(chan int)); err == nil {
			t.Error("expected error for channel type")
		}
	})
}
