package novel

import (
	"encoding/json"
	"errors"
	"strings"
)

// errNoJSON indicates no JSON object could be located in a model response.
var errNoJSON = errors.New("no JSON object found in text")

// decodeJSON locates a JSON object inside raw model output and decodes
// it into v. Models wrap JSON in prose or markdown fences routinely, so
// the payload is taken as the span from the first '{' to the last '}'.
//
// Structured-decode failures are never fatal to the workflow; callers
// fall back to a safe default on error.
func decodeJSON(text string, v interface{}) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return errNoJSON
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}
