package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode maps tool call arguments onto an input struct. Arguments arrive
// as map[string]any, so they round-trip through JSON rather than being
// type-asserted field by field.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var in T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return in, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return in, fmt.Errorf("unmarshal args: %w", err)
	}
	return in, nil
}
