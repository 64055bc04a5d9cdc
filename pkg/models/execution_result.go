package models

// ExecutionResult is the outcome of running one node. It is a two-variant
// value: success (optional next-node override plus output) or failure (error
// plus metadata), never both.
type ExecutionResult struct {
	Success    bool           `json:"success"`
	NextNodeID *string        `json:"next_node_id,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Succeed builds a success result with the given output.
func Succeed(output map[string]any) ExecutionResult {
	return ExecutionResult{Success: true, Output: output}
}

// SucceedNext builds a success result that forces a specific successor,
// overriding the graph's default edge.
func SucceedNext(nextNodeID string, output map[string]any) ExecutionResult {
	return ExecutionResult{Success: true, NextNodeID: &nextNodeID, Output: output}
}

// Fail builds a failure result.
func Fail(err error, metadata map[string]any) ExecutionResult {
	message := ""
	if err != nil {
		message = err.Error()
	}

	return ExecutionResult{Success: false, Error: message, Metadata: metadata}
}

// CompensationOutcome reports whether undoing one side effect worked.
// Compensation never throws; a failed outcome is aggregated, not raised.
type CompensationOutcome struct {
	NodeID string `json:"node_id"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}
