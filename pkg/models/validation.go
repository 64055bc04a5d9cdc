package models

// ValidationIssue is one problem found during pre-flight graph validation.
type ValidationIssue struct {
	Code    string `json:"code"`
	NodeID  string `json:"node_id,omitempty"`
	EdgeID  string `json:"edge_id,omitempty"`
	Message string `json:"message"`
}

// ValidationResult is produced once per graph before any execution is
// accepted. Errors block execution, warnings do not.
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	GraphSum string            `json:"graph_sum"` // content hash the result can be cached under
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}
