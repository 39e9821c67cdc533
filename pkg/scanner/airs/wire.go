package airs

// scanRequest is the JSON body posted to the synchronous scan endpoint.
type scanRequest struct {
	TransactionID string        `json:"tr_id"`
	AIProfile     aiProfile     `json:"ai_profile"`
	Contents      []scanContent `json:"contents"`
}

type aiProfile struct {
	ProfileName string `json:"profile_name"`
}

type scanContent struct {
	Prompt string `json:"prompt"`
}

// RawScanResult is the scan service's response body. Every field is
// optional on the wire; an absent field means the service did not evaluate
// that aspect, which is not the same as a negative finding.
type RawScanResult struct {
	Category string `json:"category,omitempty"`
	Action   string `json:"action,omitempty"`

	// PromptDetected and ResponseDetected are open-ended mappings from
	// threat-signal key to detection flag. The service documents boolean
	// values but the mapping itself grows without notice, so both the key
	// set and the value types are treated as untrusted input.
	PromptDetected   map[string]interface{} `json:"prompt_detected,omitempty"`
	ResponseDetected map[string]interface{} `json:"response_detected,omitempty"`

	ReportID      string `json:"report_id,omitempty"`
	ScanID        string `json:"scan_id,omitempty"`
	ProfileID     string `json:"profile_id,omitempty"`
	ProfileName   string `json:"profile_name,omitempty"`
	TransactionID string `json:"tr_id,omitempty"`
}
