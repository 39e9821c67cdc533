package scanner

import "time"

// Category is the overall classification reported by the security service.
type Category string

const (
	CategoryBenign    Category = "benign"
	CategoryMalicious Category = "malicious"
	CategoryUnknown   Category = "unknown"
)

// ParseCategory normalizes a raw category value. Anything missing or
// unrecognized maps to CategoryUnknown; "not evaluated" is never an error.
func ParseCategory(raw string) Category {
	switch raw {
	case string(CategoryBenign):
		return CategoryBenign
	case string(CategoryMalicious):
		return CategoryMalicious
	default:
		return CategoryUnknown
	}
}

// Action is the handling action recommended by the security service.
type Action string

const (
	ActionAllow   Action = "allow"
	ActionBlock   Action = "block"
	ActionUnknown Action = "unknown"
)

// ParseAction normalizes a raw action value, defaulting to ActionUnknown.
func ParseAction(raw string) Action {
	switch raw {
	case string(ActionAllow):
		return ActionAllow
	case string(ActionBlock):
		return ActionBlock
	default:
		return ActionUnknown
	}
}

// Side identifies which half of the exchange a threat was flagged on.
type Side string

const (
	SidePrompt   Side = "prompt"
	SideResponse Side = "response"
)

// ThreatSignal is one named risk flagged by the security service.
type ThreatSignal struct {
	// Key is the raw signal key from the wire, e.g. "dlp" or "url_cats".
	Key string

	// DisplayName is the human-readable name resolved through the taxonomy.
	DisplayName string

	// Side is the side of the exchange the signal applies to.
	Side Side
}

// Outcome is the normalized result of one security scan.
type Outcome struct {
	Category Category
	Action   Action

	// PromptThreats and ResponseThreats hold the signals detected on each
	// side, in deterministic (sorted key) order.
	PromptThreats   []ThreatSignal
	ResponseThreats []ThreatSignal

	// ScanLatency is the wall-clock duration of the scan call, retries and
	// backoff waits included.
	ScanLatency time.Duration

	// Correlation identifiers echoed by the service. Empty when absent.
	TransactionID string
	ReportID      string
	ScanID        string
	ProfileID     string
	ProfileName   string
}

// Threats returns the prompt-side and response-side signals as one slice,
// prompt side first.
func (o *Outcome) Threats() []ThreatSignal {
	if len(o.PromptThreats) == 0 && len(o.ResponseThreats) == 0 {
		return nil
	}
	threats := make([]ThreatSignal, 0, len(o.PromptThreats)+len(o.ResponseThreats))
	threats = append(threats, o.PromptThreats...)
	threats = append(threats, o.ResponseThreats...)
	return threats
}

// ThreatCount returns the total number of detected signals on both sides.
func (o *Outcome) ThreatCount() int {
	return len(o.PromptThreats) + len(o.ResponseThreats)
}
