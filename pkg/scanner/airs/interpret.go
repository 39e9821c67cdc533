package airs

import (
	"sort"

	"github.com/promptgate/promptgate/pkg/scanner"
)

// Interpret normalizes a raw scan response into a scanner.Outcome. It is
// total: any response shape produces an outcome, with absent or unrecognized
// fields mapping to the unknown values rather than errors. Given the same
// response it always produces the same outcome, threat order included.
func Interpret(raw *RawScanResult) *scanner.Outcome {
	outcome := &scanner.Outcome{
		Category:      scanner.ParseCategory(raw.Category),
		Action:        scanner.ParseAction(raw.Action),
		PromptThreats: collectThreats(raw.PromptDetected, scanner.SidePrompt),

		TransactionID: raw.TransactionID,
		ReportID:      raw.ReportID,
		ScanID:        raw.ScanID,
		ProfileID:     raw.ProfileID,
		ProfileName:   raw.ProfileName,
	}
	outcome.ResponseThreats = collectThreats(raw.ResponseDetected, scanner.SideResponse)

	// A malicious classification with no named detector means the service
	// flagged the content without attributing it. Surface a generic signal so
	// callers always see at least one threat behind a malicious category.
	if outcome.Category == scanner.CategoryMalicious && outcome.ThreatCount() == 0 {
		outcome.ResponseThreats = append(outcome.ResponseThreats,
			scanner.NewThreatSignal(scanner.GeneralThreatKey, scanner.SideResponse))
	}

	return outcome
}

// collectThreats extracts the detectors that fired from one side's detection
// map, in sorted key order so outcomes are deterministic.
func collectThreats(detected map[string]interface{}, side scanner.Side) []scanner.ThreatSignal {
	if len(detected) == 0 {
		return nil
	}

	keys := make([]string, 0, len(detected))
	for key := range detected {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var threats []scanner.ThreatSignal
	for _, key := range keys {
		if detectedFlag(detected[key]) {
			threats = append(threats, scanner.NewThreatSignal(key, side))
		}
	}
	return threats
}

// detectedFlag reports whether a detection value counts as a hit: boolean
// true or a non-zero number. Anything else, strings included, does not fire.
func detectedFlag(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return false
	}
}
