package airs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/scanner"
)

func TestInterpretEmptyResponse(t *testing.T) {
	outcome := Interpret(&RawScanResult{})

	assert.Equal(t, scanner.CategoryUnknown, outcome.Category)
	assert.Equal(t, scanner.ActionUnknown, outcome.Action)
	assert.Empty(t, outcome.PromptThreats)
	assert.Empty(t, outcome.ResponseThreats)
	assert.Zero(t, outcome.ThreatCount())
}

func TestInterpretMaliciousPrompt(t *testing.T) {
	outcome := Interpret(&RawScanResult{
		Category: "malicious",
		Action:   "block",
		PromptDetected: map[string]interface{}{
			"injection": true,
			"url_cats":  false,
		},
	})

	assert.Equal(t, scanner.CategoryMalicious, outcome.Category)
	assert.Equal(t, scanner.ActionBlock, outcome.Action)
	require.Len(t, outcome.PromptThreats, 1)
	assert.Equal(t, "injection", outcome.PromptThreats[0].Key)
	assert.Equal(t, "Prompt Injection Attack", outcome.PromptThreats[0].DisplayName)
	assert.Equal(t, scanner.SidePrompt, outcome.PromptThreats[0].Side)
}

func TestInterpretSortsThreatsByKey(t *testing.T) {
	outcome := Interpret(&RawScanResult{
		Category: "malicious",
		Action:   "block",
		PromptDetected: map[string]interface{}{
			"toxic_content": true,
			"agent":         true,
			"injection":     true,
		},
		ResponseDetected: map[string]interface{}{
			"url_cats": true,
			"dlp":      true,
		},
	})

	promptKeys := make([]string, 0, len(outcome.PromptThreats))
	for _, threat := range outcome.PromptThreats {
		promptKeys = append(promptKeys, threat.Key)
	}
	assert.Equal(t, []string{"agent", "injection", "toxic_content"}, promptKeys)

	responseKeys := make([]string, 0, len(outcome.ResponseThreats))
	for _, threat := range outcome.ResponseThreats {
		responseKeys = append(responseKeys, threat.Key)
	}
	assert.Equal(t, []string{"dlp", "url_cats"}, responseKeys)
}

func TestInterpretDetectionTruthiness(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		detected bool
	}{
		{name: "bool true", value: true, detected: true},
		{name: "bool false", value: false, detected: false},
		{name: "non-zero number", value: float64(1), detected: true},
		{name: "zero number", value: float64(0), detected: false},
		{name: "string", value: "yes", detected: false},
		{name: "nil", value: nil, detected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Interpret(&RawScanResult{
				Category:       "benign",
				Action:         "allow",
				PromptDetected: map[string]interface{}{"injection": tt.value},
			})
			if tt.detected {
				assert.Len(t, outcome.PromptThreats, 1)
			} else {
				assert.Empty(t, outcome.PromptThreats)
			}
		})
	}
}

func TestInterpretSynthesizesGeneralThreat(t *testing.T) {
	outcome := Interpret(&RawScanResult{
		Category: "malicious",
		Action:   "block",
	})

	assert.Empty(t, outcome.PromptThreats)
	require.Len(t, outcome.ResponseThreats, 1)
	assert.Equal(t, scanner.GeneralThreatKey, outcome.ResponseThreats[0].Key)
	assert.Equal(t, "General Security Violation", outcome.ResponseThreats[0].DisplayName)
}

func TestInterpretBenignWithoutThreatsStaysEmpty(t *testing.T) {
	outcome := Interpret(&RawScanResult{
		Category: "benign",
		Action:   "allow",
	})

	assert.Zero(t, outcome.ThreatCount(), "no general threat for non-malicious outcomes")
}

func TestInterpretCopiesIdentifiers(t *testing.T) {
	outcome := Interpret(&RawScanResult{
		Category:      "benign",
		Action:        "allow",
		TransactionID: "tr-123",
		ReportID:      "rep-456",
		ScanID:        "scan-789",
		ProfileID:     "prof-abc",
		ProfileName:   "strict-profile",
	})

	assert.Equal(t, "tr-123", outcome.TransactionID)
	assert.Equal(t, "rep-456", outcome.ReportID)
	assert.Equal(t, "scan-789", outcome.ScanID)
	assert.Equal(t, "prof-abc", outcome.ProfileID)
	assert.Equal(t, "strict-profile", outcome.ProfileName)
}

func TestInterpretUnrecognizedValuesMapToUnknown(t *testing.T) {
	outcome := Interpret(&RawScanResult{Category: "suspicious", Action: "quarantine"})

	assert.Equal(t, scanner.CategoryUnknown, outcome.Category)
	assert.Equal(t, scanner.ActionUnknown, outcome.Action)
}
