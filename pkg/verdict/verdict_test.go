package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promptgate/promptgate/pkg/scanner"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		category scanner.Category
		action   scanner.Action
		want     Verdict
	}{
		{name: "malicious block", category: scanner.CategoryMalicious, action: scanner.ActionBlock, want: VerdictBlock},
		{name: "malicious allow", category: scanner.CategoryMalicious, action: scanner.ActionAllow, want: VerdictBlock},
		{name: "malicious unknown", category: scanner.CategoryMalicious, action: scanner.ActionUnknown, want: VerdictBlock},
		{name: "benign block", category: scanner.CategoryBenign, action: scanner.ActionBlock, want: VerdictBlock},
		{name: "benign allow", category: scanner.CategoryBenign, action: scanner.ActionAllow, want: VerdictAllow},
		{name: "benign unknown", category: scanner.CategoryBenign, action: scanner.ActionUnknown, want: VerdictIndeterminate},
		{name: "unknown block", category: scanner.CategoryUnknown, action: scanner.ActionBlock, want: VerdictBlock},
		{name: "unknown allow", category: scanner.CategoryUnknown, action: scanner.ActionAllow, want: VerdictIndeterminate},
		{name: "unknown unknown", category: scanner.CategoryUnknown, action: scanner.ActionUnknown, want: VerdictIndeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Decide(&scanner.Outcome{Category: tt.category, Action: tt.action})
			assert.Equal(t, tt.want, decision.Verdict)
			assert.Equal(t, tt.category, decision.Category)
			assert.Equal(t, tt.action, decision.Action)
		})
	}
}

func TestDecideBlockReason(t *testing.T) {
	decision := Decide(&scanner.Outcome{Category: scanner.CategoryMalicious, Action: scanner.ActionBlock})
	assert.Equal(t, "malicious/block", decision.Reason)

	decision = Decide(&scanner.Outcome{Category: scanner.CategoryBenign, Action: scanner.ActionBlock})
	assert.Equal(t, "benign/block", decision.Reason)

	decision = Decide(&scanner.Outcome{Category: scanner.CategoryBenign, Action: scanner.ActionAllow})
	assert.Empty(t, decision.Reason)
}

func TestDecideNilOutcome(t *testing.T) {
	decision := Decide(nil)
	assert.Equal(t, VerdictIndeterminate, decision.Verdict)
	assert.False(t, decision.Allowed())
}

func TestDecisionAllowed(t *testing.T) {
	assert.True(t, Decision{Verdict: VerdictAllow}.Allowed())
	assert.False(t, Decision{Verdict: VerdictBlock}.Allowed())
	assert.False(t, Decision{Verdict: VerdictIndeterminate}.Allowed())
}
