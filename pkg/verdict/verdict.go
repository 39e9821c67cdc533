// Package verdict turns scan outcomes into forwarding decisions. The rules
// are fixed and fail-closed: a prompt is forwarded only when the scan
// explicitly cleared it, and any blocking evidence wins over clearing
// evidence.
package verdict

import (
	"fmt"

	"github.com/promptgate/promptgate/pkg/scanner"
)

// Verdict is the forwarding decision for a scanned prompt.
type Verdict string

const (
	// VerdictBlock means the scan produced blocking evidence; the prompt
	// must not be forwarded.
	VerdictBlock Verdict = "block"

	// VerdictAllow means the scan explicitly cleared the prompt.
	VerdictAllow Verdict = "allow"

	// VerdictIndeterminate means the scan neither cleared nor condemned the
	// prompt. Indeterminate prompts are not forwarded.
	VerdictIndeterminate Verdict = "indeterminate"
)

// Decision is a verdict together with the evidence it was made on.
type Decision struct {
	Verdict  Verdict
	Reason   string
	Category scanner.Category
	Action   scanner.Action
}

// Allowed reports whether the prompt may be forwarded downstream. Only an
// explicit allow forwards; block and indeterminate both hold the prompt.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllow
}

// Decide maps a scan outcome to a forwarding decision:
//
//   - a malicious category or a block action blocks, whichever fields say
//     otherwise
//   - a benign category with an allow action allows
//   - everything else is indeterminate
//
// Equal outcomes always produce equal decisions.
func Decide(outcome *scanner.Outcome) Decision {
	// A missing outcome can never clear a prompt.
	if outcome == nil {
		return Decision{Verdict: VerdictIndeterminate}
	}

	decision := Decision{
		Category: outcome.Category,
		Action:   outcome.Action,
	}

	switch {
	case outcome.Category == scanner.CategoryMalicious || outcome.Action == scanner.ActionBlock:
		decision.Verdict = VerdictBlock
		decision.Reason = fmt.Sprintf("%s/%s", outcome.Category, outcome.Action)
	case outcome.Category == scanner.CategoryBenign && outcome.Action == scanner.ActionAllow:
		decision.Verdict = VerdictAllow
	default:
		decision.Verdict = VerdictIndeterminate
	}

	return decision
}
