package interfaces

import (
	"context"

	"github.com/promptgate/promptgate/pkg/scanner"
)

// DecisionCache remembers blocking scan outcomes so a repeated prompt can be
// refused without another scan round-trip. Implementations store blocking
// outcomes only; a miss means the prompt must be scanned live.
type DecisionCache interface {
	// GetBlocked looks up a cached blocking outcome for the prompt. The
	// second return value reports whether one was found.
	GetBlocked(ctx context.Context, prompt string) (*scanner.Outcome, bool, error)

	// PutBlocked caches a blocking outcome for the prompt
	PutBlocked(ctx context.Context, prompt string, outcome *scanner.Outcome) error
}
