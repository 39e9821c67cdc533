package interfaces

import (
	"context"

	"github.com/promptgate/promptgate/pkg/scanner"
)

// PromptScanner classifies untrusted prompts before they reach a generation
// provider
type PromptScanner interface {
	// Scan submits the prompt for classification and returns the outcome
	Scan(ctx context.Context, prompt string) (*scanner.Outcome, error)

	// Name returns the name of the scanning provider
	Name() string
}
