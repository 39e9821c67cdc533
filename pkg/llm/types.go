package llm

import "fmt"

// Message represents a message in a chat conversation
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// GenerateParams contains parameters for text generation
type GenerateParams struct {
	Temperature      float64  // Controls randomness (0.0 to 1.0)
	TopP             float64  // Alternative to temperature for nucleus sampling
	MaxTokens        int      // Upper bound on generated tokens
	FrequencyPenalty float64  // Penalize frequent tokens (-2.0 to 2.0)
	PresencePenalty  float64  // Penalize tokens already present (-2.0 to 2.0)
	StopSequences    []string // Stop generation at these sequences
}

// DefaultGenerateParams returns default generation parameters
func DefaultGenerateParams() *GenerateParams {
	return &GenerateParams{
		Temperature:      0.7,
		TopP:             0.95,
		MaxTokens:        800,
		FrequencyPenalty: 0.0,
		PresencePenalty:  0.0,
	}
}

// FailureReason classifies why a generation call failed.
type FailureReason string

const (
	// ReasonAuth means the provider rejected the credentials. Not retriable.
	ReasonAuth FailureReason = "auth"

	// ReasonRateLimit means the provider throttled the call.
	ReasonRateLimit FailureReason = "rate_limit"

	// ReasonTimeout means the call exceeded its deadline.
	ReasonTimeout FailureReason = "timeout"

	// ReasonServer means the provider failed internally.
	ReasonServer FailureReason = "server"
)

// ProviderError is a generation failure with the provider and the failure
// class attached.
type ProviderError struct {
	Provider string
	Reason   FailureReason
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s generation failed (%s, status %d): %v", e.Provider, e.Reason, e.Status, e.Err)
	}
	return fmt.Sprintf("%s generation failed (%s): %v", e.Provider, e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retriable reports whether retrying the call could help. Credential
// failures cannot be fixed by retrying.
func (e *ProviderError) Retriable() bool {
	return e.Reason != ReasonAuth
}
