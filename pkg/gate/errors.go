package gate

import (
	"errors"
	"fmt"
)

// ErrEmptyPrompt is returned when the submitted prompt is empty or only
// whitespace. Nothing is scanned or forwarded for such prompts.
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// ScanError marks a prompt that was refused because its security scan could
// not be completed, not because it was judged unsafe.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("security scan failed: %v", e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// GenerationError marks a prompt that cleared its scan but whose downstream
// response could not be generated.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("response generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
