package tracing

import (
	"context"

	"github.com/promptgate/promptgate/pkg/interfaces"
)

// LLMOTelMiddleware wraps an LLM with OpenTelemetry tracing
type LLMOTelMiddleware struct {
	llm    interfaces.LLM
	tracer *OTelTracer
}

// NewLLMOTelMiddleware creates a new LLMOTelMiddleware
func NewLLMOTelMiddleware(llm interfaces.LLM, tracer *OTelTracer) *LLMOTelMiddleware {
	return &LLMOTelMiddleware{
		llm:    llm,
		tracer: tracer,
	}
}

// Generate implements interfaces.LLM.Generate
func (m *LLMOTelMiddleware) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	// Start span
	ctx, span := m.tracer.StartSpan(ctx, "llm.generate")
	defer span.End()

	span.SetAttribute("llm", m.llm.Name())
	span.SetAttribute("prompt.length", len(prompt))

	// Call the underlying LLM
	response, err := m.llm.Generate(ctx, prompt, options...)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	span.SetAttribute("response.length", len(response))
	return response, nil
}

// Name implements interfaces.LLM.Name
func (m *LLMOTelMiddleware) Name() string {
	return m.llm.Name()
}
