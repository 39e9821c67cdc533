package tracing

import (
	"context"

	"github.com/promptgate/promptgate/pkg/interfaces"
	"github.com/promptgate/promptgate/pkg/scanner"
)

// ScannerOTelMiddleware wraps a prompt scanner with OpenTelemetry tracing
type ScannerOTelMiddleware struct {
	scanner interfaces.PromptScanner
	tracer  *OTelTracer
}

// NewScannerOTelMiddleware creates a new ScannerOTelMiddleware
func NewScannerOTelMiddleware(scanner interfaces.PromptScanner, tracer *OTelTracer) *ScannerOTelMiddleware {
	return &ScannerOTelMiddleware{
		scanner: scanner,
		tracer:  tracer,
	}
}

// Scan implements interfaces.PromptScanner.Scan
func (m *ScannerOTelMiddleware) Scan(ctx context.Context, prompt string) (*scanner.Outcome, error) {
	// Start span
	ctx, span := m.tracer.StartSpan(ctx, "scanner.scan")
	defer span.End()

	span.SetAttribute("scanner", m.scanner.Name())
	span.SetAttribute("prompt.length", len(prompt))

	// Call the underlying scanner
	outcome, err := m.scanner.Scan(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Record outcome attributes
	span.SetAttribute("scan.category", string(outcome.Category))
	span.SetAttribute("scan.action", string(outcome.Action))
	span.SetAttribute("scan.threats", outcome.ThreatCount())
	span.SetAttribute("scan.latency_ms", outcome.ScanLatency.Milliseconds())

	return outcome, nil
}

// Name implements interfaces.PromptScanner.Name
func (m *ScannerOTelMiddleware) Name() string {
	return m.scanner.Name()
}
