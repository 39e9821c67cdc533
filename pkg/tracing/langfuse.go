package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/promptgate/promptgate/pkg/config"
	"github.com/promptgate/promptgate/pkg/interfaces"
	"github.com/promptgate/promptgate/pkg/logging"
	"github.com/promptgate/promptgate/pkg/scanner"
)

// LangfuseTracer implements tracing using Langfuse
type LangfuseTracer struct {
	client      *langfuse.Langfuse
	enabled     bool
	environment string
	secretKey   string
	publicKey   string
	host        string
}

// LangfuseConfig contains configuration for Langfuse
type LangfuseConfig struct {
	// Enabled determines whether Langfuse tracing is enabled
	Enabled bool

	// SecretKey is the Langfuse secret key
	SecretKey string

	// PublicKey is the Langfuse public key
	PublicKey string

	// Host is the Langfuse host (optional)
	Host string

	// Environment is the environment name (e.g., "production", "staging")
	Environment string
}

// NewLangfuseTracer creates a new Langfuse tracer
func NewLangfuseTracer(customConfig ...LangfuseConfig) (*LangfuseTracer, error) {
	// Get global configuration
	cfg := config.Get()

	// Use custom config if provided, otherwise use global config
	var tracerConfig LangfuseConfig
	if len(customConfig) > 0 {
		tracerConfig = customConfig[0]
	} else {
		tracerConfig = LangfuseConfig{
			Enabled:     cfg.Tracing.Langfuse.Enabled,
			SecretKey:   cfg.Tracing.Langfuse.SecretKey,
			PublicKey:   cfg.Tracing.Langfuse.PublicKey,
			Host:        cfg.Tracing.Langfuse.Host,
			Environment: cfg.Tracing.Langfuse.Environment,
		}
	}

	if !tracerConfig.Enabled {
		return &LangfuseTracer{
			enabled: false,
		}, nil
	}

	// Create Langfuse client
	client := langfuse.New(context.Background())

	return &LangfuseTracer{
		client:      client,
		enabled:     true,
		environment: tracerConfig.Environment,
		secretKey:   tracerConfig.SecretKey,
		publicKey:   tracerConfig.PublicKey,
		host:        tracerConfig.Host,
	}, nil
}

// enrich stamps the scan transaction ID and environment onto metadata so
// Langfuse observations line up with logs and scan reports.
func (t *LangfuseTracer) enrich(ctx context.Context, metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	if trID := logging.TransactionID(ctx); trID != "" {
		metadata["tr_id"] = trID
	}
	metadata["environment"] = t.environment
	return metadata
}

// TraceGeneration traces an LLM generation
func (t *LangfuseTracer) TraceGeneration(ctx context.Context, modelName string, prompt string, response string, startTime time.Time, endTime time.Time, metadata map[string]interface{}) (string, error) {
	if !t.enabled {
		return "", nil
	}

	metadata = t.enrich(ctx, metadata)

	// Convert metadata to model.M
	metadataM := make(model.M)
	for k, v := range metadata {
		metadataM[k] = v
	}

	// Create generation
	generation := &model.Generation{
		Name:      fmt.Sprintf("generation-%d", time.Now().UnixNano()),
		StartTime: &startTime,
		EndTime:   &endTime,
		Model:     modelName,
		Input: []model.M{
			{
				"prompt": prompt,
			},
		},
		Output: model.M{
			"completion": response,
		},
		Metadata: metadataM,
	}

	var id string
	generationID, err := t.client.Generation(generation, &id)
	if err != nil {
		return "", fmt.Errorf("failed to create Langfuse generation: %w", err)
	}

	return generationID.ID, nil
}

// TraceSpan traces a span of execution
func (t *LangfuseTracer) TraceSpan(ctx context.Context, name string, startTime time.Time, endTime time.Time, metadata map[string]interface{}, parentID string) (string, error) {
	if !t.enabled {
		return "", nil
	}

	metadata = t.enrich(ctx, metadata)

	// Create span
	span := &model.Span{
		Name:      name,
		StartTime: &startTime,
		EndTime:   &endTime,
		Metadata:  metadata,
	}
	if parentID != "" {
		span.ParentObservationID = parentID
	}

	var id string
	spanID, err := t.client.Span(span, &id)
	if err != nil {
		return "", fmt.Errorf("failed to create Langfuse span: %w", err)
	}

	return spanID.ID, nil
}

// TraceEvent traces an event
func (t *LangfuseTracer) TraceEvent(ctx context.Context, name string, input interface{}, output interface{}, level string, metadata map[string]interface{}, parentID string) (string, error) {
	if !t.enabled {
		return "", nil
	}

	metadata = t.enrich(ctx, metadata)

	// Create event
	event := &model.Event{
		Name:     name,
		Input:    input,
		Output:   output,
		Level:    model.ObservationLevel(level),
		Metadata: metadata,
	}
	if parentID != "" {
		event.ParentObservationID = parentID
	}

	var id string
	eventID, err := t.client.Event(event, &id)
	if err != nil {
		return "", fmt.Errorf("failed to create Langfuse event: %w", err)
	}

	return eventID.ID, nil
}

// Flush flushes the Langfuse client
func (t *LangfuseTracer) Flush() error {
	if !t.enabled {
		return nil
	}

	// Flush doesn't return a value
	t.client.Flush(context.Background())
	return nil
}

// LLMMiddleware implements middleware for LLM calls with Langfuse tracing
type LLMMiddleware struct {
	llm    interfaces.LLM
	tracer *LangfuseTracer
}

// NewLLMMiddleware creates a new LLM middleware with Langfuse tracing
func NewLLMMiddleware(llm interfaces.LLM, tracer *LangfuseTracer) *LLMMiddleware {
	return &LLMMiddleware{
		llm:    llm,
		tracer: tracer,
	}
}

// Generate generates text from a prompt with Langfuse tracing
func (m *LLMMiddleware) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	startTime := time.Now()

	// Call the underlying LLM
	response, err := m.llm.Generate(ctx, prompt, options...)

	endTime := time.Now()

	metadata := map[string]interface{}{
		"llm": m.llm.Name(),
	}

	// Trace the generation
	if err == nil {
		_, traceErr := m.tracer.TraceGeneration(ctx, m.llm.Name(), prompt, response, startTime, endTime, metadata)
		if traceErr != nil {
			// Log the error but don't fail the request
			fmt.Printf("Failed to trace generation: %v\n", traceErr)
		}
	} else {
		// Trace error
		errorMetadata := map[string]interface{}{
			"llm":   m.llm.Name(),
			"error": err.Error(),
		}
		_, traceErr := m.tracer.TraceEvent(ctx, "llm_error", prompt, nil, "error", errorMetadata, "")
		if traceErr != nil {
			// Log the error but don't fail the request
			fmt.Printf("Failed to trace error: %v\n", traceErr)
		}
	}

	return response, err
}

// Name implements interfaces.LLM.Name
func (m *LLMMiddleware) Name() string {
	return m.llm.Name()
}

// ScannerMiddleware implements middleware for prompt scans with Langfuse
// tracing
type ScannerMiddleware struct {
	scanner interfaces.PromptScanner
	tracer  *LangfuseTracer
}

// NewScannerMiddleware creates a new scanner middleware with Langfuse tracing
func NewScannerMiddleware(scn interfaces.PromptScanner, tracer *LangfuseTracer) *ScannerMiddleware {
	return &ScannerMiddleware{
		scanner: scn,
		tracer:  tracer,
	}
}

// Scan scans a prompt with Langfuse tracing
func (m *ScannerMiddleware) Scan(ctx context.Context, prompt string) (*scanner.Outcome, error) {
	startTime := time.Now()

	// Call the underlying scanner
	outcome, err := m.scanner.Scan(ctx, prompt)

	endTime := time.Now()

	if err != nil {
		// Trace error
		errorMetadata := map[string]interface{}{
			"scanner": m.scanner.Name(),
			"error":   err.Error(),
		}
		_, traceErr := m.tracer.TraceEvent(ctx, "scan_error", prompt, nil, "error", errorMetadata, "")
		if traceErr != nil {
			// Log the error but don't fail the request
			fmt.Printf("Failed to trace scan error: %v\n", traceErr)
		}
		return nil, err
	}

	metadata := map[string]interface{}{
		"scanner":  m.scanner.Name(),
		"category": string(outcome.Category),
		"action":   string(outcome.Action),
		"threats":  outcome.ThreatCount(),
	}

	spanID, traceErr := m.tracer.TraceSpan(ctx, "scanner.scan", startTime, endTime, metadata, "")
	if traceErr != nil {
		// Log the error but don't fail the request
		fmt.Printf("Failed to trace scan: %v\n", traceErr)
	}

	// Surface detected threats as a warning-level event
	if outcome.ThreatCount() > 0 {
		names := make([]string, 0, outcome.ThreatCount())
		for _, threat := range outcome.Threats() {
			names = append(names, threat.DisplayName)
		}
		_, traceErr := m.tracer.TraceEvent(ctx, "threats_detected", prompt, names, "warning", metadata, spanID)
		if traceErr != nil {
			// Log the error but don't fail the request
			fmt.Printf("Failed to trace threats: %v\n", traceErr)
		}
	}

	return outcome, nil
}

// Name implements interfaces.PromptScanner.Name
func (m *ScannerMiddleware) Name() string {
	return m.scanner.Name()
}
