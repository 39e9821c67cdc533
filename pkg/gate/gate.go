// Package gate runs untrusted prompts through a security scan and forwards
// only the ones the scan explicitly cleared to a generation provider. A
// prompt whose scan fails is refused the same as a condemned one; the gate
// never forwards on missing evidence.
package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptgate/promptgate/pkg/interfaces"
	"github.com/promptgate/promptgate/pkg/logging"
	"github.com/promptgate/promptgate/pkg/scanner"
	"github.com/promptgate/promptgate/pkg/verdict"
)

// DefaultSystemInstruction is the system message sent with forwarded prompts
// when no assistant configuration overrides it.
const DefaultSystemInstruction = "You are a helpful, knowledgeable, and professional assistant."

// Status describes how a prompt's trip through the gate ended.
type Status string

const (
	// StatusCompleted means the prompt was cleared and a response generated.
	StatusCompleted Status = "completed"

	// StatusBlocked means the scan condemned the prompt.
	StatusBlocked Status = "blocked"

	// StatusIndeterminate means the scan neither cleared nor condemned the
	// prompt, so it was not forwarded.
	StatusIndeterminate Status = "indeterminate"

	// StatusScanFailed means the scan could not be completed and the prompt
	// was refused unscanned.
	StatusScanFailed Status = "scan_failed"

	// StatusGenerationFailed means the prompt was cleared but the downstream
	// provider failed to produce a response.
	StatusGenerationFailed Status = "generation_failed"
)

// Result is the terminal report for one prompt. Status is always set;
// Outcome and Decision are present whenever a scan completed, Text only for
// StatusCompleted, and Err only for the two failure statuses.
type Result struct {
	Status    Status
	Outcome   *scanner.Outcome
	Decision  verdict.Decision
	Text      string
	Err       error
	FromCache bool
}

// Blocked reports whether the prompt was held back by a scan verdict.
func (r *Result) Blocked() bool {
	return r.Status == StatusBlocked || r.Status == StatusIndeterminate
}

// Gate orchestrates scan, verdict, and generation for untrusted prompts
type Gate struct {
	scanner           interfaces.PromptScanner
	llm               interfaces.LLM
	cache             interfaces.DecisionCache
	tracer            interfaces.Tracer
	logger            logging.Logger
	name              string
	systemInstruction string
	llmConfig         *interfaces.LLMConfig
}

// Option represents an option for configuring a gate
type Option func(*Gate)

// WithScanner sets the prompt scanner for the gate
func WithScanner(scanner interfaces.PromptScanner) Option {
	return func(g *Gate) {
		g.scanner = scanner
	}
}

// WithLLM sets the generation provider for the gate
func WithLLM(llm interfaces.LLM) Option {
	return func(g *Gate) {
		g.llm = llm
	}
}

// WithDecisionCache sets the cache used to refuse repeat offenders without
// re-scanning them
func WithDecisionCache(cache interfaces.DecisionCache) Option {
	return func(g *Gate) {
		g.cache = cache
	}
}

// WithTracer sets the tracer for the gate
func WithTracer(tracer interfaces.Tracer) Option {
	return func(g *Gate) {
		g.tracer = tracer
	}
}

// WithLogger sets the logger for the gate
func WithLogger(logger logging.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithName sets the name for the gate
func WithName(name string) Option {
	return func(g *Gate) {
		g.name = name
	}
}

// WithSystemInstruction sets the system message sent with forwarded prompts
func WithSystemInstruction(instruction string) Option {
	return func(g *Gate) {
		g.systemInstruction = instruction
	}
}

// WithLLMConfig sets the generation parameters for forwarded prompts
func WithLLMConfig(config interfaces.LLMConfig) Option {
	return func(g *Gate) {
		g.llmConfig = &config
	}
}

// New creates a new gate with the given options
func New(options ...Option) (*Gate, error) {
	gate := &Gate{
		systemInstruction: DefaultSystemInstruction,
		logger:            logging.New(),
	}

	for _, option := range options {
		option(gate)
	}

	// Validate required fields
	if gate.scanner == nil {
		return nil, fmt.Errorf("prompt scanner is required")
	}
	if gate.llm == nil {
		return nil, fmt.Errorf("LLM is required")
	}

	return gate, nil
}

// Process runs one prompt through the gate: cache check, security scan,
// verdict, and, only for an explicit allow, downstream generation.
//
// The returned error is non-nil only for prompts the gate refuses to even
// consider (ErrEmptyPrompt). Every scanned prompt produces a Result whose
// Status says how the trip ended; for the failure statuses the Result also
// carries the error in Err.
func (g *Gate) Process(ctx context.Context, prompt string) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	// Start tracing if available
	var span interfaces.Span
	if g.tracer != nil {
		ctx, span = g.tracer.StartSpan(ctx, "gate.Process")
		defer span.End()
	}

	if result, ok := g.checkCache(ctx, prompt); ok {
		if span != nil {
			span.SetAttribute("verdict", string(result.Decision.Verdict))
			span.SetAttribute("from_cache", true)
		}
		return result, nil
	}

	outcome, err := g.scanner.Scan(ctx, prompt)
	if err != nil {
		// Fail closed: an unscanned prompt is never forwarded.
		serr := &ScanError{Err: err}
		g.logger.Error(ctx, "Refusing prompt, security scan failed", map[string]interface{}{
			"scanner": g.scanner.Name(),
			"error":   err.Error(),
		})
		if span != nil {
			span.RecordError(serr)
		}
		return &Result{Status: StatusScanFailed, Err: serr}, nil
	}

	ctx = logging.WithTransactionID(ctx, outcome.TransactionID)
	decision := verdict.Decide(outcome)

	if span != nil {
		span.SetAttribute("scan.category", string(outcome.Category))
		span.SetAttribute("scan.action", string(outcome.Action))
		span.SetAttribute("verdict", string(decision.Verdict))
	}

	switch decision.Verdict {
	case verdict.VerdictBlock:
		g.logger.Warn(ctx, "Blocking prompt", map[string]interface{}{
			"reason":  decision.Reason,
			"threats": outcome.ThreatCount(),
		})
		g.storeBlocked(ctx, prompt, outcome)
		return &Result{Status: StatusBlocked, Outcome: outcome, Decision: decision}, nil

	case verdict.VerdictIndeterminate:
		g.logger.Warn(ctx, "Withholding prompt, scan verdict indeterminate", map[string]interface{}{
			"category": string(outcome.Category),
			"action":   string(outcome.Action),
		})
		return &Result{Status: StatusIndeterminate, Outcome: outcome, Decision: decision}, nil
	}

	text, err := g.generate(ctx, prompt)
	if err != nil {
		gerr := &GenerationError{Err: err}
		g.logger.Error(ctx, "Prompt cleared but generation failed", map[string]interface{}{
			"llm":   g.llm.Name(),
			"error": err.Error(),
		})
		if span != nil {
			span.RecordError(gerr)
		}
		return &Result{Status: StatusGenerationFailed, Outcome: outcome, Decision: decision, Err: gerr}, nil
	}

	g.logger.Info(ctx, "Prompt cleared and response generated", map[string]interface{}{
		"scan_latency": outcome.ScanLatency.String(),
	})
	return &Result{Status: StatusCompleted, Outcome: outcome, Decision: decision, Text: text}, nil
}

// checkCache consults the decision cache for a previously blocked prompt.
// Cache trouble never fails the gate; it just means a live scan.
func (g *Gate) checkCache(ctx context.Context, prompt string) (*Result, bool) {
	if g.cache == nil {
		return nil, false
	}

	outcome, found, err := g.cache.GetBlocked(ctx, prompt)
	if err != nil {
		g.logger.Warn(ctx, "Decision cache lookup failed, scanning live", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	if !found {
		return nil, false
	}

	// The cache stores blocking outcomes only; anything else that turns up
	// is stale and gets a live scan instead.
	decision := verdict.Decide(outcome)
	if decision.Verdict != verdict.VerdictBlock {
		return nil, false
	}

	ctx = logging.WithTransactionID(ctx, outcome.TransactionID)
	g.logger.Warn(ctx, "Blocking prompt from cached outcome", map[string]interface{}{
		"reason": decision.Reason,
	})
	return &Result{Status: StatusBlocked, Outcome: outcome, Decision: decision, FromCache: true}, true
}

// storeBlocked records a blocking outcome in the decision cache. Failures
// are logged and dropped; caching is an optimization, not a dependency.
func (g *Gate) storeBlocked(ctx context.Context, prompt string, outcome *scanner.Outcome) {
	if g.cache == nil {
		return
	}
	if err := g.cache.PutBlocked(ctx, prompt, outcome); err != nil {
		g.logger.Warn(ctx, "Failed to cache blocking outcome", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// generate forwards a cleared prompt to the generation provider.
func (g *Gate) generate(ctx context.Context, prompt string) (string, error) {
	generateOptions := []interfaces.GenerateOption{}
	if g.systemInstruction != "" {
		generateOptions = append(generateOptions, func(options *interfaces.GenerateOptions) {
			options.SystemMessage = g.systemInstruction
		})
	}
	if g.llmConfig != nil {
		generateOptions = append(generateOptions, func(options *interfaces.GenerateOptions) {
			options.LLMConfig = g.llmConfig
		})
	}

	return g.llm.Generate(ctx, prompt, generateOptions...)
}
