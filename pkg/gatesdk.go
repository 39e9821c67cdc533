package gatesdk

import (
	"time"

	"github.com/promptgate/promptgate/pkg/gate"
	"github.com/promptgate/promptgate/pkg/interfaces"
	"github.com/promptgate/promptgate/pkg/llm/azureopenai"
	"github.com/promptgate/promptgate/pkg/scancache"
	"github.com/promptgate/promptgate/pkg/scanner"
	"github.com/promptgate/promptgate/pkg/scanner/airs"
	"github.com/promptgate/promptgate/pkg/verdict"
)

// NewGate creates a new gate with the given options
func NewGate(options ...gate.Option) (*gate.Gate, error) {
	return gate.New(options...)
}

// WithScanner sets the prompt scanner for the gate
func WithScanner(scn interfaces.PromptScanner) gate.Option {
	return gate.WithScanner(scn)
}

// WithLLM sets the generation provider for the gate
func WithLLM(llm interfaces.LLM) gate.Option {
	return gate.WithLLM(llm)
}

// WithDecisionCache sets the decision cache for the gate
func WithDecisionCache(cache interfaces.DecisionCache) gate.Option {
	return gate.WithDecisionCache(cache)
}

// WithTracer sets the tracer for the gate
func WithTracer(tracer interfaces.Tracer) gate.Option {
	return gate.WithTracer(tracer)
}

// Scanning

// NewScanner creates a new AI Runtime Security scan client
func NewScanner(apiKey, profileName string, options ...airs.Option) *airs.Client {
	return airs.NewClient(apiKey, profileName, options...)
}

// Generation

// NewAzureOpenAI creates a new Azure OpenAI client
func NewAzureOpenAI(endpoint, apiKey, deployment string, options ...azureopenai.Option) *azureopenai.AzureClient {
	return azureopenai.NewClient(endpoint, apiKey, deployment, options...)
}

// Caching

// NewRedisDecisionCache creates a new Redis decision cache from configuration
func NewRedisDecisionCache(config scancache.RedisConfig, options ...scancache.RedisOption) (*scancache.RedisCache, error) {
	return scancache.NewRedisCacheFromConfig(config, options...)
}

// WithCacheTTL sets how long blocking outcomes stay cached
func WithCacheTTL(ttl time.Duration) scancache.RedisOption {
	return scancache.WithTTL(ttl)
}

// Decisions

// Decide maps a scan outcome to a forwarding decision
func Decide(outcome *scanner.Outcome) verdict.Decision {
	return verdict.Decide(outcome)
}
