// Package azureopenai implements the LLM interface on top of an Azure
// OpenAI deployment.
package azureopenai

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/promptgate/promptgate/pkg/interfaces"
	"github.com/promptgate/promptgate/pkg/llm"
	"github.com/promptgate/promptgate/pkg/logging"
	"github.com/promptgate/promptgate/pkg/retry"
)

// DefaultAPIVersion is the Azure OpenAI API version requested when no
// override is configured.
const DefaultAPIVersion = "2024-02-15-preview"

// AzureClient implements the LLM interface for Azure OpenAI
type AzureClient struct {
	Client     *openai.Client
	Deployment string

	apiVersion    string
	httpClient    *http.Client
	logger        logging.Logger
	retryExecutor *retry.Executor
}

// Option represents an option for configuring the Azure OpenAI client
type Option func(*AzureClient)

// WithAPIVersion sets the Azure OpenAI API version
func WithAPIVersion(apiVersion string) Option {
	return func(c *AzureClient) {
		c.apiVersion = apiVersion
	}
}

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *AzureClient) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for the Azure OpenAI client
func WithLogger(logger logging.Logger) Option {
	return func(c *AzureClient) {
		c.logger = logger
	}
}

// WithRetry configures retry policy for the client
func WithRetry(opts ...retry.Option) Option {
	return func(c *AzureClient) {
		c.retryExecutor = retry.NewExecutor(retry.NewPolicy(opts...))
	}
}

// NewClient creates a new Azure OpenAI client for the given resource
// endpoint and deployment name.
func NewClient(endpoint, apiKey, deployment string, options ...Option) *AzureClient {
	// Create client with default options
	client := &AzureClient{
		Deployment: deployment,
		apiVersion: DefaultAPIVersion,
		logger:     logging.New(),
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	config := openai.DefaultAzureConfig(apiKey, endpoint)
	config.APIVersion = client.apiVersion
	config.AzureModelMapperFunc = func(model string) string {
		return deployment
	}
	if client.httpClient != nil {
		config.HTTPClient = client.httpClient
	}
	client.Client = openai.NewClientWithConfig(config)

	return client
}

// Generate generates text from a prompt
func (c *AzureClient) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	// Apply options on top of the deployment defaults
	defaults := llm.DefaultGenerateParams()
	params := &interfaces.GenerateOptions{
		LLMConfig: &interfaces.LLMConfig{
			Temperature: defaults.Temperature,
			TopP:        defaults.TopP,
			MaxTokens:   defaults.MaxTokens,
		},
	}

	for _, option := range options {
		option(params)
	}

	// Create request with system message if provided
	messages := []openai.ChatCompletionMessage{}

	if params.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    "system",
			Content: params.SystemMessage,
		})
		c.logger.Debug(ctx, "Using system message", map[string]interface{}{"system_message": params.SystemMessage})
	}

	// Add user message
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    "user",
		Content: prompt,
	})

	// Create request
	req := openai.ChatCompletionRequest{
		Model:    c.Deployment,
		Messages: messages,
	}

	if params.LLMConfig != nil {
		req.Temperature = float32(params.LLMConfig.Temperature)
		req.TopP = float32(params.LLMConfig.TopP)
		req.MaxTokens = params.LLMConfig.MaxTokens
		req.FrequencyPenalty = float32(params.LLMConfig.FrequencyPenalty)
		req.PresencePenalty = float32(params.LLMConfig.PresencePenalty)
		req.Stop = params.LLMConfig.StopSequences
	}

	var resp openai.ChatCompletionResponse

	operation := func() error {
		c.logger.Debug(ctx, "Executing Azure OpenAI API request", map[string]interface{}{
			"deployment":  c.Deployment,
			"temperature": req.Temperature,
			"top_p":       req.TopP,
			"max_tokens":  req.MaxTokens,
			"messages":    len(req.Messages),
		})

		completion, err := c.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			perr := c.classify(err)
			c.logger.Error(ctx, "Error from Azure OpenAI API", map[string]interface{}{
				"error":      perr.Error(),
				"reason":     string(perr.Reason),
				"deployment": c.Deployment,
			})
			if !perr.Retriable() {
				return backoff.Permanent(error(perr))
			}
			return perr
		}
		resp = completion
		return nil
	}

	var err error
	if c.retryExecutor != nil {
		c.logger.Debug(ctx, "Using retry mechanism for Azure OpenAI request", map[string]interface{}{
			"deployment": c.Deployment,
		})
		err = c.retryExecutor.Execute(ctx, operation)
	} else {
		err = operation()
	}

	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		return "", err
	}

	// Return response
	if len(resp.Choices) > 0 {
		c.logger.Debug(ctx, "Successfully received response from Azure OpenAI", map[string]interface{}{
			"deployment": c.Deployment,
		})
		return resp.Choices[0].Message.Content, nil
	}

	return "", &llm.ProviderError{
		Provider: c.Name(),
		Reason:   llm.ReasonServer,
		Err:      errors.New("no response from Azure OpenAI API"),
	}
}

// classify maps an SDK error to a ProviderError with its failure class.
func (c *AzureClient) classify(err error) *llm.ProviderError {
	perr := &llm.ProviderError{
		Provider: c.Name(),
		Reason:   llm.ReasonServer,
		Err:      err,
	}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		perr.Status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		perr.Status = reqErr.HTTPStatusCode
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		perr.Reason = llm.ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		perr.Reason = llm.ReasonTimeout
	case perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden:
		perr.Reason = llm.ReasonAuth
	case perr.Status == http.StatusTooManyRequests:
		perr.Reason = llm.ReasonRateLimit
	}

	return perr
}

// Name implements interfaces.LLM.Name
func (c *AzureClient) Name() string {
	return "azure-openai"
}

// WithTemperature creates a GenerateOption to set the temperature
func WithTemperature(temperature float64) interfaces.GenerateOption {
	return func(options *interfaces.GenerateOptions) {
		if options.LLMConfig == nil {
			options.LLMConfig = &interfaces.LLMConfig{}
		}
		options.LLMConfig.Temperature = temperature
	}
}

// WithTopP creates a GenerateOption to set the top_p
func WithTopP(topP float64) interfaces.GenerateOption {
	return func(options *interfaces.GenerateOptions) {
		if options.LLMConfig == nil {
			options.LLMConfig = &interfaces.LLMConfig{}
		}
		options.LLMConfig.TopP = topP
	}
}

// WithMaxTokens creates a GenerateOption to set the generated-token cap
func WithMaxTokens(maxTokens int) interfaces.GenerateOption {
	return func(options *interfaces.GenerateOptions) {
		if options.LLMConfig == nil {
			options.LLMConfig = &interfaces.LLMConfig{}
		}
		options.LLMConfig.MaxTokens = maxTokens
	}
}

// WithStopSequences creates a GenerateOption to set the stop sequences
func WithStopSequences(stopSequences []string) interfaces.GenerateOption {
	return func(options *interfaces.GenerateOptions) {
		if options.LLMConfig == nil {
			options.LLMConfig = &interfaces.LLMConfig{}
		}
		options.LLMConfig.StopSequences = stopSequences
	}
}

// WithSystemMessage creates a GenerateOption to set the system message
func WithSystemMessage(systemMessage string) interfaces.GenerateOption {
	return func(options *interfaces.GenerateOptions) {
		options.SystemMessage = systemMessage
	}
}
