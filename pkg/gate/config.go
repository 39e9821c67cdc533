package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/promptgate/promptgate/pkg/interfaces"
)

// AssistantConfig represents the configuration for an assistant persona
// loaded from YAML
type AssistantConfig struct {
	Persona     string  `yaml:"persona"`
	Tone        string  `yaml:"tone"`
	Temperature float64 `yaml:"temperature,omitempty"`
	TopP        float64 `yaml:"top_p,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// AssistantConfigs represents a map of assistant configurations
type AssistantConfigs map[string]AssistantConfig

// llmConfig converts the tuning knobs to generation parameters. Returns nil
// when the config leaves them all unset.
func (c AssistantConfig) llmConfig() *interfaces.LLMConfig {
	if c.Temperature == 0 && c.TopP == 0 && c.MaxTokens == 0 {
		return nil
	}
	return &interfaces.LLMConfig{
		Temperature: c.Temperature,
		TopP:        c.TopP,
		MaxTokens:   c.MaxTokens,
	}
}

// WithAssistantConfig sets the gate's system instruction and generation
// parameters from an assistant configuration
func WithAssistantConfig(config AssistantConfig, variables map[string]string) Option {
	return func(g *Gate) {
		g.systemInstruction = FormatSystemInstruction(config, variables)
		if llmConfig := config.llmConfig(); llmConfig != nil {
			g.llmConfig = llmConfig
		}
	}
}

// NewGateFromConfig creates a new gate from a named assistant configuration
func NewGateFromConfig(assistantName string, configs AssistantConfigs, variables map[string]string, options ...Option) (*Gate, error) {
	config, exists := configs[assistantName]
	if !exists {
		return nil, fmt.Errorf("assistant configuration for %s not found", assistantName)
	}

	// Add the assistant config option
	configOption := WithAssistantConfig(config, variables)
	nameOption := WithName(assistantName)

	// Combine all options
	allOptions := append([]Option{configOption, nameOption}, options...)

	return New(allOptions...)
}

// LoadAssistantConfigsFromFile loads assistant configurations from a YAML file
func LoadAssistantConfigsFromFile(filePath string) (AssistantConfigs, error) {
	// Validate file path
	if !isValidFilePath(filePath) {
		return nil, fmt.Errorf("invalid file path")
	}

	// Read file safely
	data, err := os.ReadFile(filePath) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return nil, fmt.Errorf("failed to read assistant config file: %w", err)
	}

	var configs AssistantConfigs
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assistant configs: %w", err)
	}

	return configs, nil
}

// LoadAssistantConfigsFromDir loads all assistant configurations from YAML
// files in a directory
func LoadAssistantConfigsFromDir(dirPath string) (AssistantConfigs, error) {
	// Validate directory path
	dirInfo, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}

	if !dirInfo.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read assistant config directory: %w", err)
	}

	configs := make(AssistantConfigs)
	for _, file := range files {
		if file.IsDir() || (!strings.HasSuffix(file.Name(), ".yaml") && !strings.HasSuffix(file.Name(), ".yml")) {
			continue
		}

		filePath := filepath.Join(dirPath, file.Name())

		// Validate the file path before loading
		if !isValidFilePath(filePath) {
			continue // Skip invalid files but don't fail completely
		}

		fileConfigs, err := LoadAssistantConfigsFromFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load assistant configs from %s: %w", filePath, err)
		}

		// Merge configs
		for name, config := range fileConfigs {
			configs[name] = config
		}
	}

	return configs, nil
}

// FormatSystemInstruction formats a system instruction from an assistant
// configuration, substituting {variable} placeholders
func FormatSystemInstruction(config AssistantConfig, variables map[string]string) string {
	persona := config.Persona
	tone := config.Tone

	// Replace variables in the configuration
	for key, value := range variables {
		placeholder := fmt.Sprintf("{%s}", key)
		persona = strings.ReplaceAll(persona, placeholder, value)
		tone = strings.ReplaceAll(tone, placeholder, value)
	}

	parts := []string{}
	if persona = strings.TrimSpace(persona); persona != "" {
		parts = append(parts, persona)
	}
	if tone = strings.TrimSpace(tone); tone != "" {
		parts = append(parts, tone)
	}

	return strings.Join(parts, " ")
}

// isValidFilePath checks if a file path is valid and safe
func isValidFilePath(filePath string) bool {
	// Check for empty path
	if filePath == "" {
		return false
	}

	// Clean and normalize the path
	cleanPath := filepath.Clean(filePath)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return false
	}

	// Get absolute path
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	// On Unix systems, check if the path is absolute and doesn't start with /proc, /sys, etc.
	// which could lead to sensitive information disclosure
	if strings.HasPrefix(absPath, "/proc") ||
		strings.HasPrefix(absPath, "/sys") ||
		strings.HasPrefix(absPath, "/dev") {
		return false
	}

	// Ensure the file exists
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return false
	}

	// Ensure it's a regular file, not a directory or symlink
	return fileInfo.Mode().IsRegular()
}
