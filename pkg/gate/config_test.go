package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/logging"
)

func TestFormatSystemInstruction(t *testing.T) {
	// Create an assistant config
	config := AssistantConfig{
		Persona: "You are a {team} support assistant.",
		Tone:    "You keep answers short and reference {team} documentation.",
	}

	// Create variables
	variables := map[string]string{
		"team": "Platform",
	}

	// Format the system instruction
	instruction := FormatSystemInstruction(config, variables)

	assert.Equal(t, "You are a Platform support assistant. You keep answers short and reference Platform documentation.", instruction)
}

func TestFormatSystemInstructionSkipsEmptyParts(t *testing.T) {
	instruction := FormatSystemInstruction(AssistantConfig{Persona: "You are helpful."}, nil)
	assert.Equal(t, "You are helpful.", instruction)

	instruction = FormatSystemInstruction(AssistantConfig{Tone: "  You are brief.  "}, nil)
	assert.Equal(t, "You are brief.", instruction)
}

func TestLoadAssistantConfigsFromFile(t *testing.T) {
	// Write a config file to a temp dir
	dir := t.TempDir()
	path := filepath.Join(dir, "assistants.yaml")
	content := `
helpdesk:
  persona: You are a helpdesk assistant.
  tone: You are patient and concise.
  temperature: 0.5
  max_tokens: 256

researcher:
  persona: You are a research assistant for {topic}.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	configs, err := LoadAssistantConfigsFromFile(path)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	helpdesk := configs["helpdesk"]
	assert.Equal(t, "You are a helpdesk assistant.", helpdesk.Persona)
	assert.Equal(t, 0.5, helpdesk.Temperature)
	assert.Equal(t, 256, helpdesk.MaxTokens)

	assert.Contains(t, configs["researcher"].Persona, "{topic}")
}

func TestLoadAssistantConfigsFromFileRejectsBadPaths(t *testing.T) {
	_, err := LoadAssistantConfigsFromFile("")
	assert.Error(t, err)

	_, err = LoadAssistantConfigsFromFile("../../../etc/passwd.yaml")
	assert.Error(t, err)
}

func TestNewGateFromConfig(t *testing.T) {
	configs := AssistantConfigs{
		"helpdesk": {
			Persona:     "You are a helpdesk assistant for {product}.",
			Tone:        "You stay friendly.",
			Temperature: 0.4,
			MaxTokens:   128,
		},
	}

	scn := &fakeScanner{outcome: benignOutcome()}
	llm := &fakeLLM{response: "hi"}

	g, err := NewGateFromConfig("helpdesk", configs, map[string]string{"product": "Acme"},
		WithScanner(scn),
		WithLLM(llm),
		WithLogger(logging.Noop()),
	)
	require.NoError(t, err)

	assert.Equal(t, "helpdesk", g.name)
	assert.Equal(t, "You are a helpdesk assistant for Acme. You stay friendly.", g.systemInstruction)
	require.NotNil(t, g.llmConfig)
	assert.Equal(t, 0.4, g.llmConfig.Temperature)
	assert.Equal(t, 128, g.llmConfig.MaxTokens)

	// Unknown assistant names are an error
	_, err = NewGateFromConfig("missing", configs, nil, WithScanner(scn), WithLLM(llm))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
