package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{input: "groq", want: Groq},
		{input: "Groq", want: Groq},
		{input: " OLLAMA ", want: Ollama},
		{input: "openai", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProviderDefaults(t *testing.T) {
	assert.Equal(t, GroqBaseURL, Groq.DefaultBaseURL())
	assert.Equal(t, "http://localhost:11434/v1/", Ollama.DefaultBaseURL())
	assert.Equal(t, "mixtral-8x7b-32768", Groq.DefaultModel())
	assert.Equal(t, "gemma3", Ollama.DefaultModel())
	assert.Equal(t, "Groq", Groq.DisplayName())
	assert.Equal(t, "Ollama", Ollama.DisplayName())
	assert.Equal(t, "http://ollama:11434/v1/", OllamaBaseURL("http://ollama:11434/"))
}
