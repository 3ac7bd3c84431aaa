package llm

import (
	"fmt"
	"strings"
)

// Provider is a model runner reachable through an OpenAI-compatible chat completion API.
type Provider string

const (
	// Groq is the hosted high-speed inference provider.
	Groq Provider = "groq"
	// Ollama is a locally installed model runner.
	Ollama Provider = "ollama"
)

const (
	GroqBaseURL      = "https://api.groq.com/openai/v1/"
	GroqDefaultModel = "mixtral-8x7b-32768"

	OllamaDefaultHost  = "http://localhost:11434"
	OllamaDefaultModel = "gemma3"
)

// ParseProvider maps a configuration value onto a Provider. Matching is case-insensitive.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case Groq, Ollama:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider %q, expected %q or %q", s, Groq, Ollama)
	}
}

// DisplayName returns the provider name as shown to users.
func (p Provider) DisplayName() string {
	switch p {
	case Groq:
		return "Groq"
	case Ollama:
		return "Ollama"
	default:
		return string(p)
	}
}

// DefaultBaseURL returns the OpenAI-compatible endpoint of the provider.
func (p Provider) DefaultBaseURL() string {
	if p == Ollama {
		return OllamaBaseURL(OllamaDefaultHost)
	}
	return GroqBaseURL
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	if p == Ollama {
		return OllamaDefaultModel
	}
	return GroqDefaultModel
}

// OllamaBaseURL returns the OpenAI-compatible endpoint served by an Ollama host.
func OllamaBaseURL(host string) string {
	return strings.TrimRight(host, "/") + "/v1/"
}
