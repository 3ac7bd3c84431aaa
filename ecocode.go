package ecocode

import (
	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/impact"
	"github.com/omegabytes/ecocode-sentinel/llm"
	"github.com/omegabytes/ecocode-sentinel/request"
	"github.com/omegabytes/ecocode-sentinel/server"
	"github.com/omegabytes/ecocode-sentinel/session"
)

func NewServer() server.Profile {
	return server.GenericProfile()
}

// NewClient returns a model client for provider ("groq" or "ollama") with default settings.
// An empty model selects the provider's default.
func NewClient(provider, apiKey, model string) (llm.Client, error) {
	p, err := llm.ParseProvider(provider)
	if err != nil {
		return nil, err
	}
	return llm.New(llm.Config{
		Provider:   p,
		APIKey:     apiKey,
		Model:      model,
		MaxRetries: llm.DefaultMaxRetries,
	})
}

func NewRequest(fileName, source string, monthlyExecutions int64) (request.Request, error) {
	req := request.Request{FileName: fileName, Source: source, MonthlyExecutions: monthlyExecutions}
	if err := req.Validate(request.DefaultMaxSourceBytes); err != nil {
		return request.Request{}, err
	}
	return req, nil
}

// NewAnalyzer returns an analysis service for the generic server with an in-memory session.
func NewAnalyzer(client llm.Client) *analyzer.Service {
	return analyzer.New(impact.NewCalculator(NewServer()), client, session.NewAccumulator(nil))
}

func EstimateImpact(executionTimeMs float64, monthlyExecutions int64) (impact.Estimate, error) {
	return impact.EstimateImpact(executionTimeMs, monthlyExecutions)
}
