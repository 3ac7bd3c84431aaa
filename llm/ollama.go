package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/valyala/fastjson"
)

var ErrModelNotInstalled = errors.New("model not installed")

// ProbeOllama lists the models installed on an Ollama host and checks that model is among them.
// A model name without a tag matches any tag of that model ("gemma3" matches "gemma3:latest").
func ProbeOllama(ctx context.Context, httpClient *http.Client, host, model string) ([]string, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if host == "" {
		host = OllamaDefaultHost
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(host, "/")+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama not reachable at %s: %w", host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	installed, err := parseModelTags(body)
	if err != nil {
		return nil, err
	}
	if model != "" && !hasModel(installed, model) {
		return installed, fmt.Errorf("%w: %s (installed: %s)", ErrModelNotInstalled, model, strings.Join(installed, ", "))
	}
	return installed, nil
}

func parseModelTags(body []byte) ([]string, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama tags: %w", err)
	}

	models := v.GetArray("models")
	names := make([]string, 0, len(models))
	for _, m := range models {
		name := m.GetStringBytes("name")
		if len(name) == 0 {
			name = m.GetStringBytes("model")
		}
		if len(name) == 0 {
			continue
		}
		names = append(names, string(name))
	}
	return names, nil
}

func hasModel(installed []string, model string) bool {
	for _, name := range installed {
		if name == model {
			return true
		}
		if !strings.Contains(model, ":") {
			if base, _, ok := strings.Cut(name, ":"); ok && base == model {
				return true
			}
		}
	}
	return false
}
