/*
Package response extracts the labeled metrics and the optimized code from a model's free-text answer.

Extraction is purely syntactic. A label the model did not emit is reported as absent, never as an error,
so callers can fall back to showing the raw text.
*/
package response

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const (
	LabelEnergyUsage   = "Energy Usage"
	LabelEnergySavings = "Energy Savings"

	// NoOptimizedCode is shown in place of the optimized code when the answer has no code block.
	NoOptimizedCode = "No optimized code found."

	DefaultCodeLanguage = "python"
)

var (
	ErrMetricNotFound    = errors.New("metric not found")
	ErrCodeBlockNotFound = errors.New("code block not found")
)

// number accepts plain decimals and thousands-grouped integers, with an optional fraction.
const number = `((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?)`

var (
	energyUsageRe   = labeledKWH(LabelEnergyUsage)
	energySavingsRe = labeledKWH(LabelEnergySavings)

	codeBlockMu    sync.RWMutex
	codeBlockRegex = map[string]*regexp.Regexp{}
)

func labeledKWH(label string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(label) + `:\s*` + number + `\s*kWh`)
}

// Metrics holds the energy figures found in an answer. A nil field means the label was absent.
type Metrics struct {
	CurrentEnergyKWH    *float64 `json:"current_energy_kwh,omitempty"`
	ProjectedSavingsKWH *float64 `json:"projected_savings_kwh,omitempty"`
}

// Complete reports whether both metrics were found.
func (m Metrics) Complete() bool {
	return m.CurrentEnergyKWH != nil && m.ProjectedSavingsKWH != nil
}

// Err returns nil when both metrics were found, otherwise an error wrapping ErrMetricNotFound
// that names the missing labels.
func (m Metrics) Err() error {
	var missing []string
	if m.CurrentEnergyKWH == nil {
		missing = append(missing, LabelEnergyUsage)
	}
	if m.ProjectedSavingsKWH == nil {
		missing = append(missing, LabelEnergySavings)
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMetricNotFound, strings.Join(missing, ", "))
}

// ExtractMetrics returns the first "Energy Usage: <n> kWh" and "Energy Savings: <n> kWh" values in text.
func ExtractMetrics(text string) Metrics {
	return Metrics{
		CurrentEnergyKWH:    firstKWH(energyUsageRe, text),
		ProjectedSavingsKWH: firstKWH(energySavingsRe, text),
	}
}

func firstKWH(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ExtractCodeBlock returns the interior of the first ```python fenced block in text.
func ExtractCodeBlock(text string) (string, bool) {
	return ExtractCodeBlockFor(text, DefaultCodeLanguage)
}

// ExtractCodeBlockFor returns the interior of the first fenced block tagged lang. The fences must be
// separated from the code by whitespace. Trailing whitespace is dropped; indentation and inner
// whitespace are kept.
func ExtractCodeBlockFor(text, lang string) (string, bool) {
	m := codeBlockRe(lang).FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CodeOrDefault returns the optimized code, or NoOptimizedCode when the answer has none.
func CodeOrDefault(text, lang string) string {
	if code, ok := ExtractCodeBlockFor(text, lang); ok {
		return code
	}
	return NoOptimizedCode
}

func codeBlockRe(lang string) *regexp.Regexp {
	codeBlockMu.RLock()
	re, ok := codeBlockRegex[lang]
	codeBlockMu.RUnlock()
	if ok {
		return re
	}

	// Blank lines after the fence line are skipped; the first code line keeps its indentation.
	re = regexp.MustCompile("(?s)```" + regexp.QuoteMeta(lang) + `(?:[ \t]*\r?\n(?:[ \t]*\r?\n)*|[ \t]+)(.*?)\s+` + "```")

	codeBlockMu.Lock()
	codeBlockRegex[lang] = re
	codeBlockMu.Unlock()
	return re
}
