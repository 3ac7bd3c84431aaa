// Package prompt builds the sustainability-analysis instructions sent to the model.
//
// The output format requested here is a contract with package response: the labels
// "Energy Usage", "Energy Savings" and the fenced code block are what the parser looks for.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/omegabytes/ecocode-sentinel/server"
)

const (
	HeaderCurrentImpact         = "## Current Impact"
	HeaderProposedOptimizations = "## Proposed Optimizations"
	HeaderProjectedSavings      = "## Projected Savings"

	// DefaultMonthlyExecutions is what the model is told to assume when the caller gives no estimate.
	DefaultMonthlyExecutions = 1_000_000
	DefaultCodeLanguage      = "python"
)

// Headers returns the section headers the model must emit, in order.
func Headers() []string {
	return []string{HeaderCurrentImpact, HeaderProposedOptimizations, HeaderProjectedSavings}
}

// Prompt is a built prompt split into chat roles.
type Prompt struct {
	System string
	User   string
}

// String returns the whole prompt as one text: instructions first, then the code under analysis.
func (p Prompt) String() string {
	return p.System + "\n\n" + p.User
}

// Builder fills the instruction template. Values are copied, so a Builder is safe to share.
type Builder struct {
	PowerWatts        float64
	CO2PerKWH         float64
	MonthlyExecutions int64
	CodeLanguage      string
}

// NewBuilder returns a builder using the constants of the given server profile.
func NewBuilder(profile server.Profile) Builder {
	return Builder{
		PowerWatts:   profile.PowerWatts,
		CO2PerKWH:    profile.CO2PerKWH,
		CodeLanguage: DefaultCodeLanguage,
	}
}

// WithMonthlyExecutions returns a copy of b that states n monthly executions instead of the default.
// n <= 0 keeps the default.
func (b Builder) WithMonthlyExecutions(n int64) Builder {
	b.MonthlyExecutions = n
	return b
}

// WithCodeLanguage returns a copy of b asking for the optimized code under the given fence tag.
func (b Builder) WithCodeLanguage(lang string) Builder {
	b.CodeLanguage = lang
	return b
}

// Build embeds source verbatim as the code to analyze. It performs no truncation or escaping.
func (b Builder) Build(source string) Prompt {
	return Prompt{
		System: b.instructions(),
		User:   source,
	}
}

// Language is the fence tag the model is asked to use. An empty CodeLanguage means DefaultCodeLanguage.
func (b Builder) Language() string {
	if b.CodeLanguage == "" {
		return DefaultCodeLanguage
	}
	return b.CodeLanguage
}

func (b Builder) instructions() string {
	executions := fmt.Sprintf("Estimate current monthly executions (default: %s if not specified)",
		shortCount(DefaultMonthlyExecutions))
	if b.MonthlyExecutions > 0 {
		executions = fmt.Sprintf("Assume %s monthly executions", groupThousands(b.MonthlyExecutions))
	}

	lang := b.Language()

	var sb strings.Builder
	sb.WriteString("Act as a Senior Energy Efficiency Engineer. For provided code:\n\n")
	fmt.Fprintf(&sb, "1. %s\n", executions)
	sb.WriteString("2. Calculate baseline energy usage using:\n")
	fmt.Fprintf(&sb, "   - Server Power: %sW\n", formatFloat(b.PowerWatts))
	fmt.Fprintf(&sb, "   - CO2/kWh: %skg\n", formatFloat(b.CO2PerKWH))
	sb.WriteString("3. Propose optimizations with estimated % efficiency gain\n")
	sb.WriteString("4. Calculate projected savings\n")
	sb.WriteString("5. Give the Optimized Green Code changes, old code vs new code, line by line, marking removed lines with - and added lines with +\n")
	fmt.Fprintf(&sb, "6. Give the complete Optimized Green Code in a single ```%s fenced block, "+
		"applying anonymization, HIPAA and other responsible AI practices, in markdown format with explanation\n\n", lang)
	sb.WriteString("Format response as:\n")
	sb.WriteString(HeaderCurrentImpact + "\n")
	sb.WriteString("- ⚡ Energy Usage: [X] kWh/month\n")
	sb.WriteString("- 🌍 CO2 Emissions: [Y] kg/month\n\n")
	sb.WriteString(HeaderProposedOptimizations + "\n")
	sb.WriteString("- [Optimization 1] (+[%] efficiency)\n")
	sb.WriteString("- [Optimization 2] (+[%] efficiency)\n\n")
	sb.WriteString(HeaderProjectedSavings + "\n")
	sb.WriteString("- 🔋 Energy Savings: [X] kWh/month\n")
	sb.WriteString("- 🍃 CO2 Reduction: [Y] kg/month\n")
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// shortCount renders round counts the way the template has always phrased them (1M, 500K).
func shortCount(n int64) string {
	switch {
	case n >= 1_000_000 && n%1_000_000 == 0:
		return strconv.FormatInt(n/1_000_000, 10) + "M"
	case n >= 1_000 && n%1_000 == 0:
		return strconv.FormatInt(n/1_000, 10) + "K"
	default:
		return groupThousands(n)
	}
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
