// Package analyzer runs one sustainability analysis: prompt the model, parse its answer and
// fold the projected savings into the session.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omegabytes/ecocode-sentinel/id"
	"github.com/omegabytes/ecocode-sentinel/impact"
	"github.com/omegabytes/ecocode-sentinel/llm"
	"github.com/omegabytes/ecocode-sentinel/metrics"
	"github.com/omegabytes/ecocode-sentinel/prompt"
	"github.com/omegabytes/ecocode-sentinel/request"
	"github.com/omegabytes/ecocode-sentinel/response"
	"github.com/omegabytes/ecocode-sentinel/session"
)

var (
	// ErrInvalidRequest wraps every validation failure of the submitted source.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrModelFailed wraps provider errors, after retries were exhausted.
	ErrModelFailed = errors.New("model completion failed")
)

// Result is what one analysis produced. Comparison is nil unless both metrics were found.
type Result struct {
	ID             int64              `json:"id,string"`
	File           string             `json:"file"`
	Raw            string             `json:"raw"`
	Metrics        response.Metrics   `json:"metrics"`
	OptimizedCode  string             `json:"optimized_code"`
	HasCode        bool               `json:"has_code"`
	Comparison     *impact.Comparison `json:"comparison,omitempty"`
	CO2ReductionKg float64            `json:"co2_reduction_kg"`
	Model          string             `json:"model"`
	Duration       time.Duration      `json:"duration_ns"`
}

// Service is safe for concurrent use.
type Service struct {
	calculator     impact.Calculator
	builder        prompt.Builder
	client         llm.Client
	session        *session.Accumulator
	collector      *metrics.Collector
	maxSourceBytes int
	tracer         trace.Tracer
}

type Option func(*Service)

// WithCollector records Prometheus metrics for each analysis.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Service) { s.collector = c }
}

// WithMaxSourceBytes bounds submitted sources. n <= 0 disables the bound.
func WithMaxSourceBytes(n int) Option {
	return func(s *Service) { s.maxSourceBytes = n }
}

// WithBuilder replaces the prompt builder derived from the calculator's profile.
func WithBuilder(b prompt.Builder) Option {
	return func(s *Service) { s.builder = b }
}

func New(calculator impact.Calculator, client llm.Client, acc *session.Accumulator, opts ...Option) *Service {
	if acc == nil {
		acc = session.NewAccumulator(nil)
	}
	s := &Service{
		calculator:     calculator,
		builder:        prompt.NewBuilder(calculator.Profile()),
		client:         client,
		session:        acc,
		maxSourceBytes: request.DefaultMaxSourceBytes,
		tracer:         otel.Tracer("github.com/omegabytes/ecocode-sentinel/analyzer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the accumulator analyses are recorded into.
func (s *Service) Session() *session.Accumulator {
	return s.session
}

// Calculator returns the impact calculator for the service's server profile.
func (s *Service) Calculator() impact.Calculator {
	return s.calculator
}

// Analyze sends req to the model and parses the answer. Missing metrics or a missing code
// block are not errors: the result then carries the raw text only and the session is untouched.
func (s *Service) Analyze(ctx context.Context, req request.Request) (*Result, error) {
	provider := string(s.client.Provider())

	ctx, span := s.tracer.Start(ctx, "analyzer.Analyze", trace.WithAttributes(
		attribute.String("ecocode.file", req.FileName),
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", s.client.Model()),
	))
	defer span.End()

	log := slog.With("file", req.FileName, "provider", provider)

	if err := req.Validate(s.maxSourceBytes); err != nil {
		s.collector.ObserveAnalysis(provider, metrics.OutcomeRejected, 0, 0)
		span.SetStatus(codes.Error, "invalid request")
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	builder := s.builder
	if req.MonthlyExecutions > 0 {
		builder = builder.WithMonthlyExecutions(req.MonthlyExecutions)
	}
	p := builder.Build(req.Source)

	completion, err := s.client.Complete(ctx, p)
	if err != nil {
		s.collector.ObserveAnalysis(provider, metrics.OutcomeModelError, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "model completion failed")
		log.ErrorContext(ctx, "analysis failed", "error", err)
		return nil, fmt.Errorf("analysis of %s: %w: %w", req.FileName, ErrModelFailed, err)
	}
	s.collector.ObserveModelLatency(provider, completion.Model, completion.Duration)

	res := &Result{
		ID:       id.New(),
		File:     req.FileName,
		Raw:      completion.Content,
		Metrics:  response.ExtractMetrics(completion.Content),
		Model:    completion.Model,
		Duration: completion.Duration,
	}
	res.OptimizedCode = response.CodeOrDefault(completion.Content, builder.Language())
	res.HasCode = res.OptimizedCode != response.NoOptimizedCode
	if !res.HasCode {
		log.DebugContext(ctx, "answer has no optimized code", "error", response.ErrCodeBlockNotFound)
	}

	if err := res.Metrics.Err(); err != nil {
		s.collector.ObserveAnalysis(provider, metrics.OutcomePartial, 0, 0)
		span.SetAttributes(attribute.Bool("ecocode.metrics_found", false))
		log.WarnContext(ctx, "unable to extract metrics from analysis output", "error", err)
		return res, nil
	}

	current, savings := *res.Metrics.CurrentEnergyKWH, *res.Metrics.ProjectedSavingsKWH
	comparison := impact.NewComparison(current, savings)
	res.Comparison = &comparison
	res.CO2ReductionKg = s.calculator.CO2ForEnergy(savings)

	if _, err := s.session.Record(ctx, req.FileName, savings, res.CO2ReductionKg); err != nil {
		s.collector.ObserveAnalysis(provider, metrics.OutcomeSessionError, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "session update failed")
		return nil, fmt.Errorf("analysis of %s: %w", req.FileName, err)
	}

	totals := s.session.Snapshot()
	s.collector.ObserveAnalysis(provider, metrics.OutcomeComplete, savings, res.CO2ReductionKg)
	s.collector.SetSessionTotals(totals.TotalEnergyKWH, totals.TotalCO2Kg)

	span.SetAttributes(
		attribute.Bool("ecocode.metrics_found", true),
		attribute.Float64("ecocode.current_energy_kwh", current),
		attribute.Float64("ecocode.projected_savings_kwh", savings),
	)
	log.InfoContext(ctx, "analysis completed",
		"current_kwh", current,
		"savings_kwh", savings,
		"co2_reduction_kg", res.CO2ReductionKg,
		"duration_ms", completion.Duration.Milliseconds())
	return res, nil
}
