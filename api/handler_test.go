package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/api"
	"github.com/omegabytes/ecocode-sentinel/impact"
	"github.com/omegabytes/ecocode-sentinel/llm"
	"github.com/omegabytes/ecocode-sentinel/metrics"
	"github.com/omegabytes/ecocode-sentinel/prompt"
	"github.com/omegabytes/ecocode-sentinel/server"
	"github.com/omegabytes/ecocode-sentinel/session"
)

const completeAnswer = "## Current Impact\n- ⚡ Energy Usage: 1,000 kWh/month\n\n" +
	"## Proposed Optimizations\n- Cache results\n\n" +
	"## Projected Savings\n- 🔋 Energy Savings: 400 kWh/month\n\n" +
	"```python\nprint('fast')\n```\n"

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		Expect(json.NewEncoder(&buf).Encode(b)).To(Succeed())
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

var _ = Describe("Router", func() {
	var (
		router    *gin.Engine
		client    *mockClient
		collector *metrics.Collector
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		client = &mockClient{completeFn: answer(completeAnswer)}
		collector = metrics.NewCollector()
		svc := analyzer.New(
			impact.NewCalculator(server.GenericProfile()),
			client,
			session.NewAccumulator(nil),
			analyzer.WithCollector(collector),
			analyzer.WithMaxSourceBytes(64),
		)
		router = api.NewRouter(api.RouterConfig{ServiceName: "ecocode-test"}, svc, collector)
	})

	Describe("GET /health", func() {
		It("returns ok", func() {
			w := get(router, "/health")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
		})
	})

	Describe("POST /api/v1/estimate", func() {
		It("returns the energy and CO2 estimate", func() {
			// 500W * 0.2s * 1M / 1000 = 100000 kWh; * 0.475 = 47500 kg
			w := postJSON(router, "/api/v1/estimate", map[string]any{
				"execution_time_ms":  200,
				"monthly_executions": 1_000_000,
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			var est impact.Estimate
			Expect(json.Unmarshal(w.Body.Bytes(), &est)).To(Succeed())
			Expect(est.EnergyKWH).To(BeNumerically("~", 100_000, 1e-6))
			Expect(est.CO2Kg).To(BeNumerically("~", 47_500, 1e-6))
		})

		It("accepts zero inputs", func() {
			w := postJSON(router, "/api/v1/estimate", map[string]any{
				"execution_time_ms":  0,
				"monthly_executions": 0,
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"energy_kwh":0,"co2_kg":0}`))
		})

		It("returns 400 for negative inputs", func() {
			w := postJSON(router, "/api/v1/estimate", map[string]any{
				"execution_time_ms":  -1,
				"monthly_executions": 10,
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("invalid argument"))
		})

		It("returns 400 when a field is missing", func() {
			w := postJSON(router, "/api/v1/estimate", map[string]any{"execution_time_ms": 10})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on invalid request body", func() {
			w := postJSON(router, "/api/v1/estimate", `{`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /api/v1/analyses", func() {
		It("returns the parsed analysis and updates the session", func() {
			w := postJSON(router, "/api/v1/analyses", map[string]any{
				"file_name": "slow.py",
				"source":    "for i in range(10): pass",
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["file"]).To(Equal("slow.py"))
			Expect(resp["optimized_code"]).To(Equal("print('fast')"))
			Expect(resp["has_code"]).To(BeTrue())
			Expect(resp["comparison"]).To(HaveKeyWithValue("values", []any{1000.0, 600.0}))
			// 400 * 0.475
			Expect(resp["co2_reduction_kg"]).To(BeNumerically("~", 190, 1e-9))
			Expect(resp["session"]).To(HaveKeyWithValue("total_energy_kwh", 400.0))

			w = get(router, "/api/v1/session")
			Expect(w.Code).To(Equal(http.StatusOK))
			var totals session.Analytics
			Expect(json.Unmarshal(w.Body.Bytes(), &totals)).To(Succeed())
			Expect(totals.TotalEnergyKWH).To(Equal(400.0))
			Expect(totals.History).To(HaveLen(1))
			Expect(totals.History[0].File).To(Equal("slow.py"))
		})

		It("returns raw text only when metrics are missing", func() {
			client.completeFn = answer("Sorry, I cannot estimate this.")

			w := postJSON(router, "/api/v1/analyses", map[string]any{"file_name": "a.py", "source": "x = 1"})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).NotTo(HaveKey("comparison"))
			Expect(resp["raw"]).To(Equal("Sorry, I cannot estimate this."))
			Expect(resp["has_code"]).To(BeFalse())
			Expect(get(router, "/api/v1/session").Body.String()).To(ContainSubstring(`"total_energy_kwh":0`))
		})

		It("renders an HTML report on request", func() {
			w := postJSON(router, "/api/v1/analyses?format=html", map[string]any{"file_name": "a.py", "source": "x = 1"})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/html"))
			Expect(w.Body.String()).To(ContainSubstring("<svg"))
		})

		It("passes monthly executions to the prompt", func() {
			var system string
			client.completeFn = func(_ context.Context, p prompt.Prompt) (*llm.Completion, error) {
				system = p.System
				return &llm.Completion{Content: completeAnswer, Model: "mock"}, nil
			}

			w := postJSON(router, "/api/v1/analyses", map[string]any{
				"file_name":          "a.py",
				"source":             "x = 1",
				"monthly_executions": 42_000,
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(system).To(ContainSubstring("Assume 42,000 monthly executions"))
		})

		DescribeTable("maps failures to status codes",
			func(source string, modelErr error, want int) {
				if modelErr != nil {
					client.completeFn = func(context.Context, prompt.Prompt) (*llm.Completion, error) {
						return nil, modelErr
					}
				}
				w := postJSON(router, "/api/v1/analyses", map[string]any{"file_name": "a", "source": source})
				Expect(w.Code).To(Equal(want))
			},
			Entry("binary content", "abc\x00def", nil, http.StatusUnsupportedMediaType),
			Entry("source over the limit", strings.Repeat("a", 65), nil, http.StatusRequestEntityTooLarge),
			Entry("whitespace source", "   ", nil, http.StatusBadRequest),
			Entry("missing source", "", nil, http.StatusBadRequest),
			Entry("model failure", "x = 1", errors.New("connection refused"), http.StatusBadGateway),
		)

		It("does not call the model for rejected sources", func() {
			postJSON(router, "/api/v1/analyses", map[string]any{"file_name": "a", "source": "abc\x00"})
			Expect(client.calls).To(BeZero())
		})
	})

	Describe("GET /metrics", func() {
		It("exposes analysis counters", func() {
			postJSON(router, "/api/v1/analyses", map[string]any{"file_name": "a.py", "source": "x = 1"})

			w := get(router, "/metrics")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`ecocode_analyses_total{outcome="complete",provider="ollama"} 1`))
			Expect(w.Body.String()).To(ContainSubstring("ecocode_session_energy_savings_kwh 400"))
		})
	})
})

var _ = Describe("Recovery", func() {
	It("returns 500 when a handler panics", func() {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(api.Recovery(), api.Logger())
		router.GET("/boom", func(*gin.Context) { panic("boom") })

		w := get(router, "/boom")
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"internal server error"}`))
	})
})
