package api

import (
	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/request"
	"github.com/omegabytes/ecocode-sentinel/session"
)

type EstimateRequest struct {
	ExecutionTimeMs   *float64 `json:"execution_time_ms" binding:"required"`
	MonthlyExecutions *int64   `json:"monthly_executions" binding:"required"`
}

type AnalysisRequest struct {
	FileName          string `json:"file_name" binding:"required"`
	Source            string `json:"source" binding:"required"`
	MonthlyExecutions int64  `json:"monthly_executions"`
}

func (r AnalysisRequest) toRequest() request.Request {
	return request.Request{
		FileName:          r.FileName,
		Source:            r.Source,
		MonthlyExecutions: r.MonthlyExecutions,
	}
}

type AnalysisResponse struct {
	*analyzer.Result
	Session session.Analytics `json:"session"`
}
