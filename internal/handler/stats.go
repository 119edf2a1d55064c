package handler

import (
	"encoding/json"
	"net/http"

	"github.com/banbiao/banbiao/internal/metrics"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/engine/normalize"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/stats"
	"github.com/google/uuid"
)

// StatsHandler 统计分析处理器
type StatsHandler struct {
	assignments *repository.AssignmentRepository
	employees   *repository.EmployeeRepository
}

// NewStatsHandler 创建统计分析处理器
// 仓库可为nil，此时仅支持请求体内联的排班数据
func NewStatsHandler(assignments *repository.AssignmentRepository, employees *repository.EmployeeRepository) *StatsHandler {
	return &StatsHandler{assignments: assignments, employees: employees}
}

// StatsRequest 统计请求
// 排班数据可内联，也可通过run_id从存储加载
type StatsRequest struct {
	RunID       string                    `json:"run_id,omitempty"`
	StartDate   string                    `json:"start_date,omitempty"`
	EndDate     string                    `json:"end_date,omitempty"`
	Constraints *model.ConstraintDocument `json:"constraints,omitempty"`
	Employees   []model.Employee          `json:"employees,omitempty"`
	Assignments []model.Assignment        `json:"assignments,omitempty"`
}

// FairnessResponse 公平性响应
type FairnessResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.FairnessMetrics `json:"data,omitempty"`
}

// CoverageResponse 覆盖率响应
type CoverageResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.CoverageMetrics `json:"data,omitempty"`
}

// WorkloadResponse 工作量响应
type WorkloadResponse struct {
	Success bool             `json:"success"`
	Data    *WorkloadSummary `json:"data,omitempty"`
}

// WorkloadSummary 工作量汇总
type WorkloadSummary struct {
	Period            string             `json:"period"`
	TotalHours        float64            `json:"total_hours"`
	TotalShifts       int                `json:"total_shifts"`
	EmployeeCount     int                `json:"employee_count"`
	AvgHoursPerPerson float64            `json:"avg_hours_per_person"`
	ByEmployee        map[string]float64 `json:"by_employee"`
	ShiftsByEmployee  map[string]int     `json:"shifts_by_employee"`
}

// Fairness 公平性分析API
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeStatsRequest(w, r)
	if !ok {
		return
	}

	logger.Info().
		Int("employees", len(req.Employees)).
		Int("assignments", len(req.Assignments)).
		Msg("接收公平性分析请求")

	analyzer := stats.NewFairnessAnalyzer()
	if req.Constraints != nil && req.Constraints.MaxHoursPerWeek > 0 {
		analyzer.SetStandardWeeklyHours(req.Constraints.MaxHoursPerWeek)
	}
	data := analyzer.Analyze(req.Assignments, req.Employees)

	metrics.SetFairnessGini("workload", data.WorkloadGini)
	metrics.SetFairnessGini("night_shift", data.NightShiftGini)
	metrics.SetFairnessGini("weekend_shift", data.WeekendShiftGini)

	respondJSON(w, http.StatusOK, FairnessResponse{Success: true, Data: data})
}

// Coverage 覆盖率分析API
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeStatsRequest(w, r)
	if !ok {
		return
	}
	if req.Constraints == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "覆盖率分析需要约束文档"))
		return
	}

	dates := model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate}.Days()
	if len(dates) == 0 {
		respondError(w, errors.New(errors.CodeInvalidTimeRange, "日期范围无效"))
		return
	}

	doc := normalize.Normalize(req.Constraints)
	data := stats.NewCoverageAnalyzer().Analyze(doc, req.Assignments, dates)
	metrics.SetCoverageRate(data.OverallCoverage)

	respondJSON(w, http.StatusOK, CoverageResponse{Success: true, Data: data})
}

// Workload 工作量统计API
func (h *StatsHandler) Workload(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeStatsRequest(w, r)
	if !ok {
		return
	}

	hours := model.HoursByEmployee(req.Assignments)
	counts := model.CountByEmployee(req.Assignments)

	var total float64
	for _, v := range hours {
		total += v
	}
	avg := 0.0
	if len(hours) > 0 {
		avg = total / float64(len(hours))
	}

	respondJSON(w, http.StatusOK, WorkloadResponse{
		Success: true,
		Data: &WorkloadSummary{
			Period:            req.StartDate + " ~ " + req.EndDate,
			TotalHours:        total,
			TotalShifts:       len(req.Assignments),
			EmployeeCount:     len(hours),
			AvgHoursPerPerson: avg,
			ByEmployee:        hours,
			ShiftsByEmployee:  counts,
		},
	})
}

// decodeStatsRequest 解析统计请求并按需从存储补全排班数据
func (h *StatsHandler) decodeStatsRequest(w http.ResponseWriter, r *http.Request) (*StatsRequest, bool) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return nil, false
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return nil, false
	}

	if len(req.Assignments) == 0 && req.RunID != "" {
		if h.assignments == nil {
			respondError(w, errors.New(errors.CodeInvalidInput, "未配置存储，无法按run_id加载排班"))
			return nil, false
		}
		runID, err := uuid.Parse(req.RunID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的run_id格式"))
			return nil, false
		}
		assignments, err := h.assignments.ListByRun(r.Context(), runID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载排班数据失败"))
			return nil, false
		}
		req.Assignments = assignments
	}

	if len(req.Employees) == 0 && h.employees != nil {
		employees, err := h.employees.ListActive(r.Context())
		if err == nil {
			req.Employees = employees
		}
	}

	return &req, true
}
