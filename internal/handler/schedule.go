// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/banbiao/banbiao/internal/metrics"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/engine"
	"github.com/banbiao/banbiao/pkg/engine/compliance"
	"github.com/banbiao/banbiao/pkg/engine/conflict"
	"github.com/banbiao/banbiao/pkg/engine/normalize"
	"github.com/banbiao/banbiao/pkg/engine/roster"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	generator   *engine.Generator
	employees   *repository.EmployeeRepository
	assignments *repository.AssignmentRepository
	timeout     time.Duration
}

// NewScheduleHandler 创建排班处理器
// employees/assignments 仓库可为nil，此时仅支持请求体内联的员工数据
func NewScheduleHandler(gen *engine.Generator, employees *repository.EmployeeRepository, assignments *repository.AssignmentRepository, timeout time.Duration) *ScheduleHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ScheduleHandler{
		generator:   gen,
		employees:   employees,
		assignments: assignments,
		timeout:     timeout,
	}
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	Constraints *model.ConstraintDocument `json:"constraints"`
	StartDate   string                    `json:"start_date"`
	EndDate     string                    `json:"end_date"`
	Employees   []model.Employee          `json:"employees,omitempty"`
	EmployeeIDs []string                  `json:"employee_ids,omitempty"`
	Persist     bool                      `json:"persist,omitempty"`
	Options     *GenerateOptions          `json:"options,omitempty"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Timeout int `json:"timeout_seconds,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success      bool                  `json:"success"`
	RunID        string                `json:"run_id"`
	Method       string                `json:"method"`
	Message      string                `json:"message,omitempty"`
	Assignments  []model.Assignment    `json:"assignments"`
	Conflicts    *model.ConflictReport `json:"conflicts,omitempty"`
	AppliedFixes []conflict.AppliedFix `json:"applied_fixes,omitempty"`
	Compliance   *compliance.Report    `json:"compliance,omitempty"`
	Persisted    bool                  `json:"persisted,omitempty"`
	Duration     string                `json:"duration"`
}

// Generate 生成排班
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if appErr := validateGenerateRequest(&req); appErr != nil {
		respondError(w, appErr)
		return
	}

	employees, appErr := h.resolveEmployees(r.Context(), &req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	timeout := h.timeout
	if req.Options != nil && req.Options.Timeout > 0 {
		timeout = time.Duration(req.Options.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	result, err := h.generator.Generate(ctx, &engine.Request{
		Constraints: req.Constraints,
		Employees:   employees,
		Period:      model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate},
	})
	if err != nil {
		h.recordOutcome(result, false, time.Since(start))
		// 生成类错误携带诊断信息，返回结构化响应而非纯错误体
		if result != nil && (errors.Is(err, errors.CodeNoEligibleEmployees) || errors.Is(err, errors.CodeGenerationFailed)) {
			respondJSON(w, errors.GetHTTPStatus(err), GenerateResponse{
				Success:      false,
				RunID:        result.RunID,
				Method:       result.Method,
				Message:      err.Error(),
				Assignments:  []model.Assignment{},
				Conflicts:    result.Conflicts,
				AppliedFixes: result.AppliedFixes,
				Duration:     result.Elapsed.String(),
			})
			return
		}
		if errors.Is(err, errors.CodeTimeout) {
			respondError(w, errors.New(errors.CodeTimeout, "排班计算超时，请尝试减少员工数量或缩短排班周期"))
			return
		}
		respondError(w, asAppError(err))
		return
	}

	h.recordOutcome(result, true, result.Elapsed)

	persisted := false
	if req.Persist && h.assignments != nil && len(result.Assignments) > 0 {
		runID, parseErr := uuid.Parse(result.RunID)
		if parseErr == nil {
			if saveErr := h.assignments.SaveRun(r.Context(), runID, result.Assignments); saveErr == nil {
				persisted = true
			} else {
				respondError(w, errors.Wrap(saveErr, errors.CodeDatabaseError, "排班结果保存失败"))
				return
			}
		}
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:      true,
		RunID:        result.RunID,
		Method:       result.Method,
		Assignments:  result.Assignments,
		Conflicts:    result.Conflicts,
		AppliedFixes: result.AppliedFixes,
		Compliance:   result.Compliance,
		Persisted:    persisted,
		Duration:     result.Elapsed.String(),
	})
}

// resolveEmployees 按优先级确定参与排班的员工集合
// 内联员工 > 指定ID列表 > 全部在职员工
func (h *ScheduleHandler) resolveEmployees(ctx context.Context, req *GenerateRequest) ([]model.Employee, *errors.AppError) {
	if len(req.Employees) > 0 {
		return req.Employees, nil
	}
	if h.employees == nil {
		return nil, errors.New(errors.CodeInvalidInput, "员工列表不能为空")
	}
	if len(req.EmployeeIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(req.EmployeeIDs))
		for _, raw := range req.EmployeeIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的员工ID格式: "+raw)
			}
			ids = append(ids, id)
		}
		employees, err := h.employees.ListByIDs(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败")
		}
		return employees, nil
	}
	employees, err := h.employees.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败")
	}
	return employees, nil
}

// recordOutcome 上报生成结果相关指标
func (h *ScheduleHandler) recordOutcome(result *engine.Result, success bool, elapsed time.Duration) {
	method := engine.MethodNone
	if result != nil {
		method = result.Method
	}
	metrics.RecordGeneration(method, success, elapsed)
	metrics.SetBreakerState(int(h.generator.Breaker().State()))
	if result == nil {
		return
	}
	if result.Conflicts != nil {
		metrics.RecordConflicts(result.Conflicts.CriticalCount, result.Conflicts.WarningCount)
	}
	for _, fix := range result.AppliedFixes {
		metrics.RecordAutoFix(fix.Action)
	}
	if result.Compliance != nil {
		metrics.SetComplianceRate(result.Compliance.ComplianceRate)
	}
}

// validateGenerateRequest 验证请求
func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.Constraints == nil {
		ve.Add("constraints", "约束文档不能为空")
	}
	if req.StartDate == "" {
		ve.Add("start_date", "开始日期不能为空")
	}
	if req.EndDate == "" {
		ve.Add("end_date", "结束日期不能为空")
	}

	if req.StartDate != "" {
		if _, err := time.Parse("2006-01-02", req.StartDate); err != nil {
			ve.Add("start_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}
	if req.EndDate != "" {
		if _, err := time.Parse("2006-01-02", req.EndDate); err != nil {
			ve.Add("end_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// AnalyzeRequest 约束冲突分析请求
type AnalyzeRequest struct {
	Constraints *model.ConstraintDocument `json:"constraints"`
	Employees   []model.Employee          `json:"employees,omitempty"`
	EmployeeIDs []string                  `json:"employee_ids,omitempty"`
}

// AnalyzeResponse 约束冲突分析响应
type AnalyzeResponse struct {
	Report        *model.ConflictReport `json:"report"`
	EligibleCount int                   `json:"eligible_count"`
	TotalCount    int                   `json:"total_count"`
}

// Analyze 仅做冲突检测，不触发求解
func (h *ScheduleHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Constraints == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "约束文档不能为空"))
		return
	}

	employees, appErr := h.resolveEmployees(r.Context(), &GenerateRequest{
		Employees:   req.Employees,
		EmployeeIDs: req.EmployeeIDs,
	})
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	doc := normalize.Normalize(req.Constraints)
	if err := doc.Validate(); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "约束文档无效"))
		return
	}

	// 筛选依据原始约束，避免归一化注入的默认角色清单误伤员工
	eligible := roster.Filter(employees, req.Constraints)
	report := conflict.Detect(doc, eligible)
	metrics.RecordConflicts(report.CriticalCount, report.WarningCount)

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Report:        report,
		EligibleCount: len(eligible),
		TotalCount:    len(employees),
	})
}

// ResolveRequest 人工确认的约束修复请求
type ResolveRequest struct {
	Constraints *model.ConstraintDocument `json:"constraints"`
	Employees   []model.Employee          `json:"employees,omitempty"`
	EmployeeIDs []string                  `json:"employee_ids,omitempty"`
}

// ResolveResponse 修复后的约束文档与复检报告
type ResolveResponse struct {
	Constraints  *model.ConstraintDocument `json:"constraints"`
	AppliedFixes []conflict.AppliedFix     `json:"applied_fixes"`
	Report       *model.ConflictReport     `json:"report"`
}

// Resolve 应用检测报告中的全部可修复建议并返回修复后的约束
// 与生成流程内的自动修复不同，此接口会执行启用营业日等经营决策类修复
func (h *ScheduleHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Constraints == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "约束文档不能为空"))
		return
	}

	employees, appErr := h.resolveEmployees(r.Context(), &GenerateRequest{
		Employees:   req.Employees,
		EmployeeIDs: req.EmployeeIDs,
	})
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	doc := normalize.Normalize(req.Constraints)
	if err := doc.Validate(); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "约束文档无效"))
		return
	}

	eligible := roster.Filter(employees, req.Constraints)
	report := conflict.Detect(doc, eligible)

	// 修复作用于调用方的原始文档，返回结果可直接回传生成接口
	fixed, fixes := conflict.ApplySuggestions(req.Constraints, report.Suggestions)
	again := conflict.Detect(normalize.Normalize(fixed), eligible)

	for _, fix := range fixes {
		metrics.RecordAutoFix(fix.Action)
	}

	respondJSON(w, http.StatusOK, ResolveResponse{
		Constraints:  fixed,
		AppliedFixes: fixes,
		Report:       again,
	})
}

// ValidateRequest 排班合规校验请求
type ValidateRequest struct {
	Constraints *model.ConstraintDocument `json:"constraints"`
	Assignments []model.Assignment        `json:"assignments"`
}

// Validate 校验一份既有排班是否满足劳动规则
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Constraints == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "约束文档不能为空"))
		return
	}

	doc := normalize.Normalize(req.Constraints)
	report := compliance.Validate(req.Assignments, doc)
	metrics.SetComplianceRate(report.ComplianceRate)

	respondJSON(w, http.StatusOK, struct {
		*compliance.Report
		Advisories []compliance.Advisory `json:"advisories,omitempty"`
	}{
		Report:     report,
		Advisories: compliance.Advise(req.Assignments, doc),
	})
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}

// asAppError 将任意错误规整为AppError
func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "排班失败")
}
