package handler

import (
	"encoding/json"
	"net/http"

	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/engine/normalize"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/banbiao/banbiao/pkg/swap"
	"github.com/google/uuid"
)

// SwapHandler 换班推荐处理器
type SwapHandler struct {
	assignments *repository.AssignmentRepository
	employees   *repository.EmployeeRepository
}

// NewSwapHandler 创建换班推荐处理器
// 仓库可为nil，此时仅支持请求体内联的排班数据
func NewSwapHandler(assignments *repository.AssignmentRepository, employees *repository.EmployeeRepository) *SwapHandler {
	return &SwapHandler{assignments: assignments, employees: employees}
}

// SwapRequest 换班推荐请求
// 指定员工与日期定位需要被接替的班次
type SwapRequest struct {
	Constraints *model.ConstraintDocument `json:"constraints"`
	EmployeeID  string                    `json:"employee_id"`
	Date        string                    `json:"date"`
	RunID       string                    `json:"run_id,omitempty"`
	Employees   []model.Employee          `json:"employees,omitempty"`
	Assignments []model.Assignment        `json:"assignments,omitempty"`
	Options     *swap.Options             `json:"options,omitempty"`
}

// SwapResponse 换班推荐响应
type SwapResponse struct {
	Recommendations []swap.Recommendation `json:"recommendations"`
}

// Recommend 为指定班次推荐接替人选
func (h *SwapHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Constraints == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "约束文档不能为空"))
		return
	}
	if req.EmployeeID == "" || req.Date == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "员工ID和日期不能为空"))
		return
	}

	if len(req.Assignments) == 0 && req.RunID != "" && h.assignments != nil {
		runID, err := uuid.Parse(req.RunID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的run_id格式"))
			return
		}
		assignments, err := h.assignments.ListByRun(r.Context(), runID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载排班数据失败"))
			return
		}
		req.Assignments = assignments
	}
	if len(req.Employees) == 0 && h.employees != nil {
		employees, err := h.employees.ListActive(r.Context())
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败"))
			return
		}
		req.Employees = employees
	}

	var source *model.Assignment
	for i := range req.Assignments {
		if req.Assignments[i].EmployeeID == req.EmployeeID && req.Assignments[i].Date == req.Date {
			source = &req.Assignments[i]
			break
		}
	}
	if source == nil {
		respondError(w, errors.NotFound("排班", req.EmployeeID+"@"+req.Date))
		return
	}

	doc := normalize.Normalize(req.Constraints)
	recommender := swap.NewRecommender(doc)
	recs := recommender.Recommend(*source, req.Employees, req.Assignments, req.Options)
	if recs == nil {
		recs = []swap.Recommendation{}
	}

	respondJSON(w, http.StatusOK, SwapResponse{Recommendations: recs})
}
