package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// EmployeeHandler 员工管理处理器
type EmployeeHandler struct {
	repo *repository.EmployeeRepository
}

// NewEmployeeHandler 创建员工管理处理器
func NewEmployeeHandler(repo *repository.EmployeeRepository) *EmployeeHandler {
	return &EmployeeHandler{repo: repo}
}

// ListResponse 员工列表响应
type ListResponse struct {
	Items []model.Employee `json:"items"`
	Total int              `json:"total"`
}

// Collection 处理 /api/v1/employees 集合路由
func (h *EmployeeHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET和POST方法"))
	}
}

// Item 处理 /api/v1/employees/{id} 单体路由
func (h *EmployeeHandler) Item(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/employees/")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的员工ID格式"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET、PUT和DELETE方法"))
	}
}

func (h *EmployeeHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.DefaultListFilter()
	if role := q.Get("role"); role != "" {
		filter = filter.WithRole(role)
	}
	if dept := q.Get("department"); dept != "" {
		filter = filter.WithDepartment(dept)
	}
	if q.Get("active") == "true" {
		filter = filter.WithActiveOnly()
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter = filter.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter = filter.WithOffset(offset)
	}
	filter.Search = q.Get("search")

	items, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工列表失败"))
		return
	}
	if items == nil {
		items = []model.Employee{}
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: items, Total: total})
}

func (h *EmployeeHandler) create(w http.ResponseWriter, r *http.Request) {
	var emp model.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if emp.Name == "" {
		respondError(w, errors.InvalidInput("name", "员工姓名不能为空"))
		return
	}
	if emp.Role == "" {
		emp.Role = model.RoleEmployee
	}

	if err := h.repo.Create(r.Context(), &emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建员工失败"))
		return
	}

	respondJSON(w, http.StatusCreated, emp)
}

func (h *EmployeeHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	emp, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败"))
		return
	}
	if emp == nil {
		respondError(w, errors.NotFound("员工", id.String()))
		return
	}

	respondJSON(w, http.StatusOK, emp)
}

func (h *EmployeeHandler) update(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var emp model.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	emp.ID = id

	if err := h.repo.Update(r.Context(), &emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新员工失败"))
		return
	}

	respondJSON(w, http.StatusOK, emp)
}

func (h *EmployeeHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "删除员工失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": id.String()})
}
