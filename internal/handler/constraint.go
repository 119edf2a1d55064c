package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/banbiao/banbiao/internal/constraints"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/engine/normalize"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/model"
	"github.com/google/uuid"
)

// ConstraintHandler 约束文档处理器
type ConstraintHandler struct {
	repo *repository.ConstraintRepository
}

// NewConstraintHandler 创建约束文档处理器
func NewConstraintHandler(repo *repository.ConstraintRepository) *ConstraintHandler {
	return &ConstraintHandler{repo: repo}
}

// SaveConstraintResponse 保存约束文档响应
type SaveConstraintResponse struct {
	ID       string                    `json:"id"`
	Document *model.ConstraintDocument `json:"document"`
}

// Collection 处理 /api/v1/constraints 集合路由
// GET返回最近保存的文档，POST保存新文档
func (h *ConstraintHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.latest(w, r)
	case http.MethodPost:
		h.save(w, r)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET和POST方法"))
	}
}

// Item 处理 /api/v1/constraints/{id} 单体路由
func (h *ConstraintHandler) Item(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/constraints/")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的约束文档ID格式"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询约束文档失败"))
			return
		}
		if doc == nil {
			respondError(w, errors.NotFound("约束文档", id.String()))
			return
		}
		respondJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := h.repo.Delete(r.Context(), id); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "删除约束文档失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": id.String()})
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET和DELETE方法"))
	}
}

// ConstraintPresets 返回内置的约束文档预设
// 纯静态数据，不依赖存储
func ConstraintPresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	if scenario := r.URL.Query().Get("scenario"); scenario != "" {
		preset := constraints.FindPreset(scenario)
		if preset == nil {
			respondError(w, errors.NotFound("约束预设", scenario))
			return
		}
		respondJSON(w, http.StatusOK, preset)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": constraints.GetPresets(),
	})
}

func (h *ConstraintHandler) save(w http.ResponseWriter, r *http.Request) {
	var doc model.ConstraintDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	// 保存前先归一并校验，避免存入无法求解的文档
	normalized := normalize.Normalize(&doc)
	if err := normalized.Validate(); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "约束文档无效"))
		return
	}

	id := doc.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	if err := h.repo.Save(r.Context(), id, normalized); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存约束文档失败"))
		return
	}

	respondJSON(w, http.StatusCreated, SaveConstraintResponse{ID: id.String(), Document: normalized})
}

func (h *ConstraintHandler) latest(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.Latest(r.Context())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询约束文档失败"))
		return
	}
	if doc == nil {
		respondError(w, errors.New(errors.CodeNotFound, "尚未保存任何约束文档"))
		return
	}

	respondJSON(w, http.StatusOK, doc)
}
