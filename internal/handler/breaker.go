package handler

import (
	"net/http"

	"github.com/banbiao/banbiao/internal/metrics"
	"github.com/banbiao/banbiao/pkg/engine/breaker"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/logger"
)

// BreakerHandler 求解器熔断状态处理器
type BreakerHandler struct {
	breaker *breaker.Breaker
}

// NewBreakerHandler 创建熔断状态处理器
func NewBreakerHandler(b *breaker.Breaker) *BreakerHandler {
	return &BreakerHandler{breaker: b}
}

// BreakerStatusResponse 熔断状态响应
type BreakerStatusResponse struct {
	State    string `json:"state"`
	Failures int    `json:"failures"`
	Allowing bool   `json:"allowing"`
}

// Status 查询熔断器当前状态
func (h *BreakerHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	state := h.breaker.State()
	respondJSON(w, http.StatusOK, BreakerStatusResponse{
		State:    state.String(),
		Failures: h.breaker.Failures(),
		Allowing: state != breaker.StateOpen,
	})
}

// Reset 手动复位熔断器
func (h *BreakerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	h.breaker.Reset()
	metrics.SetBreakerState(int(breaker.StateClosed))
	logger.Info().Msg("熔断器已手动复位")

	respondJSON(w, http.StatusOK, BreakerStatusResponse{
		State:    breaker.StateClosed.String(),
		Failures: 0,
		Allowing: true,
	})
}
