package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payguard/upi-risk-engine/internal/engine"
	"github.com/payguard/upi-risk-engine/internal/services"
	"github.com/payguard/upi-risk-engine/internal/views"
	"github.com/payguard/upi-risk-engine/pkg"
	"github.com/payguard/upi-risk-engine/pkg/utils"
	"go.uber.org/zap"
)

type EvaluationHandler struct {
	logger  *zap.Logger
	service services.EvaluationService
	health  *engine.HealthMonitor
	scorer  string
}

func NewEvaluationHandler(logger *zap.Logger, svc services.EvaluationService, health *engine.HealthMonitor, scorerName string) *EvaluationHandler {
	return &EvaluationHandler{logger: logger, service: svc, health: health, scorer: scorerName}
}

// RegisterRoutes registers evaluation routes on the provided Gin group.
func (h *EvaluationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/evaluations", h.Evaluate)
	r.GET("/health", h.Health)
}

func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	var req views.EvaluationRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.Evaluate(c.Request.Context(), traceID, req)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data:    result,
	})
}

// Health reports engine liveness plus the scoring backend's last probe state.
func (h *EvaluationHandler) Health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if h.health != nil && !h.health.Healthy() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, views.HealthView{Status: status, Scorer: h.scorer})
}
