package profile

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patient-companion/internal/handler"
	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/pkg/httputil"
)

type RemoteAPI interface {
	GetHealthProfile(ctx context.Context) (*model.HealthProfile, error)
	UpdateHealthMetrics(ctx context.Context, metrics model.HealthMetrics) (*model.HealthProfile, error)
	GetConditions(ctx context.Context) ([]model.Condition, error)
	AddCondition(ctx context.Context, in model.ConditionInput) (*model.Condition, error)
	RemoveCondition(ctx context.Context, id string) error
}

type Handler struct {
	api RemoteAPI
}

func NewHandler(api RemoteAPI) *Handler {
	return &Handler{api: api}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profile := r.Group("/health-profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("/metrics", h.UpdateMetrics)
	}

	conditions := r.Group("/conditions")
	{
		conditions.GET("", h.ListConditions)
		conditions.POST("", h.AddCondition)
		conditions.DELETE("/:id", h.RemoveCondition)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.api.GetHealthProfile(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) UpdateMetrics(c *gin.Context) {
	var metrics model.HealthMetrics
	if !handler.BindJSON(c, &metrics) {
		return
	}
	profile, err := h.api.UpdateHealthMetrics(c.Request.Context(), metrics)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) ListConditions(c *gin.Context) {
	conditions, err := h.api.GetConditions(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, conditions)
}

func (h *Handler) AddCondition(c *gin.Context) {
	var in model.ConditionInput
	if !handler.BindJSON(c, &in) {
		return
	}
	condition, err := h.api.AddCondition(c.Request.Context(), in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, condition)
}

func (h *Handler) RemoveCondition(c *gin.Context) {
	if err := h.api.RemoveCondition(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Condition removed")
}
