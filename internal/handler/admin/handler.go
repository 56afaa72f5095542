package admin

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patient-companion/internal/handler"
	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/pkg/httputil"
)

type RemoteAPI interface {
	GetAllAnalytics(ctx context.Context) (*model.Analytics, error)
	GetDoctor(ctx context.Context, id string) (*model.DoctorProfile, error)
	ApproveDoctor(ctx context.Context, id string) (*model.DoctorProfile, error)
	RejectDoctor(ctx context.Context, id, reason string) (*model.DoctorProfile, error)
	SuspendDoctor(ctx context.Context, id, reason string) (*model.DoctorProfile, error)
	UnsuspendDoctor(ctx context.Context, id string) (*model.DoctorProfile, error)
	DeleteDoctor(ctx context.Context, id string) error
	ActivatePatient(ctx context.Context, id string) (*model.PatientProfile, error)
	DeactivatePatient(ctx context.Context, id string) (*model.PatientProfile, error)
}

type Handler struct {
	api RemoteAPI
}

func NewHandler(api RemoteAPI) *Handler {
	return &Handler{api: api}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/analytics", h.Analytics)

		admin.GET("/doctors/:id", h.GetDoctor)
		admin.POST("/doctors/:id/approve", h.ApproveDoctor)
		admin.POST("/doctors/:id/reject", h.RejectDoctor)
		admin.POST("/doctors/:id/suspend", h.SuspendDoctor)
		admin.POST("/doctors/:id/unsuspend", h.UnsuspendDoctor)
		admin.DELETE("/doctors/:id", h.DeleteDoctor)

		admin.POST("/patients/:id/activate", h.ActivatePatient)
		admin.POST("/patients/:id/deactivate", h.DeactivatePatient)
	}
}

func (h *Handler) Analytics(c *gin.Context) {
	analytics, err := h.api.GetAllAnalytics(c.Request.Context())
	respond(c, analytics, err)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	doctor, err := h.api.GetDoctor(c.Request.Context(), c.Param("id"))
	respond(c, doctor, err)
}

func (h *Handler) ApproveDoctor(c *gin.Context) {
	doctor, err := h.api.ApproveDoctor(c.Request.Context(), c.Param("id"))
	respond(c, doctor, err)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) RejectDoctor(c *gin.Context) {
	var req rejectRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	doctor, err := h.api.RejectDoctor(c.Request.Context(), c.Param("id"), req.Reason)
	respond(c, doctor, err)
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

// SuspendDoctor takes an optional reason; an empty body is fine.
func (h *Handler) SuspendDoctor(c *gin.Context) {
	var req suspendRequest
	if c.Request.ContentLength > 0 && !handler.BindJSON(c, &req) {
		return
	}
	doctor, err := h.api.SuspendDoctor(c.Request.Context(), c.Param("id"), req.Reason)
	respond(c, doctor, err)
}

func (h *Handler) UnsuspendDoctor(c *gin.Context) {
	doctor, err := h.api.UnsuspendDoctor(c.Request.Context(), c.Param("id"))
	respond(c, doctor, err)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.api.DeleteDoctor(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Doctor deleted")
}

func (h *Handler) ActivatePatient(c *gin.Context) {
	patient, err := h.api.ActivatePatient(c.Request.Context(), c.Param("id"))
	respond(c, patient, err)
}

func (h *Handler) DeactivatePatient(c *gin.Context) {
	patient, err := h.api.DeactivatePatient(c.Request.Context(), c.Param("id"))
	respond(c, patient, err)
}

func respond(c *gin.Context, data interface{}, err error) {
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, data)
}
