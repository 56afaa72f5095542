package medication

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patient-companion/internal/handler"
	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/reminder"
	"github.com/jwalitptl/patient-companion/internal/repository"
	"github.com/jwalitptl/patient-companion/internal/service/medication"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
	"github.com/jwalitptl/patient-companion/pkg/httputil"
)

type Handler struct {
	service    medication.Service
	sessions   *reminder.Registry
	contacts   repository.ContactRepository
	deliveries repository.DeliveryRepository
}

// NewHandler wires the medication screens. contacts and deliveries may be
// nil when the service runs without a database.
func NewHandler(service medication.Service, sessions *reminder.Registry, contacts repository.ContactRepository, deliveries repository.DeliveryRepository) *Handler {
	return &Handler{
		service:    service,
		sessions:   sessions,
		contacts:   contacts,
		deliveries: deliveries,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	meds := r.Group("/medications")
	{
		meds.GET("", h.ListMedications)
		meds.POST("", h.AddMedication)
		meds.POST("/refresh", h.Refresh)
		meds.PATCH("/:id/enabled", h.ToggleMedication)
		meds.DELETE("/:id", h.DeleteMedication)
	}

	reminders := r.Group("/reminders")
	{
		reminders.GET("/upcoming", h.Upcoming)
		reminders.GET("/handles", h.Handles)
		if h.deliveries != nil {
			reminders.GET("/deliveries", h.Deliveries)
		}
		if h.contacts != nil {
			reminders.GET("/contact", h.GetContact)
			reminders.PUT("/contact", h.SaveContact)
			reminders.DELETE("/contact", h.DeleteContact)
		}
	}

	notifications := r.Group("/notifications")
	{
		notifications.PUT("/permission", h.SetPermission)
		notifications.PUT("/preferences", h.UpdatePreferences)
		notifications.POST("/response", h.NotificationResponse)
	}

	toasts := r.Group("/toasts")
	{
		toasts.GET("/current", h.CurrentToast)
		toasts.DELETE("/current", h.HideToast)
	}
}

func (h *Handler) Refresh(c *gin.Context) {
	overview, err := h.service.Refresh(c.Request.Context(), handler.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, overview)
}

func (h *Handler) ListMedications(c *gin.Context) {
	meds, err := h.service.Medications(c.Request.Context(), handler.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, meds)
}

func (h *Handler) AddMedication(c *gin.Context) {
	var in model.MedicationInput
	if !handler.BindJSON(c, &in) {
		return
	}

	med, err := h.service.Add(c.Request.Context(), handler.UserID(c), in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, med)
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) ToggleMedication(c *gin.Context) {
	var req toggleRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	med, err := h.service.Toggle(c.Request.Context(), handler.UserID(c), c.Param("id"), *req.Enabled)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, med)
}

func (h *Handler) DeleteMedication(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), handler.UserID(c), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Medication deleted")
}

func (h *Handler) Upcoming(c *gin.Context) {
	upcoming, err := h.service.Upcoming(c.Request.Context(), handler.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, upcoming)
}

func (h *Handler) Handles(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.sessions.Session(handler.UserID(c)).Scheduler.Handles())
}

type permissionRequest struct {
	Granted *bool `json:"granted" binding:"required"`
}

func (h *Handler) SetPermission(c *gin.Context) {
	var req permissionRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	summary, err := h.service.SetPermission(c.Request.Context(), handler.UserID(c), *req.Granted)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	var prefs model.NotificationPreferences
	if !handler.BindJSON(c, &prefs) {
		return
	}

	summary, err := h.service.UpdatePreferences(c.Request.Context(), handler.UserID(c), prefs)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

// NotificationResponse handles a tap on a delivered reminder.
func (h *Handler) NotificationResponse(c *gin.Context) {
	var resp model.NotificationResponse
	if !handler.BindJSON(c, &resp) {
		return
	}

	med, err := h.service.MarkTaken(c.Request.Context(), handler.UserID(c), resp)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, med)
}

func (h *Handler) CurrentToast(c *gin.Context) {
	t, ok := h.sessions.Session(handler.UserID(c)).Toasts.Current()
	if !ok {
		httputil.RespondWithSuccess(c, nil)
		return
	}
	httputil.RespondWithSuccess(c, t)
}

func (h *Handler) HideToast(c *gin.Context) {
	h.sessions.Session(handler.UserID(c)).Toasts.Hide()
	httputil.RespondWithMessage(c, "Toast hidden")
}

func (h *Handler) Deliveries(c *gin.Context) {
	_, limit := handler.Paging(c, 50)
	filter := model.DeliveryFilter{
		PatientID:    handler.UserID(c),
		MedicationID: c.Query("medicationId"),
		Limit:        limit,
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("since must be an RFC3339 timestamp", err))
			return
		}
		filter.Since = &t
	}

	deliveries, err := h.deliveries.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, deliveries)
}

func (h *Handler) GetContact(c *gin.Context) {
	contact, err := h.contacts.Get(c.Request.Context(), handler.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, contactError(err))
		return
	}
	httputil.RespondWithSuccess(c, contact)
}

func (h *Handler) SaveContact(c *gin.Context) {
	var contact model.ReminderContact
	if !handler.BindJSON(c, &contact) {
		return
	}
	contact.PatientID = handler.UserID(c)

	if err := h.contacts.Upsert(c.Request.Context(), &contact); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, contact)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), handler.UserID(c)); err != nil {
		httputil.RespondWithError(c, contactError(err))
		return
	}
	httputil.RespondWithMessage(c, "Reminder contact removed")
}

func contactError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("reminder contact", err)
	}
	return apperrors.Internal(err)
}
