package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patient-companion/internal/handler"
	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/reminder"
	"github.com/jwalitptl/patient-companion/internal/wizard"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
	"github.com/jwalitptl/patient-companion/pkg/httputil"
	"github.com/jwalitptl/patient-companion/pkg/logger"
)

// RemoteAPI is the part of the remote service behind the multi-step forms.
type RemoteAPI interface {
	ApplyToBecomeDoctor(ctx context.Context, app model.DoctorApplication) (*model.ApplicationStatus, error)
	GetDoctorApplicationStatus(ctx context.Context) (*model.ApplicationStatus, error)
	SubmitKYCDocuments(ctx context.Context, sub model.KYCSubmission) (*model.KYCStatus, error)
	GetKYCStatus(ctx context.Context) (*model.KYCStatus, error)
	CompleteProfile(ctx context.Context, p model.ProfileCompletion) (*model.PatientProfile, error)
}

type Handler struct {
	api      RemoteAPI
	wizards  *wizard.Store
	sessions *reminder.Registry
	log      *logger.Logger
}

func NewHandler(api RemoteAPI, wizards *wizard.Store, sessions *reminder.Registry, log *logger.Logger) *Handler {
	return &Handler{api: api, wizards: wizards, sessions: sessions, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	wizards := r.Group("/wizards")
	{
		wizards.POST("", h.StartWizard)
		wizards.GET("/:id", h.GetWizard)
		wizards.PATCH("/:id/fields", h.SetFields)
		wizards.PUT("/:id/files/:name", h.AttachFile)
		wizards.POST("/:id/next", h.NextStep)
		wizards.POST("/:id/previous", h.PreviousStep)
		wizards.POST("/:id/submit", h.Submit)
		wizards.DELETE("/:id", h.Discard)
	}

	r.GET("/doctors/application-status", h.ApplicationStatus)

	kyc := r.Group("/kyc")
	{
		kyc.POST("", h.SubmitKYC)
		kyc.GET("/status", h.KYCStatus)
	}
}

type startRequest struct {
	Kind string `json:"kind" binding:"required"`
}

func (h *Handler) StartWizard(c *gin.Context) {
	var req startRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	w, err := h.wizards.Start(req.Kind, handler.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, wizardError(err))
		return
	}
	httputil.RespondCreated(c, w.State())
}

func (h *Handler) GetWizard(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, w.State())
}

type fieldsRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

func (h *Handler) SetFields(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req fieldsRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	w.Set(req.Values)
	httputil.RespondWithSuccess(c, w.State())
}

// AttachFile takes the upload from the "file" form field. An empty upload
// clears the slot.
func (h *Handler) AttachFile(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	file, err := formFile(c, "file")
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("file is required", err))
		return
	}
	if err := w.Attach(c.Param("name"), file); err != nil {
		httputil.RespondWithError(c, wizardError(err))
		return
	}
	httputil.RespondWithSuccess(c, w.State())
}

func (h *Handler) NextStep(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	if err := w.Next(); err != nil {
		httputil.RespondWithError(c, wizardError(err))
		return
	}
	httputil.RespondWithSuccess(c, w.State())
}

func (h *Handler) PreviousStep(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	w.Previous()
	httputil.RespondWithSuccess(c, w.State())
}

func (h *Handler) Discard(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	h.wizards.Delete(w.ID())
	httputil.RespondWithMessage(c, "Wizard discarded")
}

// Submit sends a completed wizard to the remote service. The session is
// kept on failure so the user can retry without re-entering anything.
func (h *Handler) Submit(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	toasts := h.sessions.Session(handler.UserID(c)).Toasts

	values, err := w.Complete()
	if err != nil {
		httputil.RespondWithError(c, wizardError(err))
		return
	}

	var result interface{}
	var success string
	ctx := c.Request.Context()
	switch w.State().Kind {
	case wizard.KindDoctorApplication:
		app, convErr := wizard.DoctorApplicationFrom(values)
		if convErr != nil {
			httputil.RespondWithError(c, apperrors.Validation(convErr.Error(), convErr))
			return
		}
		result, err = h.api.ApplyToBecomeDoctor(ctx, app)
		success = "Application submitted successfully"
	case wizard.KindProfileCompletion:
		result, err = h.api.CompleteProfile(ctx, wizard.ProfileCompletionFrom(values))
		success = "Profile completed successfully"
	default:
		err = apperrors.Internal(fmt.Errorf("no submitter for wizard %s", w.State().Kind))
	}

	if err != nil {
		h.log.Error(err, "Wizard submission failed", "wizard_id", w.ID(), "user_id", handler.UserID(c))
		toasts.Error(submitFailure(err))
		httputil.RespondWithError(c, err)
		return
	}

	w.MarkSubmitted()
	h.wizards.Delete(w.ID())
	toasts.Success(success)
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) ApplicationStatus(c *gin.Context) {
	status, err := h.api.GetDoctorApplicationStatus(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, status)
}

// SubmitKYC accepts a multipart form with documentType, documentNumber and
// the idImage, selfieImage and addressProofImage files.
func (h *Handler) SubmitKYC(c *gin.Context) {
	sub := model.KYCSubmission{
		DocumentType:   model.DocumentType(c.PostForm("documentType")),
		DocumentNumber: c.PostForm("documentNumber"),
	}
	for name, dst := range map[string]**model.File{
		"idImage":           &sub.IDImage,
		"selfieImage":       &sub.SelfieImage,
		"addressProofImage": &sub.AddressProofImage,
	} {
		f, err := formFile(c, name)
		if errors.Is(err, errNoFile) {
			continue
		}
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid upload "+name, err))
			return
		}
		*dst = f
	}

	status, err := h.api.SubmitKYCDocuments(c.Request.Context(), sub)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.sessions.Session(handler.UserID(c)).Toasts.Success("Documents submitted for verification")
	httputil.RespondWithSuccess(c, status)
}

func (h *Handler) KYCStatus(c *gin.Context) {
	status, err := h.api.GetKYCStatus(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, status)
}

func (h *Handler) wizard(c *gin.Context) (*wizard.Wizard, bool) {
	w, err := h.wizards.Get(handler.UserID(c), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, wizardError(err))
		return nil, false
	}
	return w, true
}

var errNoFile = errors.New("no file uploaded")

func formFile(c *gin.Context, name string) (*model.File, error) {
	header, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, errNoFile
	}
	if err != nil {
		return nil, err
	}
	return readFile(header)
}

func readFile(header *multipart.FileHeader) (*model.File, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &model.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func wizardError(err error) error {
	var missing *wizard.MissingError
	switch {
	case errors.As(err, &missing):
		return apperrors.Validation(missing.Error(), err)
	case errors.Is(err, wizard.ErrSessionNotFound):
		return apperrors.NotFound("wizard session", err)
	case errors.Is(err, wizard.ErrAlreadySubmitted):
		return apperrors.Conflict("wizard already submitted", err)
	case errors.Is(err, wizard.ErrUnknownKind),
		errors.Is(err, wizard.ErrUnknownFile),
		errors.Is(err, wizard.ErrLastStep),
		errors.Is(err, wizard.ErrNotLastStep):
		return apperrors.Validation(err.Error(), err)
	}
	return apperrors.Internal(err)
}

func submitFailure(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Submission failed. Please try again."
}
