package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/pkg/response"
)

type ugformService interface {
	Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitUGFormRequest, meta models.RequestMeta) (*dto.SubmitUGFormResponse, error)
	ListMine(ctx context.Context, actor *models.JWTClaims, page, pageSize int) ([]models.UGForm, *models.Pagination, error)
	GetMine(ctx context.Context, actor *models.JWTClaims, id string) (*models.UGForm, error)
	Autofill(ctx context.Context, actor *models.JWTClaims) (*dto.AutofillResponse, error)
	GlobalStats(ctx context.Context) (*dto.StatusSummary, error)
	Activity(ctx context.Context, id string) ([]models.AuditLog, error)
	ListAll(ctx context.Context, statuses []models.UGFormStatus, search string, page, pageSize int) ([]models.UGForm, *models.Pagination, error)
	ListCompleted(ctx context.Context, search string, page, pageSize int) ([]models.UGForm, *models.Pagination, error)
}

type notificationLister interface {
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Notification, error)
}

// UGFormHandler serves student form endpoints and the read-only admin and DG office views.
type UGFormHandler struct {
	service       ugformService
	pdf           pdfService
	notifications notificationLister
}

// NewUGFormHandler builds the handler.
func NewUGFormHandler(svc ugformService, pdf pdfService, notifications notificationLister) *UGFormHandler {
	return &UGFormHandler{service: svc, pdf: pdf, notifications: notifications}
}

// Submit godoc
// @Summary Submit a UG-1 form
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body dto.SubmitUGFormRequest true "Form draft"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/ugform/submit [post]
func (h *UGFormHandler) Submit(c *gin.Context) {
	var req dto.SubmitUGFormRequest
	if !bindJSON(c, &req, "invalid form payload") {
		return
	}
	res, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListMine godoc
// @Summary List the student's own forms
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/ugform [get]
func (h *UGFormHandler) ListMine(c *gin.Context) {
	page, pageSize := pageParams(c)
	forms, pagination, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, pagination)
}

// GetMine godoc
// @Summary Get one of the student's forms
// @Tags Student
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/ugform/{id} [get]
func (h *UGFormHandler) GetMine(c *gin.Context) {
	form, err := h.service.GetMine(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Autofill godoc
// @Summary Prefill a new form
// @Description Requires an approved fee verification
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/ugform/autofill [get]
func (h *UGFormHandler) Autofill(c *gin.Context) {
	res, err := h.service.Autofill(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// StudentPDF godoc
// @Summary Render the student copy of an approved form
// @Tags Student
// @Produce json
// @Param id path string true "Form ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/ugform/{id}/pdf [post]
func (h *UGFormHandler) StudentPDF(c *gin.Context) {
	link, err := h.pdf.Generate(c.Request.Context(), claimsFromContext(c), c.Param("id"), string(models.PDFCopyStudent), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Notifications godoc
// @Summary List the caller's notifications
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/notifications [get]
func (h *UGFormHandler) Notifications(c *gin.Context) {
	items, err := h.notifications.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Stats godoc
// @Summary Global per-status form counts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/ugforms/stats [get]
func (h *UGFormHandler) Stats(c *gin.Context) {
	summary, err := h.service.GlobalStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ListAll godoc
// @Summary List forms across departments
// @Tags Admin
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /admin/ugforms [get]
func (h *UGFormHandler) ListAll(c *gin.Context) {
	var statuses []models.UGFormStatus
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if s := strings.TrimSpace(raw); s != "" {
			statuses = append(statuses, models.UGFormStatus(s))
		}
	}
	page, pageSize := pageParams(c)
	forms, pagination, err := h.service.ListAll(c.Request.Context(), statuses, c.Query("search"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, pagination)
}

// Activity godoc
// @Summary Audit trail of a form
// @Tags Admin
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/ugforms/{id}/activity [get]
func (h *UGFormHandler) Activity(c *gin.Context) {
	logs, err := h.service.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Completed godoc
// @Summary List approved forms
// @Tags DG Office
// @Produce json
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /dg-office/ugforms [get]
func (h *UGFormHandler) Completed(c *gin.Context) {
	page, pageSize := pageParams(c)
	forms, pagination, err := h.service.ListCompleted(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, pagination)
}
