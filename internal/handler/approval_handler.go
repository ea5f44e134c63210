package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/pkg/response"
)

type approvalService interface {
	TutorQueue(ctx context.Context, actor *models.JWTClaims, query dto.QueueQuery) (*dto.TutorQueue, error)
	ManagerQueue(ctx context.Context, actor *models.JWTClaims, query dto.QueueQuery) (*dto.ManagerQueue, error)
	TutorDecide(ctx context.Context, actor *models.JWTClaims, req dto.TutorActionRequest, meta models.RequestMeta) (*dto.TransitionResponse, error)
	ManagerDecide(ctx context.Context, actor *models.JWTClaims, req dto.ManagerActionRequest, meta models.RequestMeta) (*dto.TransitionResponse, error)
}

type pdfService interface {
	Generate(ctx context.Context, actor *models.JWTClaims, formID, variant string, meta models.RequestMeta) (*dto.PDFLinkResponse, error)
}

// ApprovalHandler serves the tutor and manager review endpoints.
type ApprovalHandler struct {
	service approvalService
	pdf     pdfService
}

// NewApprovalHandler builds the handler.
func NewApprovalHandler(svc approvalService, pdf pdfService) *ApprovalHandler {
	return &ApprovalHandler{service: svc, pdf: pdf}
}

func queueQuery(c *gin.Context) dto.QueueQuery {
	page, pageSize := pageParams(c)
	return dto.QueueQuery{Status: c.Query("status"), Search: c.Query("search"), Page: page, PageSize: pageSize}
}

// TutorQueue godoc
// @Summary List forms assigned to the tutor
// @Tags Tutor
// @Produce json
// @Param status query string false "pending | signed | rejected | all"
// @Param search query string false "Form number, registration number or student name"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tutor/sign [get]
func (h *ApprovalHandler) TutorQueue(c *gin.Context) {
	queue, err := h.service.TutorQueue(c.Request.Context(), claimsFromContext(c), queueQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queue, queue.Pagination)
}

// TutorDecide godoc
// @Summary Sign or reject a submitted form
// @Tags Tutor
// @Accept json
// @Produce json
// @Param payload body dto.TutorActionRequest true "Tutor decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor/sign [put]
func (h *ApprovalHandler) TutorDecide(c *gin.Context) {
	var req dto.TutorActionRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	res, err := h.service.TutorDecide(c.Request.Context(), claimsFromContext(c), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ManagerQueue godoc
// @Summary List department forms awaiting or past verification
// @Tags Manager
// @Produce json
// @Param status query string false "pending | approved | rejected | all"
// @Param search query string false "Form number, registration number or student name"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /manager/approval [get]
func (h *ApprovalHandler) ManagerQueue(c *gin.Context) {
	queue, err := h.service.ManagerQueue(c.Request.Context(), claimsFromContext(c), queueQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queue, queue.Pagination)
}

// ManagerDecide godoc
// @Summary Approve or reject a tutor-signed form
// @Tags Manager
// @Accept json
// @Produce json
// @Param payload body dto.ManagerActionRequest true "Manager decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /manager/approval [put]
func (h *ApprovalHandler) ManagerDecide(c *gin.Context) {
	var req dto.ManagerActionRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	res, err := h.service.ManagerDecide(c.Request.Context(), claimsFromContext(c), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ManagerPDF godoc
// @Summary Render a copy of an approved form
// @Tags Manager
// @Produce json
// @Param id path string true "Form ID"
// @Param copy query string false "student | advisor | control | director"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /manager/approval/{id}/pdf [post]
func (h *ApprovalHandler) ManagerPDF(c *gin.Context) {
	link, err := h.pdf.Generate(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Query("copy"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}
