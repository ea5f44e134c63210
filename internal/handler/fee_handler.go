package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/pkg/response"
)

type feeService interface {
	Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitFeeRequest, meta models.RequestMeta) (*models.FeeVerification, error)
	List(ctx context.Context, actor *models.JWTClaims, status string, page, pageSize int) ([]models.FeeVerification, *models.Pagination, error)
	Review(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewFeeRequest, meta models.RequestMeta) (*models.FeeVerification, error)
}

// FeeHandler exposes fee voucher endpoints.
type FeeHandler struct {
	service feeService
}

// NewFeeHandler builds the handler.
func NewFeeHandler(svc feeService) *FeeHandler {
	return &FeeHandler{service: svc}
}

// Submit godoc
// @Summary Submit a fee voucher
// @Tags Fee
// @Accept json
// @Produce json
// @Param payload body dto.SubmitFeeRequest true "Voucher"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fee/vouchers [post]
func (h *FeeHandler) Submit(c *gin.Context) {
	var req dto.SubmitFeeRequest
	if !bindJSON(c, &req, "invalid voucher payload") {
		return
	}
	fee, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// List godoc
// @Summary List fee vouchers
// @Description Students see their own vouchers; the fee office sees all
// @Tags Fee
// @Produce json
// @Param status query string false "pending | processing | approved | rejected"
// @Success 200 {object} response.Envelope
// @Router /fee/vouchers [get]
func (h *FeeHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	fees, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), c.Query("status"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// Review godoc
// @Summary Review a fee voucher
// @Tags Fee
// @Accept json
// @Produce json
// @Param id path string true "Voucher ID"
// @Param payload body dto.ReviewFeeRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /fee/vouchers/{id} [put]
func (h *FeeHandler) Review(c *gin.Context) {
	var req dto.ReviewFeeRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	fee, err := h.service.Review(c.Request.Context(), claimsFromContext(c), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}
