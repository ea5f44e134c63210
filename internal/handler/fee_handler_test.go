package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

type feeServiceMock struct {
	lastStatus string
	lastReview dto.ReviewFeeRequest
	lastID     string
}

func (m *feeServiceMock) Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitFeeRequest, meta models.RequestMeta) (*models.FeeVerification, error) {
	return &models.FeeVerification{ID: "fee-1", VoucherNumber: req.VoucherNumber, Status: models.FeeStatusPending}, nil
}

func (m *feeServiceMock) List(ctx context.Context, actor *models.JWTClaims, status string, page, pageSize int) ([]models.FeeVerification, *models.Pagination, error) {
	m.lastStatus = status
	return []models.FeeVerification{}, &models.Pagination{Page: page, PageSize: pageSize}, nil
}

func (m *feeServiceMock) Review(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewFeeRequest, meta models.RequestMeta) (*models.FeeVerification, error) {
	m.lastID = id
	m.lastReview = req
	if req.Status == models.FeeStatusPending {
		return nil, appErrors.Validation("status", "status is not an allowed value")
	}
	return &models.FeeVerification{ID: id, Status: req.Status}, nil
}

func TestFeeHandlerSubmit(t *testing.T) {
	handler := NewFeeHandler(&feeServiceMock{})
	c, w := postJSON(t, "/api/fee/vouchers", dto.SubmitFeeRequest{VoucherNumber: "V-1"})

	handler.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"voucherNumber":"V-1"`)
}

func TestFeeHandlerListPassesStatus(t *testing.T) {
	svc := &feeServiceMock{}
	handler := NewFeeHandler(svc)
	c, w := newUGFormHandlerContext(http.MethodGet, "/api/fee/vouchers?status=processing")

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processing", svc.lastStatus)
}

func TestFeeHandlerReview(t *testing.T) {
	svc := &feeServiceMock{}
	handler := NewFeeHandler(svc)
	c, w := postJSON(t, "/api/fee/vouchers/fee-1", dto.ReviewFeeRequest{Status: models.FeeStatusApproved})
	c.Params = gin.Params{{Key: "id", Value: "fee-1"}}

	handler.Review(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fee-1", svc.lastID)

	c, w = postJSON(t, "/api/fee/vouchers/fee-1", dto.ReviewFeeRequest{Status: models.FeeStatusPending})
	handler.Review(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
