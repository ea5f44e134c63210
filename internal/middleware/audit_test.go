package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

type auditWriterStub struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditWriterStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &auditWriterStub{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	})
	r.DELETE("/api/admin/users/:id", Audit(writer, nil, models.AuditActionUserDelete, "users"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.PUT("/api/admin/users/:id", Audit(writer, nil, models.AuditActionUserUpdate, "users"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/admin/users/u-9", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/admin/users/u-9", nil))

	require.Len(t, writer.logs, 1)
	assert.Equal(t, "admin-1", *writer.logs[0].UserID)
	assert.Equal(t, "u-9", *writer.logs[0].ResourceID)
	assert.Equal(t, models.AuditActionUserDelete, writer.logs[0].Action)
}

func TestAuditWriteFailureDoesNotChangeResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &auditWriterStub{err: errors.New("db down")}
	r := gin.New()
	r.POST("/x", Audit(writer, nil, "X", "x"), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuditPrefersHandlerSuppliedResource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &auditWriterStub{}
	r := gin.New()
	r.GET("/api/downloads/:token", Audit(writer, nil, models.AuditActionUGFormDownload, "ugforms"), func(c *gin.Context) {
		SetAuditResource(c, "UG1-2026-00001-student.pdf")
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/downloads/tok", nil))

	require.Len(t, writer.logs, 1)
	assert.Nil(t, writer.logs[0].UserID)
	assert.Equal(t, "UG1-2026-00001-student.pdf", *writer.logs[0].ResourceID)
	assert.Contains(t, string(writer.logs[0].NewValues), `"route":"/api/downloads/:token"`)
}
