package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

const auditResourceKey = "audit.resource_id"

// AuditWriter persists audit entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SetAuditResource names the resource an audited handler acted on. Without it the
// ":id" route parameter is used.
func SetAuditResource(c *gin.Context, id string) {
	c.Set(auditResourceKey, id)
}

// Audit writes one entry per request that ends below 400. Write failures are logged and
// never change the response.
func Audit(writer AuditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if writer == nil {
			c.Next()
			return
		}
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			return
		}

		entry := &models.AuditLog{
			Action:     action,
			Resource:   resource,
			ResourceID: auditResourceID(c),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		}
		if claims := Claims(c); claims != nil {
			uid := claims.UserID
			entry.UserID = &uid
		}
		entry.NewValues, _ = json.Marshal(struct {
			Route     string `json:"route"`
			Method    string `json:"method"`
			Status    int    `json:"status"`
			LatencyMS int64  `json:"latencyMs"`
		}{c.FullPath(), c.Request.Method, status, time.Since(started).Milliseconds()})

		if err := writer.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("audit write failed",
				zap.String("action", action),
				zap.String("route", c.FullPath()),
				zap.Error(err),
			)
		}
	}
}

func auditResourceID(c *gin.Context) *string {
	if v, ok := c.Get(auditResourceKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return &id
		}
	}
	if id := c.Param("id"); id != "" {
		return &id
	}
	return nil
}
