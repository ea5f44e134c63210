package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/middleware"
	"github.com/noah-isme/ug1-portal-api/pkg/response"
)

type downloadService interface {
	Download(token string) (*os.File, string, error)
}

// DownloadHandler streams stored PDF copies behind signed tokens.
type DownloadHandler struct {
	service downloadService
}

// NewDownloadHandler builds the handler.
func NewDownloadHandler(svc downloadService) *DownloadHandler {
	return &DownloadHandler{service: svc}
}

// Download godoc
// @Summary Download a rendered form copy
// @Tags Downloads
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /downloads/{token} [get]
func (h *DownloadHandler) Download(c *gin.Context) {
	file, name, err := h.service.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, name)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Cache-Control", "no-store")
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), file)
}
