package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/internal/rbac"
	"github.com/noah-isme/ug1-portal-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error)
}

// CookieSettings controls the session cookie written on login.
type CookieSettings struct {
	Name   string
	Domain string
	Secure bool
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieSettings
	policy  *rbac.Policy
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieSettings, policy *rbac.Policy) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	if policy == nil {
		policy = rbac.Default
	}
	return &AuthHandler{service: svc, cookie: cookie, policy: policy}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate staff by email or students by registration number. Sets the session cookie.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, res.AccessToken, int(time.Until(res.ExpiresAt).Seconds()))
	response.JSON(c, http.StatusOK, res, nil)
}

// Register godoc
// @Summary Self-register a staff account
// @Description Tutors and managers may register themselves
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	info, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, info)
}

// Logout godoc
// @Summary Logout current session
// @Description Clears the session cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	response.Message(c, http.StatusOK, "logged out")
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's info and visible navigation
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := requireActor(c)
	if !ok {
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"user":       claims.Info(),
		"home":       h.policy.Home(claims.Role),
		"navigation": h.policy.Navigation(claims.Role),
	}, nil)
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
