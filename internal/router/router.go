package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/handler"
	"github.com/noah-isme/ug1-portal-api/internal/middleware"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/internal/rbac"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Approval  *handler.ApprovalHandler
	UGForms   *handler.UGFormHandler
	Fees      *handler.FeeHandler
	Downloads *handler.DownloadHandler
	Metrics   *handler.MetricsHandler

	TokenValidator middleware.TokenValidator
	CookieName     string
	Observer       middleware.RequestObserver
	AuditWriter    middleware.AuditWriter
	Policy         *rbac.Policy
	Logger         *zap.Logger
	EnableDocs     bool
}

// Register wires the HTTP routes into the gin engine. Every request passes through the
// path guard; role groups repeat the check with RequireRoles so a route never depends on
// the prefix table alone.
func Register(r *gin.Engine, deps Dependencies) {
	policy := deps.Policy
	if policy == nil {
		policy = rbac.Default
	}

	r.Use(middleware.Metrics(deps.Observer))
	r.Use(middleware.Authenticate(deps.TokenValidator, deps.CookieName))
	r.Use(middleware.PathGuard(policy))

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", deps.Metrics.Ready)
	r.GET("/metrics", deps.Metrics.Prometheus)
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/register", deps.Auth.Register)
	auth.POST("/logout", middleware.Audit(deps.AuditWriter, deps.Logger, models.AuditActionLogout, "auth"), deps.Auth.Logout)
	auth.GET("/me", deps.Auth.Me)

	api.GET("/downloads/:token", middleware.Audit(deps.AuditWriter, deps.Logger, models.AuditActionUGFormDownload, "ugforms"), deps.Downloads.Download)

	admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/users", deps.Users.List)
	admin.POST("/users", deps.Users.Create)
	admin.GET("/users/:id", deps.Users.Get)
	admin.PUT("/users/:id", deps.Users.Update)
	admin.PATCH("/users/:id/active", deps.Users.SetActive)
	admin.DELETE("/users/:id", deps.Users.Delete)
	admin.GET("/ugforms", deps.UGForms.ListAll)
	admin.GET("/ugforms/stats", deps.UGForms.Stats)
	admin.GET("/ugforms/:id/activity", deps.UGForms.Activity)

	dgOffice := api.Group("/dg-office", middleware.RequireRoles(models.RoleDGOffice))
	dgOffice.GET("/ugforms", deps.UGForms.Completed)

	fee := api.Group("/fee", middleware.RequireRoles(models.RoleFeeOffice, models.RoleStudent))
	fee.GET("/vouchers", deps.Fees.List)
	fee.POST("/vouchers", middleware.RequireRoles(models.RoleStudent), deps.Fees.Submit)
	fee.PUT("/vouchers/:id", middleware.RequireRoles(models.RoleFeeOffice), deps.Fees.Review)

	manager := api.Group("/manager", middleware.RequireRoles(models.RoleManager))
	manager.GET("/approval", deps.Approval.ManagerQueue)
	manager.PUT("/approval", deps.Approval.ManagerDecide)
	manager.POST("/approval/:id/pdf", deps.Approval.ManagerPDF)

	tutor := api.Group("/tutor", middleware.RequireRoles(models.RoleTutor))
	tutor.GET("/sign", deps.Approval.TutorQueue)
	tutor.PUT("/sign", deps.Approval.TutorDecide)

	student := api.Group("/student", middleware.RequireRoles(models.RoleStudent))
	student.POST("/ugform/submit", deps.UGForms.Submit)
	student.GET("/ugform", deps.UGForms.ListMine)
	student.GET("/ugform/autofill", deps.UGForms.Autofill)
	student.GET("/ugform/:id", deps.UGForms.GetMine)
	student.POST("/ugform/:id/pdf", deps.UGForms.StudentPDF)
	student.GET("/notifications", deps.UGForms.Notifications)
}
