// Package router assembles the HTTP API.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "grindsheet/internal/docs" // Import swagger docs
	"grindsheet/internal/handlers"
	"grindsheet/internal/mailer"
	"grindsheet/internal/middleware"
	"grindsheet/internal/services"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	UserService     services.UserServicer
	ResetService    services.ResetTokenServicer
	UserDataService services.UserDataServicer
	AuditService    services.AuditServicer
	Issuer          *middleware.TokenIssuer
	Mailer          mailer.Mailer
	BaseURL         string
	AllowedOrigins  []string
	Version         string
}

// New builds the gin engine with middleware and every /api route.
func New(deps Dependencies) *gin.Engine {
	authHandler := handlers.NewAuthHandler(deps.UserService, deps.Issuer, deps.AuditService)
	passwordHandler := handlers.NewPasswordHandler(deps.UserService, deps.ResetService, deps.Mailer, deps.BaseURL, deps.AuditService)
	dataHandler := handlers.NewDataHandler(deps.UserDataService, deps.AuditService)
	activityHandler := handlers.NewActivityHandler(deps.AuditService)
	healthHandler := handlers.NewHealthHandler(deps.Version)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(deps.AllowedOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", healthHandler.Health)

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.POST("/forgot-password", passwordHandler.ForgotPassword)
	api.POST("/reset-password", passwordHandler.ResetPassword)
	api.GET("/verify-reset-token/:token", passwordHandler.VerifyResetToken)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Issuer))
	protected.GET("/verify", authHandler.Verify)
	protected.GET("/data", dataHandler.GetData)
	protected.POST("/data", dataHandler.SaveData)
	protected.GET("/activity", activityHandler.ListActivity)

	return router
}
