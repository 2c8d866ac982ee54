package routes

import (
	"github.com/gin-gonic/gin"

	"ourhotel/internal/api/handlers"
	"ourhotel/internal/api/middleware"
	"ourhotel/internal/config"
	"ourhotel/internal/models"
	"ourhotel/internal/services"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// Initialize services
	auditService := services.NewAuditService(cfg)
	authService := services.NewAuthService(cfg)
	sessionService := services.NewSessionService(cfg, auditService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessionService, auditService, cfg)
	bookingHandler := handlers.NewBookingHandler(cfg, auditService)
	userHandler := handlers.NewUserHandler(cfg, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Middleware
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.ErrorHandler())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "OURHOTEL API is running",
		})
	})

	// Every route below runs the session integrity guard: binding checks,
	// timeout, ID regeneration, CSRF enforcement on mutating requests.
	api := r.Group("/api")
	api.Use(middleware.SessionGuard(sessionService, auditService, cfg))
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Authenticated routes
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/me", authHandler.GetMe)

			protected.GET("/rooms", bookingHandler.GetRooms)

			bookings := protected.Group("/bookings")
			{
				bookings.GET("", bookingHandler.GetMyBookings)
				bookings.POST("", bookingHandler.CreateBooking)
				bookings.GET("/ranges", bookingHandler.GetBookedRanges)
			}

			protected.GET("/profile", userHandler.GetProfile)
			protected.PUT("/profile", userHandler.UpdateProfile)

			// Admin routes
			admin := protected.Group("")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/users", userHandler.GetUsers)
				admin.POST("/users", userHandler.CreateUser)
				admin.DELETE("/users/:id", userHandler.DeleteUser)

				admin.GET("/audit", auditHandler.GetAuditLogs)
				admin.GET("/audit/failed-logins", auditHandler.GetFailedLogins)
			}
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "API endpoint not found"})
	})
}
