package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/controllers"
	"github.com/scam-spotter/api-go/middleware"
)

type Controllers struct {
	Auth        *controllers.AuthController
	Reports     *controllers.ReportController
	Locations   *controllers.LocationController
	Map         *controllers.MapController
	Profile     *controllers.ProfileController
	Leaderboard *controllers.LeaderboardController
	Health      *controllers.HealthController
}

func SetupRoutes(r *gin.Engine, ctrl Controllers, jwtSecret string) {
	r.GET("/healthz", ctrl.Health.Health)

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", ctrl.Auth.Register)
		public.POST("/login", ctrl.Auth.Login)
		public.POST("/refresh-token", ctrl.Auth.RefreshToken)
		public.POST("/auth/google", ctrl.Auth.GoogleLogin)
		public.GET("/validate/username/:username", ctrl.Auth.CheckUsername)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtSecret))
	{
		protected.POST("/logout", ctrl.Auth.Logout)
		protected.GET("/profile", ctrl.Auth.GetProfile)
		protected.GET("/profile/reports", ctrl.Profile.GetMyReports)
		protected.GET("/leaderboard", ctrl.Leaderboard.GetLeaderboard)

		SetupReportRoutes(protected, ctrl.Reports)
		SetupLocationRoutes(protected, ctrl.Locations)
		SetupMapRoutes(protected, ctrl.Map)
	}

	// Browser pages that need a session
	pages := r.Group("/")
	pages.Use(middleware.RequireSession(jwtSecret))
	{
		pages.GET("/map", ctrl.Map.StreamMap)
		pages.POST("/report", ctrl.Reports.SubmitReport)
	}
}
