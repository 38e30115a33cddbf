package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/controllers"
)

func SetupReportRoutes(protected *gin.RouterGroup, reportController *controllers.ReportController) {
	reports := protected.Group("/reports")
	{
		reports.POST("", reportController.SubmitReport)
		reports.GET("/nearby", reportController.GetNearbyReports)
		reports.POST("/:id/upvote", reportController.UpvoteReport)
	}
}

func SetupLocationRoutes(protected *gin.RouterGroup, locationController *controllers.LocationController) {
	locations := protected.Group("/locations")
	{
		locations.GET("/reports", locationController.GetLocationReports)
		locations.POST("/reports/:id/upvote", locationController.UpvoteLocationReport)
	}
}

func SetupMapRoutes(protected *gin.RouterGroup, mapController *controllers.MapController) {
	m := protected.Group("/map")
	{
		m.GET("", mapController.GetMap)
		m.GET("/stream", mapController.StreamMap)
	}
}
