package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/logger"
	"github.com/scam-spotter/api-go/repository"
	"github.com/scam-spotter/api-go/types"
	"github.com/scam-spotter/api-go/utils"
	"github.com/sirupsen/logrus"
)

type ProfileController struct {
	Reports repository.Reports
	Log     logrus.FieldLogger
}

type RecentReport struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProfileController(reports repository.Reports, log logrus.FieldLogger) *ProfileController {
	return &ProfileController{Reports: reports, Log: log}
}

// GetMyReports godoc
// @Summary The caller's latest reports, report count and coins
// @Tags profile
// @Produce json
// @Success 200 {object} StandardResponse
// @Router /profile/reports [get]
func (pc *ProfileController) GetMyReports(c *gin.Context) {
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	ctx := c.Request.Context()
	reports, err := pc.Reports.ByAuthor(ctx, user.UserID, types.GetCoinsConfig().RecentReports)
	if err != nil {
		logger.FromContext(c, pc.Log).WithError(err).Error("profile reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}
	total, err := pc.Reports.CountByAuthor(ctx, user.UserID)
	if err != nil {
		logger.FromContext(c, pc.Log).WithError(err).Error("profile report count")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reports"})
		return
	}

	recent := make([]RecentReport, 0, len(reports))
	for _, r := range reports {
		recent = append(recent, RecentReport{
			ID:        r.ID,
			Title:     r.Title,
			Summary:   r.Summary,
			Timestamp: r.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"reports":     recent,
			"reportCount": total,
			"coins":       types.CalculateCoins(total),
		},
	})
}
