package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/logger"
	"github.com/scam-spotter/api-go/repository"
	"github.com/scam-spotter/api-go/types"
	"github.com/sirupsen/logrus"
)

type LeaderboardController struct {
	Reports repository.Reports
	Log     logrus.FieldLogger
	now     func() time.Time
}

type LeaderboardQuery struct {
	TimeFilter string `form:"timeFilter" binding:"omitempty,oneof=all_time weekly monthly"`
	Page       int    `form:"page,default=1" binding:"min=1"`
	PageSize   int    `form:"pageSize,default=10" binding:"min=1,max=50"`
}

type LeaderboardEntry struct {
	Rank int `json:"rank"`
	repository.Reporter
	Coins int64 `json:"coins"`
}

func NewLeaderboardController(reports repository.Reports, log logrus.FieldLogger) *LeaderboardController {
	return &LeaderboardController{Reports: reports, Log: log, now: time.Now}
}

// windowStart returns the first instant counted by filter; zero means all time.
func windowStart(filter string, now time.Time) time.Time {
	switch filter {
	case "weekly":
		startOfWeek := now.AddDate(0, 0, -int(now.Weekday()))
		return time.Date(startOfWeek.Year(), startOfWeek.Month(), startOfWeek.Day(), 0, 0, 0, 0, now.Location())
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// GetLeaderboard godoc
// @Summary Reporters ranked by number of reports
// @Tags leaderboard
// @Produce json
// @Param timeFilter query string false "all_time, weekly or monthly"
// @Param page query integer false "Page number"
// @Param pageSize query integer false "Items per page (max 50)"
// @Success 200 {object} StandardResponse
// @Router /leaderboard [get]
func (lc *LeaderboardController) GetLeaderboard(c *gin.Context) {
	var query LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if query.TimeFilter == "" {
		query.TimeFilter = "all_time"
	}

	offset := (query.Page - 1) * query.PageSize
	since := windowStart(query.TimeFilter, lc.now())
	reporters, total, err := lc.Reports.TopReporters(c.Request.Context(), since, offset, query.PageSize)
	if err != nil {
		logger.FromContext(c, lc.Log).WithError(err).Error("leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching leaderboard"})
		return
	}

	entries := make([]LeaderboardEntry, 0, len(reporters))
	for i, r := range reporters {
		entries = append(entries, LeaderboardEntry{
			Rank:     offset + i + 1,
			Reporter: r,
			Coins:    types.CalculateCoins(r.ReportCount),
		})
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       entries,
		Meta:       gin.H{"timeFilter": query.TimeFilter},
		Pagination: NewPaginationMeta(query.Page, query.PageSize, total),
	})
}
