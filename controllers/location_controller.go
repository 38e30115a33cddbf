package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/logger"
	"github.com/scam-spotter/api-go/metrics"
	"github.com/scam-spotter/api-go/panel"
	"github.com/sirupsen/logrus"
)

type LocationController struct {
	Store panel.Store
	Log   logrus.FieldLogger
}

type LocationQuery struct {
	Latitude  *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"lng" binding:"required,min=-180,max=180"`
	Expanded  uint     `form:"expanded"`
}

func NewLocationController(store panel.Store, log logrus.FieldLogger) *LocationController {
	return &LocationController{Store: store, Log: log}
}

func (lc *LocationController) openPanel(c *gin.Context) (*panel.Panel, *LocationQuery, bool) {
	var query LocationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	coord := geo.Coordinate{Latitude: *query.Latitude, Longitude: *query.Longitude}
	p, err := panel.Open(c.Request.Context(), lc.Store, coord)
	if err != nil {
		logger.FromContext(c, lc.Log).WithError(err).Error("open location panel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return nil, nil, false
	}
	return p, &query, true
}

// GetLocationReports godoc
// @Summary Reports filed at one exact coordinate
// @Tags locations
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param expanded query integer false "Report shown with full details"
// @Success 200 {object} StandardResponse
// @Router /locations/reports [get]
func (lc *LocationController) GetLocationReports(c *gin.Context) {
	p, query, ok := lc.openPanel(c)
	if !ok {
		return
	}

	if query.Expanded != 0 {
		if err := p.Toggle(query.Expanded); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	}

	view := p.View()
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    view,
		Message: view.Message,
	})
}

// UpvoteLocationReport godoc
// @Summary Upvote a report listed at a coordinate
// @Tags locations
// @Produce json
// @Param id path integer true "Report ID"
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} StandardResponse
// @Router /locations/reports/{id}/upvote [post]
func (lc *LocationController) UpvoteLocationReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	p, _, ok := lc.openPanel(c)
	if !ok {
		return
	}

	votes, err := p.Upvote(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, panel.ErrUnknownItem) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		respondUpvoteError(c, lc.Log, err)
		return
	}

	metrics.Upvotes.Inc()
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"id": id, "votes": votes},
	})
}
