package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/logger"
	"github.com/scam-spotter/api-go/metrics"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/panel"
	"github.com/scam-spotter/api-go/repository"
	"github.com/scam-spotter/api-go/submission"
	"github.com/scam-spotter/api-go/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultNearbyRadiusKm = 20
	maxNearbyRadiusKm     = 100
	maxNearbyMarkers      = 200
)

type ReportController struct {
	Reports repository.Reports
	Flow    *submission.Flow
	Log     logrus.FieldLogger
}

type NearbyReportsQuery struct {
	Latitude  *float64 `form:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"longitude" binding:"required,min=-180,max=180"`
	Radius    float64  `form:"radius" binding:"omitempty,gt=0"`
}

func NewReportController(reports repository.Reports, flow *submission.Flow, log logrus.FieldLogger) *ReportController {
	return &ReportController{Reports: reports, Flow: flow, Log: log}
}

// SubmitReport godoc
// @Summary Submit a scam report from the reporter's current position
// @Tags reports
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Report title"
// @Param description formData string true "What happened"
// @Param category formData string true "phishing, investment, romance, tech_support or other"
// @Param lat formData number true "Reporter latitude"
// @Param lng formData number true "Reporter longitude"
// @Param image formData file false "Evidence image, at most 5MB"
// @Success 201 {object} StandardResponse
// @Router /reports [post]
func (rc *ReportController) SubmitReport(c *gin.Context) {
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	category := c.PostForm("category")
	if category == "" {
		category = c.PostForm("type")
	}
	req := submission.Request{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    models.Category(category),
		AuthorID:    user.UserID,
	}

	fileHeader, err := c.FormFile("image")
	switch {
	case err == nil:
		img, closeFn, err := openImage(fileHeader)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read image"})
			return
		}
		defer closeFn()
		req.Image = img
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := rc.Flow.Submit(c.Request.Context(), geo.FromRequest(c.Request), req)
	if err != nil {
		status := submissionStatus(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(c, rc.Log).WithError(err).Error("submit report")
		}
		c.JSON(status, gin.H{"error": err.Error(), "success": false})
		return
	}

	metrics.ReportsSubmitted.WithLabelValues(string(report.Category)).Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Scam report submitted!",
		"data":     report,
		"redirect": "/",
	})
}

func openImage(fh *multipart.FileHeader) (*submission.Image, func() error, error) {
	img := &submission.Image{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	// Size and type are checked before the body is ever read.
	if err := submission.ValidateImage(img); err != nil {
		return img, func() error { return nil }, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	img.Body = f
	return img, f.Close, nil
}

func submissionStatus(err error) int {
	switch {
	case errors.Is(err, submission.ErrMissingFields),
		errors.Is(err, submission.ErrImageTooLarge),
		errors.Is(err, submission.ErrNotAnImage):
		return http.StatusBadRequest
	case errors.Is(err, submission.ErrLocationUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, submission.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, submission.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetNearbyReports godoc
// @Summary Report markers within a radius ordered by distance
// @Tags reports
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param radius query number false "Search radius in kilometers (default 20, max 100)"
// @Success 200 {object} StandardResponse
// @Router /reports/nearby [get]
func (rc *ReportController) GetNearbyReports(c *gin.Context) {
	var query NearbyReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	radius := query.Radius
	if radius == 0 {
		radius = defaultNearbyRadiusKm
	}
	if radius > maxNearbyRadiusKm {
		radius = maxNearbyRadiusKm
	}

	center := geo.Coordinate{Latitude: *query.Latitude, Longitude: *query.Longitude}
	markers, err := rc.Reports.Nearby(c.Request.Context(), center, radius, maxNearbyMarkers)
	if err != nil {
		logger.FromContext(c, rc.Log).WithError(err).Error("nearby reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch nearby reports"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    markers,
		Meta:    gin.H{"radius": radius, "center": center, "count": len(markers)},
	})
}

// UpvoteReport godoc
// @Summary Add one vote to a report
// @Tags reports
// @Produce json
// @Param id path integer true "Report ID"
// @Success 200 {object} StandardResponse
// @Router /reports/{id}/upvote [post]
func (rc *ReportController) UpvoteReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	votes, err := panel.Upvote(c.Request.Context(), rc.Reports, uint(id))
	if err != nil {
		respondUpvoteError(c, rc.Log, err)
		return
	}

	metrics.Upvotes.Inc()
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"id": id, "votes": votes},
	})
}

func respondUpvoteError(c *gin.Context, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, repository.ErrReportNotFound), errors.Is(err, panel.ErrUnknownItem):
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
	default:
		logger.FromContext(c, log).WithError(err).Error("upvote report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upvote report"})
	}
}
