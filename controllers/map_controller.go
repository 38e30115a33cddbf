package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/logger"
	"github.com/scam-spotter/api-go/mapview"
	"github.com/scam-spotter/api-go/realtime"
	"github.com/sirupsen/logrus"
)

type MapController struct {
	Store   mapview.Fetcher
	Broker  realtime.Broker
	Options mapview.Options
	Log     logrus.FieldLogger
}

func NewMapController(store mapview.Fetcher, broker realtime.Broker, opts mapview.Options, log logrus.FieldLogger) *MapController {
	return &MapController{Store: store, Broker: broker, Options: opts, Log: log}
}

// GetMap godoc
// @Summary Map viewport and one marker per reported coordinate
// @Tags map
// @Produce json
// @Param lat query number false "Viewer latitude"
// @Param lng query number false "Viewer longitude"
// @Success 200 {object} StandardResponse
// @Router /map [get]
func (mc *MapController) GetMap(c *gin.Context) {
	log := logger.FromContext(c, mc.Log)
	state, err := mapview.Snapshot(c.Request.Context(), mc.Store, geo.FromRequest(c.Request), mc.Options, log)
	if err != nil {
		log.WithError(err).Error("map snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: state})
}

// StreamMap godoc
// @Summary Live map as server-sent events; markers are redrawn on every report change
// @Tags map
// @Produce text/event-stream
// @Param lat query number false "Viewer latitude"
// @Param lng query number false "Viewer longitude"
// @Router /map/stream [get]
func (mc *MapController) StreamMap(c *gin.Context) {
	log := logger.FromContext(c, mc.Log)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	surface := &streamSurface{w: c.Writer}
	view := mapview.New(mc.Store, mc.Broker, surface, mc.Options, log)
	defer view.Close()

	ctx := c.Request.Context()
	if err := view.Open(ctx, geo.FromRequest(c.Request)); err != nil {
		if !errors.Is(err, mapview.ErrSurface) {
			log.WithError(err).Error("open map stream")
			_ = surface.send("error", gin.H{"error": "Map is unavailable"})
		}
		return
	}
	if err := view.Run(ctx); err != nil {
		log.WithError(err).Debug("map stream ended")
	}
}

// streamSurface renders map updates as server-sent events.
type streamSurface struct {
	w gin.ResponseWriter
}

func (s *streamSurface) send(event string, data interface{}) error {
	if err := sse.Encode(s.w, sse.Event{Event: event, Data: data}); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *streamSurface) Center(c geo.Coordinate, zoom int) error {
	return s.send("center", gin.H{"center": c, "zoom": zoom})
}

func (s *streamSurface) SelfMarker(c geo.Coordinate) error {
	return s.send("self", c)
}

func (s *streamSurface) Warn(message string) error {
	return s.send("warning", gin.H{"message": message})
}

func (s *streamSurface) Markers(markers []mapview.Marker) error {
	return s.send("markers", markers)
}

func (s *streamSurface) Remove() error {
	return s.send("close", gin.H{})
}
