package main

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/controllers"
	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/mapview"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/realtime"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyStore struct{}

func (emptyStore) All(ctx context.Context) ([]models.Report, error) {
	return nil, nil
}

func TestShutdownEndsMapStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	broker := realtime.NewMemoryBroker()
	opts := mapview.Options{
		Default:     geo.Coordinate{Latitude: 40.0, Longitude: -74.5},
		DefaultZoom: 9,
		LocatedZoom: 13,
		DetailBase:  "/api/locations/reports",
	}

	r := gin.New()
	r.GET("/map/stream", controllers.NewMapController(emptyStore{}, broker, opts, log).StreamMap)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := newServer(ln.Addr().String(), r, broker)
	go srv.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/map/stream?lat=1&lng=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "event:center"), line)
	require.Eventually(t, func() bool {
		return broker.Subscribers(models.ReportsTable) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Less(t, time.Since(start), 3*time.Second)
}
