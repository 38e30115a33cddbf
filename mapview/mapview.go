// Package mapview keeps one client's map of reported scams in sync with the store.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/realtime"
	"github.com/sirupsen/logrus"
)

// LocationWarning is shown when the viewer's position could not be determined.
const LocationWarning = "Could not get your location. Showing the default map area."

var (
	ErrViewClosed = errors.New("map view closed")
	// ErrSurface wraps failures to draw on the client, usually a disconnect.
	ErrSurface = errors.New("map surface unavailable")
)

// Surface draws the map for one client.
type Surface interface {
	Center(c geo.Coordinate, zoom int) error
	SelfMarker(c geo.Coordinate) error
	Warn(message string) error
	// Markers replaces every marker currently drawn.
	Markers(markers []Marker) error
	Remove() error
}

// Fetcher loads every stored report.
type Fetcher interface {
	All(ctx context.Context) ([]models.Report, error)
}

// Marker stands for all reports sharing one coordinate.
type Marker struct {
	geo.Coordinate
	Count      int    `json:"count"`
	DetailPath string `json:"detailPath"`
}

type Options struct {
	Default     geo.Coordinate
	DefaultZoom int
	LocatedZoom int
	// DetailBase is the path the Location Detail Panel is served under.
	DetailBase string
}

// DetailPath links a marker to the reports at its coordinate.
func (o Options) DetailPath(c geo.Coordinate) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	return o.DetailBase + "?" + q.Encode()
}

// BuildMarkers groups reports by exact coordinate, keeping the order in which each
// coordinate first appears.
func BuildMarkers(reports []models.Report, opts Options) []Marker {
	index := make(map[geo.Coordinate]int, len(reports))
	markers := make([]Marker, 0, len(reports))
	for _, r := range reports {
		c := geo.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
		if i, ok := index[c]; ok {
			markers[i].Count++
			continue
		}
		index[c] = len(markers)
		markers = append(markers, Marker{Coordinate: c, Count: 1, DetailPath: opts.DetailPath(c)})
	}
	return markers
}

type View struct {
	store   Fetcher
	broker  realtime.Broker
	surface Surface
	opts    Options
	log     logrus.FieldLogger

	mu      sync.Mutex
	closed  bool
	sub     *realtime.Subscription
	markers []Marker
}

func New(store Fetcher, broker realtime.Broker, surface Surface, opts Options, log logrus.FieldLogger) *View {
	return &View{
		store:   store,
		broker:  broker,
		surface: surface,
		opts:    opts,
		log:     log,
	}
}

// State is the initial viewport of a map.
type State struct {
	Center  geo.Coordinate  `json:"center"`
	Zoom    int             `json:"zoom"`
	Self    *geo.Coordinate `json:"self,omitempty"`
	Warning string          `json:"warning,omitempty"`
	Markers []Marker        `json:"markers"`
}

func (o Options) viewport(ctx context.Context, locator geo.Locator, log logrus.FieldLogger) State {
	coord, err := locator.Locate(ctx)
	if err != nil {
		log.WithError(err).Warn("geolocation failed, using default map area")
		return State{Center: o.Default, Zoom: o.DefaultZoom, Warning: LocationWarning}
	}
	return State{Center: coord, Zoom: o.LocatedZoom, Self: &coord}
}

// Snapshot computes a map once, without subscribing to changes.
func Snapshot(ctx context.Context, store Fetcher, locator geo.Locator, opts Options, log logrus.FieldLogger) (State, error) {
	state := opts.viewport(ctx, locator, log)
	reports, err := store.All(ctx)
	if err != nil {
		return state, err
	}
	state.Markers = BuildMarkers(reports, opts)
	return state, nil
}

// Open centers the map, subscribes to report changes and draws the current markers.
// A geolocation failure falls back to the default area with a warning.
func (v *View) Open(ctx context.Context, locator geo.Locator) error {
	state := v.opts.viewport(ctx, locator, v.log)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	err := v.surface.Center(state.Center, state.Zoom)
	if err == nil && state.Self != nil {
		err = v.surface.SelfMarker(*state.Self)
	}
	if err == nil && state.Warning != "" {
		err = v.surface.Warn(state.Warning)
	}
	v.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSurface, err)
	}

	sub, err := v.broker.Subscribe(ctx, models.ReportsTable)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", models.ReportsTable, err)
	}
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		sub.Close()
		return ErrViewClosed
	}
	v.sub = sub
	v.mu.Unlock()

	if err := v.Refresh(ctx); err != nil {
		if errors.Is(err, ErrSurface) || errors.Is(err, ErrViewClosed) {
			return err
		}
		v.log.WithError(err).Warn("initial map fetch failed")
	}
	return nil
}

// Refresh re-fetches every report and redraws all markers. A result that arrives
// after Close is dropped.
func (v *View) Refresh(ctx context.Context) error {
	reports, err := v.store.All(ctx)
	if err != nil {
		return err
	}
	markers := BuildMarkers(reports, v.opts)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if err := v.surface.Markers(markers); err != nil {
		return fmt.Errorf("%w: %w", ErrSurface, err)
	}
	v.markers = markers
	return nil
}

// Run redraws on every change notification until ctx ends or the subscription is
// dropped. The view is closed when Run returns.
func (v *View) Run(ctx context.Context) error {
	defer v.Close()

	v.mu.Lock()
	sub := v.sub
	v.mu.Unlock()
	if sub == nil {
		return ErrViewClosed
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case <-sub.C():
			if err := v.Refresh(ctx); err != nil {
				if errors.Is(err, ErrViewClosed) || ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, ErrSurface) {
					return err
				}
				// A failed fetch leaves the previous markers on screen.
				v.log.WithError(err).Warn("map refresh failed")
			}
		}
	}
}

// Markers returns the markers last drawn.
func (v *View) Markers() []Marker {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Marker, len(v.markers))
	copy(out, v.markers)
	return out
}

// Close releases the subscription and removes the surface. Safe to call repeatedly.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	sub := v.sub
	v.sub = nil
	v.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if err := v.surface.Remove(); err != nil {
		v.log.WithError(err).Debug("remove map surface")
	}
}
