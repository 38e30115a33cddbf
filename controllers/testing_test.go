package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/repository"
	"github.com/scam-spotter/api-go/utils"
)

type fakeReports struct {
	mu        sync.Mutex
	reports   []models.Report
	err       error
	nearby    []repository.NearbyMarker
	radius    float64
	reporters []repository.Reporter
	since     time.Time
	offset    int
}

var _ repository.Reports = (*fakeReports)(nil)

func (f *fakeReports) All(ctx context.Context) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Report(nil), f.reports...), nil
}

func (f *fakeReports) AtCoordinate(ctx context.Context, c geo.Coordinate) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Report
	for _, r := range f.reports {
		if r.Latitude == c.Latitude && r.Longitude == c.Longitude {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReports) Insert(ctx context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	r.ID = uint(len(f.reports) + 1)
	f.reports = append(f.reports, *r)
	return nil
}

func (f *fakeReports) IncrementVotes(ctx context.Context, id uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reports {
		if f.reports[i].ID == id {
			f.reports[i].Votes++
			return f.reports[i].Votes, nil
		}
	}
	return 0, repository.ErrReportNotFound
}

func (f *fakeReports) Nearby(ctx context.Context, c geo.Coordinate, radiusKm float64, limit int) ([]repository.NearbyMarker, error) {
	f.radius = radiusKm
	return f.nearby, f.err
}

func (f *fakeReports) ByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Report, error) {
	var out []models.Report
	for i := len(f.reports) - 1; i >= 0 && len(out) < limit; i-- {
		if f.reports[i].AuthorID == authorID {
			out = append(out, f.reports[i])
		}
	}
	return out, f.err
}

func (f *fakeReports) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	for _, r := range f.reports {
		if r.AuthorID == authorID {
			n++
		}
	}
	return n, f.err
}

func (f *fakeReports) TopReporters(ctx context.Context, since time.Time, offset, limit int) ([]repository.Reporter, int64, error) {
	f.since, f.offset = since, offset
	return f.reporters, int64(len(f.reporters)) + int64(offset), f.err
}

// withUser stands in for the auth middleware.
func withUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SetUser(c, &utils.UserClaims{UserID: id, Role: utils.DefaultRole})
		c.Next()
	}
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
