// Package repository is the report store client backed by gorm and Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrReportNotFound = errors.New("report not found")

// ReportStore is the subset of store operations the domain components depend on.
type ReportStore interface {
	All(ctx context.Context) ([]models.Report, error)
	AtCoordinate(ctx context.Context, c geo.Coordinate) ([]models.Report, error)
	Insert(ctx context.Context, r *models.Report) error
	IncrementVotes(ctx context.Context, id uint) (int, error)
}

// Reports adds the profile, search and ranking queries served over HTTP.
type Reports interface {
	ReportStore
	Nearby(ctx context.Context, c geo.Coordinate, radiusKm float64, limit int) ([]NearbyMarker, error)
	ByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Report, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	TopReporters(ctx context.Context, since time.Time, offset, limit int) ([]Reporter, int64, error)
}

// NearbyMarker is a report position returned by the radius search.
type NearbyMarker struct {
	ID        uint    `json:"id" gorm:"column:id"`
	Latitude  float64 `json:"latitude" gorm:"column:lat"`
	Longitude float64 `json:"longitude" gorm:"column:lng"`
	Votes     int     `json:"votes" gorm:"column:votes"`
	Category  string  `json:"category" gorm:"column:type"`
	Distance  float64 `json:"distance" gorm:"column:distance"`
}

// Reporter is one leaderboard row.
type Reporter struct {
	UserID      uint      `json:"userId" gorm:"column:user_id"`
	Username    string    `json:"username" gorm:"column:username"`
	Avatar      string    `json:"avatar" gorm:"column:avatar"`
	ReportCount int64     `json:"reportCount" gorm:"column:report_count"`
	LastReport  time.Time `json:"lastReportAt" gorm:"column:last_report_at"`
}

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

func (r *ReportRepository) All(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := r.DB.WithContext(ctx).Order("timestamp DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("select scams: %w", err)
	}
	return reports, nil
}

// AtCoordinate returns the reports whose coordinate equals c exactly, most voted first
// and most recent first among equal votes.
func (r *ReportRepository) AtCoordinate(ctx context.Context, c geo.Coordinate) ([]models.Report, error) {
	var reports []models.Report
	err := r.DB.WithContext(ctx).
		Where("lat = ? AND lng = ?", c.Latitude, c.Longitude).
		Order("votes DESC").
		Order("timestamp DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("select scams at %s: %w", c, err)
	}
	return reports, nil
}

func (r *ReportRepository) Insert(ctx context.Context, report *models.Report) error {
	report.ID = 0
	report.Votes = 0
	if err := r.DB.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("insert scam: %w", err)
	}
	return nil
}

// IncrementVotes atomically adds one vote to the report and returns the stored count.
func (r *ReportRepository) IncrementVotes(ctx context.Context, id uint) (int, error) {
	var report models.Report
	result := r.DB.WithContext(ctx).Model(&report).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "votes"}}}).
		Where("id = ?", id).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if result.Error != nil {
		return 0, fmt.Errorf("increment votes for %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrReportNotFound
	}
	return report.Votes, nil
}

// Nearby returns report markers within radiusKm of c ordered by distance.
func (r *ReportRepository) Nearby(ctx context.Context, c geo.Coordinate, radiusKm float64, limit int) ([]NearbyMarker, error) {
	const distance = "(6371 * acos(LEAST(1, cos(radians(?)) * cos(radians(lat)) * cos(radians(lng) - radians(?)) + sin(radians(?)) * sin(radians(lat)))))"

	var markers []NearbyMarker
	err := r.DB.WithContext(ctx).Model(&models.Report{}).
		Select("id, lat, lng, votes, type, "+distance+" AS distance", c.Latitude, c.Longitude, c.Latitude).
		Where(distance+" <= ?", c.Latitude, c.Longitude, c.Latitude, radiusKm).
		Order("distance").
		Limit(limit).
		Find(&markers).Error
	if err != nil {
		return nil, fmt.Errorf("select nearby scams: %w", err)
	}
	return markers, nil
}

// ByAuthor returns the author's most recent reports.
func (r *ReportRepository) ByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := r.DB.WithContext(ctx).
		Select("id, title, ai_summary, timestamp").
		Where("user_id = ?", authorID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("select scams by author %d: %w", authorID, err)
	}
	return reports, nil
}

func (r *ReportRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Report{}).Where("user_id = ?", authorID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count scams by author %d: %w", authorID, err)
	}
	return total, nil
}

// TopReporters ranks authors by the number of reports submitted since `since`
// (zero time means all time).
func (r *ReportRepository) TopReporters(ctx context.Context, since time.Time, offset, limit int) ([]Reporter, int64, error) {
	base := r.DB.WithContext(ctx).Table("scams").
		Joins("JOIN users ON users.id = scams.user_id").
		Where("users.deleted_at IS NULL")
	if !since.IsZero() {
		base = base.Where("scams.timestamp >= ?", since)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("scams.user_id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reporters: %w", err)
	}

	var reporters []Reporter
	err := base.Session(&gorm.Session{}).
		Select("users.id AS user_id, users.username, users.avatar, COUNT(scams.id) AS report_count, MAX(scams.timestamp) AS last_report_at").
		Group("users.id, users.username, users.avatar").
		Order("report_count DESC, last_report_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&reporters).Error
	if err != nil {
		return nil, 0, fmt.Errorf("select reporters: %w", err)
	}
	return reporters, total, nil
}
