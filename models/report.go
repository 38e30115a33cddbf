package models

import (
	"time"
)

type Category string

const (
	CategoryPhishing    Category = "phishing"
	CategoryInvestment  Category = "investment"
	CategoryRomance     Category = "romance"
	CategoryTechSupport Category = "tech_support"
	CategoryOther       Category = "other"
)

var categoryLabels = map[Category]string{
	CategoryPhishing:    "Phishing",
	CategoryInvestment:  "Investment",
	CategoryRomance:     "Romance",
	CategoryTechSupport: "Tech Support",
	CategoryOther:       "Other",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable name shown in the detail panel.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Report is a single scam account tied to the coordinate it was submitted from.
// Apart from Votes the row is never updated after insert.
type Report struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    Category  `gorm:"column:type;not null;type:varchar(20)" json:"category"`
	Latitude    float64   `gorm:"column:lat;not null;index:idx_scams_coordinate" json:"latitude"`
	Longitude   float64   `gorm:"column:lng;not null;index:idx_scams_coordinate" json:"longitude"`
	ImageURL    *string   `gorm:"column:image_url" json:"imageUrl,omitempty"`
	Summary     string    `gorm:"column:ai_summary;type:text" json:"summary"`
	Votes       int       `gorm:"not null;default:0;check:votes >= 0" json:"votes"`
	CreatedAt   time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"createdAt"`
	AuthorID    uint      `gorm:"column:user_id;index" json:"-"`
}

func (Report) TableName() string {
	return "scams"
}

// ReportsTable is the collection name used for realtime notifications.
const ReportsTable = "scams"
