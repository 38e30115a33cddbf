// Package panel lists the reports filed at one exact coordinate.
package panel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/models"
)

const EmptyMessage = "No scams reported at this location yet."

var ErrUnknownItem = errors.New("report is not listed at this location")

type Store interface {
	AtCoordinate(ctx context.Context, c geo.Coordinate) ([]models.Report, error)
	IncrementVotes(ctx context.Context, id uint) (int, error)
}

// Panel holds the reports of one coordinate. At most one item is expanded at a
// time. A Panel is not safe for concurrent use.
type Panel struct {
	store    Store
	coord    geo.Coordinate
	reports  []models.Report
	expanded uint
}

// Detail is revealed when an item is expanded.
type Detail struct {
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"categoryLabel"`
	CreatedAt     time.Time `json:"createdAt"`
	Description   string    `json:"description"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
}

type Item struct {
	ID       uint    `json:"id"`
	Summary  string  `json:"summary"`
	Votes    int     `json:"votes"`
	Expanded bool    `json:"expanded"`
	Detail   *Detail `json:"detail,omitempty"`
}

type View struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Empty      bool           `json:"empty"`
	Message    string         `json:"message,omitempty"`
	Items      []Item         `json:"items"`
}

func Open(ctx context.Context, store Store, c geo.Coordinate) (*Panel, error) {
	reports, err := store.AtCoordinate(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load location %s: %w", c, err)
	}
	SortReports(reports)
	return &Panel{store: store, coord: c, reports: reports}, nil
}

// SortReports orders by votes, then by creation time, newest first.
func SortReports(reports []models.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Votes != reports[j].Votes {
			return reports[i].Votes > reports[j].Votes
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}

func (p *Panel) Coordinate() geo.Coordinate {
	return p.coord
}

func (p *Panel) Empty() bool {
	return len(p.reports) == 0
}

func (p *Panel) Message() string {
	if p.Empty() {
		return EmptyMessage
	}
	return ""
}

// Toggle expands the item and collapses any other. Toggling the expanded item
// collapses it.
func (p *Panel) Toggle(id uint) error {
	if !p.has(id) {
		return ErrUnknownItem
	}
	if p.expanded == id {
		p.expanded = 0
		return nil
	}
	p.expanded = id
	return nil
}

// Expanded reports the expanded item, if any.
func (p *Panel) Expanded() (uint, bool) {
	return p.expanded, p.expanded != 0
}

func (p *Panel) Items() []Item {
	items := make([]Item, 0, len(p.reports))
	for _, r := range p.reports {
		item := Item{ID: r.ID, Summary: r.Summary, Votes: r.Votes}
		if r.ID == p.expanded {
			item.Expanded = true
			item.Detail = &Detail{
				Title:         r.Title,
				Category:      string(r.Category),
				CategoryLabel: r.Category.Label(),
				CreatedAt:     r.CreatedAt,
				Description:   r.Description,
				ImageURL:      r.ImageURL,
			}
		}
		items = append(items, item)
	}
	return items
}

func (p *Panel) View() View {
	return View{
		Coordinate: p.coord,
		Empty:      p.Empty(),
		Message:    p.Message(),
		Items:      p.Items(),
	}
}

// Upvote adds one vote to a listed report. The panel keeps showing the counts it
// loaded; reopen it to see the new value.
func (p *Panel) Upvote(ctx context.Context, id uint) (int, error) {
	if !p.has(id) {
		return 0, ErrUnknownItem
	}
	return Upvote(ctx, p.store, id)
}

// Upvote adds exactly one vote to report id and returns the stored count.
func Upvote(ctx context.Context, store Store, id uint) (int, error) {
	votes, err := store.IncrementVotes(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("upvote report %d: %w", id, err)
	}
	return votes, nil
}

func (p *Panel) has(id uint) bool {
	for _, r := range p.reports {
		if r.ID == id {
			return true
		}
	}
	return false
}
