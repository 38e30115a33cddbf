// Package submission turns a report form into a stored report: validate, locate,
// upload the evidence image, summarize, insert.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/repository"
	"github.com/scam-spotter/api-go/storage"
	"github.com/sirupsen/logrus"
)

const (
	MaxImageSize = 5 * 1024 * 1024

	// ImagePrefix is the folder inside the bucket that holds evidence images.
	ImagePrefix = "scam-images/"

	imageCacheSeconds = "3600"
)

var (
	ErrMissingFields       = errors.New("please fill in all required fields")
	ErrImageTooLarge       = errors.New("file size must be less than 5MB")
	ErrNotAnImage          = errors.New("only image files are allowed")
	ErrLocationUnavailable = errors.New("could not get your location, please allow location access")
	ErrUploadFailed        = errors.New("failed to upload image")
	ErrStorageDisabled     = errors.New("image uploads are not configured")
)

type Image struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Request struct {
	Title       string
	Description string
	Category    models.Category
	Image       *Image
	AuthorID    uint
}

// Summarizer produces the stored summary. It returns usable text even when err is set.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type Flow struct {
	store      repository.ReportStore
	objects    storage.ObjectStore
	summarizer Summarizer
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewFlow builds a submission flow. objects may be nil, in which case requests
// carrying an image are rejected.
func NewFlow(store repository.ReportStore, objects storage.ObjectStore, summarizer Summarizer, log logrus.FieldLogger) *Flow {
	return &Flow{
		store:      store,
		objects:    objects,
		summarizer: summarizer,
		log:        log,
		now:        time.Now,
	}
}

// Validate checks the text fields and the optional image without touching the network.
func Validate(req Request) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || req.Category == "" {
		return ErrMissingFields
	}
	if !req.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrMissingFields, req.Category)
	}
	return ValidateImage(req.Image)
}

func ValidateImage(img *Image) error {
	if img == nil {
		return nil
	}
	if img.Size > MaxImageSize {
		return ErrImageTooLarge
	}
	if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
		return ErrNotAnImage
	}
	return nil
}

// Submit runs the whole flow. Nothing is written unless the request is valid and
// the reporter's position is known.
func (f *Flow) Submit(ctx context.Context, locator geo.Locator, req Request) (*models.Report, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.Image != nil && f.objects == nil {
		return nil, ErrStorageDisabled
	}

	coord, err := locator.Locate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	var imageURL *string
	if req.Image != nil {
		key := ImageKey(req.Image.Name, f.now())
		err := f.objects.Upload(ctx, key, req.Image.Body, storage.UploadOptions{
			ContentType:   req.Image.ContentType,
			ContentLength: req.Image.Size,
			CacheControl:  imageCacheSeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		url := f.objects.PublicURL(key)
		imageURL = &url
	}

	summary, err := f.summarizer.Summarize(ctx, req.Description)
	if err != nil {
		f.log.WithError(err).Warn("summary unavailable, storing fallback text")
	}

	report := &models.Report{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Latitude:    coord.Latitude,
		Longitude:   coord.Longitude,
		ImageURL:    imageURL,
		Summary:     summary,
		AuthorID:    req.AuthorID,
	}
	if err := f.store.Insert(ctx, report); err != nil {
		if imageURL != nil {
			f.log.WithField("image_url", *imageURL).Warn("report insert failed, image left in bucket")
		}
		return nil, err
	}

	f.log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"category":  report.Category,
		"lat":       report.Latitude,
		"lng":       report.Longitude,
	}).Info("report submitted")
	return report, nil
}

// ImageKey names an uploaded image after the upload time, keeping the file extension.
func ImageKey(name string, at time.Time) string {
	return fmt.Sprintf("%s%d%s", ImagePrefix, at.UnixMilli(), strings.ToLower(path.Ext(name)))
}
