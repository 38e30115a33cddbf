package submission

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/scam-spotter/api-go/geo"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/repository"
	"github.com/scam-spotter/api-go/storage"
	"github.com/scam-spotter/api-go/summarizer"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	repository.ReportStore
	inserted []models.Report
	err      error
}

func (s *fakeStore) Insert(ctx context.Context, r *models.Report) error {
	if s.err != nil {
		return s.err
	}
	r.ID = uint(len(s.inserted) + 1)
	s.inserted = append(s.inserted, *r)
	return nil
}

type upload struct {
	path string
	body []byte
	opts storage.UploadOptions
}

type fakeObjects struct {
	uploads []upload
	err     error
}

func (o *fakeObjects) Upload(ctx context.Context, path string, body io.Reader, opts storage.UploadOptions) error {
	if o.err != nil {
		return o.err
	}
	data, _ := io.ReadAll(body)
	o.uploads = append(o.uploads, upload{path: path, body: data, opts: opts})
	return nil
}

func (o *fakeObjects) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

type countingLocator struct {
	geo.Locator
	calls int
}

func (l *countingLocator) Locate(ctx context.Context) (geo.Coordinate, error) {
	l.calls++
	return l.Locator.Locate(ctx)
}

func workingSummarizer() *summarizer.Summarizer {
	return summarizer.New(summarizer.GeneratorFunc(func(ctx context.Context, model, prompt string) (string, error) {
		return "Short summary.", nil
	}), "test-model")
}

func failingSummarizer() *summarizer.Summarizer {
	return summarizer.New(summarizer.GeneratorFunc(func(ctx context.Context, model, prompt string) (string, error) {
		return "", errors.New("model offline")
	}), "test-model")
}

func newTestFlow(store *fakeStore, objects *fakeObjects, sum Summarizer) *Flow {
	log, _ := test.NewNullLogger()
	flow := NewFlow(store, objects, sum, log)
	flow.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return flow
}

func validRequest() Request {
	return Request{
		Title:       "Fake taxi",
		Description: "Driver claimed the meter was broken and charged triple.",
		Category:    models.CategoryOther,
		AuthorID:    7,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"Valid", func(r *Request) {}, nil},
		{"EmptyTitle", func(r *Request) { r.Title = "  " }, ErrMissingFields},
		{"EmptyDescription", func(r *Request) { r.Description = "" }, ErrMissingFields},
		{"MissingCategory", func(r *Request) { r.Category = "" }, ErrMissingFields},
		{"UnknownCategory", func(r *Request) { r.Category = "lottery" }, ErrMissingFields},
		{"OversizedImage", func(r *Request) {
			r.Image = &Image{Name: "a.png", ContentType: "image/png", Size: 6 * 1024 * 1024}
		}, ErrImageTooLarge},
		{"NotAnImage", func(r *Request) {
			r.Image = &Image{Name: "a.pdf", ContentType: "application/pdf", Size: 1024}
		}, ErrNotAnImage},
		{"ImageAtLimit", func(r *Request) {
			r.Image = &Image{Name: "a.jpg", ContentType: "image/jpeg", Size: MaxImageSize}
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := Validate(req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFlow_Submit(t *testing.T) {
	ctx := context.Background()
	here := geo.Coordinate{Latitude: 48.8584, Longitude: 2.2945}

	t.Run("WithImage", func(t *testing.T) {
		store, objects := &fakeStore{}, &fakeObjects{}
		flow := newTestFlow(store, objects, workingSummarizer())

		req := validRequest()
		req.Image = &Image{Name: "Evidence.PNG", ContentType: "image/png", Size: 3, Body: bytes.NewReader([]byte("png"))}

		report, err := flow.Submit(ctx, geo.Fixed(here), req)
		require.NoError(t, err)

		require.Len(t, objects.uploads, 1)
		assert.Equal(t, "scam-images/1700000000123.png", objects.uploads[0].path)
		assert.Equal(t, []byte("png"), objects.uploads[0].body)
		assert.Equal(t, "image/png", objects.uploads[0].opts.ContentType)
		assert.Equal(t, "3600", objects.uploads[0].opts.CacheControl)
		assert.False(t, objects.uploads[0].opts.Upsert)

		require.Len(t, store.inserted, 1)
		assert.Equal(t, uint(1), report.ID)
		assert.Equal(t, here.Latitude, report.Latitude)
		assert.Equal(t, here.Longitude, report.Longitude)
		assert.Equal(t, "Short summary.", report.Summary)
		assert.Equal(t, 0, report.Votes)
		assert.Equal(t, uint(7), report.AuthorID)
		require.NotNil(t, report.ImageURL)
		assert.Equal(t, "https://cdn.example.com/scam-images/1700000000123.png", *report.ImageURL)
	})

	t.Run("InvalidInputWritesNothing", func(t *testing.T) {
		store, objects := &fakeStore{}, &fakeObjects{}
		locator := &countingLocator{Locator: geo.Fixed(here)}
		flow := newTestFlow(store, objects, workingSummarizer())

		req := validRequest()
		req.Title = ""
		_, err := flow.Submit(ctx, locator, req)
		assert.ErrorIs(t, err, ErrMissingFields)
		assert.Empty(t, store.inserted)
		assert.Empty(t, objects.uploads)
		assert.Zero(t, locator.calls)
	})

	t.Run("OversizedImageRejectedBeforeNetwork", func(t *testing.T) {
		store, objects := &fakeStore{}, &fakeObjects{}
		locator := &countingLocator{Locator: geo.Fixed(here)}
		flow := newTestFlow(store, objects, workingSummarizer())

		req := validRequest()
		req.Image = &Image{Name: "big.jpg", ContentType: "image/jpeg", Size: 6 * 1024 * 1024, Body: bytes.NewReader(nil)}
		_, err := flow.Submit(ctx, locator, req)
		assert.ErrorIs(t, err, ErrImageTooLarge)
		assert.Zero(t, locator.calls)
		assert.Empty(t, objects.uploads)
		assert.Empty(t, store.inserted)
	})

	t.Run("NonImageRejectedBeforeNetwork", func(t *testing.T) {
		store, objects := &fakeStore{}, &fakeObjects{}
		locator := &countingLocator{Locator: geo.Fixed(here)}
		flow := newTestFlow(store, objects, workingSummarizer())

		req := validRequest()
		req.Image = &Image{Name: "notes.txt", ContentType: "text/plain", Size: 10, Body: bytes.NewReader(nil)}
		_, err := flow.Submit(ctx, locator, req)
		assert.ErrorIs(t, err, ErrNotAnImage)
		assert.Zero(t, locator.calls)
		assert.Empty(t, objects.uploads)
	})

	t.Run("LocationFailureAborts", func(t *testing.T) {
		store, objects := &fakeStore{}, &fakeObjects{}
		flow := newTestFlow(store, objects, workingSummarizer())

		req := validRequest()
		req.Image = &Image{Name: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: bytes.NewReader([]byte("x"))}
		_, err := flow.Submit(ctx, geo.Failing(geo.ErrPermissionDenied), req)
		assert.ErrorIs(t, err, ErrLocationUnavailable)
		assert.ErrorIs(t, err, geo.ErrPermissionDenied)
		assert.Empty(t, objects.uploads)
		assert.Empty(t, store.inserted)
	})

	t.Run("UploadFailureAborts", func(t *testing.T) {
		store, objects := &fakeStore{}, &fakeObjects{err: storage.ErrObjectExists}
		flow := newTestFlow(store, objects, workingSummarizer())

		req := validRequest()
		req.Image = &Image{Name: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: bytes.NewReader([]byte("x"))}
		_, err := flow.Submit(ctx, geo.Fixed(here), req)
		assert.ErrorIs(t, err, ErrUploadFailed)
		assert.ErrorIs(t, err, storage.ErrObjectExists)
		assert.Empty(t, store.inserted)
	})

	t.Run("SummarizerFailureStillStoresOneReport", func(t *testing.T) {
		store, objects := &fakeStore{}, &fakeObjects{}
		flow := newTestFlow(store, objects, failingSummarizer())

		report, err := flow.Submit(ctx, geo.Fixed(here), validRequest())
		require.NoError(t, err)
		require.Len(t, store.inserted, 1)
		assert.Equal(t, summarizer.FallbackSummary, report.Summary)
		assert.Equal(t, summarizer.FallbackSummary, store.inserted[0].Summary)
		assert.Nil(t, report.ImageURL)
	})

	t.Run("InsertFailureSurfaces", func(t *testing.T) {
		boom := errors.New("connection refused")
		store, objects := &fakeStore{err: boom}, &fakeObjects{}
		flow := newTestFlow(store, objects, workingSummarizer())

		req := validRequest()
		req.Image = &Image{Name: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: bytes.NewReader([]byte("x"))}
		_, err := flow.Submit(ctx, geo.Fixed(here), req)
		assert.ErrorIs(t, err, boom)
		assert.Len(t, objects.uploads, 1)
	})

	t.Run("ImageWithoutStorage", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		store := &fakeStore{}
		flow := NewFlow(store, nil, workingSummarizer(), log)

		req := validRequest()
		req.Image = &Image{Name: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: bytes.NewReader([]byte("x"))}
		_, err := flow.Submit(ctx, geo.Fixed(here), req)
		assert.ErrorIs(t, err, ErrStorageDisabled)
		assert.Empty(t, store.inserted)
	})
}

func TestImageKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "scam-images/1700000000123.jpg", ImageKey("photo.JPG", at))
	assert.Equal(t, "scam-images/1700000000123.webp", ImageKey("shot.final.webp", at))
	assert.Equal(t, "scam-images/1700000000123", ImageKey("noextension", at))
}
