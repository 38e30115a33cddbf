package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; ok {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(body)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func newTestStore() (*R2Store, *fakeS3) {
	fake := &fakeS3{objects: map[string]string{}}
	return &R2Store{client: fake, bucket: "scam-images", publicURL: "https://cdn.example.com"}, fake
}

func TestR2Store_Upload(t *testing.T) {
	store, fake := newTestStore()
	ctx := context.Background()

	err := store.Upload(ctx, "scam-images/1700000000000.png", strings.NewReader("png"), UploadOptions{
		ContentType:   "image/png",
		ContentLength: 3,
		CacheControl:  "3600",
	})
	require.NoError(t, err)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "scam-images", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.puts[0].ContentType))
	assert.Equal(t, "max-age=3600", aws.ToString(fake.puts[0].CacheControl))
	assert.Equal(t, "png", fake.objects["scam-images/1700000000000.png"])

	t.Run("NoOverwrite", func(t *testing.T) {
		err := store.Upload(ctx, "scam-images/1700000000000.png", strings.NewReader("again"), UploadOptions{ContentType: "image/png"})
		assert.ErrorIs(t, err, ErrObjectExists)
		assert.Len(t, fake.puts, 1)
	})

	t.Run("Upsert", func(t *testing.T) {
		err := store.Upload(ctx, "scam-images/1700000000000.png", strings.NewReader("again"), UploadOptions{ContentType: "image/png", Upsert: true})
		require.NoError(t, err)
		assert.Equal(t, "again", fake.objects["scam-images/1700000000000.png"])
	})
}

func TestR2Store_PublicURL(t *testing.T) {
	store, _ := newTestStore()
	assert.Equal(t, "https://cdn.example.com/scam-images/1.jpg", store.PublicURL("scam-images/1.jpg"))
}
