package pin

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	key         string
	contentType string
	data        []byte
	tags        map[string]string
}

type fakeStorage struct {
	mu        sync.Mutex
	uploads   []upload
	uploadErr error
}

func (s *fakeStorage) Upload(ctx context.Context, objectKey string, contentType string, data []byte, tags map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads = append(s.uploads, upload{key: objectKey, contentType: contentType, data: data, tags: tags})
	return nil
}

func (s *fakeStorage) PublicLink(objectKey string) string {
	return "https://s3.example/artclub-images/" + objectKey
}

func (s *fakeStorage) CDNLink(objectKey string) string {
	return "https://cdn.example/" + objectKey
}

func (s *fakeStorage) Bucket() string { return "artclub-images" }

var testOwner = UserInfo{ID: "user-1", Name: "tester-twitter", Service: "twitter"}

func TestRelocate_FetchesAndUploads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("Processed Image data"))
	}))
	defer server.Close()

	storage := &fakeStorage{}
	repo := newFakeRepo()
	relocator := NewImageRelocator(storage, repo, server.Client(), 0)

	res, err := relocator.Relocate(context.Background(), "pin123", testOwner, server.URL)
	require.NoError(t, err)

	require.Len(t, storage.uploads, 1)
	up := storage.uploads[0]
	assert.Equal(t, "pins/pin123.png", up.key)
	assert.Equal(t, "image/png", up.contentType)
	assert.Equal(t, []byte("Processed Image data"), up.data)
	assert.Equal(t, map[string]string{
		"userId":  "user-1",
		"name":    "tester-twitter",
		"service": "twitter",
	}, up.tags)

	assert.Equal(t, "https://s3.example/artclub-images/pins/pin123.png", res.Link)
	assert.NotEqual(t, server.URL, res.Link)
	assert.Equal(t, []byte("Processed Image data"), res.Bytes)
	assert.Equal(t, "image/png", res.ContentType)

	require.Len(t, repo.pinLinks, 1)
	assert.Equal(t, "pin123", repo.pinLinks[0].PinID)
	assert.Equal(t, res.Link, repo.pinLinks[0].ImgLink)
	assert.Equal(t, "https://cdn.example/pins/pin123.png", repo.pinLinks[0].CloudFrontLink)
}

func TestRelocate_DataURIRoundTrip(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02, 0xff}
	ref := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	storage := &fakeStorage{}
	repo := newFakeRepo()
	relocator := NewImageRelocator(storage, repo, nil, 0)

	res, err := relocator.Relocate(context.Background(), "pin123", testOwner, ref)
	require.NoError(t, err)

	require.Len(t, storage.uploads, 1)
	up := storage.uploads[0]
	assert.Equal(t, payload, up.data, "uploaded bytes must equal the decoded payload exactly")
	assert.Equal(t, "image/jpeg", up.contentType)
	assert.Equal(t, "pins/pin123.jpg", up.key)
	assert.Equal(t, res.Bytes, payload)
	assert.Equal(t, "image/jpeg", res.ContentType)
}

func TestRelocate_InvalidSchemeNoUpload(t *testing.T) {
	storage := &fakeStorage{}
	relocator := NewImageRelocator(storage, newFakeRepo(), nil, 0)

	_, err := relocator.Relocate(context.Background(), "pin123", testOwner, "htt://stub-4")
	assert.ErrorIs(t, err, ErrUnrelocatable)
	assert.Empty(t, storage.uploads)
}

func TestRelocate_NoStorageStillReturnsBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("fetched anyway"))
	}))
	defer server.Close()

	relocator := NewImageRelocator(nil, newFakeRepo(), server.Client(), 0)

	res, err := relocator.Relocate(context.Background(), "pin123", testOwner, server.URL)
	assert.ErrorIs(t, err, ErrUnrelocatable)
	assert.Equal(t, []byte("fetched anyway"), res.Bytes, "labeling input survives missing credentials")
	assert.Equal(t, "image/png", res.ContentType)
	assert.Empty(t, res.Link)
}

func TestRelocate_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	storage := &fakeStorage{}
	relocator := NewImageRelocator(storage, newFakeRepo(), server.Client(), 0)

	_, err := relocator.Relocate(context.Background(), "pin123", testOwner, server.URL)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Empty(t, storage.uploads)
}

func TestRelocate_UploadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	storage := &fakeStorage{uploadErr: context.DeadlineExceeded}
	repo := newFakeRepo()
	relocator := NewImageRelocator(storage, repo, server.Client(), 0)

	res, err := relocator.Relocate(context.Background(), "pin123", testOwner, server.URL)
	require.Error(t, err)
	assert.Empty(t, repo.pinLinks, "no audit record without a successful upload")
	assert.Equal(t, []byte("data"), res.Bytes, "labeling input survives the failed upload")
	assert.Empty(t, res.Link)
}

func TestRelocate_MalformedDataURI(t *testing.T) {
	relocator := NewImageRelocator(&fakeStorage{}, newFakeRepo(), nil, 0)

	_, err := relocator.Relocate(context.Background(), "pin123", testOwner, "data:image/png;base64")
	assert.ErrorIs(t, err, ErrUnrelocatable)

	_, err = relocator.Relocate(context.Background(), "pin123", testOwner, "data:image/png,plain-not-base64")
	assert.ErrorIs(t, err, ErrUnrelocatable)
}

func TestDecodeDataURI_DefaultsContentType(t *testing.T) {
	ref := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString([]byte("x"))
	data, contentType, err := decodeDataURI(ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
	assert.Equal(t, "", contentType, "non-image content types fall back to the image/png default")
}
