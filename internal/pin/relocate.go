package pin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnrelocatable marks a source that can never be re-hosted: an
	// unrecognized scheme, or storage that is not configured.
	ErrUnrelocatable = errors.New("image source cannot be relocated")
	ErrFetchFailed   = errors.New("image fetch failed")
)

// RelocationResult carries the storage-hosted link plus the raw bytes and
// their content type, so the labeling step that follows can reuse them
// without a second fetch. Bytes and ContentType are populated whenever the
// source could be retrieved, even if the upload itself failed.
type RelocationResult struct {
	Link        string
	Bytes       []byte
	ContentType string
}

type Relocator interface {
	Relocate(ctx context.Context, pinID string, owner UserInfo, sourceRef string) (RelocationResult, error)
}

type imageRelocator struct {
	storage  ObjectStorage
	repo     Repository
	client   *http.Client
	maxBytes int64
}

// NewImageRelocator builds the relocator. storage may be nil when object
// storage credentials are absent; every relocation then fails soft with
// ErrUnrelocatable, though the source bytes are still retrieved so
// labeling can run.
func NewImageRelocator(storage ObjectStorage, repo Repository, client *http.Client, maxBytes int64) Relocator {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &imageRelocator{
		storage:  storage,
		repo:     repo,
		client:   client,
		maxBytes: maxBytes,
	}
}

func (r *imageRelocator) Relocate(ctx context.Context, pinID string, owner UserInfo, sourceRef string) (RelocationResult, error) {
	var (
		data        []byte
		contentType string
		err         error
	)
	switch {
	case strings.HasPrefix(sourceRef, "data:"):
		data, contentType, err = decodeDataURI(sourceRef)
	case isHTTPLink(sourceRef):
		data, contentType, err = r.fetch(ctx, sourceRef)
	default:
		err = fmt.Errorf("%w: unsupported scheme in %q", ErrUnrelocatable, sourceRef)
	}
	if err != nil {
		return RelocationResult{}, err
	}

	if contentType == "" {
		contentType = "image/png"
	}
	res := RelocationResult{Bytes: data, ContentType: contentType}

	// Bytes travel back with the error so labeling still has its input.
	if r.storage == nil {
		return res, fmt.Errorf("%w: object storage not configured", ErrUnrelocatable)
	}

	objectKey := fmt.Sprintf("pins/%s.%s", pinID, extForContentType(contentType))

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err = r.storage.Upload(uploadCtx, objectKey, contentType, data, map[string]string{
		"userId":  owner.ID,
		"name":    owner.Name,
		"service": owner.Service,
	})
	if err != nil {
		return res, fmt.Errorf("upload failed: %w", err)
	}

	res.Link = r.storage.PublicLink(objectKey)
	audit := PinLink{
		PinID:          pinID,
		ImgLink:        res.Link,
		CloudFrontLink: r.storage.CDNLink(objectKey),
	}
	if err := r.repo.InsertPinLink(ctx, audit); err != nil {
		log.Printf("pin link audit insert failed for pin %s: %v", pinID, err)
	}

	return res, nil
}

func (r *imageRelocator) fetch(ctx context.Context, link string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: status %d from %s", ErrFetchFailed, resp.StatusCode, link)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = ""
	}
	return data, contentType, nil
}

// decodeDataURI decodes an inline payload of the form
// data:image/png;base64,<payload>.
func decodeDataURI(ref string) ([]byte, string, error) {
	meta, payload, found := strings.Cut(ref, ",")
	if !found {
		return nil, "", fmt.Errorf("%w: malformed data URI", ErrUnrelocatable)
	}

	meta = strings.TrimPrefix(meta, "data:")
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("%w: data URI is not base64 encoded", ErrUnrelocatable)
	}
	contentType := strings.TrimSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnrelocatable, err)
	}

	if !strings.HasPrefix(contentType, "image/") {
		contentType = ""
	}
	return data, contentType, nil
}

func isHTTPLink(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func extForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
