package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultUploadTimeout = 30 * time.Second

var (
	errNoClient          = errors.New("storage: client is required")
	errInvalidBucket     = errors.New("storage: bucket name is required")
	errInvalidObject     = errors.New("storage: object name is required")
	ErrContentTypeDenied = errors.New("storage: content type not allowed")
	ErrObjectTooLarge    = errors.New("storage: object exceeds size limit")
)

// Uploader streams image objects into a Cloud Storage bucket.
type Uploader struct {
	client       *storage.Client
	bucket       string
	prefix       string
	publicHost   string
	allowedTypes []string
	maxSize      int64
	timeout      time.Duration

	// newWriter is replaced in tests; the default writes through the client.
	newWriter func(ctx context.Context, object, contentType string) io.WriteCloser
}

// UploaderOption customises uploader behaviour.
type UploaderOption func(*Uploader)

// WithAllowedContentTypes restricts accepted content types. Entries may use a
// trailing "/*" wildcard.
func WithAllowedContentTypes(types ...string) UploaderOption {
	return func(u *Uploader) {
		u.allowedTypes = append(u.allowedTypes, types...)
	}
}

// WithMaxObjectSize caps the accepted object size in bytes.
func WithMaxObjectSize(size int64) UploaderOption {
	return func(u *Uploader) {
		if size > 0 {
			u.maxSize = size
		}
	}
}

// WithUploadTimeout bounds each upload operation.
func WithUploadTimeout(timeout time.Duration) UploaderOption {
	return func(u *Uploader) {
		if timeout > 0 {
			u.timeout = timeout
		}
	}
}

// WithPublicHost overrides the host used when building public object URLs.
func WithPublicHost(host string) UploaderOption {
	return func(u *Uploader) {
		u.publicHost = strings.TrimSpace(host)
	}
}

// NewUploader constructs an uploader bound to a bucket and object prefix.
func NewUploader(client *storage.Client, bucket, prefix string, opts ...UploaderOption) (*Uploader, error) {
	if client == nil {
		return nil, errNoClient
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}

	uploader := &Uploader{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(strings.TrimSpace(prefix), "/"),
		maxSize: 10 << 20,
		timeout: defaultUploadTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

// UploadResult describes a stored object.
type UploadResult struct {
	ObjectName string
	PublicURL  string
	Size       int64
}

// Upload streams the reader into the bucket under the prefix and returns the
// object details. The object name must not contain path traversal segments.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (UploadResult, error) {
	if u == nil || u.client == nil {
		return UploadResult{}, errNoClient
	}

	name = strings.TrimSpace(name)
	if name == "" || name != path.Base(name) {
		return UploadResult{}, errInvalidObject
	}

	contentType = strings.TrimSpace(contentType)
	if len(u.allowedTypes) > 0 && !contentTypeAllowed(contentType, u.allowedTypes) {
		return UploadResult{}, ErrContentTypeDenied
	}

	object := name
	if u.prefix != "" {
		object = u.prefix + "/" + name
	}

	var cancel context.CancelFunc
	uploadCtx := ctx
	if u.timeout > 0 {
		uploadCtx, cancel = context.WithTimeout(ctx, u.timeout)
	} else {
		uploadCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	writer := u.createWriter(uploadCtx, object, contentType)
	if u.maxSize > 0 {
		body = io.LimitReader(body, u.maxSize+1)
	}

	// Cancelling the writer's context before Close aborts the upload, so a
	// rejected object is never committed to the bucket.
	written, err := io.Copy(writer, body)
	if err != nil {
		cancel()
		_ = writer.Close()
		return UploadResult{}, fmt.Errorf("storage: write object %s: %w", object, err)
	}
	if u.maxSize > 0 && written > u.maxSize {
		cancel()
		_ = writer.Close()
		return UploadResult{}, ErrObjectTooLarge
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("storage: finalise object %s: %w", object, err)
	}

	return UploadResult{
		ObjectName: object,
		PublicURL:  u.publicURL(object),
		Size:       written,
	}, nil
}

func (u *Uploader) createWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	if u.newWriter != nil {
		return u.newWriter(ctx, object, contentType)
	}
	writer := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	return writer
}

func (u *Uploader) publicURL(object string) string {
	host := u.publicHost
	if host == "" {
		host = "https://storage.googleapis.com"
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(host, "/"), u.bucket, object)
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if normalized == "" {
		return false
	}
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			if strings.HasPrefix(normalized, strings.TrimSuffix(candidate, "*")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}
