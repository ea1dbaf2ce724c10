package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/afero"

	"github.com/ifexport/ifexport/internal/config"
	"github.com/ifexport/ifexport/pkg/logger"
)

const contentType = "text/csv; charset=utf-8"

// Error reports a failed upload. The local export is unaffected.
type Error struct {
	Object string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to publish %s: %v", e.Object, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StoredObject describes an uploaded export.
type StoredObject struct {
	URI      string `json:"uri"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// ObjectStore is the subset of *minio.Client used for publishing.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads the export file to an S3-compatible bucket.
type Publisher struct {
	store    ObjectStore
	fs       afero.Fs
	bucket   string
	prefix   string
	endpoint string
}

// New returns nil when no MinIO host is configured.
func New(cfg config.MinioConfig, fs afero.Fs) (*Publisher, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, nil
	}
	port := cfg.Port
	if port <= 0 {
		port = 9000
	}
	endpoint := net.JoinHostPort(host, strconv.Itoa(port))

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 5 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.Secure,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client for %s: %w", endpoint, err)
	}
	return NewWithStore(client, fs, endpoint, cfg.Bucket, cfg.Prefix), nil
}

// NewWithStore builds a publisher around an existing store.
func NewWithStore(store ObjectStore, fs afero.Fs, endpoint, bucket, prefix string) *Publisher {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		bucket = "ifexport"
	}
	return &Publisher{
		store:    store,
		fs:       fs,
		bucket:   bucket,
		prefix:   strings.Trim(strings.TrimSpace(prefix), "/"),
		endpoint: endpoint,
	}
}

// ObjectName is <prefix>/<hostname>/<file name>.
func (p *Publisher) ObjectName(hostname, localPath string) string {
	parts := []string{}
	if p.prefix != "" {
		parts = append(parts, p.prefix)
	}
	parts = append(parts, slug(hostname), filepath.Base(localPath))
	return path.Join(parts...)
}

// Publish uploads localPath once, creating the bucket if needed. An existing
// object of the same name is overwritten.
func (p *Publisher) Publish(ctx context.Context, hostname, localPath string) (StoredObject, error) {
	object := p.ObjectName(hostname, localPath)

	data, err := afero.ReadFile(p.fs, localPath)
	if err != nil {
		return StoredObject{}, &Error{Object: object, Err: err}
	}

	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return StoredObject{}, &Error{Object: object, Err: fmt.Errorf("bucket check on %s: %w", p.endpoint, err)}
	}
	if !exists {
		if err := p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return StoredObject{}, &Error{Object: object, Err: fmt.Errorf("create bucket %s: %w", p.bucket, err)}
		}
		logger.Infof("Created bucket %s on %s", p.bucket, p.endpoint)
	}

	_, err = p.store.PutObject(ctx, p.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return StoredObject{}, &Error{Object: object, Err: err}
	}

	sum := sha256.Sum256(data)
	return StoredObject{
		URI:      "minio://" + path.Join(p.bucket, object),
		Size:     int64(len(data)),
		Checksum: "sha256:" + hex.EncodeToString(sum[:]),
	}, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9._-]+`)

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(s)
	s = slugRe.ReplaceAllString(s, "")
	if s == "" {
		s = "unknown"
	}
	return s
}
