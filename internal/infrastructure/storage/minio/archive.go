package minio

import (
	"bytes"
	"context"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/pkg/errors"
)

// DocumentArchive stores the original uploaded documents so adjusters can
// review exactly what was analyzed.
type DocumentArchive struct {
	client  *Client
	metrics *prometheus.AppMetrics
}

var _ claim.DocumentArchive = (*DocumentArchive)(nil)

// NewDocumentArchive builds the archive over an established client.
func NewDocumentArchive(client *Client, metrics *prometheus.AppMetrics) *DocumentArchive {
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	return &DocumentArchive{client: client, metrics: metrics}
}

// Store uploads one document under claims/<id>/<filename> and returns the
// object key.
func (a *DocumentArchive) Store(ctx context.Context, claimID uuid.UUID, filename string, data []byte) (string, error) {
	start := time.Now()
	key := path.Join("claims", claimID.String(), sanitizeFilename(filename))

	_, err := a.client.api.PutObject(ctx, a.client.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeFor(filename)})

	status := "ok"
	if err != nil {
		status = "error"
	}
	a.metrics.ArchiveUploadsTotal.WithLabelValues(status).Inc()
	a.metrics.ArchiveUploadDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageUploadFailed, "failed to archive document")
	}

	a.client.logger.Debug("archived claim document",
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return key, nil
}

// PresignedURL returns a time-limited download link for an archived document.
func (a *DocumentArchive) PresignedURL(ctx context.Context, key string) (string, error) {
	expiry := a.client.cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := a.client.api.PresignedGetObject(ctx, a.client.cfg.Bucket, key, expiry, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageObjectNotFound, "failed to presign document")
	}
	return u.String(), nil
}

// sanitizeFilename strips path components and characters that complicate
// object keys.
func sanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == "/" || base == "" {
		return "document"
	}
	return base
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
