// Package gcs uploads published data files to the dashboard's public
// Cloud Storage bucket.
package gcs

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/couchcryptid/gv-dashboard-data/internal/config"
)

// Publisher uploads local JSON artifacts as gzip-compressed public objects.
// It implements pipeline.Publisher.
type Publisher struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewPublisher creates a Cloud Storage publisher for the configured bucket.
// An explicit credentials file takes precedence over ambient credentials.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("credentials file %s: %w", cfg.CredentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Publisher{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Publish uploads one local JSON file to the bucket under the given object
// name. The body is gzip-compressed; browsers decompress transparently via
// the Content-Encoding header.
func (p *Publisher) Publish(ctx context.Context, localPath, object string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	w := p.client.Bucket(p.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	w.ContentEncoding = "gzip"
	w.CacheControl = "no-cache"

	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, f); err != nil {
		return fmt.Errorf("upload %s: %w", object, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flush gzip for %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", object, err)
	}

	p.logger.Info("published object", "bucket", p.bucket, "object", object)
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
