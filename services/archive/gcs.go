package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/option"

	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
)

// GCSTarget writes objects to a Cloud Storage bucket
type GCSTarget struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
}

var _ Target = (*GCSTarget)(nil)

// NewGCSTarget connects to Cloud Storage. With empty credsJSON the
// application default credentials are used.
func NewGCSTarget(ctx context.Context, bucket, credsJSON string) (*GCSTarget, error) {
	var opts []option.ClientOption
	if credsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.NewStorage("create storage client", err)
	}
	return &GCSTarget{client: client, bucket: bucket, log: logger.ForArchive()}, nil
}

// Put uploads data, retrying transient failures
func (g *GCSTarget) Put(ctx context.Context, key string, data []byte) error {
	err := retry.Do(
		func() error {
			w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
			w.ContentType = "text/csv"
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					g.log.Warn().Err(closeErr).Msg("Failed to close writer after error")
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			g.log.Info().
				Uint("attempt", n).
				Str("bucket", g.bucket).
				Str("key", key).
				Err(retryErr).
				Msg("Retrying archive upload")
		}),
	)
	if err != nil {
		return errors.NewStorage("upload gs://"+g.bucket+"/"+key, err)
	}
	return nil
}

// Close closes the storage client
func (g *GCSTarget) Close() error {
	return g.client.Close()
}
