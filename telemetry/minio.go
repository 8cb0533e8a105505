package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"raceserver/config"
)

const reportPrefix = "crash/"

// ErrEndpoint is wrapped by every rejected Telemetry.Endpoint.
var ErrEndpoint = errors.New("invalid telemetry endpoint")

// bucketHost resolves Telemetry.Endpoint to the host:port minio dials and whether to
// use TLS. A bare host follows UseSSL; an explicit scheme must agree with it.
func bucketHost(cfg config.Telemetry) (string, bool, error) {
	raw := strings.TrimSpace(cfg.Endpoint)
	scheme, host, hasScheme := strings.Cut(raw, "://")
	if !hasScheme {
		host, scheme = raw, ""
	}
	if hasScheme {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, fmt.Errorf("%w: %v", ErrEndpoint, err)
		}
		if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" || u.User != nil {
			return "", false, fmt.Errorf("%w: %q must be a bare host, the bucket goes in Telemetry.Bucket", ErrEndpoint, raw)
		}
		host = u.Host
	}
	if host == "" {
		return "", false, fmt.Errorf("%w: no host in %q", ErrEndpoint, raw)
	}

	switch strings.ToLower(scheme) {
	case "":
		return host, cfg.UseSSL, nil
	case "https":
		return host, true, nil
	case "http":
		if cfg.UseSSL {
			return "", false, fmt.Errorf("%w: %q is plain http but Telemetry.UseSSL is set", ErrEndpoint, raw)
		}
		return host, false, nil
	default:
		return "", false, fmt.Errorf("%w: unsupported scheme %q", ErrEndpoint, scheme)
	}
}

// MinioUploader writes reports to an S3 compatible bucket.
type MinioUploader struct {
	client *minio.Client
	bucket string
}

// NewMinioUploader connects to the configured bucket, which must already exist.
func NewMinioUploader(ctx context.Context, cfg config.Telemetry) (*MinioUploader, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("telemetry configuration incomplete")
	}
	endpoint, secure, err := bucketHost(cfg)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("telemetry bucket does not exist: %s", cfg.Bucket)
	}
	return &MinioUploader{client: client, bucket: cfg.Bucket}, nil
}

func reportKey(id string) string {
	return reportPrefix + id + ".json"
}

func (u *MinioUploader) Upload(ctx context.Context, r Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = u.client.PutObject(ctx, u.bucket, reportKey(r.ID), bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("upload report %s: %w", r.ID, err)
	}
	return nil
}
