// Package upload stores rendered dumps in an S3-compatible bucket.
//
// Usage:
//
//	up, err := upload.New(ctx, &upload.Config{Endpoint: "localhost:9000", Bucket: "ddl"})
//	if err != nil { ... }
//	key, err := up.Upload(ctx, dump, formatter.FormatSQL)
package upload

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tordrt/ddldump/internal/errs"
	"github.com/tordrt/ddldump/internal/formatter"
	"github.com/tordrt/ddldump/internal/logger"
	"github.com/tordrt/ddldump/internal/schema"
)

// Config holds the bucket connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	Region    string
}

// Uploader writes dumps to one bucket.
// It is safe for concurrent use by multiple goroutines.
type Uploader struct {
	client *miniogo.Client
	bucket string
	prefix string
}

// New creates the client and verifies the bucket exists
func New(ctx context.Context, cfg *Config) (*Uploader, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, mapError(err, "failed to check bucket")
	}
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "bucket "+cfg.Bucket+" does not exist")
	}

	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// ObjectKey returns <prefix>/<dialect>/<schema>.<ext>
func ObjectKey(prefix string, d *schema.Dump, format string) string {
	return path.Join(prefix, d.Dialect, d.Schema+formatter.Extension(format))
}

// ContentType returns the MIME type stored with an object of format
func ContentType(format string) string {
	if format == formatter.FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "application/sql; charset=utf-8"
}

// Upload renders d in format and stores it, returning the object key
func (u *Uploader) Upload(ctx context.Context, d *schema.Dump, format string) (string, error) {
	body, err := formatter.Render(d, format)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "failed to render dump", err)
	}

	key := ObjectKey(u.prefix, d, format)
	info, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(body), int64(len(body)),
		miniogo.PutObjectOptions{ContentType: ContentType(format)})
	if err != nil {
		return "", mapError(err, "failed to upload dump")
	}

	logger.FromContext(ctx).With().
		Str("bucket", u.bucket).
		Str("key", key).
		Logger().
		Infof("uploaded %d bytes", info.Size)
	return key, nil
}

// mapError translates a MinIO SDK error into a *errs.Error
func mapError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		case "RequestTimeout", "SlowDown":
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
