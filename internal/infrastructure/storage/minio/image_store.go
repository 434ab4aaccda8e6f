package minio

import (
	"bytes"
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
)

// Object prefixes for uploaded photos.
const (
	PrefixPrescriptionImages = "prescription_images/"
	PrefixMedicationImages   = "med_images/"
)

// ImageStore persists uploaded photos and hands back their URL.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, originalName, prefix string) (string, error)
	Delete(ctx context.Context, objectURL string) error
	PresignedURL(ctx context.Context, objectURL string, expiry time.Duration) (string, error)
}

type imageStore struct {
	client *MinIOClient
	logger logging.Logger
}

func NewImageStore(client *MinIOClient, log logging.Logger) ImageStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &imageStore{client: client, logger: log}
}

// BlobName is prefix + uuid + "-" + the base of the original file name.
func BlobName(prefix, originalName string) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return prefix + uuid.NewString() + "-" + base
}

func (s *imageStore) Upload(ctx context.Context, data []byte, originalName, prefix string) (string, error) {
	if len(data) == 0 {
		return "", errors.New(errors.ErrCodeImageMissing, "no file buffer provided")
	}
	key := BlobName(prefix, originalName)

	_, err := s.client.client.PutObject(ctx, s.client.config.BucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  http.DetectContentType(data),
			UserMetadata: map[string]string{"original-name": originalName},
		})
	if err != nil {
		s.logger.Error("Storage upload failed", logging.String("key", key), logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload image")
	}

	u := s.client.ObjectURL(key)
	s.logger.Debug("File uploaded", logging.String("url", u), logging.Int("bytes", len(data)))
	return u, nil
}

// Delete ignores URLs that do not point into this bucket.
func (s *imageStore) Delete(ctx context.Context, objectURL string) error {
	key, ok := s.client.KeyFromURL(objectURL)
	if !ok {
		return nil
	}
	if err := s.client.client.RemoveObject(ctx, s.client.config.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to delete image")
	}
	return nil
}

func (s *imageStore) PresignedURL(ctx context.Context, objectURL string, expiry time.Duration) (string, error) {
	key, ok := s.client.KeyFromURL(objectURL)
	if !ok {
		return objectURL, nil
	}
	if expiry <= 0 {
		expiry = s.client.config.PresignExpiry
	}
	u, err := s.client.client.PresignedGetObject(ctx, s.client.config.BucketName, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to presign image url")
	}
	return u.String(), nil
}

//Personal.AI order the ending
