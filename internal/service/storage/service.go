package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rusithink-backend/internal/config"
	"rusithink-backend/internal/domain"
	"rusithink-backend/pkg/constants"
	apperrors "rusithink-backend/pkg/errors"
	"rusithink-backend/pkg/metrics"
)

// ValidateUpload checks an attachment against the size limit and the allowed
// extension set before any byte is stored
func ValidateUpload(fileName string, size int64) error {
	if size > constants.MaxUploadSize {
		metrics.ChatUploadRejectedTotal.WithLabelValues("size").Inc()
		return apperrors.FileTooLargeError(fmt.Sprintf("file exceeds the %d MB limit", constants.MaxUploadSize>>20))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if !constants.AllowedUploadExtensions[ext] {
		metrics.ChatUploadRejectedTotal.WithLabelValues("extension").Inc()
		return apperrors.FileTypeError(fmt.Sprintf("file type %q is not allowed", ext))
	}
	return nil
}

// Service stores chat attachments in MinIO
type Service struct {
	minioClient *minio.Client
	bucketName  string
}

// NewService creates a new storage service and ensures the bucket exists
func NewService(cfg config.MinIOConfig) (*Service, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Service{
		minioClient: minioClient,
		bucketName:  cfg.Bucket,
	}, nil
}

// Upload validates and stores one attachment and returns its descriptor.
// The object key namespaces files per uploader so names never collide.
func (s *Service) Upload(ctx context.Context, uploaderID uuid.UUID, fileName string, size int64, contentType string, reader io.Reader) (*domain.Attachment, error) {
	if err := ValidateUpload(fileName, size); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("%s/%s-%s", uploaderID, uuid.New(), filepath.Base(fileName))

	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, apperrors.StorageError(err)
	}

	return &domain.Attachment{
		FileName: filepath.Base(fileName),
		FileURL:  "/api/chat/files/" + objectKey,
		FileSize: size,
	}, nil
}

// Download streams a stored attachment. The caller owns closing the reader.
func (s *Service) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := s.minioClient.GetObject(ctx, s.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.StorageError(err)
	}
	return object, nil
}
