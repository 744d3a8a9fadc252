package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
	"github.com/johnquangdev/meeting-roster/pkg/config"
)

// MinIOClient wraps MinIO operations
type MinIOClient struct {
	client       *minio.Client
	bucket       string
	reportPrefix string
}

var _ roster.ReportUploader = (*MinIOClient)(nil)

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(ctx context.Context, cfg *config.StorageConfig) (*MinIOClient, error) {
	// Initialize MinIO client
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:       minioClient,
		bucket:       cfg.BucketName,
		reportPrefix: cfg.ReportPrefix,
	}

	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket creates the bucket if it does not exist
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// UploadFile uploads a file to MinIO
func (m *MinIOClient) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

// UploadReport stores the session report as JSON and returns its
// location as bucket/object.
func (m *MinIOClient) UploadReport(ctx context.Context, report *entities.SessionReport) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode session report: %w", err)
	}

	objectName := ReportObjectName(m.reportPrefix, report)
	if err := m.UploadFile(ctx, objectName, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", err
	}
	return path.Join(m.bucket, objectName), nil
}

// ReportObjectName builds the object key of a report, e.g.
// reports/standup/2024-03-01T091500Z-<id>.json
func ReportObjectName(prefix string, report *entities.SessionReport) string {
	stamp := report.EndedAt.UTC().Format("2006-01-02T150405Z")
	return path.Join(prefix, report.MeetingID, fmt.Sprintf("%s-%s.json", stamp, report.ID))
}
