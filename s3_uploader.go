package backupq

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3Uploader.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// S3Uploader puts artifacts into an S3-compatible bucket. The bucket is taken
// from Destination.FolderID and the object key from Artifact.Name.
type S3Uploader struct {
	client *minio.Client
	log    Logger
}

// NewS3Uploader creates a MinIO client for cfg.
func NewS3Uploader(cfg S3Config, log Logger) (*S3Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	if log == nil {
		log = NopLogger{}
	}
	return &S3Uploader{client: client, log: log}, nil
}

// Upload performs one PutObject.
func (s *S3Uploader) Upload(ctx context.Context, a Artifact, d Destination) Result {
	if d.FolderID == "" {
		return Result{Success: false, Message: "destination bucket (folder id) is empty"}
	}
	if a.Name == "" {
		return Result{Success: false, Message: "artifact name is empty"}
	}
	opts := minio.PutObjectOptions{ContentType: a.ContentType}
	if d.NotifyEmail != "" {
		opts.UserMetadata = map[string]string{"notify-email": d.NotifyEmail}
	}
	info, err := s.client.PutObject(ctx, d.FolderID, a.Name, bytes.NewReader(a.Data), int64(len(a.Data)), opts)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("put object %s/%s: %v", d.FolderID, a.Name, err)}
	}
	s.log.Debugf("s3 put ok: bucket=%s key=%s etag=%s", d.FolderID, a.Name, info.ETag)
	return Result{Success: true, Message: fmt.Sprintf("uploaded %s to %s", a.Name, d.FolderID)}
}
