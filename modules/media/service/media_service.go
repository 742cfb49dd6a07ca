package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"schedule-agent/core/constants"
	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	"schedule-agent/core/utils"
	"schedule-agent/modules/media/dto"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
)

const MaxAudioSize = 20 << 20

// ObjectPutter is the part of the S3 client the service uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// NewS3Client builds a client for AWS or any S3-compatible endpoint.
func NewS3Client(cfg StorageConfig) *s3.Client {
	awsCfg := aws.Config{
		Region: cfg.Region,
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
}

type MediaService struct {
	client        ObjectPutter
	bucket        string
	publicBaseURL string
}

func NewMediaService(client ObjectPutter, bucket, publicBaseURL string) *MediaService {
	return &MediaService{client: client, bucket: bucket, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// UploadAudio stores body under audio/<id>-<slug><ext>.
func (s *MediaService) UploadAudio(ctx context.Context, filename, contentType string, size int64, body io.Reader) (*dto.UploadResponse, error) {
	if size <= 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "file is empty", nil)
	}
	if size > MaxAudioSize {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("file exceeds %d bytes", MaxAudioSize), nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(ext)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || !strings.HasPrefix(mediaType, "audio/") {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "file must be audio", err)
	}

	key := ObjectKey(filename)
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		logger.Error("MediaService:UploadAudio:PutObject:Error", "key", key, "error", err)
		return nil, errors.NewAppError(errors.ErrExternalSync, "failed to store audio", err)
	}
	logger.Info("MediaService:UploadAudio:Stored", "key", key, "size", size)

	resp := &dto.UploadResponse{Key: key, Size: size, ContentType: contentType}
	if s.publicBaseURL != "" {
		resp.URL = s.publicBaseURL + "/" + key
	}
	return resp, nil
}

func ObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if name == "" {
		name = "audio"
	}
	return "audio/" + utils.GenerateID() + "-" + name + ext
}
