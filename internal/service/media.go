package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // registers the webp decoder for imaging.Decode

	"zoskagram/internal/config"
	"zoskagram/internal/model"
)

// MediaService stores post images in an S3-compatible bucket (Cloudflare R2).
type MediaService struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
	log       *zap.Logger
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*MediaService, error) {
	if !cfg.MediaEnabled() {
		return nil, model.ErrMediaDisabled
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
		log:       log.Named("media"),
	}, nil
}

// UploadPostImage validates the image, scales it down to the post width and
// stores it as JPEG.
func (s *MediaService) UploadPostImage(ctx context.Context, r io.Reader, size int64, contentType string) (*model.UploadResult, error) {
	data, _, err := readAndValidateImage(r, size, contentType, model.MaxPostImageSize)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := fitToJPEG(data, model.PostImageMaxWidth, 85)
	if err != nil {
		return nil, err
	}

	key := newPostImageKey()
	if err := s.putObject(ctx, key, jpegBytes, model.ContentTypeJPEG, model.PostImageCacheControl); err != nil {
		return nil, err
	}

	s.log.Debug("Uploaded post image", zap.String("key", key), zap.Int("bytes", len(jpegBytes)))
	return &model.UploadResult{URL: s.objectURL(key), Key: key}, nil
}

// PresignPostUpload returns a short-lived URL the client can PUT the image
// to directly. The bytes are not resized on this path.
func (s *MediaService) PresignPostUpload(ctx context.Context, req model.PresignPostUploadRequest) (*model.PresignPostUploadResponse, error) {
	if req.FileSize <= 0 || req.FileSize > model.MaxPostImageSize {
		return nil, model.ErrFileTooLarge
	}
	contentType := baseContentType(req.ContentType)
	if !model.IsAllowedImageType(contentType) {
		return nil, model.ErrInvalidImageType
	}

	key := fmt.Sprintf("%s/%s", model.PostImageFolder, uuid.NewString()+extensionFor(contentType))
	presigned, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(req.FileSize),
		CacheControl:  aws.String(model.PostImageCacheControl),
	}, s3.WithPresignExpires(model.PresignExpirySeconds*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &model.PresignPostUploadResponse{
		UploadURL:  presigned.URL,
		PublicURL:  s.objectURL(key),
		Key:        key,
		ExpiresInS: model.PresignExpirySeconds,
	}, nil
}

// DeleteObject removes an object by key.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}

func (s *MediaService) objectURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

// putObject uploads bytes to R2 with metadata.
func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

func newPostImageKey() string {
	return fmt.Sprintf("%s/%s%s", model.PostImageFolder, uuid.NewString(), model.PostImageExt)
}

// readAndValidateImage loads the upload into memory with size and type checks.
// A declared size of 0 means unknown; the limit is then enforced while reading.
func readAndValidateImage(r io.Reader, size int64, contentType string, maxSize int64) ([]byte, string, error) {
	if size > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	contentType = baseContentType(contentType)
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	return data, contentType, nil
}

// fitToJPEG scales the image down to maxWidth (never up) and encodes as JPEG.
func fitToJPEG(data []byte, maxWidth, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidImageType, err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func baseContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func extensionFor(contentType string) string {
	switch contentType {
	case model.ContentTypePNG:
		return ".png"
	case model.ContentTypeGIF:
		return ".gif"
	case model.ContentTypeWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}
