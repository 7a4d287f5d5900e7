package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// BucketService stages rendered media in S3 with public-read access so the
// Graph API can ingest it by URL. Staged objects are never deleted here; an
// out-of-band lifecycle policy is expected to reap them.
type BucketService interface {
	StageFile(ctx context.Context, localPath string) (domain.StagedAsset, error)
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PublicURL(key string) string
}

type bucketService struct {
	log       *logger.Logger
	s3Client  *awss3.Client
	bucket    string
	region    string
	keyPrefix string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucket := strings.TrimSpace(os.Getenv("S3_BUCKET_NAME"))
	if bucket == "" {
		return nil, fmt.Errorf("missing env var S3_BUCKET_NAME")
	}
	region := strings.TrimSpace(os.Getenv("AWS_DEFAULT_REGION"))
	if region == "" {
		return nil, fmt.Errorf("missing env var AWS_DEFAULT_REGION")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	accessKey := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	secretKey := strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &bucketService{
		log:       serviceLog,
		s3Client:  awss3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		keyPrefix: strings.Trim(strings.TrimSpace(os.Getenv("S3_KEY_PREFIX")), "/"),
	}, nil
}

func (bs *bucketService) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	input := &awss3.PutObjectInput{
		Bucket: aws.String(bs.bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := bs.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %q in bucket %q: %w", key, bs.bucket, err)
	}
	return nil
}

func (bs *bucketService) StageFile(ctx context.Context, localPath string) (domain.StagedAsset, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return domain.StagedAsset{}, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := uuid.NewString() + ext
	if bs.keyPrefix != "" {
		key = bs.keyPrefix + "/" + key
	}
	ct := contentTypeForKey(key)

	if err := bs.Upload(ctx, key, f, ct); err != nil {
		return domain.StagedAsset{}, err
	}

	asset := domain.StagedAsset{
		Key:         key,
		PublicURL:   bs.PublicURL(key),
		ContentType: ct,
	}
	bs.log.Info("Staged media in S3", "key", key, "url", asset.PublicURL)
	return asset, nil
}

func (bs *bucketService) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bs.bucket, bs.region, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	default:
		return ""
	}
}
