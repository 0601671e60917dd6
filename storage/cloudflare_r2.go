package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"
)

// S3 DeleteObjects accepts at most 1000 keys per request.
const r2DeleteBatchSize = 1000

type CloudflareR2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
	// Endpoint overrides the account endpoint, e.g. for a local S3 emulator.
	Endpoint string
}

type cloudflareR2Store struct {
	s3Client      *s3.Client
	bucketName    string
	publicBaseURL string
}

func NewCloudflareR2Store(ctx context.Context, cfg CloudflareR2Config) (BlobStore, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" || cfg.PublicBaseURL == "" {
		return nil, errors.New("invalid Cloudflare R2 configuration: all fields are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		// R2 ожидает регион "auto"
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		// R2 не поддерживает aws-chunked трейлеры с контрольными суммами.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &cloudflareR2Store{
		s3Client:      s3Client,
		bucketName:    cfg.BucketName,
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

func (s *cloudflareR2Store) Put(ctx context.Context, file File, prefix string) (string, error) {
	if file.Reader == nil {
		return "", errors.New("file reader is required")
	}

	// The SDK needs a seekable body to sign the payload.
	body, ok := file.Reader.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(file.Reader)
		if err != nil {
			return "", fmt.Errorf("failed to buffer upload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = ContentTypeForExtension(file.Extension)
	}

	key := NewKey(prefix, file.Extension)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		// Never replace an object that already exists under this key.
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object to R2 (key: %s): %w", key, err)
	}
	return key, nil
}

func (s *cloudflareR2Store) Exists(ctx context.Context, key string) (bool, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(cleaned),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object in R2 (key: %s): %w", cleaned, err)
}

func (s *cloudflareR2Store) Delete(ctx context.Context, keys ...string) error {
	batches := chunkKeys(keys, r2DeleteBatchSize)
	if len(batches) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		g.Go(func() error {
			objects := make([]types.ObjectIdentifier, 0, len(batch))
			for _, key := range batch {
				objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
			}
			out, err := s.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucketName),
				Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return fmt.Errorf("failed to delete %d objects from R2: %w", len(batch), err)
			}
			for _, failed := range out.Errors {
				if aws.ToString(failed.Code) == "NoSuchKey" {
					continue
				}
				return fmt.Errorf("failed to delete object from R2 (key: %s): %s", aws.ToString(failed.Key), aws.ToString(failed.Message))
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *cloudflareR2Store) URL(key string) string {
	return joinPublicURL(s.publicBaseURL, key)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

// chunkKeys drops empty and invalid keys and splits the rest into batches of size n.
func chunkKeys(keys []string, n int) [][]string {
	valid := make([]string, 0, len(keys))
	for _, key := range keys {
		if cleaned, err := cleanKey(key); err == nil {
			valid = append(valid, cleaned)
		}
	}
	var batches [][]string
	for start := 0; start < len(valid); start += n {
		end := start + n
		if end > len(valid) {
			end = len(valid)
		}
		batches = append(batches, valid[start:end])
	}
	return batches
}
