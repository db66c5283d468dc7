package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicBase is the URL prefix under which bucket objects are served,
	// e.g. https://cdn.example.com/vehicles-media.
	PublicBase string
}

// S3Store implements ObjectStore against any S3-compatible endpoint.
type S3Store struct {
	cfg     S3Config
	client  *s3.Client
	presign *s3.PresignClient
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, mime string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(mime),
		CacheControl: aws.String("max-age=3600"),
		// Fresh keys only; refuse to clobber an existing object.
		IfNoneMatch: aws.String("*"),
	})
	return err
}

func (s *S3Store) Remove(ctx context.Context, keys []string) []RemoveResult {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.cfg.Bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		results := make([]RemoveResult, len(keys))
		for i, k := range keys {
			results[i] = RemoveResult{Key: k, Outcome: RemoveFailed, Err: err}
		}
		return results
	}

	results := make([]RemoveResult, 0, len(keys))
	failed := map[string]RemoveResult{}
	for _, e := range out.Errors {
		key := aws.ToString(e.Key)
		res := RemoveResult{Key: key, Outcome: RemoveFailed, Err: errors.New(aws.ToString(e.Message))}
		if aws.ToString(e.Code) == "NoSuchKey" {
			res.Outcome = RemoveNotFound
		}
		failed[key] = res
	}
	for _, k := range keys {
		if res, ok := failed[k]; ok {
			results = append(results, res)
			continue
		}
		results = append(results, RemoveResult{Key: k, Outcome: RemoveDeleted})
	}
	return results
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *S3Store) PublicURL(key string) string {
	return strings.TrimSuffix(s.cfg.PublicBase, "/") + "/" + key
}

func (s *S3Store) SignUpload(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
