package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 caps DeleteObjects at 1000 keys per call.
const maxDeleteBatch = 1000

// ObjectDeleter is the part of the S3 client used here.
type ObjectDeleter interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3Service struct {
	BucketName string
	Client     ObjectDeleter
}

// NewS3Service initializes the S3 service for bucketName.
func NewS3Service(ctx context.Context, bucketName, region string) (*S3Service, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is not set")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &S3Service{
		BucketName: bucketName,
		Client:     s3.NewFromConfig(cfg),
	}, nil
}

// KeyFromURL returns the object key of a public bucket URL, or false when
// the URL points somewhere else.
func (s *S3Service) KeyFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	path := strings.TrimPrefix(u.Path, "/")
	switch {
	case strings.HasPrefix(u.Host, s.BucketName+".s3."):
		// virtual-hosted style: https://bucket.s3.amazonaws.com/key
	case strings.HasPrefix(u.Host, "s3.") && strings.HasPrefix(path, s.BucketName+"/"):
		// path style: https://s3.region.amazonaws.com/bucket/key
		path = strings.TrimPrefix(path, s.BucketName+"/")
	default:
		return "", false
	}

	if path == "" {
		return "", false
	}
	return path, true
}

// DeleteImages deletes the objects behind urls. URLs outside the bucket are
// skipped.
func (s *S3Service) DeleteImages(ctx context.Context, urls []string) error {
	var objects []types.ObjectIdentifier
	for _, u := range urls {
		key, ok := s.KeyFromURL(u)
		if !ok {
			continue
		}
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	for start := 0; start < len(objects); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(objects))
		out, err := s.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.BucketName),
			Delete: &types.Delete{
				Objects: objects[start:end],
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects from S3: %w", err)
		}
		for _, e := range out.Errors {
			log.Printf("S3: could not delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}
	return nil
}
