package csvtable

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3GetObjectAPI is the part of the S3 client S3Source needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads an object from S3. Credentials and region come from the
// AWS default chain unless Region is set.
type S3Source struct {
	Bucket string
	Key    string
	Region string

	// Client is built on first use when nil.
	Client S3GetObjectAPI

	once    sync.Once
	initErr error
}

// Fetch implements Source.
func (s *S3Source) Fetch(ctx context.Context) (io.ReadCloser, error) {
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s, err)
	}
	return out.Body, nil
}

func (s *S3Source) client(ctx context.Context) (S3GetObjectAPI, error) {
	s.once.Do(func() {
		if s.Client != nil {
			return
		}
		var opts []func(*awsconfig.LoadOptions) error
		if s.Region != "" {
			opts = append(opts, awsconfig.WithRegion(s.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			s.initErr = fmt.Errorf("load aws config: %w", err)
			return
		}
		s.Client = s3.NewFromConfig(cfg)
	})
	if s.initErr != nil {
		return nil, s.initErr
	}
	return s.Client, nil
}

func (s *S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}
