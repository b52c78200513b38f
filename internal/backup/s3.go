package backup

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options selects the bucket snapshots are written to. Endpoint switches
// the client to path-style addressing for MinIO and other S3-compatible
// servers.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

// S3Destination stores each snapshot as its own object, keyed Prefix+name.
type S3Destination struct {
	api    *s3.Client
	bucket string
	prefix string
}

func NewS3Destination(ctx context.Context, o S3Options) (*S3Destination, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("s3 destination: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(o.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	api := s3.NewFromConfig(awsCfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	prefix := o.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Destination{api: api, bucket: o.Bucket, prefix: prefix}, nil
}

func (d *S3Destination) Write(ctx context.Context, name string, data []byte) error {
	key := d.prefix + name
	if _, err := d.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("uploading %s to bucket %s: %w", key, d.bucket, err)
	}
	return nil
}

func (d *S3Destination) String() string {
	return fmt.Sprintf("s3://%s/%s", d.bucket, d.prefix)
}
