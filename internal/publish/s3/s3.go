// Package s3 publishes the projection CSV files to an S3-compatible bucket
// (AWS S3 or MinIO). Objects are overwritten on every run.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"strconv"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"titanic/internal/metrics"
	"titanic/internal/projection"
)

// Config holds the bucket location. Without an explicit key pair,
// credentials come from the default AWS chain (environment, shared config,
// instance role).
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional; e.g. MinIO
	PathStyle       bool
	AccessKeyID     string // optional
	SecretAccessKey string // optional
	SessionToken    string // optional
}

// putter is the subset of *s3.Client the publisher needs.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads written projection files.
type Publisher struct {
	client putter
	bucket string
	prefix string
}

// Object reports one uploaded file.
type Object struct {
	Key  string
	Rows int
	ETag string
}

// New builds a Publisher from cfg using the default AWS configuration chain.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3-compatible stores often reject streaming checksum trailers.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})
	return newWithClient(client, cfg), nil
}

func newWithClient(c putter, cfg Config) *Publisher {
	return &Publisher{client: c, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}
}

// Key returns the object key for a projection file.
func (p *Publisher) Key(w projection.Written) string {
	name := path.Base(w.Path)
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

// Publish uploads every file in order and stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, job string, files []projection.Written) ([]Object, error) {
	out := make([]Object, 0, len(files))
	for _, w := range files {
		body, err := os.ReadFile(w.Path)
		if err != nil {
			return out, fmt.Errorf("publish: read %s: %w", w.Path, err)
		}
		key := p.Key(w)
		res, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("text/csv"),
			Metadata: map[string]string{
				"xxh3": w.Digest,
				"rows": strconv.Itoa(w.Rows),
			},
		})
		if err != nil {
			return out, fmt.Errorf("publish: put s3://%s/%s: %w", p.bucket, key, err)
		}
		obj := Object{Key: key, Rows: w.Rows}
		if res != nil && res.ETag != nil {
			obj.ETag = strings.Trim(*res.ETag, `"`)
		}
		metrics.RecordRows(job, metrics.KindPublished, int64(w.Rows))
		log.Printf("publish: s3://%s/%s rows=%d", p.bucket, key, w.Rows)
		out = append(out, obj)
	}
	return out, nil
}
