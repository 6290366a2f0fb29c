package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"rosterkit/codec"
	"rosterkit/core"
)

// Config holds explicit construction parameters. Empty credentials fall
// back to the default AWS chain.
type Config struct {
	Region          string
	Bucket          string
	Key             string // object key; its extension picks the format
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// DefaultConfig returns defaults for everything but the bucket.
func DefaultConfig() Config {
	return Config{Region: "us-east-1", Key: "roster/students.json"}
}

// Store keeps the roster as a single encoded object in an S3-compatible
// bucket (AWS S3 or MinIO).
type Store struct {
	client *s3.Client
	bucket string
	key    string
	format codec.Format
}

// New creates an S3 roster store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultConfig().Key
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Key), nil
}

// NewWithClient wraps an existing client (useful for testing).
func NewWithClient(client *s3.Client, bucket, key string) *Store {
	return &Store{client: client, bucket: bucket, key: key, format: codec.ForPath(key)}
}

func (s *Store) Describe() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

var contentTypes = map[string]string{
	"text": "text/plain; charset=utf-8",
	"json": "application/json",
	"yaml": "application/yaml",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Save overwrites the object with the encoded snapshot.
func (s *Store) Save(ctx context.Context, records []core.Record) error {
	var buf bytes.Buffer
	if err := s.format.Encode(&buf, records); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &s.key,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentTypes[s.format.Name()]),
		Metadata: map[string]string{
			"rosterkit-version": strconv.Itoa(codec.CurrentVersion),
			"rosterkit-count":   strconv.Itoa(len(records)),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.Describe(), err)
	}
	return nil
}

// Load fetches and decodes the object. A missing object is core.ErrNotFound.
func (s *Store) Load(ctx context.Context) ([]core.Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", s.Describe(), err)
	}
	defer out.Body.Close()
	return s.format.Decode(out.Body)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
