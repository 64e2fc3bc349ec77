package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"gopkg.in/yaml.v3"
)

// S3Config is the store environment file for the s3 backend.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

func LoadS3Config(path string) (*S3Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store config: %w", err)
	}

	var cfg S3Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse store config %s: %w", path, err)
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("store config %s: bucket is required", path)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	return &cfg, nil
}

type s3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store reads a bucket that mirrors the content store. Collections are the
// common prefixes directly under a root; a collection's metadata is the user
// metadata of its directory marker object ("root/name/").
type S3Store struct {
	config *S3Config
}

func NewS3Store(cfg *S3Config) *S3Store {
	return &S3Store{config: cfg}
}

func (s *S3Store) Open(ctx context.Context) (Session, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 30 * time.Second,
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s.config.Region),
		config.WithHTTPClient(httpClient),
	}
	if s.config.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.config.AccessKey, s.config.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.config.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Session{client: client, bucket: s.config.Bucket, httpClient: httpClient}, nil
}

type s3Session struct {
	client     s3API
	bucket     string
	httpClient *http.Client
}

// keyPrefix turns a store path into a key prefix ending in "/".
func keyPrefix(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func (s *s3Session) ListCollections(ctx context.Context, root string) ([]*Collection, error) {
	prefix := keyPrefix(root)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var collections []*Collection
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list collections %s: %w", root, err)
		}

		for _, cp := range page.CommonPrefixes {
			marker := aws.ToString(cp.Prefix)
			name := strings.TrimSuffix(strings.TrimPrefix(marker, prefix), "/")
			if name == "" {
				continue
			}

			meta, err := s.markerMetadata(ctx, marker)
			if err != nil {
				return nil, err
			}

			collections = append(collections, &Collection{
				Name:     name,
				Path:     strings.TrimSuffix(marker, "/"),
				Metadata: meta,
			})
		}
	}

	return collections, nil
}

func (s *s3Session) markerMetadata(ctx context.Context, marker string) (map[string]string, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(marker),
	})
	if isNotFound(err) {
		return map[string]string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("head %s: %w", marker, err)
	}

	if resp.Metadata == nil {
		return map[string]string{}, nil
	}
	return resp.Metadata, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

func (s *s3Session) Walk(ctx context.Context, collectionPath string, fn WalkFunc) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix(collectionPath)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("walk %s: %w", collectionPath, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			// directory markers are not data objects
			if strings.HasSuffix(key, "/") {
				continue
			}

			err := fn(&DataObject{
				Path:       key,
				Name:       path.Base(key),
				Size:       aws.ToInt64(obj.Size),
				ModifyTime: aws.ToTime(obj.LastModified),
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *s3Session) Close() error {
	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}
	return nil
}
