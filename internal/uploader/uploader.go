// Package uploader copies run artifacts to S3.
package uploader

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
)

// Uploader stores files under <prefix>/<runID>/<file name>
type Uploader interface {
	Upload(ctx context.Context, runID string, files []string) ([]string, error)
}

// objectPutter is the part of *s3.Client we use
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type implUploader struct {
	client objectPutter
	bucket string
	prefix string
	logger logger.Logger
}

// New creates an Uploader using the default AWS credential chain, with
// region and profile overrides from cfg. Static keys and a custom endpoint
// are used for S3-compatible services.
func New(ctx context.Context, cfg config.UploadConfig, log logger.Logger) (Uploader, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newWithClient(client, cfg, log), nil
}

func newWithClient(client objectPutter, cfg config.UploadConfig, log logger.Logger) *implUploader {
	return &implUploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: log,
	}
}

// Upload puts every file and returns the object keys written. It stops at
// the first failure.
func (u *implUploader) Upload(ctx context.Context, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := u.key(runID, f)
		if err := u.put(ctx, f, key); err != nil {
			return keys, fmt.Errorf("upload %s: %w", filepath.Base(f), err)
		}
		u.logger.Info(ctx, "Uploaded s3://%s/%s", u.bucket, key)
		keys = append(keys, key)
	}
	return keys, nil
}

func (u *implUploader) key(runID, file string) string {
	return path.Join(u.prefix, runID, filepath.Base(file))
}

func (u *implUploader) put(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := contentType(file); ct != "" {
		in.ContentType = aws.String(ct)
	}

	_, err = u.client.PutObject(ctx, in)
	return err
}

// artifact types missing from the builtin mime table
var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".md":   "text/markdown; charset=utf-8",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func contentType(file string) string {
	ext := strings.ToLower(filepath.Ext(file))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}
