// Package archive stores rendered invoice documents.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/rs/zerolog"

	"billgen/internal/logger"
)

// ErrStoreFailed is returned when a document could not be stored.
var ErrStoreFailed = errors.New("failed to store document")

// Sink receives finished documents. Put returns where the document ended up.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// DirSink writes documents into a local directory.
type DirSink struct {
	Dir string
	log zerolog.Logger
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create %s: %w", dir, err)
	}
	return &DirSink{Dir: dir, log: logger.WithComponent("archive-dir")}, nil
}

// Put writes data to Dir/name. The file appears atomically.
func (s *DirSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	const op = "DirSink.Put"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest := filepath.Join(s.Dir, filepath.Base(name))
	tmp, err := os.CreateTemp(s.Dir, ".billgen-*")
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrStoreFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%s: %w: %v", op, ErrStoreFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrStoreFailed, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrStoreFailed, err)
	}

	s.log.Debug().Str("path", dest).Int("bytes", len(data)).Msg("Document written")
	return dest, nil
}

// S3Sink uploads documents to an S3 bucket.
type S3Sink struct {
	Bucket   string
	Prefix   string
	uploader s3manageriface.UploaderAPI
	log      zerolog.Logger
}

// NewS3Sink creates an S3 sink using the default AWS credential chain.
func NewS3Sink(bucket, prefix, region string) (*S3Sink, error) {
	if bucket == "" {
		return nil, errors.New("archive: S3 bucket is required")
	}

	cfg := &aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("archive: create AWS session: %w", err)
	}

	return NewS3SinkWithUploader(bucket, prefix, s3manager.NewUploader(sess)), nil
}

// NewS3SinkWithUploader creates an S3 sink around an existing uploader.
func NewS3SinkWithUploader(bucket, prefix string, uploader s3manageriface.UploaderAPI) *S3Sink {
	return &S3Sink{
		Bucket:   bucket,
		Prefix:   strings.Trim(prefix, "/"),
		uploader: uploader,
		log:      logger.WithComponent("archive-s3"),
	}
}

// Key returns the object key for name.
func (s *S3Sink) Key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return s.Prefix + "/" + name
}

// Put uploads data and returns the object location.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	const op = "S3Sink.Put"

	key := s.Key(name)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w: s3://%s/%s: %v", op, ErrStoreFailed, s.Bucket, key, err)
	}

	s.log.Debug().Str("bucket", s.Bucket).Str("key", key).Msg("Document uploaded")
	return out.Location, nil
}
