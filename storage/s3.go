package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/landreg/title-registry-backend/interfaces"
)

// S3Backend archives title documents in Amazon S3 or a compatible object
// store. Parcel images are uploaded with a public-read ACL so title records
// can reference them directly; deed scans stay private.
type S3Backend struct {
	readClient  *s3.S3
	writeClient *s3.S3
	bucket      string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Backend creates an S3 archive backend. Without credentials the
// backend can still read from publicly accessible buckets.
func NewS3Backend(bucket, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucket, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	baseCfg := aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	readClient := s3.New(baseSess)

	writeClient := readClient
	if accessKey != "" && secretKey != "" {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}
		writeClient = s3.New(writeSess)
	} else {
		log.Warn("No S3 credentials provided, archive writes may fail",
			slog.String("bucket", bucket))
	}

	return &S3Backend{
		readClient:  readClient,
		writeClient: writeClient,
		bucket:      bucket,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

func (b *S3Backend) objectKey(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return path.Join(b.prefix, contentType.String()+"s", id.String())
}

// Fetch retrieves an archived document from S3 by its content ID.
func (b *S3Backend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	key := b.objectKey(id, contentType)

	result, err := b.readClient.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("%w: s3 get %s: %v", interfaces.ErrBackendUnavailable, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading s3 object body: %v", interfaces.ErrBackendUnavailable, err)
	}

	return data, nil
}

// Store uploads a document to S3 and returns its content ID. Parcel images
// get a public-read ACL, deeds are kept private.
func (b *S3Backend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeContentID(data)
	key := b.objectKey(id, contentType)

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType == interfaces.ImageType {
		input.ACL = aws.String("public-read")
	}

	if _, err := b.writeClient.PutObjectWithContext(ctx, input); err != nil {
		return id, fmt.Errorf("%w: s3 put %s: %v", interfaces.ErrBackendUnavailable, key, err)
	}

	b.log.Debug("Stored archive content",
		slog.String("contentID", id.String()),
		slog.String("contentType", contentType.String()),
		slog.String("backend", b.Name()))
	return id, nil
}

// Available heads the bucket to check accessibility.
func (b *S3Backend) Available(ctx context.Context) bool {
	_, err := b.readClient.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		b.log.Warn("S3 archive backend unavailable",
			"err", err,
			slog.String("bucket", b.bucket))
		return false
	}
	return true
}

// Name returns a short identifier for logging.
func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3(%s)", b.bucket)
}

// LocationURI returns the URI identifying this backend.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}
