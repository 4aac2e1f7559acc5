package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"certhub/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// StorageGateway is the object-storage contract consumed by the job pipeline.
type StorageGateway interface {
	UploadFile(key string, data []byte, contentType string) (string, error)
	DeleteFile(key string) error
	FileExists(key string) (bool, error)
	DownloadFile(key string) ([]byte, error)
	ExtractKeyFromUrl(url string) string
}

// S3Service stores certificate PDFs and design images in S3 and hands out
// CDN urls.
type S3Service struct {
	client     *s3.Client
	bucketName string
	cdnUrl     string
}

func NewS3Service() (*S3Service, error) {
	cfg := config.AppConfig

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AwsRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyId, cfg.AwsSecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Service{
		client:     s3.NewFromConfig(awsCfg),
		bucketName: cfg.AwsBucketName,
		cdnUrl:     strings.TrimSuffix(cfg.AwsCdnDomain, "/"),
	}, nil
}

func (s *S3Service) UploadFile(key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	return s.cdnUrl + "/" + key, nil
}

func (s *S3Service) DeleteFile(key string) error {
	_, err := s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) FileExists(key string) (bool, error) {
	_, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return true, nil
}

func (s *S3Service) DownloadFile(key string) ([]byte, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// ExtractKeyFromUrl strips the CDN domain off a stored url.
func (s *S3Service) ExtractKeyFromUrl(url string) string {
	return strings.TrimPrefix(url, s.cdnUrl+"/")
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

func sanitizePart(s string) string {
	return nonAlphanumeric.ReplaceAllString(s, "_")
}

// GenerateCertificateKey builds the deterministic storage key for one
// attendee's certificate PDF. Re-uploads overwrite the same object.
func GenerateCertificateKey(client string, year int, certificateID uint, certificateName, attendeeName string) string {
	return fmt.Sprintf("certificates/%s_%d/%d_%s/%s_certificate.pdf",
		sanitizePart(client), year, certificateID, sanitizePart(certificateName), sanitizePart(attendeeName))
}
