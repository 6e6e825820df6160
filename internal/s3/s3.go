package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"

	"github.com/lhenriquegomescamilo/angular-1/internal/config"
)

// ObjectStorage is where packed packages are published to.
type ObjectStorage interface {
	// Upload stores the package read from r. The SHA-256 of the content
	// and, if not empty, revision are attached as object metadata.
	Upload(ctx context.Context, r io.ReadSeeker, revision string) error
	Download(ctx context.Context) (io.Reader, error)
}

type AmazonS3 struct {
	client *s3.Client
	bucket string
	key    string
}

type GCPCloudStorage struct {
	client *storage.Client
	bucket string
	object string
}

type AzureBlobStorage struct {
	client    *azblob.Client
	container string
	path      string
}

type FileSystemStorage struct {
	path string
}

// New returns the storage backend configured in cfg.
func New(ctx context.Context, cfg config.ObjectStorage) (ObjectStorage, error) {
	switch {
	case cfg.AmazonS3 != nil:
		return newAmazonS3(ctx, cfg.AmazonS3)
	case cfg.GCPCloudStorage != nil:
		return newGCPCloudStorage(ctx, cfg.GCPCloudStorage)
	case cfg.AzureBlobStorage != nil:
		return newAzureBlobStorage(ctx, cfg.AzureBlobStorage)
	case cfg.FileSystemStorage != nil:
		return &FileSystemStorage{path: cfg.FileSystemStorage.Path}, nil
	}
	return nil, errors.New("no object storage configured")
}

func newAmazonS3(ctx context.Context, cfg *config.AmazonS3) (*AmazonS3, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	// NB(sr): Without credentials, the default chain applies: environment
	// variables, shared credentials file, ECS or EC2 instance role.
	if cfg.Credentials != nil {
		value, err := cfg.Credentials.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		creds, ok := value.(config.SecretAWS)
		if !ok {
			return nil, fmt.Errorf("secret %q is not an aws_auth secret", cfg.Credentials.Name)
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.URL != "" {
			o.BaseEndpoint = aws.String(cfg.URL)
			o.UsePathStyle = true
		}
	})

	return &AmazonS3{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

func (s *AmazonS3) Upload(ctx context.Context, r io.ReadSeeker, revision string) error {
	metadata, err := objectMetadata(r, revision)
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(s.client)
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        r,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}); err != nil {
		return fmt.Errorf("failed to upload package to s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

func (s *AmazonS3) Download(ctx context.Context) (io.Reader, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()
	return readAll(out.Body)
}

func newGCPCloudStorage(ctx context.Context, cfg *config.GCPCloudStorage) (*GCPCloudStorage, error) {
	var opts []option.ClientOption

	// NB(sr): Without credentials, application default credentials apply.
	if cfg.Credentials != nil {
		value, err := cfg.Credentials.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		creds, ok := value.(config.SecretGCP)
		if !ok {
			return nil, fmt.Errorf("secret %q is not a gcp_auth secret", cfg.Credentials.Name)
		}
		if creds.APIKey != "" {
			opts = append(opts, option.WithAPIKey(creds.APIKey))
		} else {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds.Credentials)))
		}
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}
	return &GCPCloudStorage{client: client, bucket: cfg.Bucket, object: cfg.Object}, nil
}

func (s *GCPCloudStorage) Upload(ctx context.Context, r io.ReadSeeker, revision string) error {
	metadata, err := objectMetadata(r, revision)
	if err != nil {
		return err
	}

	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload package to gs://%s/%s: %w", s.bucket, s.object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload package to gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return nil
}

func (s *GCPCloudStorage) Download(ctx context.Context) (io.Reader, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download gs://%s/%s: %w", s.bucket, s.object, err)
	}
	defer r.Close()
	return readAll(r)
}

func newAzureBlobStorage(ctx context.Context, cfg *config.AzureBlobStorage) (*AzureBlobStorage, error) {
	var client *azblob.Client

	if cfg.Credentials != nil {
		value, err := cfg.Credentials.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		creds, ok := value.(config.SecretAzure)
		if !ok {
			return nil, fmt.Errorf("secret %q is not an azure_auth secret", cfg.Credentials.Name)
		}
		cred, err := azblob.NewSharedKeyCredential(creds.AccountName, creds.AccountKey)
		if err != nil {
			return nil, err
		}
		if client, err = azblob.NewClientWithSharedKeyCredential(cfg.AccountURL, cred, nil); err != nil {
			return nil, err
		}
	} else {
		// NB(sr): The default chain covers environment variables, managed
		// identity and Azure CLI logins.
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain Azure credentials: %w", err)
		}
		if client, err = azblob.NewClient(cfg.AccountURL, cred, nil); err != nil {
			return nil, err
		}
	}

	return &AzureBlobStorage{client: client, container: cfg.Container, path: cfg.Path}, nil
}

func (s *AzureBlobStorage) Upload(ctx context.Context, r io.ReadSeeker, revision string) error {
	metadata, err := objectMetadata(r, revision)
	if err != nil {
		return err
	}

	azMetadata := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		azMetadata[k] = &v
	}

	if _, err := s.client.UploadStream(ctx, s.container, s.path, r, &azblob.UploadStreamOptions{
		Metadata: azMetadata,
	}); err != nil {
		return fmt.Errorf("failed to upload package to azure container %s at %s: %w", s.container, s.path, err)
	}
	return nil
}

func (s *AzureBlobStorage) Download(ctx context.Context) (io.Reader, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download from azure container %s at %s: %w", s.container, s.path, err)
	}
	defer resp.Body.Close()
	return readAll(resp.Body)
}

func (s *FileSystemStorage) Upload(_ context.Context, r io.ReadSeeker, _ string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileSystemStorage) Download(context.Context) (io.Reader, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAll(f)
}

const contentType = "application/gzip"

// objectMetadata hashes the content of r and rewinds it.
func objectMetadata(r io.ReadSeeker, revision string) (map[string]string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("failed to hash package: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	metadata := map[string]string{"sha256": hex.EncodeToString(h.Sum(nil))}
	if revision != "" {
		metadata["revision"] = revision
	}
	return metadata, nil
}

func readAll(r io.Reader) (io.Reader, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(bs), nil
}
