package config

import (
	"fmt"
	"slices"
	"strings"
)

// ObjectStorage configures where packed packages are published. Exactly
// one backend must be set.
type ObjectStorage struct {
	AmazonS3          *AmazonS3          `json:"aws,omitempty"`
	GCPCloudStorage   *GCPCloudStorage   `json:"gcp,omitempty"`
	AzureBlobStorage  *AzureBlobStorage  `json:"azure,omitempty"`
	FileSystemStorage *FileSystemStorage `json:"filesystem,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// AmazonS3 is an S3 compatible bucket. Without credentials, the default
// chain applies: environment, shared credentials file, ECS or EC2 role.
type AmazonS3 struct {
	Bucket      string     `json:"bucket"`
	Key         string     `json:"key"`
	Region      string     `json:"region,omitempty"`
	Credentials *SecretRef `json:"credentials,omitempty"`
	URL         string     `json:"url,omitempty"` // S3 compatible endpoint, path style addressing

	_ struct{} `additionalProperties:"false"`
}

// GCPCloudStorage is a Google Cloud Storage object. Without credentials,
// application default credentials are used.
type GCPCloudStorage struct {
	Project     string     `json:"project"`
	Bucket      string     `json:"bucket"`
	Object      string     `json:"object"`
	Credentials *SecretRef `json:"credentials,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// AzureBlobStorage is a blob in an Azure storage container. Without
// credentials, the default Azure credential chain is used.
type AzureBlobStorage struct {
	AccountURL  string     `json:"account_url"`
	Container   string     `json:"container"`
	Path        string     `json:"path"`
	Credentials *SecretRef `json:"credentials,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// FileSystemStorage writes the package tarball to a local path, mostly
// useful for staging and tests.
type FileSystemStorage struct {
	Path string `json:"path"`

	_ struct{} `additionalProperties:"false"`
}

func (o *ObjectStorage) validate() error {
	if o == nil {
		return nil
	}

	var set []string
	var err error
	if o.AmazonS3 != nil {
		set = append(set, "aws")
		err = required("aws", "bucket", o.AmazonS3.Bucket, "key", o.AmazonS3.Key)
	}
	if o.GCPCloudStorage != nil {
		set = append(set, "gcp")
		err = required("gcp", "project", o.GCPCloudStorage.Project, "bucket", o.GCPCloudStorage.Bucket, "object", o.GCPCloudStorage.Object)
	}
	if o.AzureBlobStorage != nil {
		set = append(set, "azure")
		err = required("azure", "account_url", o.AzureBlobStorage.AccountURL, "container", o.AzureBlobStorage.Container, "path", o.AzureBlobStorage.Path)
	}
	if o.FileSystemStorage != nil {
		set = append(set, "filesystem")
		err = required("filesystem", "path", o.FileSystemStorage.Path)
	}

	switch len(set) {
	case 0:
		return fmt.Errorf("object storage: one of aws, gcp, azure or filesystem is required")
	case 1:
		return err
	default:
		return fmt.Errorf("object storage: only one backend may be set, got %s", strings.Join(set, ", "))
	}
}

// required checks name/value pairs for empty values.
func required(backend string, pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("object storage %s: %s required", backend, strings.Join(missing, ", "))
	}
	return nil
}

func (o *ObjectStorage) credentials() []*SecretRef {
	var refs []*SecretRef
	if o.AmazonS3 != nil {
		refs = append(refs, o.AmazonS3.Credentials)
	}
	if o.GCPCloudStorage != nil {
		refs = append(refs, o.GCPCloudStorage.Credentials)
	}
	if o.AzureBlobStorage != nil {
		refs = append(refs, o.AzureBlobStorage.Credentials)
	}
	return slices.DeleteFunc(refs, func(ref *SecretRef) bool { return ref == nil })
}
