package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/swaggest/jsonschema-go"
)

// Secret holds the credentials used to publish packages. Values may refer to
// environment variables using the ${VAR_NAME} syntax:
//
//	secrets:
//	  publisher:
//	    type: aws_auth
//	    access_key_id: ${AWS_ACCESS_KEY_ID}
//	    secret_access_key: ${AWS_SECRET_ACCESS_KEY}
//
// Supported types:
//
//   - "aws_auth": "access_key_id", "secret_access_key" and optional "session_token".
//   - "azure_auth": "account_name" and "account_key".
//   - "gcp_auth": "api_key" or "credentials" (a credentials file as JSON).
type Secret struct {
	Name  string         `json:"-"`
	Value map[string]any `json:"-"`
}

func (*Secret) PrepareJSONSchema(schema *jsonschema.Schema) error {
	schema.Type = nil
	schema.AddType(jsonschema.Object)
	return nil
}

func (s *Secret) UnmarshalYAML(bs []byte) error {
	if err := yaml.Unmarshal(bs, &s.Value); err != nil {
		return fmt.Errorf("expected mapping node: %w", err)
	}
	return nil
}

func (s *Secret) UnmarshalJSON(bs []byte) error {
	return json.Unmarshal(bs, &s.Value)
}

// get expands environment variables in string values.
func (s *Secret) get() map[string]any {
	value := make(map[string]any, len(s.Value))
	for k, v := range s.Value {
		if str, ok := v.(string); ok {
			v = os.ExpandEnv(str)
		}
		value[k] = v
	}
	return value
}

// Typed returns the secret decoded into one of SecretAWS, SecretAzure or
// SecretGCP.
func (s *Secret) Typed(context.Context) (any, error) {
	m := s.get()
	if len(m) == 0 {
		return nil, fmt.Errorf("secret %q is not configured", s.Name)
	}

	switch m["type"] {
	case "aws_auth":
		return typed[SecretAWS](s.Name, m)
	case "azure_auth":
		return typed[SecretAzure](s.Name, m)
	case "gcp_auth":
		return typed[SecretGCP](s.Name, m)
	}
	return nil, fmt.Errorf("secret %q: unknown secret type %q", s.Name, m["type"])
}

type secretValue interface {
	SecretAWS | SecretAzure | SecretGCP
	missing() string
}

func typed[T secretValue](name string, m map[string]any) (any, error) {
	var value T
	if err := decode(m, &value); err != nil {
		return nil, fmt.Errorf("secret %q: %w", name, err)
	}
	if fields := value.missing(); fields != "" {
		return nil, fmt.Errorf("secret %q: missing %s", name, fields)
	}
	return value, nil
}

type SecretAWS struct {
	Type            string `json:"type"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token"`
}

func (s SecretAWS) missing() string {
	if s.AccessKeyID == "" || s.SecretAccessKey == "" {
		return "access_key_id or secret_access_key"
	}
	return ""
}

type SecretGCP struct {
	Type        string `json:"type"`
	APIKey      string `json:"api_key"`
	Credentials string `json:"credentials"` // credentials file as JSON
}

func (s SecretGCP) missing() string {
	if s.APIKey == "" && s.Credentials == "" {
		return "api_key or credentials"
	}
	return ""
}

type SecretAzure struct {
	Type        string `json:"type"`
	AccountName string `json:"account_name"`
	AccountKey  string `json:"account_key"`
}

func (s SecretAzure) missing() string {
	if s.AccountName == "" || s.AccountKey == "" {
		return "account_name or account_key"
	}
	return ""
}

// SecretRef refers to a secret by name. The reference is resolved when the
// configuration is parsed.
type SecretRef struct {
	Name  string `json:"-"`
	value *Secret
}

// NewSecretRef returns a reference resolved to s.
func NewSecretRef(s *Secret) *SecretRef {
	return &SecretRef{Name: s.Name, value: s}
}

// Resolve returns the typed value of the referenced secret.
func (s *SecretRef) Resolve(ctx context.Context) (any, error) {
	if s.value == nil {
		return nil, fmt.Errorf("secret %q not found", s.Name)
	}

	return s.value.Typed(ctx)
}

func (*SecretRef) PrepareJSONSchema(schema *jsonschema.Schema) error {
	schema.Type = nil
	schema.AddType(jsonschema.String)
	return nil
}

func (s *SecretRef) UnmarshalYAML(bs []byte) error {
	if err := yaml.Unmarshal(bs, &s.Name); err != nil {
		return fmt.Errorf("expected scalar node: %w", err)
	}
	return nil
}

func (s *SecretRef) UnmarshalJSON(bs []byte) error {
	return json.Unmarshal(bs, &s.Name)
}

// decode reuses the json tags, secrets have no others.
func decode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: output})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
