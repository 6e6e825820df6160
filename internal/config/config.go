package config

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
)

const (
	DefaultESM2015Marker = ".es6"
	DefaultESM5Marker    = ".esm5"
)

// Root is the top-level structure of a package build configuration file.
type Root struct {
	Package *Package           `json:"package"`
	Secrets map[string]*Secret `json:"secrets,omitempty"` // Schema validation overrides Secret to object type.

	_ struct{} `additionalProperties:"false"`
}

// UnmarshalYAML names the secrets after their keys and links the object
// storage credentials to them.
func (r *Root) UnmarshalYAML(bs []byte) error {
	type rawRoot Root // avoid recursive calls to UnmarshalYAML by type aliasing
	var raw rawRoot

	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode Root: %w", err)
	}

	*r = Root(raw)
	r.unmarshal()
	return nil
}

func (r *Root) UnmarshalJSON(bs []byte) error {
	type rawRoot Root
	var raw rawRoot

	if err := json.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode Root: %w", err)
	}

	*r = Root(raw)
	r.unmarshal()
	return nil
}

func (r *Root) unmarshal() {
	for name := range r.Secrets {
		r.Secrets[name] = cmp.Or(r.Secrets[name], &Secret{})
		r.Secrets[name].Name = name
	}

	if r.Package == nil || r.Package.ObjectStorage == nil {
		return
	}
	for _, ref := range r.Package.ObjectStorage.credentials() {
		ref.value = r.Secrets[ref.Name]
	}
}

// Package describes one package build: where the inputs are, which
// artifacts go into the package, and where it is written to.
type Package struct {
	// Output is the directory the package is assembled in.
	Output string `json:"output" required:"true"`
	Roots  Roots  `json:"roots"`

	// Modules maps module names to the records describing their compiled
	// outputs. ModulesFile names a JSON file holding the same mapping.
	Modules     map[string]any `json:"modules,omitempty"`
	ModulesFile string         `json:"modules_file,omitempty"`

	Readme  string `json:"readme,omitempty"`
	License string `json:"license,omitempty"`

	Artifacts       Artifacts `json:"artifacts"`
	DtsBundleSuffix string    `json:"dts_bundle_suffix,omitempty"`
	Markers         Markers   `json:"markers"`

	IncludedFiles []string `json:"included_files,omitempty"`
	ExcludedFiles []string `json:"excluded_files,omitempty"`

	ObjectStorage *ObjectStorage `json:"object_storage,omitempty"`

	// Revision is recorded with published packages. It may refer to
	// environment variables or be a Rego expression.
	Revision string `json:"revision,omitempty"`

	// StrictReferences fails the build on manifest fields pointing at
	// files the package does not contain.
	StrictReferences bool `json:"strict_references,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// Roots are the literal roots of the input trees.
type Roots struct {
	Source   string `json:"source"`
	Bin      string `json:"bin"`
	Genfiles string `json:"genfiles"`

	_ struct{} `additionalProperties:"false"`
}

// Artifacts lists the input files by kind.
type Artifacts struct {
	FESM2015        []string `json:"fesm2015,omitempty"`
	FESM5           []string `json:"fesm5,omitempty"`
	ESM2015         []string `json:"esm2015,omitempty"`
	ESM5            []string `json:"esm5,omitempty"`
	Bundles         []string `json:"bundles,omitempty"`
	Srcs            []string `json:"srcs,omitempty"`
	TypeDefinitions []string `json:"type_definitions,omitempty"`
	Data            []string `json:"data,omitempty"`
	DtsBundles      []string `json:"dts_bundles,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// Len returns the number of input files.
func (a *Artifacts) Len() int {
	return len(a.FESM2015) + len(a.FESM5) + len(a.ESM2015) + len(a.ESM5) + len(a.Bundles) +
		len(a.Srcs) + len(a.TypeDefinitions) + len(a.Data) + len(a.DtsBundles)
}

// Markers are the directory name suffixes identifying per-module outputs.
type Markers struct {
	ESM2015 string `json:"esm2015,omitempty"`
	ESM5    string `json:"esm5,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

func (m Markers) ESM2015OrDefault() string {
	return cmp.Or(m.ESM2015, DefaultESM2015Marker)
}

func (m Markers) ESM5OrDefault() string {
	return cmp.Or(m.ESM5, DefaultESM5Marker)
}

// Filter returns the file filter of the package.
func (p *Package) Filter() (*ngfs.Filter, error) {
	return ngfs.NewFilter(p.IncludedFiles, p.ExcludedFiles)
}

// ModuleMapping returns the module mapping, reading ModulesFile if the
// mapping isn't inlined.
func (p *Package) ModuleMapping() (map[string]any, error) {
	if p.ModulesFile == "" {
		return p.Modules, nil
	}
	bs, err := os.ReadFile(p.ModulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read module mapping: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(bs, &m); err != nil {
		return nil, fmt.Errorf("failed to decode module mapping %s: %w", p.ModulesFile, err)
	}
	return m, nil
}

func (p *Package) Validate() error {
	if p.Output == "" {
		return errors.New("package output directory is required")
	}
	if p.Modules != nil && p.ModulesFile != "" {
		return errors.New("package modules and modules_file are mutually exclusive")
	}
	if _, err := p.Filter(); err != nil {
		return err
	}
	return p.ObjectStorage.validate()
}

func Validate(data []byte) error {
	var config any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}

	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	return schema.Validate(config)
}

// Load merges the given configuration files (or directories of them) and
// parses the result.
func Load(files []string) (*Root, error) {
	bs, err := Merge(files)
	if err != nil {
		return nil, err
	}
	return Parse(bs)
}

func Parse(bs []byte) (*Root, error) {
	if err := Validate(bs); err != nil {
		return nil, err
	}

	var root Root
	if err := yaml.Unmarshal(bs, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if root.Package == nil {
		return nil, errors.New("package is required")
	}
	if err := root.Package.Validate(); err != nil {
		return nil, err
	}

	return &root, nil
}
