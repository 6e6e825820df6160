package config

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var configExtensions = []string{".yaml", ".yml", ".json"}

// ConflictError is returned by Merge for a value set differently by two
// configuration files.
type ConflictError struct {
	Path  string
	Files [2]string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict for config path %s: set by %s and %s", e.Path, e.Files[0], e.Files[1])
}

// Merge reads the given configuration files, descending into directories,
// and deep-merges them into one YAML document. In directories, only files
// with a YAML or JSON extension are read, in lexical order. Mappings are
// merged key by key; any other value may only be repeated unchanged.
func Merge(configFiles []string) ([]byte, error) {
	paths, err := expand(configFiles)
	if err != nil {
		return nil, err
	}

	m := merger{origin: map[string]string{}}
	merged := map[string]any{}
	for _, path := range paths {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(bs, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
		}
		if err := m.into(merged, doc, nil, path); err != nil {
			return nil, err
		}
	}

	bs, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged configuration: %w", err)
	}
	return bs, nil
}

func expand(configFiles []string) ([]string, error) {
	var paths []string
	for _, root := range configFiles {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			switch {
			case err != nil:
				return err
			case d.IsDir():
				return nil
			case path == root || slices.Contains(configExtensions, filepath.Ext(path)):
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// merger remembers which file set each value, for error messages.
type merger struct {
	origin map[string]string
}

func (m merger) into(dst, src map[string]any, prefix []string, file string) error {
	// NB(sr): Keys are visited in order so that the reported conflict
	// doesn't depend on map iteration.
	for _, key := range slices.Sorted(maps.Keys(src)) {
		path := append(slices.Clone(prefix), key)
		id := "/" + strings.Join(path, "/")
		value := src[key]

		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			m.record(value, id, file)
			continue
		}

		dstMap, ok1 := existing.(map[string]any)
		srcMap, ok2 := value.(map[string]any)
		if ok1 && ok2 {
			if err := m.into(dstMap, srcMap, path, file); err != nil {
				return err
			}
			continue
		}

		if !reflect.DeepEqual(existing, value) {
			return &ConflictError{Path: id, Files: [2]string{m.origin[id], file}}
		}
	}
	return nil
}

func (m merger) record(value any, id, file string) {
	m.origin[id] = file
	if sub, ok := value.(map[string]any); ok {
		for key, v := range sub {
			m.record(v, id+"/"+key, file)
		}
	}
}
