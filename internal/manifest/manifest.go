package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

// FormatFields are the manifest fields consumers use to resolve the entry
// file of a module format, in the order they are added.
var FormatFields = []string{"main", "fesm2015", "esm2015", "typings", "module", "es2015"}

// Manifest is a package.json document. Top-level keys keep the order they
// had in the input; keys that are added go last.
type Manifest struct {
	keys   []string
	values map[string]json.RawMessage
}

func New() *Manifest {
	return &Manifest{values: map[string]json.RawMessage{}}
}

// Parse reads a manifest, which must be a JSON object.
func Parse(bs []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(bs))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("manifest: not a JSON object")
	}

	m := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		key := tok.(string) // object keys are always strings

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("manifest field %q: %w", key, err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, fmt.Errorf("manifest field %q: %w", key, err)
		}
		m.set(key, compact.Bytes())
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("manifest: trailing data after object")
	}
	return m, nil
}

// Name returns the declared package name, "" if there is none.
func (m *Manifest) Name() string {
	name, _ := m.Get("name")
	return name
}

// Get returns the value of a string field.
func (m *Manifest) Get(key string) (string, bool) {
	raw, ok := m.values[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (m *Manifest) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Set stores a string field.
func (m *Manifest) Set(key, value string) {
	m.set(key, encodeString(value))
}

// HasFormatFields tells if any of FormatFields is present.
func (m *Manifest) HasFormatFields() bool {
	return slices.ContainsFunc(FormatFields, m.Has)
}

// Keys returns the top-level keys in order.
func (m *Manifest) Keys() []string {
	return slices.Clone(m.keys)
}

func (m *Manifest) Clone() *Manifest {
	c := &Manifest{keys: slices.Clone(m.keys), values: make(map[string]json.RawMessage, len(m.values))}
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}

// Marshal serializes the manifest with two-space indentation and no
// trailing newline.
func (m *Manifest) Marshal() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		compact.Write(encodeString(k))
		compact.WriteByte(':')
		compact.Write(m.values[k])
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (m *Manifest) set(key string, raw json.RawMessage) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = raw
}

func encodeString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}
