package modules

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/go-viper/mapstructure/v2"

	"github.com/lhenriquegomescamilo/angular-1/internal/layout"
)

// Entry describes the compiled outputs of one module of the package, as
// reported by the upstream build.
type Entry struct {
	Name string `mapstructure:"-"`

	// Index is the primary compiled module of the entry point.
	Index      string `mapstructure:"index"`
	FlatModule string `mapstructure:"flatModule"`
	Metadata   string `mapstructure:"metadata"`
	Typings    string `mapstructure:"typings"`

	// GuessedPaths is set when the upstream build could not tell the
	// paths above for sure.
	GuessedPaths bool `mapstructure:"guessedPaths"`

	ESM2015Index string `mapstructure:"-"`
	ESM5Index    string `mapstructure:"-"`
}

// Map holds the module entries by module name.
type Map struct {
	entries map[string]*Entry
}

// Parse reads a module mapping given as JSON object of module name to
// record.
func Parse(bs []byte, l *layout.Layout) (*Map, error) {
	var raw map[string]any
	if len(bs) > 0 {
		if err := json.Unmarshal(bs, &raw); err != nil {
			return nil, fmt.Errorf("module mapping: %w", err)
		}
	}
	return Decode(raw, l)
}

// Decode builds the map from already decoded records, e.g. from a YAML
// configuration.
func Decode(raw map[string]any, l *layout.Layout) (*Map, error) {
	m := &Map{entries: make(map[string]*Entry, len(raw))}

	for name, rec := range raw {
		e := Entry{Name: name}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:  &e,
			TagName: "mapstructure",
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(rec); err != nil {
			return nil, fmt.Errorf("module %q: %w", name, err)
		}

		if e.Index != "" {
			if e.ESM2015Index, err = l.Rebase(e.Index, "esm2015"); err != nil {
				return nil, fmt.Errorf("module %q index: %w", name, err)
			}
			if e.ESM5Index, err = l.Rebase(e.Index, "esm5"); err != nil {
				return nil, fmt.Errorf("module %q index: %w", name, err)
			}
		}

		m.entries[name] = &e
	}

	return m, nil
}

func (m *Map) Get(name string) (*Entry, bool) {
	if m == nil {
		return nil, false
	}
	e, ok := m.entries[name]
	return e, ok
}

// Names returns the module names in sorted order.
func (m *Map) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.entries))
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
