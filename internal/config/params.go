package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// paramFields are the lines of a parameter file, in order.
var paramFields = []string{
	"output",
	"roots.source",
	"roots.bin",
	"roots.genfiles",
	"modules",
	"readme",
	"artifacts.fesm2015",
	"artifacts.fesm5",
	"artifacts.esm2015",
	"artifacts.esm5",
	"artifacts.bundles",
	"artifacts.srcs",
	"artifacts.type_definitions",
	"artifacts.data",
	"license",
	"artifacts.dts_bundles",
	"dts_bundle_suffix",
}

// ParamsError reports an invalid line of a parameter file.
type ParamsError struct {
	Line  int // 1-based
	Field string
	Err   error
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("parameter file line %d (%s): %v", e.Line, e.Field, e.Err)
}

func (e *ParamsError) Unwrap() error {
	return e.Err
}

func ParseParamsFile(filename string) (*Package, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", filename, err)
	}
	return ParseParams(bs)
}

// ParseParams reads the line based parameter format: one value per line,
// each optionally enclosed in single quotes, lists separated by commas.
// Missing trailing lines are empty.
func ParseParams(bs []byte) (*Package, error) {
	lines := strings.Split(string(bs), "\n")
	value := func(i int) string {
		if i >= len(lines) {
			return ""
		}
		return unquote(strings.TrimSuffix(lines[i], "\r"))
	}
	list := func(i int) []string {
		var items []string
		for _, item := range strings.Split(value(i), ",") {
			if item != "" {
				items = append(items, item)
			}
		}
		return items
	}

	p := Package{
		Output: value(0),
		Roots: Roots{
			Source:   value(1),
			Bin:      value(2),
			Genfiles: value(3),
		},
		Readme: value(5),
		Artifacts: Artifacts{
			FESM2015:        list(6),
			FESM5:           list(7),
			ESM2015:         list(8),
			ESM5:            list(9),
			Bundles:         list(10),
			Srcs:            list(11),
			TypeDefinitions: list(12),
			Data:            list(13),
			DtsBundles:      list(15),
		},
		License:         value(14),
		DtsBundleSuffix: value(16),
	}

	if p.Output == "" {
		return nil, &ParamsError{Line: 1, Field: paramFields[0], Err: fmt.Errorf("must not be empty")}
	}

	if doc := value(4); doc != "" {
		if err := json.Unmarshal([]byte(doc), &p.Modules); err != nil {
			return nil, &ParamsError{Line: 5, Field: paramFields[4], Err: err}
		}
	}

	return &p, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}
