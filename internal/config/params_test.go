package config_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lhenriquegomescamilo/angular-1/internal/config"
)

func TestParseParams(t *testing.T) {
	lines := []string{
		"'dist/bin/packages/common/npm_package'",
		"packages/common",
		"bazel-out/bin/packages/common",
		"bazel-out/genfiles/packages/common",
		`'{"@angular/common":{"index":"bazel-out/bin/packages/common/common.js"}}'`,
		"packages/common/README.md",
		"'bazel-out/bin/packages/common/fesm2015/common.js,bazel-out/bin/packages/common/fesm2015/http.js'",
		"",
		"bazel-out/bin/packages/common/common.es6/packages/common/index.js",
		"",
		"bazel-out/bin/packages/common/common.umd.js,,",
		"packages/common/package.json,packages/common/http/package.json",
		"bazel-out/bin/packages/common/index.d.ts",
		"packages/common/locales/fr.js",
		"LICENSE",
		"bazel-out/bin/packages/common/common.bundle.d.ts",
		".bundle.d.ts",
	}

	act, err := config.ParseParams([]byte(strings.Join(lines, "\n") + "\n"))
	if err != nil {
		t.Fatal(err)
	}

	exp := &config.Package{
		Output: "dist/bin/packages/common/npm_package",
		Roots: config.Roots{
			Source:   "packages/common",
			Bin:      "bazel-out/bin/packages/common",
			Genfiles: "bazel-out/genfiles/packages/common",
		},
		Modules: map[string]any{
			"@angular/common": map[string]any{"index": "bazel-out/bin/packages/common/common.js"},
		},
		Readme:  "packages/common/README.md",
		License: "LICENSE",
		Artifacts: config.Artifacts{
			FESM2015:        []string{"bazel-out/bin/packages/common/fesm2015/common.js", "bazel-out/bin/packages/common/fesm2015/http.js"},
			ESM2015:         []string{"bazel-out/bin/packages/common/common.es6/packages/common/index.js"},
			Bundles:         []string{"bazel-out/bin/packages/common/common.umd.js"},
			Srcs:            []string{"packages/common/package.json", "packages/common/http/package.json"},
			TypeDefinitions: []string{"bazel-out/bin/packages/common/index.d.ts"},
			Data:            []string{"packages/common/locales/fr.js"},
			DtsBundles:      []string{"bazel-out/bin/packages/common/common.bundle.d.ts"},
		},
		DtsBundleSuffix: ".bundle.d.ts",
	}

	opts := cmpopts.IgnoreUnexported(config.Package{}, config.Roots{}, config.Artifacts{}, config.Markers{})
	if diff := cmp.Diff(exp, act, opts); diff != "" {
		t.Fatalf("unexpected package (-want, +got):\n%s", diff)
	}
}

func TestParseParamsShort(t *testing.T) {
	act, err := config.ParseParams([]byte("out\r\nsrc"))
	if err != nil {
		t.Fatal(err)
	}
	if act.Output != "out" || act.Roots.Source != "src" || act.Roots.Bin != "" || act.Modules != nil || act.Artifacts.Len() != 0 {
		t.Fatalf("unexpected package: %+v", act)
	}
}

func TestParseParamsErrors(t *testing.T) {
	cases := []struct {
		note   string
		params string
		line   int
	}{
		{note: "empty", params: "", line: 1},
		{note: "quoted empty output", params: "''\nsrc", line: 1},
		{note: "bad module mapping", params: "out\nsrc\nbin\ngen\n[1,", line: 5},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			_, err := config.ParseParams([]byte(tc.params))
			perr, ok := err.(*config.ParamsError)
			if !ok {
				t.Fatalf("expected ParamsError, got %v", err)
			}
			if perr.Line != tc.line {
				t.Fatalf("expected line %d, got %d", tc.line, perr.Line)
			}
		})
	}
}
