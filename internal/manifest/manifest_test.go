package manifest_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lhenriquegomescamilo/angular-1/internal/manifest"
)

func TestParseMarshal(t *testing.T) {
	cases := []struct {
		note string
		in   string
		exp  string
	}{
		{
			note: "empty object",
			in:   `{}`,
			exp:  `{}`,
		},
		{
			note: "key order kept",
			in:   `{"version": "1.0.0", "name": "@angular/common", "peerDependencies": {"rxjs": "^6.0.0"}}`,
			exp: `{
  "version": "1.0.0",
  "name": "@angular/common",
  "peerDependencies": {
    "rxjs": "^6.0.0"
  }
}`,
		},
		{
			note: "no html escaping",
			in:   `{"engines": {"node": ">=8 <12"}}`,
			exp: `{
  "engines": {
    "node": ">=8 <12"
  }
}`,
		},
		{
			note: "duplicate key keeps first position and last value",
			in:   `{"a": 1, "b": 2, "a": 3}`,
			exp: `{
  "a": 3,
  "b": 2
}`,
		},
		{
			note: "arrays",
			in:   "{\"files\":[\n\"a\",\n\"b\"], \"empty\": []}",
			exp: `{
  "files": [
    "a",
    "b"
  ],
  "empty": []
}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			m, err := manifest.Parse([]byte(tc.in))
			if err != nil {
				t.Fatal(err)
			}
			act, err := m.Marshal()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.exp, string(act)); diff != "" {
				t.Fatalf("unexpected output (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		``,
		`[]`,
		`"name"`,
		`{"name": }`,
		`{"name": "a"`,
		`{"name": "a"} {}`,
	} {
		t.Run(in, func(t *testing.T) {
			if _, err := manifest.Parse([]byte(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSetAppends(t *testing.T) {
	m, err := manifest.Parse([]byte(`{"name": "a", "module": "old.js"}`))
	if err != nil {
		t.Fatal(err)
	}
	m.Set("main", "./bundles/a.umd.js")
	m.Set("module", "./fesm2015/a.js")

	if exp, act := []string{"name", "module", "main"}, m.Keys(); !cmp.Equal(exp, act) {
		t.Fatalf("expected keys %v, got %v", exp, act)
	}
	if v, _ := m.Get("module"); v != "./fesm2015/a.js" {
		t.Fatalf("unexpected module %q", v)
	}
}

func TestNameAndFormatFields(t *testing.T) {
	cases := []struct {
		note      string
		in        string
		expName   string
		expFormat bool
	}{
		{note: "plain", in: `{"name": "a"}`, expName: "a"},
		{note: "no name", in: `{"version": "1"}`},
		{note: "name not a string", in: `{"name": 1}`},
		{note: "typings", in: `{"name": "a", "typings": "./a.d.ts"}`, expName: "a", expFormat: true},
		{note: "es2015", in: `{"es2015": "./a.js"}`, expFormat: true},
		{note: "types is not a format field", in: `{"types": "./a.d.ts"}`},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			m, err := manifest.Parse([]byte(tc.in))
			if err != nil {
				t.Fatal(err)
			}
			if act := m.Name(); act != tc.expName {
				t.Fatalf("expected name %q, got %q", tc.expName, act)
			}
			if act := m.HasFormatFields(); act != tc.expFormat {
				t.Fatalf("expected format fields %v, got %v", tc.expFormat, act)
			}
		})
	}
}

func TestClone(t *testing.T) {
	m := manifest.New()
	m.Set("name", "a")
	c := m.Clone()
	c.Set("main", "x")
	if m.Has("main") {
		t.Fatal("expected clone to be independent")
	}
}
