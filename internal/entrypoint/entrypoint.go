package entrypoint

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
	"github.com/lhenriquegomescamilo/angular-1/internal/layout"
	"github.com/lhenriquegomescamilo/angular-1/internal/logging"
	"github.com/lhenriquegomescamilo/angular-1/internal/manifest"
	"github.com/lhenriquegomescamilo/angular-1/internal/modules"
)

var typingsExt = regexp.MustCompile(`\.d\.tsx?$`)

// EntryPoint is a secondary entry point that got files generated for it.
// The paths are output tree paths, empty if the file was not written.
type EntryPoint struct {
	Name     string
	Local    string
	Metadata string
	Typings  string

	// Manifest is set if the entry point had no manifest of its own.
	Manifest *manifest.Amendment
	// ManifestFile is where Manifest was written.
	ManifestFile string
}

// metadataRedirect is the metadata document of an entry point that only
// forwards to the metadata of its flat module.
type metadataRedirect struct {
	Symbolic                string           `json:"__symbolic"`
	Version                 int              `json:"version"`
	Metadata                struct{}         `json:"metadata"`
	Exports                 []metadataExport `json:"exports"`
	FlatModuleIndexRedirect bool             `json:"flatModuleIndexRedirect"`
	ImportAs                string           `json:"importAs"`
}

type metadataExport struct {
	From string `json:"from"`
}

// Synthesizer generates re-export files and manifests for the secondary
// entry points of a package, so that "<root>/<local>" resolves for every
// consumer.
type Synthesizer struct {
	layout  *layout.Layout
	modules *modules.Map
	amender *manifest.Amender
	license string
	log     *logging.Logger
}

func New(l *layout.Layout, m *modules.Map, a *manifest.Amender) *Synthesizer {
	return &Synthesizer{layout: l, modules: m, amender: a, log: logging.NewNop()}
}

func (s *Synthesizer) WithLicense(banner string) *Synthesizer {
	s.license = banner
	return s
}

func (s *Synthesizer) WithLogger(log *logging.Logger) *Synthesizer {
	s.log = log
	return s
}

// Synthesize writes the files for every module below the root package.
// existing holds the names of packages that shipped their own manifest.
func (s *Synthesizer) Synthesize(root string, existing map[string]bool) ([]EntryPoint, error) {
	if root == "" {
		s.log.Warnf("No root package found, not generating entry point files.")
		return nil, nil
	}

	var eps []EntryPoint
	for _, name := range s.modules.Names() {
		local, ok := strings.CutPrefix(name, root+"/")
		if !ok || local == "" {
			continue
		}
		entry, _ := s.modules.Get(name)

		ep, err := s.synthesize(entry, local, existing[name])
		if err != nil {
			return nil, fmt.Errorf("entry point %s: %w", name, err)
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

func (s *Synthesizer) synthesize(entry *modules.Entry, local string, hasManifest bool) (EntryPoint, error) {
	ep := EntryPoint{Name: entry.Name, Local: local}
	src := s.layout.Roots().Source
	var err error

	if entry.Metadata != "" {
		if ep.Metadata, err = s.writeMetadata(path.Join(src, local+".metadata.json"), entry); err != nil {
			return ep, err
		}
	}

	if entry.Typings != "" {
		if ep.Typings, err = s.writeTypings(path.Join(src, local+".d.ts"), entry); err != nil {
			return ep, err
		}
	} else {
		s.log.Warnf("No typings found for %s, not generating a type re-export.", entry.Name)
	}

	if !hasManifest {
		in := path.Join(src, local, "package.json")
		m := manifest.New()
		m.Set("name", entry.Name)

		amendment, err := s.amender.Amend(in, m, true)
		if err != nil {
			return ep, err
		}
		out, err := s.layout.Relocate(in)
		if err != nil {
			return ep, err
		}
		if err := ngfs.WriteFile(out, amendment.Content, 0o644); err != nil {
			return ep, err
		}
		ep.Manifest, ep.ManifestFile = amendment, out
	}

	return ep, nil
}

func (s *Synthesizer) writeMetadata(in string, entry *modules.Entry) (string, error) {
	ref, err := s.layout.RelativeReference(in, entry.Metadata)
	if err != nil {
		return "", err
	}

	doc := metadataRedirect{
		Symbolic:                "module",
		Version:                 3,
		Exports:                 []metadataExport{{From: strings.TrimSuffix(ref, ".metadata.json")}},
		FlatModuleIndexRedirect: true,
		ImportAs:                entry.Name,
	}
	bs, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	out, err := s.layout.Relocate(in)
	if err != nil {
		return "", err
	}
	return out, ngfs.WriteFile(out, append(bs, '\n'), 0o644)
}

func (s *Synthesizer) writeTypings(in string, entry *modules.Entry) (string, error) {
	ref, err := s.layout.RelativeReference(in, entry.Typings)
	if err != nil {
		return "", err
	}
	content := s.license + "\nexport * from '" + typingsExt.ReplaceAllString(ref, "") + "';\n"

	out, err := s.layout.Relocate(in)
	if err != nil {
		return "", err
	}
	return out, ngfs.WriteFile(out, []byte(content), 0o644)
}
