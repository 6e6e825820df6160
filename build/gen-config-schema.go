//go:build ignore

// gen-config-schema writes the JSON schema of ngpackage configuration
// files, for editors and CI checks:
//
//	go run build/gen-config-schema.go docs/ngpackage.schema.json
package main

import (
	"fmt"
	"os"

	"github.com/lhenriquegomescamilo/angular-1/internal/config"
	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s path/to/schema.json\n", os.Args[0])
		os.Exit(2)
	}

	bs, err := config.ReflectSchema()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := ngfs.WriteFile(os.Args[1], append(bs, '\n'), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
