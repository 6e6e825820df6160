package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"ngpackage": main,
	})
}

func TestScript(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		// NB: To update expectations in the txtar files, re-run the tests
		// with NGPACKAGE_UPDATE=y.
		UpdateScripts: os.Getenv("NGPACKAGE_UPDATE") != "",
	})
}
