package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lhenriquegomescamilo/angular-1/internal/metrics"
)

func TestWriteTextfile(t *testing.T) {
	before := testutil.ToFloat64(metrics.FilesPlaced.WithLabelValues("bundles"))
	metrics.FilesPlaced.WithLabelValues("bundles").Inc()
	if exp, act := before+1, testutil.ToFloat64(metrics.FilesPlaced.WithLabelValues("bundles")); exp != act {
		t.Fatalf("expected %v, got %v", exp, act)
	}

	name := filepath.Join(t.TempDir(), "ngpackage.prom")
	if err := metrics.WriteTextfile(name); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bs), `ngpackage_files_placed_total{kind="bundles"}`) {
		t.Fatalf("expected counter in output:\n%s", bs)
	}
}

func TestPackageBuildMetrics(t *testing.T) {
	start := time.Now()
	metrics.PackageBuildStarted("dist/a", start)
	metrics.PackageBuildSucceeded("dist/a", start)
	metrics.PackageBuildFailed("dist/a", "build_failed")

	name := filepath.Join(t.TempDir(), "ngpackage.prom")
	if err := metrics.WriteTextfile(name); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	for _, exp := range []string{
		`ngpackage_build_failed{error_type="build_failed",output="dist/a"} 1`,
		`ngpackage_build_duration_seconds_count{output="dist/a"} 1`,
		`ngpackage_last_build_end_timestamp{output="dist/a"}`,
	} {
		if !strings.Contains(string(bs), exp) {
			t.Fatalf("expected %s in output:\n%s", exp, bs)
		}
	}
}
