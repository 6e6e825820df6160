package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packageBuildFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngpackage_build_failed",
			Help: "Number of times a package has failed to build",
		},
		[]string{"output", "error_type"},
	)

	packageBuildCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngpackage_build_count",
			Help: "Total number of times a package has been built",
		},
	)

	packageBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ngpackage_build_duration_seconds",
			Help:    "Package build duration in seconds",
			Buckets: []float64{0.1, 0.2, 0.5, 1, 1.5, 2, 5, 10, 30, 60},
		},
		[]string{"output"},
	)

	lastPackageBuildStart = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ngpackage_last_build_start_timestamp",
			Help: "Unix timestamp of when the last package build started",
		},
		[]string{"output"},
	)

	lastPackageBuildEnd = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ngpackage_last_build_end_timestamp",
			Help: "Unix timestamp of when the last package build ended",
		},
		[]string{"output"},
	)

	FilesPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngpackage_files_placed_total",
			Help: "Total number of files written to the output tree, by artifact kind",
		},
		[]string{"kind"},
	)

	Manifests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngpackage_manifests_total",
			Help: "Total number of manifests processed, by outcome",
		},
		[]string{"outcome"},
	)

	EntryPointsSynthesized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngpackage_entry_points_synthesized_total",
			Help: "Total number of secondary entry points files were generated for",
		},
	)

	SourceViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngpackage_source_violations_total",
			Help: "Total number of source files taken from an output tree",
		},
	)

	DanglingReferences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngpackage_dangling_references_total",
			Help: "Total number of manifest fields pointing at missing files",
		},
	)
)

// PackageBuildStarted records the start of a build of the package written
// to output.
func PackageBuildStarted(output string, start time.Time) {
	lastPackageBuildStart.WithLabelValues(output).Set(float64(start.Unix()))
}

// PackageBuildSucceeded records a successful build started at start.
func PackageBuildSucceeded(output string, start time.Time) {
	packageBuildCount.Inc()
	packageBuildDuration.WithLabelValues(output).Observe(time.Since(start).Seconds())
	lastPackageBuildEnd.WithLabelValues(output).Set(float64(time.Now().Unix()))
}

// PackageBuildFailed records a failed build. errorType tells which stage
// failed.
func PackageBuildFailed(output, errorType string) {
	packageBuildCount.Inc()
	packageBuildFailed.WithLabelValues(output, errorType).Inc()
	lastPackageBuildEnd.WithLabelValues(output).Set(float64(time.Now().Unix()))
}

// WriteTextfile writes all registered metrics to filename in the Prometheus
// text format, e.g. for the node exporter's textfile collector.
func WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer)
}
