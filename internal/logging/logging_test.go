package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lhenriquegomescamilo/angular-1/internal/logging"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewLogger(logging.Config{Level: logging.Warn, Output: &buf})

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	log.Warnf("warn %d", 3)
	log.Errorf("error %d", 4)

	out := buf.String()
	for _, unexpected := range []string{"debug 1", "info 2"} {
		if strings.Contains(out, unexpected) {
			t.Errorf("expected %q to be filtered, got:\n%s", unexpected, out)
		}
	}
	for _, expected := range []string{"warn 3", "error 4"} {
		if !strings.Contains(out, expected) {
			t.Errorf("expected %q in output, got:\n%s", expected, out)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewLogger(logging.Config{Level: logging.Debug, Format: logging.FormatJSON, Output: &buf}).
		With("package", "@angular/common")

	log.Infof("amended %s", "package.json")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("expected JSON event, got %q: %v", buf.String(), err)
	}
	if exp, act := "amended package.json", event["message"]; exp != act {
		t.Fatalf("expected message %q, got %q", exp, act)
	}
	if exp, act := "@angular/common", event["package"]; exp != act {
		t.Fatalf("expected package %q, got %q", exp, act)
	}
	if _, ok := event["time"]; !ok {
		t.Fatal("expected timestamp in JSON event")
	}
}

func TestLevelString(t *testing.T) {
	if exp, act := "warn", logging.Warn.String(); exp != act {
		t.Fatalf("expected %q, got %q", exp, act)
	}
}
