package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupWithWriterTeesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("production", &buf)
	logger.Info().Str("k", "v").Msg("hello")
	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Fatalf("expected structured field in teed output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected message in teed output, got %q", buf.String())
	}
}

func TestScopedAttachesComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("production", &buf)
	scoped := Scoped(logger, "montage")
	scoped.Info().Msg("ready")
	if !strings.Contains(buf.String(), `"component":"montage"`) {
		t.Fatalf("expected component field in output, got %q", buf.String())
	}
}
