package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	if l.GetLevel() != zerolog.Disabled {
		t.Errorf("nil logger should map to a disabled logger, got level %v", l.GetLevel())
	}

	var buf bytes.Buffer
	custom := zerolog.New(&buf)
	l = OrNop(&custom)
	l.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected message to reach the custom writer, got %q", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(zerolog.New(&buf), "container", "db")
	l.Warn().Msg("retrying")

	out := buf.String()
	for _, part := range []string{`"component":"container"`, `"name":"db"`, `"message":"retrying"`} {
		if !strings.Contains(out, part) {
			t.Errorf("log line should contain %s, got %q", part, out)
		}
	}

	buf.Reset()
	l = Component(zerolog.New(&buf), "threadpool", "")
	l.Info().Msg("x")
	if strings.Contains(buf.String(), `"name"`) {
		t.Errorf("empty name should be omitted, got %q", buf.String())
	}
}
