package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// TestLogWritesOnlyWhenEnabled verifies that disabled logging is silent.
func TestLogWritesOnlyWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	was := Enabled()
	defer SetEnabled(was)

	SetEnabled(true)
	SetOutput(&buf)
	Log("range %d-%d", 1, 4)
	LogIf(false, "skipped")
	LogTiming("render", 2*time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, "[TREEKIT_DEBUG] ") || !strings.Contains(out, "range 1-4") {
		t.Errorf("missing log line in %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) wrote output: %q", out)
	}
	if !strings.Contains(out, "render took 2ms") {
		t.Errorf("missing timing line in %q", out)
	}

	buf.Reset()
	SetEnabled(false)
	Log("hidden")
	Dump("value", 42)
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}
