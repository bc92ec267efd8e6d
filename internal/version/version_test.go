package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestInfo_String(t *testing.T) {
	tests := []struct {
		info     Info
		expected string
	}{
		{Info{Version: "1.2.0"}, "qnes 1.2.0"},
		{Info{Version: "dev", Commit: "0123456789abcdef"}, "qnes dev (0123456)"},
		{Info{Version: "dev", Commit: "abc", Modified: true}, "qnes dev (abc+dirty)"},
	}

	for _, tt := range tests {
		if got := tt.info.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestGetVersion_Release(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	Version = "1.2.0"
	if got := GetVersion(); got != "1.2.0" {
		t.Errorf("Expected 1.2.0, got %s", got)
	}
}

func TestPrintBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintBuildInfo(&buf)
	out := buf.String()
	for _, want := range []string{"qnes ", "go:", "platform:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}
