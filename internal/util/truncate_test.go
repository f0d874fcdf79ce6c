package util

import (
	"strings"
	"testing"
)

func TestTruncateLog(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string passes through", "short log", 1024, "short log"},
		{"exact limit passes through", strings.Repeat("x", 20), 20, strings.Repeat("x", 20)},
		{"long string gains suffix", "1234567890abcdefghij", 10, "1234567890... [truncated, 20 bytes total]"},
		{"empty string", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateLog(tt.input, tt.maxLen); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTruncateBytesUsesDefaultLimit(t *testing.T) {
	short := TruncateBytes([]byte("short"))
	if short != "short" {
		t.Fatalf("short input should pass through, got %q", short)
	}

	long := make([]byte, 2*DefaultLogMaxLen)
	for i := range long {
		long[i] = 'x'
	}
	got := TruncateBytes(long)
	if !strings.HasPrefix(got, string(long[:DefaultLogMaxLen])) {
		t.Fatal("expected the first kilobyte to be preserved")
	}
	if !strings.HasSuffix(got, "[truncated, 2048 bytes total]") {
		t.Fatalf("expected truncation suffix, got tail %q", got[len(got)-40:])
	}
}
