package formatting_test

import (
	"testing"

	"github.com/JaimeStill/mimic/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"bare bytes", "1024", 1024, false},
		{"kilobytes", "1KB", 1024, false},
		{"quota default", "5MB", 5 * 1024 * 1024, false},
		{"lowercase with space", "64 kb", 64 * 1024, false},
		{"empty string", "", 0, true},
		{"unknown unit", "5XB", 0, true},
		{"negative", "-1MB", 0, true},
		{"fractional", "1.5KB", 1536, false},
		{"iec spelling", "2MiB", 2 * 1024 * 1024, false},
		{"unit only", "MB", 0, true},
		{"overflow", "9999999TB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{0, 2, "0 B"},
		{512, 0, "512 B"},
		{1536, 1, "1.5 KB"},
		{5 * 1024 * 1024, 0, "5 MB"},
		{100, 2, "100 B"},
		{-2048, 0, "-2 KB"},
	}

	for _, tt := range tests {
		if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
			t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
		}
	}
}
