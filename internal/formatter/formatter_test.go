package formatter

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name passes through", "Midnight City", "Midnight City"},
		{"invalid characters replaced", `What/Is: "Love"?`, "What_Is_ _Love__"},
		{"leading and trailing dots trimmed", "...song...", "song"},
		{"trailing spaces trimmed", "  song  ", "song"},
		{"empty yields untitled", "", "untitled"},
		{"only invalid characters yields underscores", "???", "___"},
		{"control characters replaced", "a\x00b\x1fc", "a_b_c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("long names capped preserving extension", func(t *testing.T) {
		long := strings.Repeat("a", 300) + ".mp3"
		got := SanitizeFilename(long)
		if len(got) > 200 {
			t.Errorf("len = %d, want <= 200", len(got))
		}
		if !strings.HasSuffix(got, ".mp3") {
			t.Errorf("extension lost: %q", got)
		}
	})
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	if got, want := FormatSpeed(1536), "1.5 KB/s"; got != want {
		t.Errorf("FormatSpeed() = %q, want %q", got, want)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{-5, "00:00"},
		{0, "00:00"},
		{59, "00:59"},
		{225, "03:45"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		speed     float64
		want      string
	}{
		{"zero speed unknown", 1000, 0, "Unknown"},
		{"negative speed unknown", 1000, -1, "Unknown"},
		{"seconds", 3000, 100, "30s"},
		{"minutes", 90000, 100, "15m"},
		{"hours", 400000, 100, "1h 6m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatETA(tt.remaining, tt.speed); got != tt.want {
				t.Errorf("FormatETA(%d, %v) = %q, want %q", tt.remaining, tt.speed, got, tt.want)
			}
		})
	}
}

func TestEstimateFileSize(t *testing.T) {
	// 320 kbps for 4 minutes: 320000 bits/s * 240s / 8 = 9.6 MB
	if got, want := EstimateFileSize(240, 320), int64(9600000); got != want {
		t.Errorf("EstimateFileSize() = %d, want %d", got, want)
	}
}
