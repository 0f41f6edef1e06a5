// package formatter provides display formatting and filename helpers for the download pipeline
package formatter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

const maxFilenameLength = 200

// SanitizeFilename replaces characters that are invalid in file names and
// trims leading/trailing dots and spaces. Returns "untitled" for empty input.
func SanitizeFilename(name string) string {
	cleaned := invalidFilenameChars.ReplaceAllString(name, "_")
	cleaned = strings.Trim(cleaned, ". ")

	if len(cleaned) > maxFilenameLength {
		ext := filepath.Ext(cleaned)
		stem := strings.TrimSuffix(cleaned, ext)
		keep := maxFilenameLength - len(ext)
		if keep < 0 {
			keep = 0
		}
		if keep > len(stem) {
			keep = len(stem)
		}
		cleaned = stem[:keep] + ext
	}

	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}

// FormatBytes formats a byte count into a human-readable string (e.g. "1.5 MB").
func FormatBytes(n int64) string {
	val := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if val < 1024.0 {
			return fmt.Sprintf("%.1f %s", val, unit)
		}
		val /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", val)
}

// FormatSpeed formats a transfer speed in bytes per second (e.g. "1.5 MB/s").
func FormatSpeed(bytesPerSec float64) string {
	return FormatBytes(int64(bytesPerSec)) + "/s"
}

// FormatDuration formats a duration in seconds as MM:SS or HH:MM:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "00:00"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatETA estimates and formats remaining transfer time from the bytes left
// and the current speed. Returns "Unknown" when the speed is not positive.
func FormatETA(bytesRemaining int64, bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "Unknown"
	}
	remaining := int(float64(bytesRemaining) / bytesPerSec)
	switch {
	case remaining < 60:
		return fmt.Sprintf("%ds", remaining)
	case remaining < 3600:
		return fmt.Sprintf("%dm", remaining/60)
	default:
		return fmt.Sprintf("%dh %dm", remaining/3600, (remaining%3600)/60)
	}
}

// EstimateFileSize estimates an audio file size in bytes from its duration and bitrate.
func EstimateFileSize(durationSec, bitrateKbps int) int64 {
	return int64(bitrateKbps) * int64(durationSec) * 1000 / 8
}
