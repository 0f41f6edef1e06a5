// YouTube [Engine] implementation built on kkdai/youtube.
//
// Picks the best audio-only format for the requested bitrate, streams it to a
// temporary .part file with progress reporting, and renames into place on
// success. Transcoding to the exact bitrate is left to an external tagger;
// the quality argument only drives format selection.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kkdai/youtube/v2"
)

// progressChunk controls how many bytes are copied between progress callbacks.
const progressChunk = 256 * 1024

// YouTubeEngine downloads audio streams directly from YouTube.
type YouTubeEngine struct {
	client youtube.Client
	logger *log.Logger
}

// NewYouTubeEngine creates a YouTube download engine.
func NewYouTubeEngine(logger *log.Logger) *YouTubeEngine {
	return &YouTubeEngine{logger: logger}
}

// Download fetches the best audio stream for the video URL into outputPath.
func (e *YouTubeEngine) Download(ctx context.Context, url, outputPath string, quality int, progress ProgressFunc, metadata map[string]string) (bool, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return false, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	format := pickAudioFormat(video, quality)
	if format == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	stream, size, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return false, fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Close()

	partPath := outputPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return false, fmt.Errorf("failed to create output file: %w", err)
	}

	copied, err := e.copyWithProgress(out, stream, size, outputPath, progress)
	closeErr := out.Close()
	if err != nil {
		os.Remove(partPath)
		return false, err
	}
	if closeErr != nil {
		os.Remove(partPath)
		return false, fmt.Errorf("failed to finalize output file: %w", closeErr)
	}
	if size > 0 && copied < size {
		os.Remove(partPath)
		return false, nil
	}

	if progress != nil {
		if err := progress(Progress{Status: StatusProcessing, Percent: 99.0, DownloadedBytes: copied, TotalBytes: size, Filename: outputPath}); err != nil {
			os.Remove(partPath)
			return false, err
		}
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return false, fmt.Errorf("failed to move download into place: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("download finished", "output", outputPath, "bytes", copied)
	}
	return true, nil
}

// copyWithProgress streams the source into the writer, invoking the progress
// callback after every chunk. A callback error aborts the copy immediately.
func (e *YouTubeEngine) copyWithProgress(dst io.Writer, src io.Reader, total int64, filename string, progress ProgressFunc) (int64, error) {
	var copied int64
	started := time.Now()
	buf := make([]byte, 32*1024)
	var sinceReport int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return copied, fmt.Errorf("write failed: %w", writeErr)
			}
			copied += int64(n)
			sinceReport += int64(n)
		}

		if progress != nil && (sinceReport >= progressChunk || errors.Is(readErr, io.EOF)) {
			sinceReport = 0

			percent := 0.0
			if total > 0 {
				percent = float64(copied) / float64(total) * 100
			}
			speed := 0.0
			if elapsed := time.Since(started).Seconds(); elapsed > 0 {
				speed = float64(copied) / elapsed
			}

			if err := progress(Progress{
				Status:          StatusDownloading,
				Percent:         percent,
				DownloadedBytes: copied,
				TotalBytes:      total,
				Speed:           speed,
				Filename:        filename,
			}); err != nil {
				return copied, err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return copied, nil
			}
			return copied, fmt.Errorf("stream read failed: %w", readErr)
		}
	}
}

// pickAudioFormat selects the audio-only format closest to the requested
// bitrate, preferring higher bitrates on a tie.
func pickAudioFormat(video *youtube.Video, quality int) *youtube.Format {
	formats := video.Formats.Type("audio")
	if len(formats) == 0 {
		return nil
	}

	targetBps := quality * 1000
	best := 0
	bestDelta := -1
	for i := range formats {
		delta := formats[i].Bitrate - targetBps
		if delta < 0 {
			delta = -delta
		}
		if bestDelta < 0 || delta < bestDelta || (delta == bestDelta && formats[i].Bitrate > formats[best].Bitrate) {
			best = i
			bestDelta = delta
		}
	}
	return &formats[best]
}
