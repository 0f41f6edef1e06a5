package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func audioFormat(itag, bitrate int) youtube.Format {
	return youtube.Format{ItagNo: itag, MimeType: `audio/webm; codecs="opus"`, Bitrate: bitrate}
}

func TestPickAudioFormat(t *testing.T) {
	tests := []struct {
		name     string
		formats  youtube.FormatList
		quality  int
		wantItag int
	}{
		{
			name: "closest bitrate wins",
			formats: youtube.FormatList{
				audioFormat(249, 50000),
				audioFormat(250, 160000),
				audioFormat(251, 320000),
			},
			quality:  160,
			wantItag: 250,
		},
		{
			name: "higher bitrate wins a tie",
			formats: youtube.FormatList{
				audioFormat(249, 96000),
				audioFormat(250, 160000),
			},
			quality:  128,
			wantItag: 250,
		},
		{
			name: "video formats ignored",
			formats: youtube.FormatList{
				{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000},
				audioFormat(249, 50000),
			},
			quality:  320,
			wantItag: 249,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video := &youtube.Video{Formats: tt.formats}
			got := pickAudioFormat(video, tt.quality)
			if got == nil {
				t.Fatal("pickAudioFormat() = nil, want format")
			}
			if got.ItagNo != tt.wantItag {
				t.Errorf("ItagNo = %d, want %d", got.ItagNo, tt.wantItag)
			}
		})
	}

	t.Run("no audio formats", func(t *testing.T) {
		video := &youtube.Video{Formats: youtube.FormatList{
			{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000},
		}}
		if got := pickAudioFormat(video, 320); got != nil {
			t.Errorf("pickAudioFormat() = %+v, want nil", got)
		}
	})
}

func TestCopyWithProgress(t *testing.T) {
	e := NewYouTubeEngine(nil)

	t.Run("reports every chunk and completion", func(t *testing.T) {
		payload := bytes.Repeat([]byte("a"), progressChunk+100)

		var dst bytes.Buffer
		var reports []Progress
		copied, err := e.copyWithProgress(&dst, bytes.NewReader(payload), int64(len(payload)), "out.mp3", func(p Progress) error {
			reports = append(reports, p)
			return nil
		})
		if err != nil {
			t.Fatalf("copyWithProgress() error = %v", err)
		}
		if copied != int64(len(payload)) {
			t.Errorf("copied = %d, want %d", copied, len(payload))
		}
		if dst.Len() != len(payload) {
			t.Errorf("written = %d, want %d", dst.Len(), len(payload))
		}
		if len(reports) < 2 {
			t.Fatalf("got %d progress reports, want at least 2", len(reports))
		}

		last := reports[len(reports)-1]
		if last.Percent != 100 {
			t.Errorf("final Percent = %.1f, want 100", last.Percent)
		}
		if last.DownloadedBytes != int64(len(payload)) {
			t.Errorf("final DownloadedBytes = %d, want %d", last.DownloadedBytes, len(payload))
		}
		if last.Status != StatusDownloading {
			t.Errorf("final Status = %q, want %q", last.Status, StatusDownloading)
		}
	})

	t.Run("callback error aborts the copy", func(t *testing.T) {
		payload := bytes.Repeat([]byte("a"), 4*progressChunk)
		abort := errors.New("stop")

		var dst bytes.Buffer
		_, err := e.copyWithProgress(&dst, bytes.NewReader(payload), int64(len(payload)), "out.mp3", func(p Progress) error {
			return abort
		})
		if !errors.Is(err, abort) {
			t.Errorf("error = %v, want %v", err, abort)
		}
		if dst.Len() >= len(payload) {
			t.Error("copy should have stopped before draining the source")
		}
	})

	t.Run("nil callback streams everything", func(t *testing.T) {
		payload := strings.Repeat("b", 1000)

		var dst bytes.Buffer
		copied, err := e.copyWithProgress(&dst, strings.NewReader(payload), int64(len(payload)), "out.mp3", nil)
		if err != nil {
			t.Fatalf("copyWithProgress() error = %v", err)
		}
		if copied != int64(len(payload)) {
			t.Errorf("copied = %d, want %d", copied, len(payload))
		}
	})
}
