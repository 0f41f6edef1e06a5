// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/jordolang/tunedl/internal/models"
)

// MockStreamingService is a test double for [services.StreamingService]
type MockStreamingService struct {
	ServiceName string
	Snapshot    *models.LibrarySnapshot
}

func (m *MockStreamingService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockStreamingService) FetchLibrary(ctx context.Context) (*models.LibrarySnapshot, error) {
	if m.Snapshot != nil {
		return m.Snapshot, nil
	}
	return &models.LibrarySnapshot{Service: m.Name()}, nil
}

func (m *MockStreamingService) ResolveTrack(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error) {
	return nil, nil
}

func (m *MockStreamingService) Name() string {
	if m.ServiceName != "" {
		return m.ServiceName
	}
	return "mock"
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
