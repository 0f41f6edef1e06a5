package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
)

type mockProvider struct {
	results []models.SearchResult
	err     error
	queries []string
}

func (m *mockProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

func TestFirstPartyMatcherResolve(t *testing.T) {
	track := models.StreamingTrack{
		Name:    "Midnight City",
		Artists: []string{"M83"},
		ISRC:    "FR6V81162296",
	}

	t.Run("validated hit returns candidate", func(t *testing.T) {
		provider := &mockProvider{results: []models.SearchResult{
			{SourceID: "hit", Title: "Midnight City", Channel: "M83", DurationSec: 243},
		}}
		matcher := NewFirstPartyMatcher(provider)

		candidate, err := matcher.Resolve(context.Background(), track)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if candidate == nil || candidate.SourceID != "hit" {
			t.Fatalf("Resolve() = %+v, want hit", candidate)
		}
		if candidate.Score < 85 || candidate.Score > 100 {
			t.Errorf("Score = %v, want similarity percentage above threshold", candidate.Score)
		}
		if provider.queries[0] != track.ISRC {
			t.Errorf("search query = %q, want ISRC", provider.queries[0])
		}
	})

	t.Run("dissimilar hit rejected", func(t *testing.T) {
		provider := &mockProvider{results: []models.SearchResult{
			{SourceID: "noise", Title: "completely different upload", Channel: "randomchannel"},
		}}
		matcher := NewFirstPartyMatcher(provider)

		candidate, err := matcher.Resolve(context.Background(), track)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if candidate != nil {
			t.Errorf("Resolve() = %+v, want nil for dissimilar hit", candidate)
		}
	})

	t.Run("no isrc skips search", func(t *testing.T) {
		provider := &mockProvider{}
		matcher := NewFirstPartyMatcher(provider)

		candidate, err := matcher.Resolve(context.Background(), models.StreamingTrack{Name: "Song"})
		if err != nil || candidate != nil {
			t.Errorf("Resolve() = %+v, %v; want nil, nil", candidate, err)
		}
		if len(provider.queries) != 0 {
			t.Errorf("search called for a track without ISRC: %v", provider.queries)
		}
	})

	t.Run("nil matcher resolves to nothing", func(t *testing.T) {
		var matcher *FirstPartyMatcher

		candidate, err := matcher.Resolve(context.Background(), track)
		if err != nil || candidate != nil {
			t.Errorf("Resolve() on nil matcher = %+v, %v; want nil, nil", candidate, err)
		}
	})

	t.Run("provider error propagates", func(t *testing.T) {
		matcher := NewFirstPartyMatcher(&mockProvider{err: errors.New("proxy down")})

		if _, err := matcher.Resolve(context.Background(), track); err == nil {
			t.Error("Resolve() expected error")
		}
	})
}

func TestMapSpotifyTrack(t *testing.T) {
	full := &SpotifyTrack{
		ID:   "6GyFP1nfCDB8lbD2bG0Hq9",
		Name: "Midnight City",
		Artists: []SpotifyArtist{
			{ID: "a1", Name: "M83"},
		},
		Album: SpotifyAlbum{
			Name:        "Hurry Up, We're Dreaming",
			Artists:     []SpotifyArtist{{Name: "M83"}},
			ReleaseDate: "2011-10-18",
			Images:      []SpotifyImage{{URL: "https://img/640", Width: 640}, {URL: "https://img/300", Width: 300}},
		},
		DurationMS:  243960,
		TrackNumber: 2,
		DiscNumber:  1,
		Explicit:    false,
		ExternalIDs: externalIDs{ISRC: "FR6V81162296"},
	}

	track, ok := mapSpotifyTrack(full)
	if !ok {
		t.Fatal("mapSpotifyTrack() rejected a valid track")
	}
	if track.Service != ServiceSpotify {
		t.Errorf("Service = %q, want %q", track.Service, ServiceSpotify)
	}
	if track.TrackID != full.ID || track.Name != "Midnight City" {
		t.Errorf("identity fields wrong: %+v", track)
	}
	if len(track.Artists) != 1 || track.Artists[0] != "M83" {
		t.Errorf("Artists = %v", track.Artists)
	}
	if track.AlbumArtist != "M83" {
		t.Errorf("AlbumArtist = %q", track.AlbumArtist)
	}
	if track.ISRC != "FR6V81162296" {
		t.Errorf("ISRC = %q", track.ISRC)
	}
	if track.ArtworkURL != "https://img/640" {
		t.Errorf("ArtworkURL = %q, want largest image", track.ArtworkURL)
	}
	if track.ReleaseDate != "2011-10-18" {
		t.Errorf("ReleaseDate = %q", track.ReleaseDate)
	}

	t.Run("local files filtered", func(t *testing.T) {
		local := *full
		local.IsLocal = true
		if _, ok := mapSpotifyTrack(&local); ok {
			t.Error("mapSpotifyTrack() accepted a local file")
		}
	})

	t.Run("empty id filtered", func(t *testing.T) {
		if _, ok := mapSpotifyTrack(&SpotifyTrack{Name: "Ghost"}); ok {
			t.Error("mapSpotifyTrack() accepted a track without an ID")
		}
	})

	t.Run("nil filtered", func(t *testing.T) {
		if _, ok := mapSpotifyTrack(nil); ok {
			t.Error("mapSpotifyTrack() accepted nil")
		}
	})
}

func TestMapAppleTrack(t *testing.T) {
	resource := appleResource{
		ID: "i.abc123",
		Attributes: appleAttributes{
			Name:       "Midnight City",
			ArtistName: "M83",
			AlbumName:  "Hurry Up, We're Dreaming",
		},
	}

	track, ok := mapAppleTrack(resource)
	if !ok {
		t.Fatal("mapAppleTrack() rejected a valid resource")
	}
	if track.Service != ServiceAppleMusic {
		t.Errorf("Service = %q, want %q", track.Service, ServiceAppleMusic)
	}
	if track.AlbumArtist != "M83" {
		t.Errorf("AlbumArtist = %q, want artist fallback", track.AlbumArtist)
	}

	t.Run("nameless resource filtered", func(t *testing.T) {
		if _, ok := mapAppleTrack(appleResource{ID: "i.x"}); ok {
			t.Error("mapAppleTrack() accepted a nameless resource")
		}
	})
}

func TestFormatArtwork(t *testing.T) {
	artwork := &appleArtwork{URL: "https://art/{w}x{h}.jpg"}
	if got, want := formatArtwork(artwork, 512), "https://art/512x512.jpg"; got != want {
		t.Errorf("formatArtwork() = %q, want %q", got, want)
	}
	if got := formatArtwork(nil, 512); got != "" {
		t.Errorf("formatArtwork(nil) = %q, want empty", got)
	}
}

func TestNewSpotifyServiceValidation(t *testing.T) {
	_, err := NewSpotifyService(map[string]string{"client_id": "only-id"}, nil)
	if !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("NewSpotifyService() error = %v, want ErrMissingCredentials", err)
	}

	svc, err := NewSpotifyService(map[string]string{
		"client_id":     "id",
		"client_secret": "secret",
	}, nil)
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}
	if svc.Name() != ServiceSpotify {
		t.Errorf("Name() = %q, want %q", svc.Name(), ServiceSpotify)
	}
}
