// Apple Music API implementation of [StreamingService]
//
// Uses a developer token plus a Music-User-Token for library access.
// Response shapes based on https://developer.apple.com/documentation/applemusicapi
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
)

const (
	appleMusicBaseURL = "https://api.music.apple.com/v1"

	// ServiceAppleMusic is the canonical service identifier used on tracks.
	ServiceAppleMusic = "apple_music"
)

type appleArtwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type applePlayParams struct {
	CatalogID string `json:"catalogId"`
}

type appleAttributes struct {
	Name            string          `json:"name"`
	ArtistName      string          `json:"artistName"`
	AlbumName       string          `json:"albumName"`
	AlbumArtistName string          `json:"albumArtistName"`
	DurationMillis  int             `json:"durationInMillis"`
	ISRC            string          `json:"isrc"`
	DiscNumber      int             `json:"discNumber"`
	TrackNumber     int             `json:"trackNumber"`
	ContentRating   string          `json:"contentRating"`
	ReleaseDate     string          `json:"releaseDate"`
	TrackCount      int             `json:"trackCount"`
	CuratorName     string          `json:"curatorName"`
	Artwork         *appleArtwork   `json:"artwork"`
	PlayParams      applePlayParams `json:"playParams"`
	Description     struct {
		Standard string `json:"standard"`
	} `json:"description"`
}

type appleResource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes appleAttributes `json:"attributes"`
}

type applePage struct {
	Data []appleResource `json:"data"`
	Next string          `json:"next"`
}

// AppleMusicService implements [StreamingService] for the Apple Music API.
type AppleMusicService struct {
	developerToken string
	userToken      string
	storefront     string
	httpClient     *http.Client
	matcher        *FirstPartyMatcher
}

// NewAppleMusicService creates a new Apple Music service. The matcher is
// optional, as with Spotify.
func NewAppleMusicService(storefront string, matcher *FirstPartyMatcher) *AppleMusicService {
	if storefront == "" {
		storefront = "us"
	}
	return &AppleMusicService{
		storefront: storefront,
		httpClient: http.DefaultClient,
		matcher:    matcher,
	}
}

func (a *AppleMusicService) Name() string {
	return ServiceAppleMusic
}

// Authenticate stores the developer and user tokens for subsequent requests.
// Expects credentials["developer_token"] and credentials["user_token"].
func (a *AppleMusicService) Authenticate(ctx context.Context, credentials map[string]string) error {
	developerToken, ok := credentials["developer_token"]
	if !ok || developerToken == "" {
		return fmt.Errorf("%w: developer_token", shared.ErrMissingCredentials)
	}

	userToken, ok := credentials["user_token"]
	if !ok || userToken == "" {
		return fmt.Errorf("%w: user_token", shared.ErrMissingCredentials)
	}

	a.developerToken = developerToken
	a.userToken = userToken
	return nil
}

func (a *AppleMusicService) doRequest(ctx context.Context, endpoint string, result any) error {
	if a.developerToken == "" || a.userToken == "" {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if strings.HasPrefix(endpoint, "/") {
		apiURL = appleMusicBaseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.developerToken)
	req.Header.Set("Music-User-Token", a.userToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("apple music API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FetchLibrary retrieves library playlists (with tracks) and library songs.
func (a *AppleMusicService) FetchLibrary(ctx context.Context) (*models.LibrarySnapshot, error) {
	snapshot := &models.LibrarySnapshot{
		Service:   ServiceAppleMusic,
		FetchedAt: time.Now().UTC(),
	}

	playlists, err := a.fetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Playlists = playlists

	songs, err := a.fetchResources(ctx, "/me/library/songs?limit=100")
	if err != nil {
		return nil, err
	}
	for _, resource := range songs {
		if track, ok := mapAppleTrack(resource); ok {
			snapshot.LikedTracks = append(snapshot.LikedTracks, track)
		}
	}

	return snapshot, nil
}

// ResolveTrack performs first-party ISRC matching when a matcher is configured.
func (a *AppleMusicService) ResolveTrack(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error) {
	return a.matcher.Resolve(ctx, track)
}

func (a *AppleMusicService) fetchPlaylists(ctx context.Context) ([]models.Playlist, error) {
	resources, err := a.fetchResources(ctx, "/me/library/playlists?limit=100")
	if err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	for _, resource := range resources {
		playlist := models.Playlist{
			Service:     ServiceAppleMusic,
			PlaylistID:  resource.ID,
			Name:        resource.Attributes.Name,
			Description: resource.Attributes.Description.Standard,
			Owner:       resource.Attributes.CuratorName,
			TrackCount:  resource.Attributes.TrackCount,
			ArtworkURL:  formatArtwork(resource.Attributes.Artwork, 512),
		}

		endpoint := fmt.Sprintf("/me/library/playlists/%s/tracks?limit=100", resource.ID)
		trackResources, err := a.fetchResources(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		for _, tr := range trackResources {
			if track, ok := mapAppleTrack(tr); ok {
				playlist.Tracks = append(playlist.Tracks, track)
			}
		}

		playlists = append(playlists, playlist)
	}

	return playlists, nil
}

// fetchResources walks an Apple Music paginated endpoint to exhaustion.
func (a *AppleMusicService) fetchResources(ctx context.Context, endpoint string) ([]appleResource, error) {
	var resources []appleResource

	for endpoint != "" {
		var page applePage
		if err := a.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		resources = append(resources, page.Data...)
		endpoint = page.Next
	}

	return resources, nil
}

func mapAppleTrack(resource appleResource) (models.StreamingTrack, bool) {
	attrs := resource.Attributes
	if resource.ID == "" || attrs.Name == "" {
		return models.StreamingTrack{}, false
	}

	var artists []string
	if attrs.ArtistName != "" {
		artists = []string{attrs.ArtistName}
	}

	albumArtist := attrs.AlbumArtistName
	if albumArtist == "" {
		albumArtist = attrs.ArtistName
	}

	return models.StreamingTrack{
		Service:     ServiceAppleMusic,
		TrackID:     resource.ID,
		Name:        attrs.Name,
		Artists:     artists,
		Album:       attrs.AlbumName,
		AlbumArtist: albumArtist,
		DurationMS:  attrs.DurationMillis,
		ISRC:        attrs.ISRC,
		ArtworkURL:  formatArtwork(attrs.Artwork, 512),
		TrackNumber: attrs.TrackNumber,
		DiscNumber:  attrs.DiscNumber,
		Explicit:    attrs.ContentRating == "explicit",
		ReleaseDate: attrs.ReleaseDate,
	}, true
}

// formatArtwork substitutes the size placeholders in an Apple artwork URL.
func formatArtwork(artwork *appleArtwork, size int) string {
	if artwork == nil || artwork.URL == "" {
		return ""
	}
	s := strconv.Itoa(size)
	url := strings.ReplaceAll(artwork.URL, "{w}", s)
	return strings.ReplaceAll(url, "{h}", s)
}
