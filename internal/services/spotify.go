// Spotify API implementation of [StreamingService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// ServiceSpotify is the canonical service identifier used on tracks.
	ServiceSpotify = "spotify"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	Images      []SpotifyImage  `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	DiscNumber  int             `json:"disc_number"`
	TrackNumber int             `json:"track_number"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	IsLocal     bool            `json:"is_local"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a playlist object from the paginated listing.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       spotifyOwner   `json:"owner"`
	Images      []SpotifyImage `json:"images"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// spotifyPage is the generic paginated envelope used by library endpoints.
type spotifyPage[T any] struct {
	Items []T     `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

type spotifyPlaylistItem struct {
	Track *SpotifyTrack `json:"track"`
}

// SpotifyService implements [StreamingService] for the Spotify Web API.
// Uses [oauth2] for authentication.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	matcher    *FirstPartyMatcher
}

// NewSpotifyService creates a new Spotify service with the given OAuth2
// credentials. The matcher is optional; without it ResolveTrack always
// defers to the generic resolver.
func NewSpotifyService(credentials map[string]string, matcher *FirstPartyMatcher) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		matcher:    matcher,
	}, nil
}

func (s *SpotifyService) Name() string {
	return ServiceSpotify
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("missing access_token or auth_code in credentials")
}

// doRequest performs an authenticated GET request against the Spotify API.
// The endpoint may be a path relative to the API base or a full pagination URL.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if len(endpoint) > 0 && endpoint[0] == '/' {
		apiURL = spotifyBaseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FetchLibrary retrieves every playlist (with tracks) and all saved tracks
// for the authenticated user.
func (s *SpotifyService) FetchLibrary(ctx context.Context) (*models.LibrarySnapshot, error) {
	snapshot := &models.LibrarySnapshot{
		Service:   ServiceSpotify,
		FetchedAt: time.Now().UTC(),
	}

	playlists, err := s.fetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Playlists = playlists

	liked, err := s.fetchSavedTracks(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.LikedTracks = liked

	return snapshot, nil
}

// ResolveTrack performs first-party ISRC matching when a matcher is configured.
func (s *SpotifyService) ResolveTrack(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error) {
	return s.matcher.Resolve(ctx, track)
}

func (s *SpotifyService) fetchPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist

	endpoint := "/me/playlists?limit=50"
	for endpoint != "" {
		var page spotifyPage[SpotifyPlaylist]
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			playlist := models.Playlist{
				Service:     ServiceSpotify,
				PlaylistID:  sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				Owner:       ownerName(sp.Owner),
				TrackCount:  sp.Tracks.Total,
				ArtworkURL:  selectImage(sp.Images),
			}

			tracks, err := s.fetchPlaylistTracks(ctx, sp.ID)
			if err != nil {
				return nil, err
			}
			playlist.Tracks = tracks

			playlists = append(playlists, playlist)
		}

		endpoint = nextEndpoint(page.Next)
	}

	return playlists, nil
}

func (s *SpotifyService) fetchPlaylistTracks(ctx context.Context, playlistID string) ([]models.StreamingTrack, error) {
	var tracks []models.StreamingTrack

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100", playlistID)
	for endpoint != "" {
		var page spotifyPage[spotifyPlaylistItem]
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if track, ok := mapSpotifyTrack(item.Track); ok {
				tracks = append(tracks, track)
			}
		}

		endpoint = nextEndpoint(page.Next)
	}

	return tracks, nil
}

func (s *SpotifyService) fetchSavedTracks(ctx context.Context) ([]models.StreamingTrack, error) {
	var tracks []models.StreamingTrack

	endpoint := "/me/tracks?limit=50"
	for endpoint != "" {
		var page spotifyPage[spotifyPlaylistItem]
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if track, ok := mapSpotifyTrack(item.Track); ok {
				tracks = append(tracks, track)
			}
		}

		endpoint = nextEndpoint(page.Next)
	}

	return tracks, nil
}

// mapSpotifyTrack converts a raw API track into a StreamingTrack.
// Local files and episode placeholders (empty ID) are filtered out.
func mapSpotifyTrack(st *SpotifyTrack) (models.StreamingTrack, bool) {
	if st == nil || st.ID == "" || st.IsLocal {
		return models.StreamingTrack{}, false
	}

	artists := make([]string, 0, len(st.Artists))
	for _, artist := range st.Artists {
		if artist.Name != "" {
			artists = append(artists, artist.Name)
		}
	}

	albumArtist := ""
	if len(st.Album.Artists) > 0 {
		albumArtist = st.Album.Artists[0].Name
	}

	return models.StreamingTrack{
		Service:     ServiceSpotify,
		TrackID:     st.ID,
		Name:        st.Name,
		Artists:     artists,
		Album:       st.Album.Name,
		AlbumArtist: albumArtist,
		DurationMS:  st.DurationMS,
		ISRC:        st.ExternalIDs.ISRC,
		ArtworkURL:  selectImage(st.Album.Images),
		TrackNumber: st.TrackNumber,
		DiscNumber:  st.DiscNumber,
		Explicit:    st.Explicit,
		ReleaseDate: st.Album.ReleaseDate,
	}, true
}

func ownerName(o spotifyOwner) string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.ID
}

// selectImage picks the first (largest) image URL, if any.
func selectImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func nextEndpoint(next *string) string {
	if next == nil {
		return ""
	}
	return *next
}
