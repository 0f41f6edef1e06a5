package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/jordolang/tunedl/internal/engine"
	"github.com/jordolang/tunedl/internal/library"
	"github.com/jordolang/tunedl/internal/repositories"
	"github.com/jordolang/tunedl/internal/resolver"
	"github.com/jordolang/tunedl/internal/search"
	"github.com/jordolang/tunedl/internal/services"
	"github.com/jordolang/tunedl/internal/shared"
	"github.com/jordolang/tunedl/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)
	if os.Getenv("TUNEDL_DEBUG") != "" {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	godotenv.Load()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	applyEnvOverrides(config)

	searchClient := search.NewClient(config.Search.ProxyURL, config.Search.RateLimit)
	matcher := services.NewFirstPartyMatcher(searchClient)
	fallback := resolver.New(searchClient, logger)

	var trackResolver library.TrackResolver = fallback
	if _, err := os.Stat(config.Database.Path); err == nil {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			cache := repositories.NewResolutionCacheAdapter(repositories.NewResolutionRepository(db))
			trackResolver = tasks.NewCachingResolver(fallback, cache, logger)
			defer db.Close()
		}
	}

	var streamingServices []services.StreamingService

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		}, matcher); err == nil {
			streamingServices = append(streamingServices, svc)
		}
	}

	if config.Credentials.AppleMusic.DeveloperToken != "" {
		streamingServices = append(streamingServices, services.NewAppleMusicService(config.Credentials.AppleMusic.Storefront, matcher))
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Search:    searchClient,
		Resolver:  fallback,
		Fallback:  trackResolver,
		Engine:    engine.NewYouTubeEngine(logger),
		Services:  streamingServices,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "tunedl",
		Usage:    "Sync streaming libraries and download resolved tracks",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// applyEnvOverrides lets environment variables (typically from a .env file)
// win over config.toml for credentials and the proxy endpoint.
func applyEnvOverrides(config *shared.Config) {
	overrides := map[string]*string{
		"SPOTIFY_CLIENT_ID":      &config.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET":  &config.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":   &config.Credentials.Spotify.RedirectURI,
		"APPLE_DEVELOPER_TOKEN":  &config.Credentials.AppleMusic.DeveloperToken,
		"APPLE_MUSIC_USER_TOKEN": &config.Credentials.AppleMusic.UserToken,
		"TUNEDL_PROXY_URL":       &config.Search.ProxyURL,
	}

	for key, target := range overrides {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}
}
