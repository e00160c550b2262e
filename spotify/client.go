package spotify

import (
	"context"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"sonosbot/config"
)

// TrackResult is a normalized track search record.
type TrackResult struct {
	Artist      string
	Title       string
	Album       string
	AlbumImage  string
	ReleaseDate string
	URI         string
}

// AlbumResult is a normalized album search record.
type AlbumResult struct {
	Artist      string
	Name        string
	AlbumImage  string
	ReleaseDate string
	TotalTracks int
	URI         string
}

// PlaylistResult is a normalized playlist search record.
type PlaylistResult struct {
	Name        string
	Owner       string
	Image       string
	TotalTracks int
	URI         string
}

type Client struct {
	spotify *spotifyclient.Client
	market  string
	limit   int
}

func NewClient(cfg config.SpotifyConfig) (*Client, error) {
	ctx := context.Background()
	credentials := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := credentials.Token(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Client{
		spotify: spotifyclient.New(httpClient),
		market:  cfg.Market,
		limit:   cfg.SearchLimit,
	}, nil
}

// SearchTracks returns up to the configured limit of ranked track matches.
// A query with no matches returns an empty slice, not an error.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]TrackResult, error) {
	span := sentry.StartSpan(ctx, "spotify.search_tracks")
	span.Description = "Search Spotify tracks"
	span.SetTag("query", query)
	defer span.Finish()

	results, err := c.spotify.Search(ctx, query, spotifyclient.SearchTypeTrack,
		spotifyclient.Market(c.market), spotifyclient.Limit(c.limit))
	if err != nil {
		log.Errorf("Spotify track search failed for %q: %v", query, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	tracks := []TrackResult{}
	if results.Tracks != nil {
		for _, track := range results.Tracks.Tracks {
			tracks = append(tracks, normalizeTrack(&track))
		}
	}

	log.Debugf("Spotify track search for %q returned %d results", query, len(tracks))
	span.Status = sentry.SpanStatusOK
	return tracks, nil
}

// SearchAlbums returns up to the configured limit of ranked album matches.
func (c *Client) SearchAlbums(ctx context.Context, query string) ([]AlbumResult, error) {
	span := sentry.StartSpan(ctx, "spotify.search_albums")
	span.Description = "Search Spotify albums"
	span.SetTag("query", query)
	defer span.Finish()

	results, err := c.spotify.Search(ctx, query, spotifyclient.SearchTypeAlbum,
		spotifyclient.Market(c.market), spotifyclient.Limit(c.limit))
	if err != nil {
		log.Errorf("Spotify album search failed for %q: %v", query, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	albums := []AlbumResult{}
	if results.Albums != nil {
		for _, album := range results.Albums.Albums {
			albums = append(albums, AlbumResult{
				Artist:      primaryArtist(album.Artists),
				Name:        album.Name,
				AlbumImage:  smallestImage(album.Images),
				ReleaseDate: album.ReleaseDate,
				TotalTracks: int(album.TotalTracks),
				URI:         string(album.URI),
			})
		}
	}

	log.Debugf("Spotify album search for %q returned %d results", query, len(albums))
	span.Status = sentry.SpanStatusOK
	return albums, nil
}

// SearchPlaylists returns up to the configured limit of ranked playlist matches.
func (c *Client) SearchPlaylists(ctx context.Context, query string) ([]PlaylistResult, error) {
	span := sentry.StartSpan(ctx, "spotify.search_playlists")
	span.Description = "Search Spotify playlists"
	span.SetTag("query", query)
	defer span.Finish()

	results, err := c.spotify.Search(ctx, query, spotifyclient.SearchTypePlaylist,
		spotifyclient.Market(c.market), spotifyclient.Limit(c.limit))
	if err != nil {
		log.Errorf("Spotify playlist search failed for %q: %v", query, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	playlists := []PlaylistResult{}
	if results.Playlists != nil {
		for _, playlist := range results.Playlists.Playlists {
			playlists = append(playlists, PlaylistResult{
				Name:        playlist.Name,
				Owner:       playlist.Owner.DisplayName,
				Image:       smallestImage(playlist.Images),
				TotalTracks: int(playlist.Tracks.Total),
				URI:         string(playlist.URI),
			})
		}
	}

	log.Debugf("Spotify playlist search for %q returned %d results", query, len(playlists))
	span.Status = sentry.SpanStatusOK
	return playlists, nil
}

// GetTrack fetches a single track by its Spotify ID.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*TrackResult, error) {
	log.Tracef("Fetching track from Spotify API: %s", trackID)

	span := sentry.StartSpan(ctx, "spotify.get_track")
	span.Description = "Get track from Spotify API"
	span.SetTag("track_id", trackID)
	defer span.Finish()

	track, err := c.spotify.GetTrack(ctx, spotifyclient.ID(trackID))
	if err != nil {
		log.Errorf("Failed to fetch Spotify track %s: %v", trackID, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	span.Status = sentry.SpanStatusOK
	result := normalizeTrack(track)
	return &result, nil
}

func normalizeTrack(track *spotifyclient.FullTrack) TrackResult {
	return TrackResult{
		Artist:      primaryArtist(track.Artists),
		Title:       track.Name,
		Album:       track.Album.Name,
		AlbumImage:  smallestImage(track.Album.Images),
		ReleaseDate: track.Album.ReleaseDate,
		URI:         string(track.URI),
	}
}

func primaryArtist(artists []spotifyclient.SimpleArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}

// smallestImage picks the last (smallest) variant; Spotify orders images
// largest first.
func smallestImage(images []spotifyclient.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[len(images)-1].URL
}

// TrackIDFromURI extracts the bare ID from a spotify:track:<id> URI.
func TrackIDFromURI(uri string) string {
	parts := strings.Split(uri, ":")
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}
