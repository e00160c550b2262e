// Package sonos drives a single Sonos zone player over its UPnP SOAP
// services (AVTransport, RenderingControl, ContentDirectory).
package sonos

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"sonosbot/config"
)

// TransportState is the player's normalized high-level status.
type TransportState string

const (
	StatePlaying       TransportState = "playing"
	StateStopped       TransportState = "stopped"
	StatePaused        TransportState = "paused"
	StateTransitioning TransportState = "transitioning"
)

// Track is a fresh snapshot of the current track. QueuePosition is the
// device's 1-based queue slot.
type Track struct {
	Artist          string
	Title           string
	Album           string
	PositionSeconds int
	DurationSeconds int
	QueuePosition   int
}

// QueueItem is one entry of the device queue, indexed 0-based by callers.
type QueueItem struct {
	Title  string
	Artist string
	Album  string
}

// Playlist is a saved queue on the device.
type Playlist struct {
	Title string
	URI   string
}

// EnqueueResult echoes what the device reports for an enqueue call.
type EnqueueResult struct {
	FirstTrackNumberEnqueued int
	NewQueueLength           int
}

type Client struct {
	soap          *soapClient
	spotifyRegion string
}

func NewClient(cfg config.SonosConfig, spotifyMarket string) *Client {
	host := cfg.Host
	if host != "" && !strings.Contains(host, ":") {
		host += ":1400"
	}
	region := spotifyRegionUS
	if spotifyMarket != "US" {
		region = spotifyRegionEU
	}
	return &Client{
		soap:          &soapClient{host: host, http: http.DefaultClient},
		spotifyRegion: region,
	}
}

// State reports the normalized transport state.
func (c *Client) State(ctx context.Context) (TransportState, error) {
	outputs, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "GetTransportInfo",
		[]soapArg{{"InstanceID", "0"}})
	if err != nil {
		return "", err
	}
	return normalizeTransportState(outputs["CurrentTransportState"]), nil
}

func normalizeTransportState(raw string) TransportState {
	switch raw {
	case "PLAYING":
		return StatePlaying
	case "PAUSED_PLAYBACK":
		return StatePaused
	case "TRANSITIONING":
		return StateTransitioning
	default:
		return StateStopped
	}
}

func (c *Client) Play(ctx context.Context) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "Play",
		[]soapArg{{"InstanceID", "0"}, {"Speed", "1"}})
	return err
}

func (c *Client) Stop(ctx context.Context) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "Stop",
		[]soapArg{{"InstanceID", "0"}})
	return err
}

func (c *Client) Pause(ctx context.Context) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "Pause",
		[]soapArg{{"InstanceID", "0"}})
	return err
}

func (c *Client) Next(ctx context.Context) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "Next",
		[]soapArg{{"InstanceID", "0"}})
	return err
}

func (c *Client) Previous(ctx context.Context) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "Previous",
		[]soapArg{{"InstanceID", "0"}})
	return err
}

// CurrentTrack fetches a fresh position snapshot; the device is the source
// of truth so nothing here is cached.
func (c *Client) CurrentTrack(ctx context.Context) (*Track, error) {
	outputs, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "GetPositionInfo",
		[]soapArg{{"InstanceID", "0"}})
	if err != nil {
		return nil, err
	}

	track := &Track{
		PositionSeconds: parseClock(outputs["RelTime"]),
		DurationSeconds: parseClock(outputs["TrackDuration"]),
	}
	if position, err := strconv.Atoi(outputs["Track"]); err == nil {
		track.QueuePosition = position
	}

	didl, err := parseDIDL(outputs["TrackMetaData"])
	if err != nil {
		log.Warnf("Unparseable track metadata from device: %v", err)
		return track, nil
	}
	if len(didl.Items) > 0 {
		track.Title = didl.Items[0].Title
		track.Artist = didl.Items[0].Creator
		track.Album = didl.Items[0].Album
	}
	return track, nil
}

// GetQueue returns the device queue in storage order (0-based).
func (c *Client) GetQueue(ctx context.Context) ([]QueueItem, error) {
	didl, _, err := c.browse(ctx, "Q:0")
	if err != nil {
		return nil, err
	}
	queue := make([]QueueItem, 0, len(didl.Items))
	for _, item := range didl.Items {
		queue = append(queue, QueueItem{
			Title:  item.Title,
			Artist: item.Creator,
			Album:  item.Album,
		})
	}
	return queue, nil
}

// GetPlaylists returns the device's saved queues.
func (c *Client) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	didl, _, err := c.browse(ctx, "SQ:")
	if err != nil {
		return nil, err
	}
	playlists := make([]Playlist, 0, len(didl.Containers))
	for _, container := range didl.Containers {
		playlists = append(playlists, Playlist{
			Title: container.Title,
			URI:   container.Res,
		})
	}
	return playlists, nil
}

func (c *Client) browse(ctx context.Context, objectID string) (*didlLite, int, error) {
	outputs, err := c.soap.call(ctx, contentDirectoryEndpoint, contentDirectoryService, "Browse",
		[]soapArg{
			{"ObjectID", objectID},
			{"BrowseFlag", "BrowseDirectChildren"},
			{"Filter", "*"},
			{"StartingIndex", "0"},
			{"RequestedCount", "1000"},
			{"SortCriteria", ""},
		})
	if err != nil {
		return nil, 0, err
	}
	didl, err := parseDIDL(outputs["Result"])
	if err != nil {
		return nil, 0, err
	}
	returned, _ := strconv.Atoi(outputs["NumberReturned"])
	return didl, returned, nil
}

// AddURIToQueue enqueues a spotify:track URI at the end of the queue and
// echoes the device-assigned position and new length.
func (c *Client) AddURIToQueue(ctx context.Context, uri string) (*EnqueueResult, error) {
	outputs, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "AddURIToQueue",
		[]soapArg{
			{"InstanceID", "0"},
			{"EnqueuedURI", spotifyQueueURI(uri)},
			{"EnqueuedURIMetaData", spotifyQueueMetadata(uri, c.spotifyRegion)},
			{"DesiredFirstTrackNumberEnqueued", "0"},
			{"EnqueueAsNext", "0"},
		})
	if err != nil {
		return nil, err
	}

	result := &EnqueueResult{}
	if result.FirstTrackNumberEnqueued, err = strconv.Atoi(outputs["FirstTrackNumberEnqueued"]); err != nil {
		return nil, fmt.Errorf("sonos AddURIToQueue: bad FirstTrackNumberEnqueued %q", outputs["FirstTrackNumberEnqueued"])
	}
	if result.NewQueueLength, err = strconv.Atoi(outputs["NewQueueLength"]); err != nil {
		return nil, fmt.Errorf("sonos AddURIToQueue: bad NewQueueLength %q", outputs["NewQueueLength"])
	}
	return result, nil
}

// RemoveFromQueue deletes the entry at the 0-based storage index. The
// device itself addresses queue slots 1-based.
func (c *Client) RemoveFromQueue(ctx context.Context, index int) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "RemoveTrackFromQueue",
		[]soapArg{
			{"InstanceID", "0"},
			{"ObjectID", fmt.Sprintf("Q:0/%d", index+1)},
			{"UpdateID", "0"},
		})
	return err
}

// CreatePlaylist saves a new empty queue under the given name.
func (c *Client) CreatePlaylist(ctx context.Context, name string) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "CreateSavedQueue",
		[]soapArg{
			{"InstanceID", "0"},
			{"Title", name},
			{"EnqueuedURI", ""},
			{"EnqueuedURIMetaData", ""},
		})
	return err
}

// SetTransportURI points playback at the given URI (e.g. a saved queue).
func (c *Client) SetTransportURI(ctx context.Context, uri string) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "SetAVTransportURI",
		[]soapArg{
			{"InstanceID", "0"},
			{"CurrentURI", uri},
			{"CurrentURIMetaData", ""},
		})
	return err
}

func (c *Client) GetPlayMode(ctx context.Context) (string, error) {
	outputs, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "GetTransportSettings",
		[]soapArg{{"InstanceID", "0"}})
	if err != nil {
		return "", err
	}
	return outputs["PlayMode"], nil
}

func (c *Client) SetPlayMode(ctx context.Context, mode string) error {
	_, err := c.soap.call(ctx, avTransportEndpoint, avTransportService, "SetPlayMode",
		[]soapArg{{"InstanceID", "0"}, {"NewPlayMode", mode}})
	return err
}

func (c *Client) GetVolume(ctx context.Context) (int, error) {
	outputs, err := c.soap.call(ctx, renderingControlEndpoint, renderingControlService, "GetVolume",
		[]soapArg{{"InstanceID", "0"}, {"Channel", "Master"}})
	if err != nil {
		return 0, err
	}
	volume, err := strconv.Atoi(outputs["CurrentVolume"])
	if err != nil {
		return 0, fmt.Errorf("sonos GetVolume: bad CurrentVolume %q", outputs["CurrentVolume"])
	}
	return volume, nil
}

func (c *Client) SetVolume(ctx context.Context, volume int) error {
	_, err := c.soap.call(ctx, renderingControlEndpoint, renderingControlService, "SetVolume",
		[]soapArg{
			{"InstanceID", "0"},
			{"Channel", "Master"},
			{"DesiredVolume", strconv.Itoa(volume)},
		})
	return err
}
