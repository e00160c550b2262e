package config

import (
	"os"
	"strconv"
	"strings"
)

type ConfigStruct struct {
	Slack   SlackConfig
	Sonos   SonosConfig
	Spotify SpotifyConfig
	Options Options
}

type SlackConfig struct {
	BotToken string
	AppToken string
	// Channel names (not IDs) the bot will accept commands from.
	Channels []string
}

type SonosConfig struct {
	// Host or host:port of the zone player. Port defaults to 1400.
	Host string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Market       string
	SearchLimit  int
}

type Options struct {
	VolumeInterval  int
	VolumeMax       int
	PlaylistNameMax int
	Port            string
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Slack: SlackConfig{
			BotToken: os.Getenv("SLACK_BOT_TOKEN"),
			AppToken: os.Getenv("SLACK_APP_TOKEN"),
			Channels: getChannels(),
		},
		Sonos: SonosConfig{
			Host: os.Getenv("SONOS_HOST"),
		},
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			Market:       getSpotifyMarket(),
			SearchLimit:  getSearchLimit(),
		},
		Options: Options{
			VolumeInterval:  getVolumeInterval(),
			VolumeMax:       getVolumeMax(),
			PlaylistNameMax: getPlaylistNameMax(),
			Port:            os.Getenv("PORT"),
		},
	}

	Config = config
}

func getChannels() []string {
	raw := os.Getenv("SLACK_CHANNELS")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	channels := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			channels = append(channels, name)
		}
	}
	if len(channels) == 0 {
		return nil
	}
	return channels
}

func getSpotifyMarket() string {
	market := os.Getenv("SPOTIFY_MARKET")
	if market == "" {
		return "US"
	}
	return strings.ToUpper(market)
}

func getSearchLimit() int {
	limitStr := os.Getenv("SPOTIFY_SEARCH_LIMIT")
	if limitStr == "" {
		return 5
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 5
	}
	if limit > 50 {
		return 50 // Spotify API max per page
	}
	return limit
}

func getVolumeInterval() int {
	intervalStr := os.Getenv("VOLUME_INTERVAL")
	if intervalStr == "" {
		return 5
	}
	interval, err := strconv.Atoi(intervalStr)
	if err != nil || interval <= 0 {
		return 5
	}
	return interval
}

func getVolumeMax() int {
	maxStr := os.Getenv("VOLUME_MAX")
	if maxStr == "" {
		return 70
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max <= 0 {
		return 70
	}
	if max > 100 {
		return 100 // RenderingControl volume ceiling
	}
	return max
}

func getPlaylistNameMax() int {
	maxStr := os.Getenv("PLAYLIST_NAME_MAX")
	if maxStr == "" {
		return 32
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max <= 0 {
		return 32
	}
	return max
}
