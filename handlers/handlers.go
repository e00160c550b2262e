// Package handlers interprets chat commands and orchestrates the Sonos
// player, the Spotify catalog and the Slack reply channel.
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	slackapi "github.com/slack-go/slack"

	"sonosbot/config"
	"sonosbot/helpers"
	"sonosbot/sentryhelper"
	"sonosbot/slack"
	"sonosbot/sonos"
	"sonosbot/spotify"
)

// Trigger is the leading character marking a message as a command.
const Trigger = '!'

// AddSongActionID labels the search-result buttons in Block Kit payloads.
const AddSongActionID = "add_song"

// Player is the media device surface the dispatcher drives.
type Player interface {
	State(ctx context.Context) (sonos.TransportState, error)
	Play(ctx context.Context) error
	Stop(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	CurrentTrack(ctx context.Context) (*sonos.Track, error)
	GetQueue(ctx context.Context) ([]sonos.QueueItem, error)
	GetPlaylists(ctx context.Context) ([]sonos.Playlist, error)
	CreatePlaylist(ctx context.Context, name string) error
	SetTransportURI(ctx context.Context, uri string) error
	AddURIToQueue(ctx context.Context, uri string) (*sonos.EnqueueResult, error)
	RemoveFromQueue(ctx context.Context, index int) error
	GetPlayMode(ctx context.Context) (string, error)
	SetPlayMode(ctx context.Context, mode string) error
	GetVolume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, volume int) error
}

// Catalog is the music search surface.
type Catalog interface {
	SearchTracks(ctx context.Context, query string) ([]spotify.TrackResult, error)
	SearchAlbums(ctx context.Context, query string) ([]spotify.AlbumResult, error)
	SearchPlaylists(ctx context.Context, query string) ([]spotify.PlaylistResult, error)
	GetTrack(ctx context.Context, trackID string) (*spotify.TrackResult, error)
}

// Messenger is the chat reply surface.
type Messenger interface {
	SendMessage(ctx context.Context, channel, text string) error
	SendBlocks(ctx context.Context, channel string, blocks []slackapi.Block) error
	UpdateBlocks(ctx context.Context, channel, timestamp string, blocks []slackapi.Block) error
	ChannelName(ctx context.Context, channel string) (string, error)
}

type handlerFunc func(ctx context.Context, input, channel string)

// Manager dispatches chat commands. All collaborators are injected at
// construction; handlers share no mutable state.
type Manager struct {
	player    Player
	catalog   Catalog
	messenger Messenger
	options   config.Options
	channels  map[string]bool
	commands  map[string]handlerFunc
}

func NewManager(player Player, catalog Catalog, messenger Messenger, cfg *config.ConfigStruct) *Manager {
	manager := &Manager{
		player:    player,
		catalog:   catalog,
		messenger: messenger,
		options:   cfg.Options,
		channels:  make(map[string]bool, len(cfg.Slack.Channels)),
	}
	for _, channel := range cfg.Slack.Channels {
		manager.channels[channel] = true
	}

	// Synonyms resolve to one handler at construction time.
	manager.commands = map[string]handlerFunc{}
	register := func(handler handlerFunc, names ...string) {
		for _, name := range names {
			manager.commands[name] = handler
		}
	}
	register(manager.handlePlay, "play", "resume")
	register(manager.handleStop, "stop")
	register(manager.handlePause, "pause")
	register(manager.handleNext, "next")
	register(manager.handlePrevious, "previous", "prev", "back")
	register(manager.handleCurrent, "current")
	register(manager.handleQueueList, "playlist", "list", "songs")
	register(manager.handlePlaylists, "playlists")
	register(manager.handleSetPlaylist, "setplaylist")
	register(manager.handleCreatePlaylist, "createplaylist")
	register(manager.handlePlayMode, "playmode")
	register(manager.handleSearchTracks, "search")
	register(manager.handleSearchAlbums, "searchalbum")
	register(manager.handleSearchPlaylists, "searchplaylist")
	register(manager.handleAdd, "add")
	register(manager.handleRemove, "remove", "rem", "del")
	register(manager.handleVolume, "volume", "vol")
	register(manager.handleHelp, "help")

	return manager
}

// HandleMessage filters, parses and dispatches one inbound chat message.
// Messages from unlisted channels and non-command text are dropped silently.
func (m *Manager) HandleMessage(ctx context.Context, text, channel string) {
	channelName, err := m.messenger.ChannelName(ctx, channel)
	if err != nil {
		log.Errorf("An error occurred getting channel info: %v", err)
		return
	}
	if !m.channels[channelName] {
		return
	}
	if text == "" || text[0] != Trigger {
		return
	}

	keyword, input, _ := strings.Cut(text[1:], " ")
	keyword = strings.ToLower(keyword)

	ctx, transaction := sentryhelper.StartCommandTransaction(ctx, keyword, channelName)
	defer transaction.Finish()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic handling command %s: %v", keyword, r)
			sentryhelper.CaptureMessage(ctx, fmt.Sprintf("panic in command %s: %v", keyword, r))
			m.say(ctx, channel, "An error occurred while processing your command")
		}
	}()

	handler, ok := m.commands[keyword]
	if !ok {
		m.say(ctx, channel, fmt.Sprintf("I'm sorry, but %s is not a command", keyword))
		return
	}
	handler(ctx, input, channel)
}

// say sends a plain reply; delivery failures are already logged by the
// messenger and end the command either way.
func (m *Manager) say(ctx context.Context, channel, text string) {
	_ = m.messenger.SendMessage(ctx, channel, text)
}

// commandError reports one generic apology for a failed external call.
// The cause is logged and captured, never shown to the user.
func (m *Manager) commandError(ctx context.Context, channel, action string, err error) {
	log.Errorf("An error occurred %s: %v", action, err)
	sentryhelper.CaptureException(ctx, err)
	m.say(ctx, channel, fmt.Sprintf("An error occurred trying to %s! :(", action))
}

func (m *Manager) handlePlay(ctx context.Context, input, channel string) {
	status, err := m.player.State(ctx)
	if err != nil {
		m.commandError(ctx, channel, "play the song", err)
		return
	}
	if status == sonos.StatePlaying {
		m.say(ctx, channel, "A song is already playing!")
		return
	}

	if err := m.player.Play(ctx); err != nil {
		log.Warnf("Device refused play: %v", err)
		m.say(ctx, channel, "Sorry! Unable to play the song! :(")
		return
	}

	track, err := m.player.CurrentTrack(ctx)
	if err != nil {
		m.commandError(ctx, channel, "play the song", err)
		return
	}
	if track.Artist == "" || track.Title == "" {
		m.say(ctx, channel, "There is no currently selected song to play!")
		return
	}

	state := "Resumed"
	if status == sonos.StateStopped {
		state = "Started"
	}
	m.say(ctx, channel, fmt.Sprintf("%s playing: *%s* - *%s* (%s)",
		state, track.Artist, track.Title, helpers.FormatSeconds(track.DurationSeconds)))
}

func (m *Manager) handleStop(ctx context.Context, input, channel string) {
	status, err := m.player.State(ctx)
	if err != nil {
		m.commandError(ctx, channel, "stop the song", err)
		return
	}
	if status != sonos.StatePlaying {
		m.say(ctx, channel, "A song must be playing to stop!")
		return
	}

	if err := m.player.Stop(ctx); err != nil {
		log.Warnf("Device refused stop: %v", err)
		m.say(ctx, channel, "Sorry! Unable to stop the song! :(")
		return
	}

	track, err := m.player.CurrentTrack(ctx)
	if err != nil {
		m.commandError(ctx, channel, "stop the song", err)
		return
	}
	if track.Artist == "" || track.Title == "" {
		m.say(ctx, channel, "There is no currently selected song to stop playing!")
		return
	}
	m.say(ctx, channel, fmt.Sprintf("Stopped playing: *%s* - *%s*", track.Artist, track.Title))
}

func (m *Manager) handlePause(ctx context.Context, input, channel string) {
	status, err := m.player.State(ctx)
	if err != nil {
		m.commandError(ctx, channel, "pause the song", err)
		return
	}
	if status != sonos.StatePlaying {
		m.say(ctx, channel, "A song must be playing to pause!")
		return
	}

	if err := m.player.Pause(ctx); err != nil {
		log.Warnf("Device refused pause: %v", err)
		m.say(ctx, channel, "Sorry! Unable to pause the song! :(")
		return
	}

	track, err := m.player.CurrentTrack(ctx)
	if err != nil {
		m.commandError(ctx, channel, "pause the song", err)
		return
	}
	if track.Artist == "" || track.Title == "" {
		m.say(ctx, channel, "There is no currently selected song to pause playing!")
		return
	}
	m.say(ctx, channel, fmt.Sprintf("Paused playing: *%s* - *%s* (%s / %s)",
		track.Artist, track.Title,
		helpers.FormatSeconds(track.PositionSeconds), helpers.FormatSeconds(track.DurationSeconds)))
}

func (m *Manager) handleNext(ctx context.Context, input, channel string) {
	if err := m.player.Next(ctx); err != nil {
		log.Warnf("Device refused next: %v", err)
		m.say(ctx, channel, "Sorry! Unable to play the next song! :(")
		return
	}

	track, err := m.player.CurrentTrack(ctx)
	if err != nil {
		m.commandError(ctx, channel, "play the next song", err)
		return
	}
	if track.Artist == "" || track.Title == "" {
		m.say(ctx, channel, "There is no song to play next!")
		return
	}
	m.say(ctx, channel, fmt.Sprintf("Now playing next song in playlist: *%s* - *%s* (%s)",
		track.Artist, track.Title, helpers.FormatSeconds(track.DurationSeconds)))
}

func (m *Manager) handlePrevious(ctx context.Context, input, channel string) {
	if err := m.player.Previous(ctx); err != nil {
		log.Warnf("Device refused previous: %v", err)
		m.say(ctx, channel, "Sorry! Unable to play the previous song! :(")
		return
	}

	track, err := m.player.CurrentTrack(ctx)
	if err != nil {
		m.commandError(ctx, channel, "play the previous song", err)
		return
	}
	if track.Artist == "" || track.Title == "" {
		m.say(ctx, channel, "There is no previous song to play!")
		return
	}
	m.say(ctx, channel, fmt.Sprintf("Now playing previous song in playlist: *%s* - *%s* (%s)",
		track.Artist, track.Title, helpers.FormatSeconds(track.DurationSeconds)))
}

func (m *Manager) handleCurrent(ctx context.Context, input, channel string) {
	track, err := m.player.CurrentTrack(ctx)
	if err != nil {
		m.commandError(ctx, channel, "get the current song", err)
		return
	}
	status, err := m.player.State(ctx)
	if err != nil {
		m.commandError(ctx, channel, "get the current song", err)
		return
	}

	if track.Artist == "" || track.Title == "" {
		m.say(ctx, channel, "There is no currently selected song!")
		return
	}

	message := fmt.Sprintf(":notes: Current song: *%s* - *%s* (%s / %s) :notes:\nCurrent status: *%s*",
		track.Artist, track.Title,
		helpers.FormatSeconds(track.PositionSeconds), helpers.FormatSeconds(track.DurationSeconds),
		titleCase(string(status)))
	m.say(ctx, channel, message)
}

func (m *Manager) handleQueueList(ctx context.Context, input, channel string) {
	queue, err := m.player.GetQueue(ctx)
	if err != nil {
		m.commandError(ctx, channel, "get the playlist", err)
		return
	}
	track, err := m.player.CurrentTrack(ctx)
	if err != nil {
		m.commandError(ctx, channel, "get the playlist", err)
		return
	}

	// Positions shown to the user are 1-based.
	lines := make([]string, 0, len(queue))
	for i, song := range queue {
		lines = append(lines, fmt.Sprintf("%d. %s - %s (%s)", i+1, song.Artist, song.Title, song.Album))
	}

	message := fmt.Sprintf(":notes: Currently playing #%d: *%s* - *%s* (%s / %s) :notes:\n```%s```",
		track.QueuePosition, track.Artist, track.Title,
		helpers.FormatSeconds(track.PositionSeconds), helpers.FormatSeconds(track.DurationSeconds),
		strings.Join(lines, "\n"))
	m.say(ctx, channel, message)
}

func (m *Manager) handlePlaylists(ctx context.Context, input, channel string) {
	playlists, err := m.player.GetPlaylists(ctx)
	if err != nil {
		m.commandError(ctx, channel, "get the playlists", err)
		return
	}
	if len(playlists) == 0 {
		m.say(ctx, channel, "There are no saved playlists!")
		return
	}

	lines := make([]string, 0, len(playlists))
	for i, playlist := range playlists {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, playlist.Title))
	}
	message := fmt.Sprintf(":notebook: There are *%d* playlists saved:\n```%s```",
		len(playlists), strings.Join(lines, "\n"))
	m.say(ctx, channel, message)
}

func (m *Manager) handleSetPlaylist(ctx context.Context, input, channel string) {
	token := firstField(input)
	if token == "" {
		m.say(ctx, channel, "You must specify a playlist position to load!\n!setplaylist <position>")
		return
	}
	position, ok := parseBareNumber(token)
	if !ok {
		m.say(ctx, channel, fmt.Sprintf("*%s* is not a number!", token))
		return
	}

	playlists, err := m.player.GetPlaylists(ctx)
	if err != nil {
		m.commandError(ctx, channel, "load the playlist", err)
		return
	}

	index := position - 1
	if index < 0 || index >= len(playlists) {
		m.say(ctx, channel, fmt.Sprintf("There is no playlist at position *%d*", position))
		return
	}
	playlist := playlists[index]

	if err := m.player.SetTransportURI(ctx, playlist.URI); err != nil {
		m.commandError(ctx, channel, "load the playlist", err)
		return
	}
	if err := m.player.Play(ctx); err != nil {
		m.commandError(ctx, channel, "load the playlist", err)
		return
	}
	m.say(ctx, channel, fmt.Sprintf(":notes: Playlist *%s* now playing! :notes:", playlist.Title))
}

func (m *Manager) handleCreatePlaylist(ctx context.Context, input, channel string) {
	if input == "" {
		m.say(ctx, channel, "You must specify a playlist name!\n!createplaylist <playlist name>")
		return
	}
	if len(input) > m.options.PlaylistNameMax {
		m.say(ctx, channel, fmt.Sprintf("Playlist names are limited to *%d* characters!", m.options.PlaylistNameMax))
		return
	}

	if err := m.player.CreatePlaylist(ctx, input); err != nil {
		m.commandError(ctx, channel, "create the playlist", err)
		return
	}
	m.say(ctx, channel, fmt.Sprintf("Playlist *%s* successfully created!", input))
}

func (m *Manager) handlePlayMode(ctx context.Context, input, channel string) {
	current, err := m.player.GetPlayMode(ctx)
	if err != nil {
		m.commandError(ctx, channel, "get/change the playmode", err)
		return
	}

	if input == "" {
		m.say(ctx, channel, fmt.Sprintf("Current playmode is set to: *%s*", humanPlayMode(current)))
		return
	}

	mode := NormalizePlayMode(input)
	if mode == current {
		m.say(ctx, channel, "The playmode is already set to that!")
		return
	}
	if !IsValidPlayMode(mode) {
		m.say(ctx, channel, fmt.Sprintf("That playmode is not recognised, the available playmodes are: %s", playModeList()))
		return
	}

	if err := m.player.SetPlayMode(ctx, mode); err != nil {
		m.commandError(ctx, channel, "get/change the playmode", err)
		return
	}
	m.say(ctx, channel, fmt.Sprintf("Playmode is now set to: %s", input))
}

func (m *Manager) handleVolume(ctx context.Context, input, channel string) {
	current, err := m.player.GetVolume(ctx)
	if err != nil {
		m.commandError(ctx, channel, "get/change the volume", err)
		return
	}

	token := firstField(input)
	if token == "" {
		m.say(ctx, channel, fmt.Sprintf("Current volume is set to: *%d%%*", current))
		return
	}

	var volume int
	switch strings.ToLower(token) {
	case "up":
		volume = clamp(current+m.options.VolumeInterval, 0, m.options.VolumeMax)
	case "down":
		volume = clamp(current-m.options.VolumeInterval, 0, m.options.VolumeMax)
	default:
		number, ok := parseBareNumber(token)
		if !ok || number > m.options.VolumeMax {
			m.say(ctx, channel, fmt.Sprintf("You can only turn the volume up/down or set it to a value between *0* and *%d*!", m.options.VolumeMax))
			return
		}
		volume = number
	}

	if err := m.player.SetVolume(ctx, volume); err != nil {
		m.commandError(ctx, channel, "get/change the volume", err)
		return
	}
	m.say(ctx, channel, fmt.Sprintf("Volume is now set to: *%d%%*", volume))
}

func (m *Manager) handleRemove(ctx context.Context, input, channel string) {
	token := firstField(input)
	if token == "" {
		m.say(ctx, channel, "You must specify a playlist position to remove!\n!remove <position>")
		return
	}
	position, ok := parseBareNumber(token)
	if !ok {
		m.say(ctx, channel, fmt.Sprintf("*%s* is not a number!", token))
		return
	}

	queue, err := m.player.GetQueue(ctx)
	if err != nil {
		m.commandError(ctx, channel, "remove the song from the playlist", err)
		return
	}

	// User positions are 1-based; the queue is stored 0-based.
	index := position - 1
	if index < 0 || index >= len(queue) {
		m.say(ctx, channel, fmt.Sprintf("There is no song at position *%d*", position))
		return
	}
	song := queue[index]

	if err := m.player.RemoveFromQueue(ctx, index); err != nil {
		m.commandError(ctx, channel, "remove the song from the playlist", err)
		return
	}
	m.say(ctx, channel, fmt.Sprintf("*%s* - *%s (%s)* has been removed from the playlist",
		song.Artist, song.Title, song.Album))
}

func (m *Manager) handleSearchTracks(ctx context.Context, input, channel string) {
	if input == "" {
		m.say(ctx, channel, "You must specify a song to search for!\n!search <song name>")
		return
	}

	tracks, err := m.catalog.SearchTracks(ctx, input)
	if err != nil {
		m.commandError(ctx, channel, "search for the song", err)
		return
	}
	if len(tracks) == 0 {
		m.say(ctx, channel, "No songs found! :(")
		return
	}

	options := make([]slack.ButtonOption, 0, len(tracks))
	for _, track := range tracks {
		text := fmt.Sprintf(":musical_note: *%s* - *%s*\n:notebook: %s\n:clock3: %s",
			track.Artist, track.Title, track.Album, track.ReleaseDate)
		options = append(options, slack.ButtonOption{
			Text:       text,
			ButtonText: "Add to Playlist",
			ActionID:   AddSongActionID,
			Value:      EncodeActionPayload(ActionPayload{Type: ActionSong, URI: track.URI}),
		})
	}
	if err := m.messenger.SendBlocks(ctx, channel, slack.MessageWithButtons(options)); err != nil {
		sentryhelper.CaptureException(ctx, err)
	}
}

func (m *Manager) handleSearchAlbums(ctx context.Context, input, channel string) {
	if input == "" {
		m.say(ctx, channel, "You must specify an album to search for!\n!searchalbum <album name>")
		return
	}

	albums, err := m.catalog.SearchAlbums(ctx, input)
	if err != nil {
		m.commandError(ctx, channel, "search for the album", err)
		return
	}
	if len(albums) == 0 {
		m.say(ctx, channel, "No albums found! :(")
		return
	}

	lines := make([]string, 0, len(albums))
	for _, album := range albums {
		label := fmt.Sprintf("%s - %s (%d songs)", album.Artist, album.Name, album.TotalTracks)
		lines = append(lines, fmt.Sprintf("%s Released: %s", helpers.PadRight(label, 80), album.ReleaseDate))
	}
	m.say(ctx, channel, fmt.Sprintf("```%s```", strings.Join(lines, "\n")))
}

func (m *Manager) handleSearchPlaylists(ctx context.Context, input, channel string) {
	if input == "" {
		m.say(ctx, channel, "You must specify a playlist to search for!\n!searchplaylist <playlist name>")
		return
	}

	playlists, err := m.catalog.SearchPlaylists(ctx, input)
	if err != nil {
		m.commandError(ctx, channel, "search for the playlist", err)
		return
	}
	if len(playlists) == 0 {
		m.say(ctx, channel, "No playlists found! :(")
		return
	}

	lines := make([]string, 0, len(playlists))
	for _, playlist := range playlists {
		lines = append(lines, fmt.Sprintf("%s (%d songs)", playlist.Name, playlist.TotalTracks))
	}
	m.say(ctx, channel, fmt.Sprintf("```%s```", strings.Join(lines, "\n")))
}

func (m *Manager) handleAdd(ctx context.Context, input, channel string) {
	if input == "" {
		m.say(ctx, channel, "You must specify a song to search for!\n!add <song name>")
		return
	}

	tracks, err := m.catalog.SearchTracks(ctx, input)
	if err != nil {
		m.commandError(ctx, channel, "add the song to the playlist", err)
		return
	}
	if len(tracks) == 0 {
		m.say(ctx, channel, "No songs found! :(")
		return
	}
	track := tracks[0]

	// The device echoes the assigned position and queue length; they are
	// not re-fetched.
	result, err := m.player.AddURIToQueue(ctx, track.URI)
	if err != nil {
		m.commandError(ctx, channel, "add the song to the playlist", err)
		return
	}

	message := fmt.Sprintf("Sure thing! *%s* - *%s (%s)* has been added to the queue!\n\nPosition *%d* out of *%d* in playlist",
		track.Artist, track.Title, track.Album,
		result.FirstTrackNumberEnqueued, result.NewQueueLength)
	if err := m.messenger.SendBlocks(ctx, channel, slack.MessageWithImage(message, track.AlbumImage, "Album Art")); err != nil {
		sentryhelper.CaptureException(ctx, err)
	}
}

func (m *Manager) handleHelp(ctx context.Context, input, channel string) {
	message := strings.Join([]string{
		"Current commands!",
		" ===  ===  ===  ===  ===  ===  ===  ===  ===  ===  === ",
		"`!play` : Play/Resume song",
		"`!stop` : Stop song",
		"`!pause` : Pause song",
		"`!next` : Play the next song",
		"`!previous` : Play the previous song",
		"`!current` : Display the current song",
		"`!playlist` : Display the entire playlist",
		"`!playlists` : Display a list of all saved playlists",
		"`!setplaylist <position>` : Load a saved playlist and start playing",
		"`!playmode` : Display the current playmode",
		"`!playmode <playmode>` : Change the playmode",
		"`!search <text>` : Search Spotify for a song",
		"`!searchalbum <text>` : Search Spotify for an album",
		"`!searchplaylist <text>` : Search Spotify for a playlist",
		"`!add <text>` : Add the first returned song result from Spotify to the playlist",
		"`!remove <playlist position>` : Remove a song at the position from the playlist",
		"`!volume` : Display current volume level",
		"`!volume <up/down/number>` : Change volume level up/down",
		" ===  ===  ===  ===  ===  ===  ===  ===  ===  ===  === ",
	}, "\n")
	m.say(ctx, channel, message)
}

func firstField(input string) string {
	token, _, _ := strings.Cut(strings.TrimSpace(input), " ")
	return token
}

// parseBareNumber accepts only unsigned decimal digit strings: no sign, no
// decimal point, no surrounding noise.
func parseBareNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func clamp(n, low, high int) int {
	if n < low {
		return low
	}
	if n > high {
		return high
	}
	return n
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
