package handlers

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"sonosbot/sentryhelper"
	"sonosbot/slack"
)

const addSongError = "An error occurred trying to add the song to the playlist! :("

// HandleAction completes a deferred button press. It re-derives the song
// from the payload alone, enqueues it and rewrites the original search
// message in place. Repeated presses enqueue repeatedly; that is accepted
// behavior, not deduplicated here.
func (m *Manager) HandleAction(ctx context.Context, rawPayload, channel, user, timestamp string) {
	ctx, transaction := sentryhelper.StartCommandTransaction(ctx, "action."+AddSongActionID, channel)
	defer transaction.Finish()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic handling button action: %v", r)
			sentryhelper.CaptureMessage(ctx, fmt.Sprintf("panic in button action: %v", r))
			m.say(ctx, channel, addSongError)
		}
	}()

	payload, err := DecodeActionPayload(rawPayload)
	if err != nil {
		// No valid song context to update the original message with, so a
		// fresh warning is sent instead.
		log.Errorf("An error occurred adding a song to the playlist: %v", err)
		sentryhelper.CaptureException(ctx, err)
		m.say(ctx, channel, addSongError)
		return
	}

	switch payload.Type {
	case ActionSong:
		m.addSong(ctx, payload.URI, channel, user, timestamp)
	}
}

func (m *Manager) addSong(ctx context.Context, uri, channel, user, timestamp string) {
	parts := strings.Split(uri, ":")
	if len(parts) != 3 || parts[0] != "spotify" || parts[1] != "track" {
		log.Errorf("An error occurred adding a song to the playlist: invalid URI: %s", uri)
		sentryhelper.CaptureMessage(ctx, "invalid song URI in button payload: "+uri)
		m.say(ctx, channel, addSongError)
		return
	}
	trackID := parts[2]

	result, err := m.player.AddURIToQueue(ctx, uri)
	if err != nil {
		m.commandError(ctx, channel, "add the song to the playlist", err)
		return
	}

	// Detail is re-fetched by id rather than reusing the search snapshot.
	track, err := m.catalog.GetTrack(ctx, trackID)
	if err != nil {
		m.commandError(ctx, channel, "add the song to the playlist", err)
		return
	}

	message := fmt.Sprintf("Sure thing, <@%s>! *%s* - *%s (%s)* has been added to the queue!\n\nPosition *%d* out of *%d* in playlist",
		user, track.Artist, track.Title, track.Album,
		result.FirstTrackNumberEnqueued, result.NewQueueLength)
	blocks := slack.MessageWithImage(message, track.AlbumImage, "Album Art")
	if err := m.messenger.UpdateBlocks(ctx, channel, timestamp, blocks); err != nil {
		sentryhelper.CaptureException(ctx, err)
	}
}
