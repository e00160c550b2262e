// Package slack wraps the Slack Web API surface the bot needs: plain and
// rich (Block Kit) messages, in-place updates, and channel name lookup.
package slack

import (
	"context"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	slackapi "github.com/slack-go/slack"
)

type Client struct {
	api *slackapi.Client
}

func NewClient(api *slackapi.Client) *Client {
	return &Client{api: api}
}

// SendMessage posts a plain mrkdwn message to a channel.
func (c *Client) SendMessage(ctx context.Context, channel, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channel, slackapi.MsgOptionText(text, false))
	if err != nil {
		log.Errorf("Failed to send message to %s: %v", channel, err)
		sentry.CaptureException(err)
	}
	return err
}

// SendBlocks posts a rich Block Kit message to a channel.
func (c *Client) SendBlocks(ctx context.Context, channel string, blocks []slackapi.Block) error {
	_, _, err := c.api.PostMessageContext(ctx, channel, slackapi.MsgOptionBlocks(blocks...))
	if err != nil {
		log.Errorf("Failed to send rich message to %s: %v", channel, err)
		sentry.CaptureException(err)
	}
	return err
}

// UpdateBlocks rewrites an existing message in place, addressed by its
// channel and timestamp.
func (c *Client) UpdateBlocks(ctx context.Context, channel, timestamp string, blocks []slackapi.Block) error {
	_, _, _, err := c.api.UpdateMessageContext(ctx, channel, timestamp, slackapi.MsgOptionBlocks(blocks...))
	if err != nil {
		log.Errorf("Failed to update message %s in %s: %v", timestamp, channel, err)
		sentry.CaptureException(err)
	}
	return err
}

// ChannelName resolves a channel ID to its display name.
func (c *Client) ChannelName(ctx context.Context, channel string) (string, error) {
	info, err := c.api.GetConversationInfoContext(ctx, &slackapi.GetConversationInfoInput{
		ChannelID: channel,
	})
	if err != nil {
		log.Errorf("Failed to get channel info for %s: %v", channel, err)
		return "", err
	}
	return info.Name, nil
}
