package slack

import (
	slackapi "github.com/slack-go/slack"
)

// ButtonOption is one search result rendered as a section with an
// actionable button. Value carries the opaque action payload.
type ButtonOption struct {
	Text       string
	ButtonText string
	ActionID   string
	Value      string
}

// MessageWithImage builds a single section block with an image accessory.
func MessageWithImage(text, imageURL, altText string) []slackapi.Block {
	section := slackapi.NewSectionBlock(
		slackapi.NewTextBlockObject(slackapi.MarkdownType, text, false, false),
		nil,
		slackapi.NewAccessory(slackapi.NewImageBlockElement(imageURL, altText)),
	)
	return []slackapi.Block{section}
}

// MessageWithButtons builds one section-plus-button block per option,
// separated by dividers; the trailing divider is stripped.
func MessageWithButtons(options []ButtonOption) []slackapi.Block {
	blocks := make([]slackapi.Block, 0, len(options)*2)
	for _, option := range options {
		button := slackapi.NewButtonBlockElement(option.ActionID, option.Value,
			slackapi.NewTextBlockObject(slackapi.PlainTextType, option.ButtonText, true, false))
		section := slackapi.NewSectionBlock(
			slackapi.NewTextBlockObject(slackapi.MarkdownType, option.Text, false, false),
			nil,
			slackapi.NewAccessory(button),
		)
		blocks = append(blocks, section, slackapi.NewDividerBlock())
	}
	if len(blocks) > 0 {
		blocks = blocks[:len(blocks)-1]
	}
	return blocks
}
