package slack

import (
	"testing"

	slackapi "github.com/slack-go/slack"
)

func TestMessageWithButtons(t *testing.T) {
	options := []ButtonOption{
		{Text: "*A* - *One*", ButtonText: "Add to Playlist", ActionID: "add_song", Value: "sonos|song|spotify:track:1"},
		{Text: "*B* - *Two*", ButtonText: "Add to Playlist", ActionID: "add_song", Value: "sonos|song|spotify:track:2"},
		{Text: "*C* - *Three*", ButtonText: "Add to Playlist", ActionID: "add_song", Value: "sonos|song|spotify:track:3"},
	}

	blocks := MessageWithButtons(options)

	// section + divider per option, last divider stripped
	if len(blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(blocks))
	}
	if _, ok := blocks[len(blocks)-1].(*slackapi.SectionBlock); !ok {
		t.Errorf("last block should be a section, got %T", blocks[len(blocks)-1])
	}

	for i, block := range blocks {
		if i%2 == 1 {
			if _, ok := block.(*slackapi.DividerBlock); !ok {
				t.Errorf("block %d should be a divider, got %T", i, block)
			}
			continue
		}
		section, ok := block.(*slackapi.SectionBlock)
		if !ok {
			t.Fatalf("block %d should be a section, got %T", i, block)
		}
		if section.Accessory == nil || section.Accessory.ButtonElement == nil {
			t.Fatalf("block %d should carry a button accessory", i)
		}
		button := section.Accessory.ButtonElement
		want := options[i/2].Value
		if button.Value != want {
			t.Errorf("block %d button value = %q; want %q", i, button.Value, want)
		}
	}
}

func TestMessageWithButtonsEmpty(t *testing.T) {
	if blocks := MessageWithButtons(nil); len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
}

func TestMessageWithImage(t *testing.T) {
	blocks := MessageWithImage("*A* - *One*", "https://img.example/1.jpg", "Album Art")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	section, ok := blocks[0].(*slackapi.SectionBlock)
	if !ok {
		t.Fatalf("expected section block, got %T", blocks[0])
	}
	if section.Accessory == nil || section.Accessory.ImageElement == nil {
		t.Fatal("section should carry an image accessory")
	}
	if section.Accessory.ImageElement.ImageURL != "https://img.example/1.jpg" {
		t.Errorf("unexpected image URL %q", section.Accessory.ImageElement.ImageURL)
	}
	if section.Text.Text != "*A* - *One*" {
		t.Errorf("unexpected section text %q", section.Text.Text)
	}
}
