package spotify

import (
	"testing"

	spotifyclient "github.com/zmb3/spotify/v2"
)

func TestNormalizeTrack(t *testing.T) {
	track := &spotifyclient.FullTrack{
		SimpleTrack: spotifyclient.SimpleTrack{
			Name: "Song Two",
			Artists: []spotifyclient.SimpleArtist{
				{Name: "First Artist"},
				{Name: "Second Artist"},
			},
			URI: "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
		},
		Album: spotifyclient.SimpleAlbum{
			Name:        "The Album",
			ReleaseDate: "1999-03-02",
			Images: []spotifyclient.Image{
				{URL: "https://img/640.jpg", Width: 640},
				{URL: "https://img/300.jpg", Width: 300},
				{URL: "https://img/64.jpg", Width: 64},
			},
		},
	}

	got := normalizeTrack(track)
	want := TrackResult{
		Artist:      "First Artist",
		Title:       "Song Two",
		Album:       "The Album",
		AlbumImage:  "https://img/64.jpg",
		ReleaseDate: "1999-03-02",
		URI:         "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
	}
	if got != want {
		t.Errorf("normalizeTrack = %+v; want %+v", got, want)
	}
}

func TestPrimaryArtist(t *testing.T) {
	if got := primaryArtist(nil); got != "" {
		t.Errorf("primaryArtist(nil) = %q", got)
	}
	artists := []spotifyclient.SimpleArtist{{Name: "Lead"}, {Name: "Feature"}}
	if got := primaryArtist(artists); got != "Lead" {
		t.Errorf("primaryArtist = %q", got)
	}
}

func TestSmallestImage(t *testing.T) {
	if got := smallestImage(nil); got != "" {
		t.Errorf("smallestImage(nil) = %q", got)
	}
	images := []spotifyclient.Image{
		{URL: "https://img/640.jpg", Width: 640},
		{URL: "https://img/64.jpg", Width: 64},
	}
	if got := smallestImage(images); got != "https://img/64.jpg" {
		t.Errorf("smallestImage = %q", got)
	}
}

func TestTrackIDFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"spotify:track:4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"spotify:track", ""},
		{"", ""},
		{"spotify:track:abc:extra", ""},
	}
	for _, tt := range tests {
		if got := TrackIDFromURI(tt.uri); got != tt.want {
			t.Errorf("TrackIDFromURI(%q) = %q; want %q", tt.uri, got, tt.want)
		}
	}
}
