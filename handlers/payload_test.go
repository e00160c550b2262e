package handlers

import "testing"

func TestActionPayloadRoundTrip(t *testing.T) {
	payload := ActionPayload{Type: ActionSong, URI: "spotify:track:4uLU6hMCjMI75M1A2tKUQC"}
	raw := EncodeActionPayload(payload)
	if raw != "sonos|song|spotify:track:4uLU6hMCjMI75M1A2tKUQC" {
		t.Fatalf("encoded = %q", raw)
	}

	decoded, err := DecodeActionPayload(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != payload {
		t.Errorf("decoded = %+v; want %+v", decoded, payload)
	}
}

func TestDecodeActionPayloadRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"two_parts", "sonos|song"},
		{"four_parts", "sonos|song|uri|extra"},
		{"wrong_domain", "jukebox|song|spotify:track:abc"},
		{"unknown_type", "sonos|album|spotify:album:abc"},
		{"empty_uri", "sonos|song|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeActionPayload(tt.raw); err == nil {
				t.Errorf("DecodeActionPayload(%q) should fail", tt.raw)
			}
		})
	}
}
