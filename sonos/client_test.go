package sonos

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sonosbot/config"
)

func TestNormalizeTransportState(t *testing.T) {
	tests := []struct {
		raw  string
		want TransportState
	}{
		{"PLAYING", StatePlaying},
		{"PAUSED_PLAYBACK", StatePaused},
		{"TRANSITIONING", StateTransitioning},
		{"STOPPED", StateStopped},
		{"NO_MEDIA_PRESENT", StateStopped},
		{"", StateStopped},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := normalizeTransportState(tt.raw); got != tt.want {
				t.Errorf("normalizeTransportState(%q) = %q; want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		clock string
		want  int
	}{
		{"0:00:00", 0},
		{"0:03:21", 201},
		{"1:02:03", 3723},
		{"NOT_IMPLEMENTED", 0},
		{"", 0},
		{"3:21", 0},
	}
	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			if got := parseClock(tt.clock); got != tt.want {
				t.Errorf("parseClock(%q) = %d; want %d", tt.clock, got, tt.want)
			}
		})
	}
}

func TestParseDIDL(t *testing.T) {
	raw := `<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/"` +
		` xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/"` +
		` xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/">` +
		`<item id="Q:0/1"><dc:title>Hey Jude</dc:title><dc:creator>The Beatles</dc:creator>` +
		`<upnp:album>Past Masters</upnp:album></item>` +
		`<item id="Q:0/2"><dc:title>Let It Be</dc:title><dc:creator>The Beatles</dc:creator>` +
		`<upnp:album>Let It Be</upnp:album></item>` +
		`</DIDL-Lite>`

	didl, err := parseDIDL(raw)
	if err != nil {
		t.Fatalf("parseDIDL() error = %v", err)
	}
	if len(didl.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(didl.Items))
	}
	first := didl.Items[0]
	if first.Title != "Hey Jude" || first.Creator != "The Beatles" || first.Album != "Past Masters" {
		t.Errorf("unexpected first item: %+v", first)
	}
}

func TestParseDIDLContainers(t *testing.T) {
	raw := `<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/"` +
		` xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/">` +
		`<container id="SQ:7"><dc:title>Road Trip</dc:title>` +
		`<res>file:///jffs/settings/savedqueues.rsq#7</res></container>` +
		`</DIDL-Lite>`

	didl, err := parseDIDL(raw)
	if err != nil {
		t.Fatalf("parseDIDL() error = %v", err)
	}
	if len(didl.Containers) != 1 {
		t.Fatalf("expected 1 container, got %d", len(didl.Containers))
	}
	if didl.Containers[0].Title != "Road Trip" {
		t.Errorf("unexpected container title %q", didl.Containers[0].Title)
	}
}

func TestParseDIDLEmpty(t *testing.T) {
	for _, raw := range []string{"", "NOT_IMPLEMENTED", "   "} {
		didl, err := parseDIDL(raw)
		if err != nil {
			t.Errorf("parseDIDL(%q) error = %v", raw, err)
		}
		if len(didl.Items) != 0 || len(didl.Containers) != 0 {
			t.Errorf("parseDIDL(%q) should be empty", raw)
		}
	}
}

func TestSpotifyQueueURI(t *testing.T) {
	got := spotifyQueueURI("spotify:track:4uLU6hMCjMI75M1A2tKUQC")
	want := "x-sonos-spotify:spotify%3atrack%3a4uLU6hMCjMI75M1A2tKUQC?sid=9&flags=8224&sn=7"
	if got != want {
		t.Errorf("spotifyQueueURI() = %q; want %q", got, want)
	}
}

func TestSpotifyQueueMetadata(t *testing.T) {
	metadata := spotifyQueueMetadata("spotify:track:abc", spotifyRegionEU)
	if !strings.Contains(metadata, "00032020spotify%3atrack%3aabc") {
		t.Errorf("metadata missing escaped item id: %s", metadata)
	}
	if !strings.Contains(metadata, "SA_RINCON2311_X_#Svc2311-0-Token") {
		t.Errorf("metadata missing EU region token: %s", metadata)
	}
}

// fakeDevice serves canned SOAP responses and records the last request.
type fakeDevice struct {
	server     *httptest.Server
	lastAction string
	lastBody   string
	response   string
}

func newFakeDevice(t *testing.T, response string) *fakeDevice {
	t.Helper()
	device := &fakeDevice{response: response}
	device.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device.lastAction = r.Header.Get("SOAPACTION")
		body, _ := io.ReadAll(r.Body)
		device.lastBody = string(body)
		w.Write([]byte(device.response))
	}))
	t.Cleanup(device.server.Close)
	return device
}

func (d *fakeDevice) client() *Client {
	host := strings.TrimPrefix(d.server.URL, "http://")
	return NewClient(config.SonosConfig{Host: host}, "US")
}

func soapResponse(action, inner string) string {
	return `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<s:Body><u:` + action + `Response xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">` +
		inner + `</u:` + action + `Response></s:Body></s:Envelope>`
}

func TestGetVolume(t *testing.T) {
	device := newFakeDevice(t, soapResponse("GetVolume", "<CurrentVolume>42</CurrentVolume>"))

	volume, err := device.client().GetVolume(context.Background())
	if err != nil {
		t.Fatalf("GetVolume() error = %v", err)
	}
	if volume != 42 {
		t.Errorf("GetVolume() = %d; want 42", volume)
	}
	wantAction := `"urn:schemas-upnp-org:service:RenderingControl:1#GetVolume"`
	if device.lastAction != wantAction {
		t.Errorf("SOAPACTION = %q; want %q", device.lastAction, wantAction)
	}
}

func TestAddURIToQueue(t *testing.T) {
	device := newFakeDevice(t, soapResponse("AddURIToQueue",
		"<FirstTrackNumberEnqueued>4</FirstTrackNumberEnqueued><NumTracksAdded>1</NumTracksAdded><NewQueueLength>4</NewQueueLength>"))

	result, err := device.client().AddURIToQueue(context.Background(), "spotify:track:abc")
	if err != nil {
		t.Fatalf("AddURIToQueue() error = %v", err)
	}
	if result.FirstTrackNumberEnqueued != 4 || result.NewQueueLength != 4 {
		t.Errorf("unexpected enqueue result: %+v", result)
	}
	if !strings.Contains(device.lastBody, "x-sonos-spotify:spotify%3atrack%3aabc") {
		t.Errorf("request body missing translated URI: %s", device.lastBody)
	}
}

func TestRemoveFromQueueTranslatesIndex(t *testing.T) {
	device := newFakeDevice(t, soapResponse("RemoveTrackFromQueue", ""))

	// Storage index 1 (second item) addresses device slot Q:0/2.
	if err := device.client().RemoveFromQueue(context.Background(), 1); err != nil {
		t.Fatalf("RemoveFromQueue() error = %v", err)
	}
	if !strings.Contains(device.lastBody, "<ObjectID>Q:0/2</ObjectID>") {
		t.Errorf("request body should address Q:0/2: %s", device.lastBody)
	}
}

func TestStateRoundTrip(t *testing.T) {
	device := newFakeDevice(t, soapResponse("GetTransportInfo",
		"<CurrentTransportState>PAUSED_PLAYBACK</CurrentTransportState><CurrentTransportStatus>OK</CurrentTransportStatus>"))

	state, err := device.client().State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != StatePaused {
		t.Errorf("State() = %q; want %q", state, StatePaused)
	}
}

func TestCurrentTrack(t *testing.T) {
	metadata := `&lt;DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"&gt;` +
		`&lt;item&gt;&lt;dc:title&gt;Hey Jude&lt;/dc:title&gt;&lt;dc:creator&gt;The Beatles&lt;/dc:creator&gt;&lt;upnp:album&gt;Past Masters&lt;/upnp:album&gt;&lt;/item&gt;&lt;/DIDL-Lite&gt;`
	device := newFakeDevice(t, soapResponse("GetPositionInfo",
		"<Track>3</Track><TrackDuration>0:03:21</TrackDuration><TrackMetaData>"+metadata+"</TrackMetaData><RelTime>0:01:10</RelTime>"))

	track, err := device.client().CurrentTrack(context.Background())
	if err != nil {
		t.Fatalf("CurrentTrack() error = %v", err)
	}
	if track.Title != "Hey Jude" || track.Artist != "The Beatles" || track.Album != "Past Masters" {
		t.Errorf("unexpected track metadata: %+v", track)
	}
	if track.PositionSeconds != 70 || track.DurationSeconds != 201 || track.QueuePosition != 3 {
		t.Errorf("unexpected track position: %+v", track)
	}
}

func TestDeviceErrorSurfaced(t *testing.T) {
	device := newFakeDevice(t, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">`+
		`<s:Body><s:Fault><faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring>`+
		`<detail><UPnPError xmlns="urn:schemas-upnp-org:control-1-0"><errorCode>701</errorCode></UPnPError></detail>`+
		`</s:Fault></s:Body></s:Envelope>`)
	device.server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(device.response))
	})

	_, err := device.client().State(context.Background())
	if err == nil {
		t.Fatal("expected device error")
	}
	if !strings.Contains(err.Error(), "701") {
		t.Errorf("error should carry the UPnP code: %v", err)
	}
}
