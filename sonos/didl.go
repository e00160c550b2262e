package sonos

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// didlLite mirrors the subset of DIDL-Lite the bot reads back from the
// device: queue items, position metadata and saved-queue containers.
type didlLite struct {
	Items      []didlItem      `xml:"item"`
	Containers []didlContainer `xml:"container"`
}

type didlItem struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Album   string `xml:"album"`
	Res     string `xml:"res"`
}

type didlContainer struct {
	Title string `xml:"title"`
	Res   string `xml:"res"`
}

func parseDIDL(raw string) (*didlLite, error) {
	if strings.TrimSpace(raw) == "" || raw == "NOT_IMPLEMENTED" {
		return &didlLite{}, nil
	}
	var didl didlLite
	if err := xml.Unmarshal([]byte(raw), &didl); err != nil {
		return nil, fmt.Errorf("parsing DIDL metadata: %w", err)
	}
	return &didl, nil
}

// parseClock converts the device's h:mm:ss track clock to seconds.
// Unknown values ("NOT_IMPLEMENTED", empty) come back as zero.
func parseClock(clock string) int {
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return hours*3600 + minutes*60 + seconds
}

// Spotify service constants for the Sonos music-service bridge. The region
// token differs between the US and EU Spotify backends.
const (
	spotifyRegionUS = "3079"
	spotifyRegionEU = "2311"
)

// spotifyQueueURI rewrites a spotify:track:<id> URI into the x-sonos-spotify
// form the AVTransport queue accepts.
func spotifyQueueURI(uri string) string {
	escaped := strings.ReplaceAll(uri, ":", "%3a")
	return "x-sonos-spotify:" + escaped + "?sid=9&flags=8224&sn=7"
}

// spotifyQueueMetadata builds the DIDL-Lite envelope that has to accompany
// an enqueued Spotify track.
func spotifyQueueMetadata(uri, region string) string {
	escaped := strings.ReplaceAll(uri, ":", "%3a")
	token := fmt.Sprintf("SA_RINCON%s_X_#Svc%s-0-Token", region, region)
	return `<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/"` +
		` xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/"` +
		` xmlns:r="urn:schemas-rinconnetworks-com:metadata-1-0/"` +
		` xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/">` +
		`<item id="00032020` + escaped + `" restricted="true">` +
		`<upnp:class>object.item.audioItem.musicTrack</upnp:class>` +
		`<desc id="cdudn" nameSpace="urn:schemas-rinconnetworks-com:metadata-1-0/">` + token + `</desc>` +
		`</item></DIDL-Lite>`
}
