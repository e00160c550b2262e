package handlers

import (
	"fmt"
	"strings"
)

// Button payloads travel through Slack as opaque strings shaped
// "<domain>|<actionType>|<uri>". The domain pins the payload to this bot so
// foreign block actions are rejected outright.
const payloadDomain = "sonos"

type ActionType string

const ActionSong ActionType = "song"

// ActionPayload is the decoded form of a button value.
type ActionPayload struct {
	Type ActionType
	URI  string
}

func EncodeActionPayload(payload ActionPayload) string {
	return payloadDomain + "|" + string(payload.Type) + "|" + payload.URI
}

func DecodeActionPayload(raw string) (ActionPayload, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return ActionPayload{}, fmt.Errorf("malformed action payload %q", raw)
	}
	if parts[0] != payloadDomain {
		return ActionPayload{}, fmt.Errorf("action payload %q is not for this bot", raw)
	}
	actionType := ActionType(parts[1])
	switch actionType {
	case ActionSong:
	default:
		return ActionPayload{}, fmt.Errorf("unrecognized action type %q", parts[1])
	}
	if parts[2] == "" {
		return ActionPayload{}, fmt.Errorf("action payload %q has no uri", raw)
	}
	return ActionPayload{Type: actionType, URI: parts[2]}, nil
}
