package sonos

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	avTransportEndpoint      = "/MediaRenderer/AVTransport/Control"
	avTransportService       = "urn:schemas-upnp-org:service:AVTransport:1"
	renderingControlEndpoint = "/MediaRenderer/RenderingControl/Control"
	renderingControlService  = "urn:schemas-upnp-org:service:RenderingControl:1"
	contentDirectoryEndpoint = "/MediaServer/ContentDirectory/Control"
	contentDirectoryService  = "urn:schemas-upnp-org:service:ContentDirectory:1"
)

const envelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>` +
	`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">` +
	`<s:Body><u:%s xmlns:u="%s">%s</u:%s></s:Body></s:Envelope>`

// soapClient issues UPnP SOAP actions against a single zone player.
type soapClient struct {
	host string
	http *http.Client
}

type soapArg struct {
	Name  string
	Value string
}

// call invokes a SOAP action and returns the response's output arguments
// keyed by element name.
func (c *soapClient) call(ctx context.Context, endpoint, service, action string, args []soapArg) (map[string]string, error) {
	var body strings.Builder
	for _, arg := range args {
		body.WriteString("<" + arg.Name + ">")
		xml.EscapeText(&body, []byte(arg.Value))
		body.WriteString("</" + arg.Name + ">")
	}
	envelope := fmt.Sprintf(envelopeTemplate, action, service, body.String(), action)

	url := "http://" + c.host + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"%s#%s"`, service, action))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sonos %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sonos %s: reading response: %w", action, err)
	}

	if resp.StatusCode != http.StatusOK {
		if code := parseUPnPErrorCode(raw); code != "" {
			return nil, fmt.Errorf("sonos %s: device error %s", action, code)
		}
		return nil, fmt.Errorf("sonos %s: unexpected status %d", action, resp.StatusCode)
	}

	outputs, err := parseActionResponse(raw, action)
	if err != nil {
		return nil, fmt.Errorf("sonos %s: %w", action, err)
	}

	log.Tracef("sonos %s returned %d output args", action, len(outputs))
	return outputs, nil
}

// parseActionResponse collects the child elements of <u:<action>Response>
// into a name → character-data map.
func parseActionResponse(raw []byte, action string) (map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	outputs := map[string]string{}
	inResponse := false
	var current string
	var value strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch element := token.(type) {
		case xml.StartElement:
			if element.Name.Local == action+"Response" {
				inResponse = true
			} else if inResponse {
				current = element.Name.Local
				value.Reset()
			}
		case xml.CharData:
			if current != "" {
				value.Write(element)
			}
		case xml.EndElement:
			if element.Name.Local == action+"Response" {
				return outputs, nil
			}
			if inResponse && element.Name.Local == current {
				outputs[current] = value.String()
				current = ""
			}
		}
	}

	return nil, fmt.Errorf("no %sResponse element in reply", action)
}

func parseUPnPErrorCode(raw []byte) string {
	var fault struct {
		Code string `xml:"Body>Fault>detail>UPnPError>errorCode"`
	}
	if err := xml.Unmarshal(raw, &fault); err != nil {
		return ""
	}
	return fault.Code
}
