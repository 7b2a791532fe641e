// Package ws implements the stream transport over a WebSocket connection
// to the event gateway.
package ws

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged with the gateway.
const (
	frameHello     = "hello"
	frameSubscribe = "subscribe"
	frameEvent     = "event"
	frameCaughtUp  = "caught_up"
	framePing      = "ping"
	framePong      = "pong"
)

// frame is the wire envelope for every message on the socket. Fields are
// populated depending on Type.
type frame struct {
	Type string `json:"type"`

	// Client-to-gateway fields.
	ClientID string   `json:"client_id,omitempty"`
	Channels []string `json:"channels,omitempty"`

	// Gateway-to-client event fields.
	Channel   string          `json:"channel,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// decodeFrame parses a raw socket message.
func decodeFrame(data []byte) (frame, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return frame{}, fmt.Errorf("could not decode frame: %w", err)
	}
	if f.Type == "" {
		return frame{}, fmt.Errorf("frame missing type")
	}
	return f, nil
}

// helloFrame announces the client after a (re)connect.
func helloFrame(clientID string) frame {
	return frame{Type: frameHello, ClientID: clientID}
}

// subscribeFrame declares the channel set the gateway should deliver.
func subscribeFrame(channelIDs []string) frame {
	return frame{Type: frameSubscribe, Channels: channelIDs}
}
