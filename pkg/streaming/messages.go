// Package streaming defines the wire protocol spoken by the live AIS feed.
package streaming

import "encoding/json"

// Message type constants recognized on the inbound stream. Unrecognized
// types are logged and ignored.
const (
	TypeVesselUpdate = "vessel_update"
	TypeStaticData   = "ship_static_data"
)

// Envelope wraps all messages received over the WebSocket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Subscription is the message sent to the upstream feed after every
// (re)connect. It is cached by the client and replayed on reconnect.
type Subscription struct {
	APIKey             string          `json:"APIKey"`
	BoundingBoxes      [][][2]float64  `json:"BoundingBoxes"`
	FilterMessageTypes []string        `json:"FilterMessageTypes,omitempty"`
	FiltersShipMMSI    []string        `json:"FiltersShipMMSI,omitempty"`
}

// GlobalSubscription subscribes to position reports and static data for the
// whole globe.
func GlobalSubscription(apiKey string) Subscription {
	return Subscription{
		APIKey:             apiKey,
		BoundingBoxes:      [][][2]float64{{{-90, -180}, {90, 180}}},
		FilterMessageTypes: []string{"PositionReport", "ShipStaticData"},
	}
}
