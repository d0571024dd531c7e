package models

import (
	"encoding/json"
)

// Event types exchanged with the browser over the websocket.
const (
	EventLobby            = "lobby"
	EventSendOffer        = "send-offer"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventIceCandidate     = "add-ice-candidate"
	EventChatMessage      = "chat-message"
	EventNextUser         = "next-user"
	EventUserDisconnected = "user-disconnected"
	EventError            = "error"
)

// Envelope is used for message (de)serialization in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SendOfferPayload tells a room member to start the offer/answer exchange
type SendOfferPayload struct {
	RoomID string `json:"roomId"`
}

// SignalPayload carries an SDP offer or answer between the two peers
type SignalPayload struct {
	RoomID string `json:"roomId"`
	SDP    string `json:"sdp"`
}

// IceCandidatePayload carries one ICE candidate between the two peers.
// Type is the negotiation role marker ("sender" or "receiver"); the server
// never interprets it.
type IceCandidatePayload struct {
	RoomID    string          `json:"roomId"`
	Candidate json.RawMessage `json:"candidate"`
	Type      string          `json:"type"`
}

// ChatPayload carries one chat message between the two peers
type ChatPayload struct {
	Message    string `json:"message"`
	SenderName string `json:"senderName"`
}

// ErrorPayload is sent to a client when one of its messages is rejected
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Marshal serializes a complete wire message of the given event type.
// A nil payload produces an envelope without payload field (used for
// notification-only events like "lobby").
func Marshal(eventType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Envelope{Type: eventType})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}
