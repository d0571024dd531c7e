package interfaces

import "nvivas/backend/randomchat-go-server/pkg/models"

// Hub defines the interface for hub operations needed by the transport layer
type Hub interface {
	// RegisterClient admits a new client into the matchmaking flow
	RegisterClient(client Client)

	// UnregisterClient removes a client after its connection closed
	UnregisterClient(client Client)

	// HandleMessage hands one decoded inbound message to the hub
	HandleMessage(client Client, envelope models.Envelope)
}

// Client defines the interface for client operations needed by the core
type Client interface {
	// GetID returns the client's connection identifier
	GetID() string

	// GetName returns the client's current display name
	GetName() string

	// SetName updates the client's display name
	SetName(name string)

	// GetSendChannel returns the client's outbound message channel
	GetSendChannel() chan []byte
}
