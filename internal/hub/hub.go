package hub

import (
	"context"
	"encoding/json"

	"nvivas/backend/randomchat-go-server/internal/errors"
	"nvivas/backend/randomchat-go-server/internal/interfaces"
	"nvivas/backend/randomchat-go-server/internal/logger"
	"nvivas/backend/randomchat-go-server/internal/matchmaker"
	"nvivas/backend/randomchat-go-server/internal/room"
	"nvivas/backend/randomchat-go-server/pkg/models"
)

// Nombre con el que se registra un cliente hasta que el chat revele otro
const defaultDisplayName = "randomName"

// inboundMessage empareja un mensaje entrante con el cliente que lo envió
type inboundMessage struct {
	client   interfaces.Client
	envelope models.Envelope
}

// Hub es el único dueño del estado compartido: todas las mutaciones sobre
// clientes, cola de espera, salas e índice ocurren dentro de su goroutine
// Run. Los pumps de cada cliente solo hablan con el Hub por sus canales.
type Hub struct {
	// Clientes registrados en el transporte
	clients map[interfaces.Client]bool

	// Componentes del núcleo, serializados por Run
	matchmaker *matchmaker.Matchmaker
	router     *room.SessionRouter

	// Canal para registrar nuevos clientes
	register chan interfaces.Client

	// Canal para desregistrar clientes
	unregister chan interfaces.Client

	// Canal para mensajes entrantes ya decodificados
	inbound chan *inboundMessage

	// Context para control de cancelación
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub crea un Hub con su Matchmaker y SessionRouter propios
func NewHub(parentCtx context.Context) *Hub {
	ctx, cancel := context.WithCancel(parentCtx)
	router := room.NewSessionRouter()

	return &Hub{
		clients:    make(map[interfaces.Client]bool),
		matchmaker: matchmaker.NewMatchmaker(router),
		router:     router,
		register:   make(chan interfaces.Client),
		unregister: make(chan interfaces.Client),
		inbound:    make(chan *inboundMessage, 64),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RegisterClient implements interfaces.Hub
func (h *Hub) RegisterClient(client interfaces.Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// UnregisterClient implements interfaces.Hub
func (h *Hub) UnregisterClient(client interfaces.Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// HandleMessage implements interfaces.Hub
func (h *Hub) HandleMessage(client interfaces.Client, envelope models.Envelope) {
	select {
	case h.inbound <- &inboundMessage{client: client, envelope: envelope}:
	case <-h.ctx.Done():
	}
}

// Close cancela el contexto del Hub; Run termina y cierra los clientes
func (h *Hub) Close() {
	h.cancel()
}

// Run inicia el bucle principal del Hub. Esta goroutine es el dominio de
// exclusión mutua del servidor: procesa registros, bajas y mensajes de uno
// en uno, así que el Matchmaker y el SessionRouter nunca ven concurrencia.
func (h *Hub) Run() {
	defer func() {
		// Cleanup cuando Run termina: cerrar los canales de envío para
		// que los WritePump de los clientes finalicen
		for client := range h.clients {
			close(client.GetSendChannel())
			delete(h.clients, client)
		}
		logger.Info("Hub detenido", nil)
	}()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.matchmaker.Admit(client, defaultDisplayName)
			logger.Info("Cliente registrado", logger.Fields{
				"clientID": client.GetID(),
			})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.matchmaker.Withdraw(client.GetID())
				close(client.GetSendChannel())
				logger.Info("Cliente desregistrado", logger.Fields{
					"clientID": client.GetID(),
				})
			}

		case msg := <-h.inbound:
			// Mensajes de un cliente ya desregistrado: la conexión murió
			// mientras este mensaje esperaba en el canal
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			h.dispatch(msg.client, msg.envelope)
		}
	}
}

// dispatch enruta un mensaje entrante según su tipo
func (h *Hub) dispatch(client interfaces.Client, envelope models.Envelope) {
	clientID := client.GetID()

	switch envelope.Type {
	case models.EventOffer, models.EventAnswer:
		var payload models.SignalPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			errors.InvalidPayload(client.GetSendChannel(), envelope.Type, clientID)
			return
		}
		h.router.RelaySignal(payload.RoomID, clientID, envelope.Type, envelope.Payload)

	case models.EventIceCandidate:
		var payload models.IceCandidatePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			errors.InvalidPayload(client.GetSendChannel(), envelope.Type, clientID)
			return
		}
		h.router.RelaySignal(payload.RoomID, clientID, envelope.Type, envelope.Payload)

	case models.EventChatMessage:
		var payload models.ChatPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			errors.InvalidPayload(client.GetSendChannel(), envelope.Type, clientID)
			return
		}
		// El nombre es mutable y lo aporta el cliente: si el mensaje trae
		// uno se recuerda, y si no, se usa el último conocido
		if payload.SenderName != "" {
			client.SetName(payload.SenderName)
		} else {
			payload.SenderName = client.GetName()
		}
		h.router.RelayChat(clientID, payload.Message, payload.SenderName)

	case models.EventNextUser:
		h.matchmaker.RequeueAfterNext(clientID)

	default:
		errors.UnknownMessageType(client.GetSendChannel(), envelope.Type, clientID)
	}
}
