package room

import (
	"encoding/json"
	"strconv"

	"nvivas/backend/randomchat-go-server/internal/interfaces"
	"nvivas/backend/randomchat-go-server/internal/logger"
	"nvivas/backend/randomchat-go-server/pkg/models"
)

// Room representa una sesión activa entre exactamente dos clientes
type Room struct {
	ID     string            // Identificador único de la sala
	First  interfaces.Client // Primer miembro (el emparejado más reciente)
	Second interfaces.Client // Segundo miembro
}

// otherMember devuelve el otro miembro de la sala, o nil si el id
// no pertenece a ninguno de los dos
func (r *Room) otherMember(clientID string) interfaces.Client {
	if r.First.GetID() == clientID {
		return r.Second
	}
	if r.Second.GetID() == clientID {
		return r.First
	}
	return nil
}

// SessionRouter administra el ciclo de vida de las salas y reenvía los
// mensajes de señalización y chat entre sus dos miembros.
//
// No sincroniza su estado internamente: todas las llamadas deben llegar
// desde el bucle único del Hub.
type SessionRouter struct {
	// Salas activas, indexadas por su ID
	rooms map[string]*Room

	// Índice clienteID -> salaID, mantenido en conjunto con rooms
	index map[string]string

	// Contador monotónico para asignar IDs de sala
	nextID uint64
}

// NewSessionRouter crea un SessionRouter sin salas activas
func NewSessionRouter() *SessionRouter {
	return &SessionRouter{
		rooms: make(map[string]*Room),
		index: make(map[string]string),
	}
}

// RoomOf devuelve el ID de la sala del cliente, si tiene una activa
func (sr *SessionRouter) RoomOf(clientID string) (string, bool) {
	roomID, ok := sr.index[clientID]
	return roomID, ok
}

// ActiveRooms devuelve el número de salas activas
func (sr *SessionRouter) ActiveRooms() int {
	return len(sr.rooms)
}

// CreateRoom crea una sala para los dos clientes, actualiza el índice y
// notifica a ambos con "send-offer" para que comiencen la negociación.
// Devuelve el ID de la sala creada, o cadena vacía si se rechazó.
func (sr *SessionRouter) CreateRoom(first, second interfaces.Client) string {
	// El Matchmaker garantiza que ninguno de los dos está ya en una sala;
	// si lo está, la disciplina de actualización atómica se rompió
	if roomID, ok := sr.index[first.GetID()]; ok {
		logger.Error("INVARIANTE VIOLADA: cliente ya pertenece a una sala", logger.Fields{
			"clientID": first.GetID(),
			"roomID":   roomID,
		})
		return ""
	}
	if roomID, ok := sr.index[second.GetID()]; ok {
		logger.Error("INVARIANTE VIOLADA: cliente ya pertenece a una sala", logger.Fields{
			"clientID": second.GetID(),
			"roomID":   roomID,
		})
		return ""
	}

	sr.nextID++
	roomID := strconv.FormatUint(sr.nextID, 10)

	sr.rooms[roomID] = &Room{
		ID:     roomID,
		First:  first,
		Second: second,
	}
	sr.index[first.GetID()] = roomID
	sr.index[second.GetID()] = roomID

	// Ambos miembros reciben send-offer; el lado del navegador decide
	// quién inicia la oferta
	send(first, models.EventSendOffer, models.SendOfferPayload{RoomID: roomID})
	send(second, models.EventSendOffer, models.SendOfferPayload{RoomID: roomID})

	logger.Info("Sala creada", logger.Fields{
		"roomID":  roomID,
		"firstID": first.GetID(),
		"second":  second.GetID(),
	})

	return roomID
}

// DissolveRoom disuelve la sala del cliente indicado, si la tiene:
// notifica al otro miembro con "user-disconnected" y elimina la sala y
// ambas entradas del índice. Devuelve el ID del otro miembro y true si
// había una sala que disolver.
func (sr *SessionRouter) DissolveRoom(clientID string) (string, bool) {
	roomID, ok := sr.index[clientID]
	if !ok {
		return "", false
	}

	r, ok := sr.rooms[roomID]
	if !ok {
		// El índice apunta a una sala inexistente: invariante rota
		logger.Error("INVARIANTE VIOLADA: índice apunta a sala inexistente", logger.Fields{
			"clientID": clientID,
			"roomID":   roomID,
		})
		delete(sr.index, clientID)
		return "", false
	}

	other := r.otherMember(clientID)
	if other == nil {
		logger.Error("INVARIANTE VIOLADA: cliente indexado no es miembro de su sala", logger.Fields{
			"clientID": clientID,
			"roomID":   roomID,
		})
		delete(sr.index, clientID)
		return "", false
	}

	send(other, models.EventUserDisconnected, nil)

	delete(sr.rooms, roomID)
	delete(sr.index, r.First.GetID())
	delete(sr.index, r.Second.GetID())

	logger.Info("Sala disuelta", logger.Fields{
		"roomID":   roomID,
		"clientID": clientID,
	})

	return other.GetID(), true
}

// RelaySignal reenvía una señal WebRTC (offer, answer o candidato ICE) al
// otro miembro de la sala, sin interpretar su contenido. Si la sala ya no
// existe o el remitente no es miembro, el mensaje se descarta en silencio:
// es una carrera con la desconexión, no un error.
func (sr *SessionRouter) RelaySignal(roomID, fromID, kind string, payload json.RawMessage) {
	r, ok := sr.rooms[roomID]
	if !ok {
		logger.Debug("Señal descartada, sala inexistente", logger.Fields{
			"roomID": roomID,
			"fromID": fromID,
			"kind":   kind,
		})
		return
	}

	other := r.otherMember(fromID)
	if other == nil {
		// ID de sala obsoleto o falsificado
		logger.Debug("Señal descartada, remitente ajeno a la sala", logger.Fields{
			"roomID": roomID,
			"fromID": fromID,
			"kind":   kind,
		})
		return
	}

	// Reenvío literal: el payload recibido ya lleva roomId
	send(other, kind, payload)
}

// RelayChat reenvía un mensaje de chat al otro miembro de la sala del
// remitente. La sala se busca por la identidad del remitente y nunca por
// un ID de sala suministrado, para que nadie pueda inyectar mensajes en
// una sala ajena.
func (sr *SessionRouter) RelayChat(fromID, message, senderName string) {
	roomID, ok := sr.index[fromID]
	if !ok {
		logger.Debug("Chat descartado, remitente sin sala", logger.Fields{
			"fromID": fromID,
		})
		return
	}

	r, ok := sr.rooms[roomID]
	if !ok {
		logger.Error("INVARIANTE VIOLADA: índice apunta a sala inexistente", logger.Fields{
			"clientID": fromID,
			"roomID":   roomID,
		})
		return
	}

	other := r.otherMember(fromID)
	if other == nil {
		logger.Error("INVARIANTE VIOLADA: cliente indexado no es miembro de su sala", logger.Fields{
			"clientID": fromID,
			"roomID":   roomID,
		})
		return
	}

	send(other, models.EventChatMessage, models.ChatPayload{
		Message:    message,
		SenderName: senderName,
	})
}

// send serializa y encola un mensaje saliente sin bloquear. Un cliente
// lento con el canal lleno pierde el mensaje; nunca frena el reenvío para
// los demás.
func send(c interfaces.Client, eventType string, payload interface{}) {
	msgBytes, err := models.Marshal(eventType, payload)
	if err != nil {
		logger.Error("No se pudo serializar el mensaje saliente", logger.Fields{
			"clientID": c.GetID(),
			"type":     eventType,
			"error":    err.Error(),
		})
		return
	}

	select {
	case c.GetSendChannel() <- msgBytes:
	default:
		logger.Warn("Mensaje descartado, canal del cliente lleno", logger.Fields{
			"clientID": c.GetID(),
			"type":     eventType,
		})
	}
}
