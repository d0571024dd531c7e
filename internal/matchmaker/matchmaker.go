package matchmaker

import (
	"nvivas/backend/randomchat-go-server/internal/interfaces"
	"nvivas/backend/randomchat-go-server/internal/logger"
	"nvivas/backend/randomchat-go-server/internal/room"
	"nvivas/backend/randomchat-go-server/pkg/models"
)

// Matchmaker administra los clientes conectados y la cola de espera, y
// decide cuándo dos clientes en espera deben ser emparejados.
//
// Igual que el SessionRouter, no sincroniza su estado: todas las llamadas
// llegan serializadas desde el bucle único del Hub.
type Matchmaker struct {
	// Clientes registrados, indexados por su ID de conexión
	clients map[string]interfaces.Client

	// Cola de espera: IDs de clientes aún sin emparejar, en orden de llegada
	queue []string

	// Router al que se le pide crear y disolver salas
	router *room.SessionRouter
}

// NewMatchmaker crea un Matchmaker sin clientes registrados
func NewMatchmaker(router *room.SessionRouter) *Matchmaker {
	return &Matchmaker{
		clients: make(map[string]interfaces.Client),
		router:  router,
	}
}

// Admit registra un cliente nuevo, lo añade a la cola de espera, le avisa
// de que está en el lobby y ejecuta una pasada de emparejamiento
func (m *Matchmaker) Admit(client interfaces.Client, displayName string) {
	client.SetName(displayName)
	m.clients[client.GetID()] = client

	m.enqueue(client.GetID())
	send(client, models.EventLobby, nil)

	m.pairingPass()
}

// Withdraw elimina un cliente desconectado: lo saca del registro y de la
// cola, y disuelve su sala si tenía una. Es idempotente.
func (m *Matchmaker) Withdraw(clientID string) {
	if _, ok := m.clients[clientID]; !ok {
		return
	}

	delete(m.clients, clientID)
	m.removeFromQueue(clientID)
	m.router.DissolveRoom(clientID)

	logger.Info("Cliente retirado", logger.Fields{
		"clientID": clientID,
		"waiting":  len(m.queue),
	})
}

// RequeueAfterNext atiende la petición "siguiente" de un cliente: disuelve
// su sala actual si la tiene, devuelve a la cola tanto al solicitante como
// a su ex-compañero, avisa a ambos de que esperan de nuevo y ejecuta una
// pasada de emparejamiento. Si el cliente no tenía sala, solo se encola.
func (m *Matchmaker) RequeueAfterNext(clientID string) {
	client, ok := m.clients[clientID]
	if !ok {
		return
	}

	partnerID, had := m.router.DissolveRoom(clientID)

	m.enqueue(clientID)
	send(client, models.EventLobby, nil)

	if had {
		if partner, ok := m.clients[partnerID]; ok {
			m.enqueue(partnerID)
			send(partner, models.EventLobby, nil)
		}
	}

	m.pairingPass()
}

// enqueue añade un ID a la cola de espera preservando sus invariantes:
// sin duplicados y sin clientes que ya sean miembros de una sala
func (m *Matchmaker) enqueue(clientID string) {
	for _, id := range m.queue {
		if id == clientID {
			// Ya estaba esperando (p. ej. "next" repetido); se ignora
			logger.Debug("Cliente ya estaba en la cola", logger.Fields{
				"clientID": clientID,
			})
			return
		}
	}

	if roomID, ok := m.router.RoomOf(clientID); ok {
		logger.Error("INVARIANTE VIOLADA: cliente en sala activa no puede esperar", logger.Fields{
			"clientID": clientID,
			"roomID":   roomID,
		})
		return
	}

	m.queue = append(m.queue, clientID)
}

// removeFromQueue saca un ID de la cola de espera si está presente
func (m *Matchmaker) removeFromQueue(clientID string) {
	for i, id := range m.queue {
		if id == clientID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// pairingPass drena la cola de espera creando salas: mientras haya al
// menos dos clientes esperando, saca los dos encolados más recientemente
// y les crea una sala. Se conserva a propósito la política original de
// sacar por el final (los dos últimos en llegar), no FIFO estricto.
func (m *Matchmaker) pairingPass() {
	for len(m.queue) >= 2 {
		// Los dos más recientes
		id1 := m.queue[len(m.queue)-1]
		id2 := m.queue[len(m.queue)-2]
		m.queue = m.queue[:len(m.queue)-2]

		// Caso defensivo: el mismo ID dos veces en la cola. Se devuelve
		// una entrada y se aborta la pasada antes de crear una sala de
		// un solo cliente.
		if id1 == id2 {
			logger.Error("INVARIANTE VIOLADA: ID duplicado en la cola", logger.Fields{
				"clientID": id1,
			})
			m.queue = append(m.queue, id1)
			return
		}

		client1, ok1 := m.clients[id1]
		client2, ok2 := m.clients[id2]

		// Entradas obsoletas (cliente desconectado entre encolar y
		// emparejar): se descartan y la pasada continúa con el resto
		if !ok1 || !ok2 {
			if ok1 {
				m.queue = append(m.queue, id1)
			}
			if ok2 {
				m.queue = append(m.queue, id2)
			}
			continue
		}

		m.router.CreateRoom(client1, client2)
	}
}

// send serializa y encola un mensaje saliente sin bloquear
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
