package client

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"nvivas/backend/randomchat-go-server/internal/errors"
	"nvivas/backend/randomchat-go-server/internal/interfaces"
	"nvivas/backend/randomchat-go-server/internal/logger"
	"nvivas/backend/randomchat-go-server/pkg/models"
)

const (
	// Tiempo máximo para escribir un mensaje al peer
	writeWait = 10 * time.Second

	// Tiempo máximo de espera por el siguiente pong del peer
	pongWait = 60 * time.Second

	// Período de envío de pings; debe ser menor que pongWait
	pingPeriod = (pongWait * 9) / 10

	// Tamaño máximo de mensaje entrante: las ofertas SDP pueden ser grandes
	maxMessageSize = 64 * 1024

	// Capacidad del canal de salida de cada cliente
	sendBufferSize = 256
)

// Client representa una conexión de cliente WebSocket
type Client struct {
	ID   string
	Name string
	Hub  interfaces.Hub
	Conn *websocket.Conn
	Send chan []byte
}

// NewClient crea un cliente para una conexión recién aceptada
func NewClient(id string, hub interfaces.Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
	}
}

// GetID implements interfaces.Client
func (c *Client) GetID() string {
	return c.ID
}

// GetName implements interfaces.Client
func (c *Client) GetName() string {
	return c.Name
}

// SetName implements interfaces.Client
func (c *Client) SetName(name string) {
	c.Name = name
}

// GetSendChannel implements interfaces.Client
func (c *Client) GetSendChannel() chan []byte {
	return c.Send
}

// ReadPump maneja la lectura de mensajes desde el WebSocket y los entrega
// al Hub ya decodificados
func (c *Client) ReadPump() {
	defer func() {
		// Cuando ReadPump termina la conexión está muerta: avisar al Hub
		// para que retire al cliente y cierre su canal de salida
		if c.Hub != nil {
			c.Hub.UnregisterClient(c)
		}
		c.Conn.Close()
	}()

	// Configurar conexión
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Bucle infinito para leer mensajes
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				logger.Warn("Conexión cerrada inesperadamente", logger.Fields{
					"clientID": c.ID,
					"error":    err.Error(),
				})
			}
			break
		}

		// Deserializar el mensaje recibido
		var envelope models.Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			logger.Debug("Mensaje no deserializable", logger.Fields{
				"clientID": c.ID,
				"error":    err.Error(),
			})
			errors.InvalidMessage(c.Send, c.ID)
			continue
		}

		c.Hub.HandleMessage(c, envelope)
	}
}

// WritePump maneja el envío de mensajes al WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// El canal Send está cerrado: el Hub retiró al cliente
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Cada mensaje va en su propio frame: el navegador hace
			// JSON.parse por frame recibido
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("Error escribiendo al WebSocket", logger.Fields{
					"clientID": c.ID,
					"error":    err.Error(),
				})
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
