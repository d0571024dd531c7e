package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"nvivas/backend/randomchat-go-server/internal/client"
	"nvivas/backend/randomchat-go-server/internal/config"
	"nvivas/backend/randomchat-go-server/internal/interfaces"
	"nvivas/backend/randomchat-go-server/internal/logger"
)

// NewRouter builds the HTTP router: a health check and the websocket
// entry point.
func NewRouter(hub interfaces.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", healthCheckHandler)
	r.Get("/ws", serveWs(hub, cfg))

	return r
}

// healthCheckHandler reports that the server is up
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// serveWs returns the handler that upgrades requests to websocket
// connections and hands the resulting client to the hub.
func serveWs(hub interfaces.Hub, cfg *config.Config) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Without a configured frontend URL every origin is
			// accepted (development mode)
			if cfg.FrontendURL == "" {
				return true
			}
			return r.Header.Get("Origin") == cfg.FrontendURL
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("Failed to upgrade connection", logger.Fields{
				"error": err.Error(),
				"path":  r.URL.Path,
			})
			return
		}

		c := client.NewClient(uuid.NewString(), hub, conn)

		hub.RegisterClient(c)

		// Start the read and write pumps; they own the connection from
		// here on
		go c.WritePump()
		go c.ReadPump()

		logger.Info("New connection established", logger.Fields{
			"clientID": c.GetID(),
			"remote":   conn.RemoteAddr().String(),
		})
	}
}
