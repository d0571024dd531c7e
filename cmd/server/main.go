package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nvivas/backend/randomchat-go-server/internal/config"
	"nvivas/backend/randomchat-go-server/internal/hub"
	"nvivas/backend/randomchat-go-server/internal/logger"
	"nvivas/backend/randomchat-go-server/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Cargar configuración e inicializar el logger
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel)

	// Crear contexto cancelable
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Crear e iniciar el Hub
	mainHub := hub.NewHub(ctx)
	go mainHub.Run()

	logger.Info("Hub iniciado", nil)

	// Configurar servidor. Sin ReadTimeout/WriteTimeout globales: las
	// conexiones WebSocket son de larga vida y gestionan sus propios
	// deadlines en los pumps.
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(mainHub, cfg),
	}

	// Canal para señales del sistema
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar el servidor en una goroutine separada
	go func() {
		logger.Info("Iniciando servidor", logger.Fields{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Error al iniciar el servidor", logger.Fields{"error": err.Error()})
		}
	}()

	// Esperar señal de interrupción
	<-done
	logger.Info("Recibida señal de apagado, iniciando shutdown", nil)

	// Cancelar contexto para que todas las goroutines terminen
	cancel()

	// Cerrar el hub
	mainHub.Close()

	// Cerrar servidor HTTP con timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error durante el shutdown del servidor", logger.Fields{"error": err.Error()})
	}

	logger.Info("Servidor detenido correctamente", nil)
}
