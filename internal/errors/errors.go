package errors

import (
	"nvivas/backend/randomchat-go-server/internal/logger"
	"nvivas/backend/randomchat-go-server/pkg/models"
)

// Error codes
const (
	ErrorInvalidMessage     = "ERROR_INVALID_MESSAGE"
	ErrorInvalidPayload     = "ERROR_INVALID_PAYLOAD"
	ErrorUnknownMessageType = "ERROR_UNKNOWN_MESSAGE_TYPE"
	ErrorInternal           = "ERROR_INTERNAL"
)

// SendError sends a structured error message to the client. The enqueue is
// non-blocking: a client whose outbound channel is full just misses the
// error, it never stalls the caller.
func SendError(channel chan []byte, errorCode, message string, clientID string) {
	msgBytes, err := models.Marshal(models.EventError, models.ErrorPayload{
		Code:    errorCode,
		Message: message,
	})
	if err != nil {
		logger.Error("Failed to marshal error message", logger.Fields{
			"error":     err.Error(),
			"errorCode": errorCode,
			"clientID":  clientID,
		})
		return
	}

	// Log the error
	logger.Error(message, logger.Fields{
		"errorCode": errorCode,
		"clientID":  clientID,
	})

	select {
	case channel <- msgBytes:
	default:
		logger.Warn("Error message dropped, client channel full", logger.Fields{
			"errorCode": errorCode,
			"clientID":  clientID,
		})
	}
}

// InvalidMessage reports an undecodable message
func InvalidMessage(channel chan []byte, clientID string) {
	SendError(channel, ErrorInvalidMessage, "Formato de mensaje inválido", clientID)
}

// InvalidPayload reports a payload that does not match its event type
func InvalidPayload(channel chan []byte, context string, clientID string) {
	SendError(channel, ErrorInvalidPayload, "Datos inválidos: "+context, clientID)
}

// UnknownMessageType reports an unrecognized event type
func UnknownMessageType(channel chan []byte, msgType string, clientID string) {
	SendError(channel, ErrorUnknownMessageType, "Tipo de mensaje desconocido: "+msgType, clientID)
}

// Internal reports an internal server error
func Internal(channel chan []byte, clientID string) {
	SendError(channel, ErrorInternal, "Error interno del servidor", clientID)
}
