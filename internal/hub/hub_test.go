package hub

import (
	"context"
	"encoding/json"
	"testing"

	"nvivas/backend/randomchat-go-server/pkg/models"
)

// fakeClient implementa interfaces.Client para las pruebas
type fakeClient struct {
	id   string
	name string
	send chan []byte
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id, send: make(chan []byte, 16)}
}

func (c *fakeClient) GetID() string { return c.id }

func (c *fakeClient) GetName() string { return c.name }

func (c *fakeClient) SetName(name string) { c.name = name }

func (c *fakeClient) GetSendChannel() chan []byte { return c.send }

// drainEnvelopes vacía el canal del cliente y devuelve los mensajes decodificados
func drainEnvelopes(t *testing.T, c *fakeClient) []models.Envelope {
	t.Helper()
	var envs []models.Envelope
	for {
		select {
		case msg := <-c.send:
			var env models.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				t.Fatalf("Mensaje saliente no deserializable: %v", err)
			}
			envs = append(envs, env)
		default:
			return envs
		}
	}
}

// newPairedHub crea un hub con dos clientes ya emparejados y los canales
// de salida vacíos. Las pruebas llaman a dispatch directamente, igual que
// lo haría el bucle Run.
func newPairedHub(t *testing.T) (*Hub, *fakeClient, *fakeClient, string) {
	t.Helper()
	h := NewHub(context.Background())
	a := newFakeClient("a")
	b := newFakeClient("b")

	h.matchmaker.Admit(a, defaultDisplayName)
	h.matchmaker.Admit(b, defaultDisplayName)

	roomID, ok := h.router.RoomOf("a")
	if !ok {
		t.Fatal("Los dos clientes deberían haber quedado emparejados")
	}

	drainEnvelopes(t, a)
	drainEnvelopes(t, b)
	return h, a, b, roomID
}

// TestDispatchOffer verifica que un offer entrante llegue al otro miembro
func TestDispatchOffer(t *testing.T) {
	h, a, b, roomID := newPairedHub(t)

	payload, _ := json.Marshal(models.SignalPayload{RoomID: roomID, SDP: "v=0"})
	h.dispatch(a, models.Envelope{Type: models.EventOffer, Payload: payload})

	envs := drainEnvelopes(t, b)
	if len(envs) != 1 || envs[0].Type != models.EventOffer {
		t.Fatalf("'b' debería recibir exactamente un offer, obtenido %v", envs)
	}
}

// TestDispatchIceCandidate verifica el reenvío de candidatos ICE
func TestDispatchIceCandidate(t *testing.T) {
	h, a, b, roomID := newPairedHub(t)

	payload, _ := json.Marshal(models.IceCandidatePayload{
		RoomID:    roomID,
		Candidate: json.RawMessage(`{"candidate":"foo"}`),
		Type:      "sender",
	})
	h.dispatch(a, models.Envelope{Type: models.EventIceCandidate, Payload: payload})

	envs := drainEnvelopes(t, b)
	if len(envs) != 1 || envs[0].Type != models.EventIceCandidate {
		t.Fatalf("'b' debería recibir exactamente un candidato, obtenido %v", envs)
	}

	var ice models.IceCandidatePayload
	if err := json.Unmarshal(envs[0].Payload, &ice); err != nil {
		t.Fatalf("Payload reenviado no deserializable: %v", err)
	}
	if ice.Type != "sender" || ice.RoomID != roomID {
		t.Errorf("Payload de candidato alterado en el reenvío: %+v", ice)
	}
}

// TestDispatchChatConservaNombre verifica el manejo del nombre mutable: el
// nombre del mensaje se recuerda y, si falta, se usa el último conocido
func TestDispatchChatConservaNombre(t *testing.T) {
	h, a, b, _ := newPairedHub(t)

	payload, _ := json.Marshal(models.ChatPayload{Message: "hola", SenderName: "Ana"})
	h.dispatch(a, models.Envelope{Type: models.EventChatMessage, Payload: payload})

	if a.GetName() != "Ana" {
		t.Errorf("El nombre debería actualizarse a 'Ana', obtenido '%s'", a.GetName())
	}

	// Segundo mensaje sin nombre: debe salir con el nombre recordado
	payload, _ = json.Marshal(models.ChatPayload{Message: "sigues ahí?"})
	h.dispatch(a, models.Envelope{Type: models.EventChatMessage, Payload: payload})

	envs := drainEnvelopes(t, b)
	if len(envs) != 2 {
		t.Fatalf("'b' debería recibir 2 chats, obtenidos %d", len(envs))
	}

	var chat models.ChatPayload
	if err := json.Unmarshal(envs[1].Payload, &chat); err != nil {
		t.Fatalf("Payload de chat no deserializable: %v", err)
	}
	if chat.SenderName != "Ana" {
		t.Errorf("Nombre incorrecto en el segundo chat, esperado 'Ana', obtenido '%s'", chat.SenderName)
	}
}

// TestDispatchNextUser verifica que "next-user" dispare el reemparejamiento
func TestDispatchNextUser(t *testing.T) {
	h, a, b, oldRoom := newPairedHub(t)

	h.dispatch(a, models.Envelope{Type: models.EventNextUser})

	newRoom, ok := h.router.RoomOf("a")
	if !ok || newRoom == oldRoom {
		t.Errorf("'a' debería estar en una sala nueva, obtenido '%s' (ok=%v)", newRoom, ok)
	}

	types := []string{}
	for _, env := range drainEnvelopes(t, b) {
		types = append(types, env.Type)
	}
	if len(types) == 0 || types[0] != models.EventUserDisconnected {
		t.Errorf("'b' debería recibir primero user-disconnected, obtenido %v", types)
	}
}

// TestDispatchPayloadInvalido verifica que un payload malformado devuelva un
// error al remitente sin tocar al compañero
func TestDispatchPayloadInvalido(t *testing.T) {
	h, a, b, _ := newPairedHub(t)

	h.dispatch(a, models.Envelope{Type: models.EventOffer, Payload: json.RawMessage(`"no-objeto`)})

	envs := drainEnvelopes(t, a)
	if len(envs) != 1 || envs[0].Type != models.EventError {
		t.Fatalf("'a' debería recibir un error, obtenido %v", envs)
	}

	var errPayload models.ErrorPayload
	if err := json.Unmarshal(envs[0].Payload, &errPayload); err != nil {
		t.Fatalf("Payload de error no deserializable: %v", err)
	}
	if errPayload.Code == "" {
		t.Error("El error debería llevar un código")
	}

	if got := len(drainEnvelopes(t, b)); got != 0 {
		t.Errorf("'b' no debería recibir nada, obtenidos %d mensajes", got)
	}
}

// TestDispatchTipoDesconocido verifica la respuesta a un tipo de evento no
// reconocido
func TestDispatchTipoDesconocido(t *testing.T) {
	h, a, _, _ := newPairedHub(t)

	h.dispatch(a, models.Envelope{Type: "robar-sala"})

	envs := drainEnvelopes(t, a)
	if len(envs) != 1 || envs[0].Type != models.EventError {
		t.Fatalf("'a' debería recibir un error, obtenido %v", envs)
	}
}
