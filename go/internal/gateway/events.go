package gateway

import (
	"encoding/json"
	"fmt"
)

// Envelope is the frame exchanged over the WebSocket in both directions
type Envelope struct {
	Type EventType       `json:"type"`           // Event name
	Data json.RawMessage `json:"data,omitempty"` // Event-specific payload
}

// EventType names a protocol event
type EventType string

// Client to server events
const (
	EventCreateRoom       EventType = "createRoom"
	EventJoinRoom         EventType = "joinRoom"
	EventCancelRoom       EventType = "cancelRoom"
	EventKeyPress         EventType = "keyPress"
	EventUpdatePosition   EventType = "updatePosition"
	EventIngredientPicked EventType = "ingredientPicked"
	EventStartCooking     EventType = "startCooking"
	EventPizzaCompleted   EventType = "pizzaCompleted"
	EventPizzaDiscarded   EventType = "pizzaDiscarded"
	EventPizzaDelivered   EventType = "pizzaDelivered"
	EventNewCustomer      EventType = "newCustomer"
	EventLevelUp          EventType = "levelUp"
	EventGameWon          EventType = "gameWon"
	EventResetGame        EventType = "resetGame"
)

// Server to client events
const (
	EventRoomCreated   EventType = "roomCreated"
	EventAssignPlayer  EventType = "assignPlayer"
	EventInvalidCode   EventType = "invalidCode"
	EventRoomFull      EventType = "roomFull"
	EventUpdatePlayers EventType = "updatePlayers"
	EventStartGame     EventType = "startGame"
	EventRoomClosed    EventType = "roomClosed"
	EventPlayerLeft    EventType = "playerLeft"
	EventPizzaBurned   EventType = "pizzaBurned"
	EventCustomerLeft  EventType = "customerLeft"
	EventError         EventType = "error"
)

var clientEvents = map[EventType]bool{
	EventCreateRoom:       true,
	EventJoinRoom:         true,
	EventCancelRoom:       true,
	EventKeyPress:         true,
	EventUpdatePosition:   true,
	EventIngredientPicked: true,
	EventStartCooking:     true,
	EventPizzaCompleted:   true,
	EventPizzaDiscarded:   true,
	EventPizzaDelivered:   true,
	EventNewCustomer:      true,
	EventLevelUp:          true,
	EventGameWon:          true,
	EventResetGame:        true,
}

// validator is implemented by inbound payloads with required fields
type validator interface {
	Validate() error
}

// DecodeEnvelope parses a client frame and rejects unknown event names
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if !clientEvents[env.Type] {
		return Envelope{}, fmt.Errorf("unknown event type: %q", env.Type)
	}
	if isNull(env.Data) {
		env.Data = nil
	}
	return env, nil
}

// NewEnvelope marshals payload into a frame of the given type. A nil payload
// produces a frame without data.
func NewEnvelope(eventType EventType, payload any) (Envelope, error) {
	env := Envelope{Type: eventType}
	if payload == nil {
		return env, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		env.Data = raw
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env.Data = data
	return env, nil
}

// decodePayload unmarshals and validates the data of an envelope
func decodePayload[T any](env Envelope) (T, error) {
	var payload T
	if env.Data == nil {
		return payload, fmt.Errorf("%s: missing data", env.Type)
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return payload, fmt.Errorf("%s: unmarshal payload: %w", env.Type, err)
	}
	if v, ok := any(payload).(validator); ok {
		if err := v.Validate(); err != nil {
			return payload, fmt.Errorf("%s: %w", env.Type, err)
		}
	}
	return payload, nil
}

func isNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}
