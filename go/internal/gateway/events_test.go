package gateway

import (
	"encoding/json"
	"testing"

	"github.com/mcdev12/pizzeria/go/internal/kitchen/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType EventType
		wantData string
		wantErr  bool
	}{
		{name: "no data", raw: `{"type":"createRoom"}`, wantType: EventCreateRoom},
		{name: "null data", raw: `{"type":"cancelRoom","data":null}`, wantType: EventCancelRoom},
		{name: "with data", raw: `{"type":"joinRoom","data":{"roomCode":"ABC123"}}`, wantType: EventJoinRoom, wantData: `{"roomCode":"ABC123"}`},
		{name: "server event from client", raw: `{"type":"pizzaBurned","data":{"score":1}}`, wantErr: true},
		{name: "unknown event", raw: `{"type":"teleport"}`, wantErr: true},
		{name: "missing type", raw: `{"data":{}}`, wantErr: true},
		{name: "not json", raw: `createRoom`, wantErr: true},
		{name: "array", raw: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, env.Type)
			if tt.wantData == "" {
				assert.Nil(t, env.Data)
			} else {
				assert.JSONEq(t, tt.wantData, string(env.Data))
			}
		})
	}
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventStartGame, nil)
	require.NoError(t, err)
	frame, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"startGame"}`, string(frame))

	env, err = NewEnvelope(EventCustomerLeft, events.CustomerLeftPayload{TableIndex: 1, Score: -5})
	require.NoError(t, err)
	frame, err = json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"customerLeft","data":{"tableIndex":1,"score":-5}}`, string(frame))

	raw := json.RawMessage(`{"x":1.5,"y":2}`)
	env, err = NewEnvelope(EventUpdatePosition, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, env.Data)
}

func TestDecodePayload(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env := Envelope{Type: EventPizzaDelivered, Data: json.RawMessage(`{"score":15,"tableIndex":0}`)}
		payload, err := decodePayload[events.PizzaDeliveredPayload](env)
		require.NoError(t, err)
		assert.Equal(t, 15, *payload.Score)
		assert.Equal(t, 0, *payload.TableIndex)
	})

	t.Run("zero values are present", func(t *testing.T) {
		env := Envelope{Type: EventNewCustomer, Data: json.RawMessage(`{"tableIndex":0,"customerTimer":0}`)}
		_, err := decodePayload[events.NewCustomerPayload](env)
		assert.NoError(t, err)
	})

	t.Run("missing field", func(t *testing.T) {
		env := Envelope{Type: EventPizzaDelivered, Data: json.RawMessage(`{"score":15}`)}
		_, err := decodePayload[events.PizzaDeliveredPayload](env)
		assert.ErrorIs(t, err, events.ErrMissingField)
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := decodePayload[events.StartCookingPayload](Envelope{Type: EventStartCooking})
		assert.Error(t, err)
	})

	t.Run("wrong shape", func(t *testing.T) {
		env := Envelope{Type: EventStartCooking, Data: json.RawMessage(`{"startTime":"soon"}`)}
		_, err := decodePayload[events.StartCookingPayload](env)
		assert.Error(t, err)
	})
}
