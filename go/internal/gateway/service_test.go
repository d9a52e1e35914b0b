package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pizzeria/go/internal/kitchen"
	"github.com/mcdev12/pizzeria/go/internal/kitchen/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestService(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()
	svc := NewService(DefaultConfig(), clockwork.NewRealClock(), nil, nil)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		server.Close()
	})
	return server, svc
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, eventType EventType, payload any) {
	t.Helper()
	env, err := NewEnvelope(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))
}

func readEvent(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestService_TwoPlayerSession(t *testing.T) {
	server, _ := startTestService(t)
	alice := dial(t, server)
	bob := dial(t, server)

	writeEvent(t, alice, EventCreateRoom, nil)
	created := readEvent(t, alice)
	require.Equal(t, EventRoomCreated, created.Type)
	var roomCreated events.RoomCreatedPayload
	require.NoError(t, json.Unmarshal(created.Data, &roomCreated))
	assert.Equal(t, EventAssignPlayer, readEvent(t, alice).Type)

	writeEvent(t, bob, EventJoinRoom, events.JoinRoomPayload{RoomCode: roomCreated.RoomCode})
	assigned := readEvent(t, bob)
	require.Equal(t, EventAssignPlayer, assigned.Type)
	var assignment events.AssignPlayerPayload
	require.NoError(t, json.Unmarshal(assigned.Data, &assignment))
	assert.Equal(t, kitchen.SlotJoiner, assignment.PlayerID)
	assert.Equal(t, EventUpdatePlayers, readEvent(t, bob).Type)
	assert.Equal(t, EventStartGame, readEvent(t, bob).Type)
	assert.Equal(t, EventUpdatePlayers, readEvent(t, alice).Type)
	assert.Equal(t, EventStartGame, readEvent(t, alice).Type)

	writeEvent(t, bob, EventKeyPress, json.RawMessage(`{"key":"ArrowRight"}`))
	relayed := readEvent(t, alice)
	assert.Equal(t, EventKeyPress, relayed.Type)
	assert.JSONEq(t, `{"key":"ArrowRight"}`, string(relayed.Data))
	assert.Equal(t, EventKeyPress, readEvent(t, bob).Type)

	require.NoError(t, alice.Close())
	assert.Equal(t, EventUpdatePlayers, readEvent(t, bob).Type)
	assert.Equal(t, EventPlayerLeft, readEvent(t, bob).Type)
}

func TestService_InvalidCode(t *testing.T) {
	server, _ := startTestService(t)
	conn := dial(t, server)

	writeEvent(t, conn, EventJoinRoom, events.JoinRoomPayload{RoomCode: "NOPE42"})
	assert.Equal(t, EventInvalidCode, readEvent(t, conn).Type)
}

func TestService_HTTPRoutes(t *testing.T) {
	server, svc := startTestService(t)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, LivenessMessage, string(body))

	conn := dial(t, server)
	writeEvent(t, conn, EventCreateRoom, nil)
	readEvent(t, conn)

	resp, err = http.Get(server.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats["rooms"])
	assert.Equal(t, 1, stats["players"])
	assert.Equal(t, 1, stats["connections"])

	info := svc.GetStats(context.Background())
	assert.Equal(t, "running", info["status"])
	assert.Equal(t, 1, info["active_rooms"])
}
