package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pizzeria/go/internal/kitchen"
	"github.com/mcdev12/pizzeria/go/internal/kitchen/events"
	"github.com/mcdev12/pizzeria/go/internal/results"
	"github.com/rs/zerolog/log"
)

const (
	defaultQueueSize = 1024
	recordTimeout    = 5 * time.Second
)

// Sender delivers an encoded frame to one connection without blocking
type Sender interface {
	Send(connID string, frame []byte)
}

// HubConfig holds the collaborators of a Hub
type HubConfig struct {
	Rules     kitchen.Rules
	Clock     clockwork.Clock
	Sender    Sender
	Publisher Publisher        // optional
	Recorder  results.Recorder // optional
	QueueSize int
}

// HubStats is a point-in-time view of the registry
type HubStats struct {
	Rooms   int `json:"rooms"`
	Players int `json:"players"`
}

// Hub owns the room registry. Client events, disconnects, ticks and table
// revivals all run on the hub goroutine, one at a time, so room state needs
// no locking.
type Hub struct {
	registry  *kitchen.Registry
	rules     kitchen.Rules
	clock     clockwork.Clock
	sender    Sender
	publisher Publisher
	recorder  results.Recorder

	queue chan func()
	done  chan struct{}

	// pending table revivals by room identity and table index
	revivals map[uuid.UUID]map[int]*revival
}

// events mirrored to the room event feed
var feedEvents = map[EventType]bool{
	EventRoomCreated:    true,
	EventStartGame:      true,
	EventRoomClosed:     true,
	EventPlayerLeft:     true,
	EventPizzaDelivered: true,
	EventPizzaBurned:    true,
	EventCustomerLeft:   true,
	EventLevelUp:        true,
	EventGameWon:        true,
	EventResetGame:      true,
}

// NewHub creates a hub and its registry
func NewHub(cfg HubConfig, opts ...kitchen.RegistryOption) *Hub {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = NoopPublisher{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = results.NoopRecorder{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	opts = append([]kitchen.RegistryOption{kitchen.WithMaxCodeAttempts(cfg.Rules.MaxCodeAttempts)}, opts...)

	return &Hub{
		registry:  kitchen.NewRegistry(cfg.Clock, opts...),
		rules:     cfg.Rules,
		clock:     cfg.Clock,
		sender:    cfg.Sender,
		publisher: cfg.Publisher,
		recorder:  cfg.Recorder,
		queue:     make(chan func(), cfg.QueueSize),
		done:      make(chan struct{}),
		revivals:  make(map[uuid.UUID]map[int]*revival),
	}
}

// Run processes queued work and ticks every room until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	log.Info().Dur("tick_interval", h.rules.TickInterval).Msg("hub started")

	ticker := h.clock.NewTicker(h.rules.TickInterval)
	defer func() {
		ticker.Stop()
		h.cancelAllRevivals()
		close(h.done)
		log.Info().Msg("hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			h.tick()
		case fn := <-h.queue:
			fn()
		}
	}
}

// HandleMessage decodes a client frame and queues it for dispatch. Malformed
// frames are dropped.
func (h *Hub) HandleMessage(connID string, raw []byte) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", connID).
			Msg("dropping malformed client message")
		return
	}
	h.post(func() { h.dispatch(connID, env) })
}

// Disconnect queues the removal of a connection from its room
func (h *Hub) Disconnect(connID string) {
	fn := func() { h.disconnect(connID) }
	select {
	case h.queue <- fn:
	default:
		// the caller may be the hub goroutine itself, closing a slow connection
		go h.post(fn)
	}
}

// Stats returns room and player counts as seen by the hub goroutine
func (h *Hub) Stats(ctx context.Context) (HubStats, error) {
	result := make(chan HubStats, 1)
	h.post(func() {
		result <- HubStats{Rooms: h.registry.Len(), Players: h.registry.PlayerCount()}
	})
	select {
	case stats := <-result:
		return stats, nil
	case <-ctx.Done():
		return HubStats{}, ctx.Err()
	case <-h.done:
		return HubStats{}, errors.New("hub stopped")
	}
}

func (h *Hub) post(fn func()) {
	select {
	case h.queue <- fn:
	case <-h.done:
	}
}

// dispatch routes a decoded client event. It must run on the hub goroutine.
func (h *Hub) dispatch(connID string, env Envelope) {
	log.Debug().
		Str("connection_id", connID).
		Str("event_type", string(env.Type)).
		Msg("handling client event")

	switch env.Type {
	case EventCreateRoom:
		h.handleCreateRoom(connID)
	case EventJoinRoom:
		h.handleJoinRoom(connID, env)
	case EventCancelRoom:
		h.handleCancelRoom(connID)
	case EventKeyPress, EventUpdatePosition, EventPizzaDiscarded:
		h.handleRelay(connID, env)
	case EventIngredientPicked:
		h.handleIngredientPicked(connID, env)
	case EventStartCooking:
		h.handleStartCooking(connID, env)
	case EventPizzaCompleted:
		h.handlePizzaCompleted(connID, env)
	case EventPizzaDelivered:
		h.handlePizzaDelivered(connID, env)
	case EventNewCustomer:
		h.handleNewCustomer(connID, env)
	case EventLevelUp:
		h.handleLevelUp(connID, env)
	case EventGameWon:
		h.handleGameWon(connID, env)
	case EventResetGame:
		h.handleResetGame(connID)
	default:
		log.Warn().
			Str("connection_id", connID).
			Str("event_type", string(env.Type)).
			Msg("unknown event type - ignoring")
	}
}

func (h *Hub) handleCreateRoom(connID string) {
	code, err := h.registry.NewCode()
	if err != nil {
		log.Error().Err(err).Str("connection_id", connID).Msg("failed to create room")
		h.sendTo(connID, EventError, events.ErrorPayload{Message: err.Error()})
		return
	}

	// leaving can only free codes, so code stays unique
	h.disconnect(connID)

	room, err := h.registry.OpenRoom(code, connID)
	if err != nil {
		log.Error().Err(err).Str("connection_id", connID).Msg("failed to create room")
		h.sendTo(connID, EventError, events.ErrorPayload{Message: err.Error()})
		return
	}

	log.Info().
		Str("room_code", room.Code).
		Str("connection_id", connID).
		Msg("room created")

	created := events.RoomCreatedPayload{RoomCode: room.Code}
	h.sendTo(connID, EventRoomCreated, created)
	h.sendTo(connID, EventAssignPlayer, events.AssignPlayerPayload{
		PlayerID:  kitchen.SlotCreator,
		Players:   kitchen.DefaultAvatars(),
		GameState: room.State,
	})
	h.publish(room, EventRoomCreated, created)
}

func (h *Hub) handleJoinRoom(connID string, env Envelope) {
	payload, err := decodePayload[events.JoinRoomPayload](env)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", connID).Msg("rejecting join request")
		h.sendTo(connID, EventInvalidCode, nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(payload.RoomCode))

	if !kitchen.ValidCode(code) {
		log.Info().Str("room_code", code).Str("connection_id", connID).Msg("malformed room code")
		h.sendTo(connID, EventInvalidCode, nil)
		return
	}

	target, ok := h.registry.Get(code)
	if !ok {
		log.Info().Str("room_code", code).Str("connection_id", connID).Msg("invalid room code")
		h.sendTo(connID, EventInvalidCode, nil)
		return
	}
	if current, seated := h.registry.RoomFor(connID); seated && current == target {
		h.reassign(connID, target)
		return
	}
	if target.IsFull() {
		log.Info().Str("room_code", code).Str("connection_id", connID).Msg("room full")
		h.sendTo(connID, EventRoomFull, nil)
		return
	}

	h.disconnect(connID)

	room, slot, err := h.registry.JoinRoom(code, connID)
	switch {
	case errors.Is(err, kitchen.ErrInvalidRoomCode):
		h.sendTo(connID, EventInvalidCode, nil)
		return
	case errors.Is(err, kitchen.ErrRoomFull):
		h.sendTo(connID, EventRoomFull, nil)
		return
	case err != nil:
		log.Error().Err(err).Str("room_code", code).Msg("failed to join room")
		return
	}

	log.Info().
		Str("room_code", room.Code).
		Str("connection_id", connID).
		Int("slot", slot).
		Msg("player joined room")

	h.sendTo(connID, EventAssignPlayer, events.AssignPlayerPayload{
		PlayerID:  slot,
		Players:   kitchen.DefaultAvatars(),
		GameState: room.State,
	})
	h.broadcast(room, EventUpdatePlayers, room.PlayerList())
	h.broadcast(room, EventStartGame, nil)
}

// reassign answers a join for the room the connection already sits in by
// repeating its assignment
func (h *Hub) reassign(connID string, room *kitchen.Room) {
	for _, p := range room.Players {
		if p.ID != connID {
			continue
		}
		log.Debug().Str("room_code", room.Code).Str("connection_id", connID).Msg("already in room, repeating assignment")
		h.sendTo(connID, EventAssignPlayer, events.AssignPlayerPayload{
			PlayerID:  p.Slot,
			Players:   kitchen.DefaultAvatars(),
			GameState: room.State,
		})
		return
	}
}

func (h *Hub) handleCancelRoom(connID string) {
	room, ok := h.resolve(connID, EventCancelRoom)
	if !ok {
		return
	}

	log.Info().Str("room_code", room.Code).Str("connection_id", connID).Msg("room cancelled")

	h.removeRoom(room)
	h.broadcast(room, EventRoomClosed, nil)
}

func (h *Hub) handleRelay(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}
	h.broadcast(room, env.Type, env.Data)
}

func (h *Hub) handleIngredientPicked(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}
	payload, err := decodePayload[events.IngredientPickedPayload](env)
	if err != nil {
		h.rejectPayload(connID, room, err)
		return
	}

	room.State.PickIngredient(payload.Ingredient, payload.Order)
	h.broadcast(room, EventIngredientPicked, events.IngredientPickedBroadcast{
		Ingredient:      payload.Ingredient,
		TeamIngredients: room.State.TeamIngredients,
		IngredientOrder: room.State.IngredientOrder,
	})
}

func (h *Hub) handleStartCooking(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}
	payload, err := decodePayload[events.StartCookingPayload](env)
	if err != nil {
		h.rejectPayload(connID, room, err)
		return
	}

	room.State.StartCooking(*payload.StartTime)
	h.broadcast(room, EventStartCooking, events.StartCookingPayload{StartTime: payload.StartTime})
}

func (h *Hub) handlePizzaCompleted(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}
	room.State.ClearCooking()
	h.broadcast(room, EventPizzaCompleted, env.Data)
}

func (h *Hub) handlePizzaDelivered(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}
	payload, err := decodePayload[events.PizzaDeliveredPayload](env)
	if err != nil {
		h.rejectPayload(connID, room, err)
		return
	}

	if err := room.State.DeliverPizza(*payload.Score, *payload.TableIndex); err != nil {
		h.rejectPayload(connID, room, err)
		return
	}
	h.broadcast(room, EventPizzaDelivered, env.Data)
}

func (h *Hub) handleNewCustomer(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}
	payload, err := decodePayload[events.NewCustomerPayload](env)
	if err != nil {
		h.rejectPayload(connID, room, err)
		return
	}

	if err := room.State.SeatCustomer(*payload.TableIndex, *payload.CustomerTimer, payload.Order); err != nil {
		h.rejectPayload(connID, room, err)
		return
	}
	h.broadcast(room, EventNewCustomer, env.Data)
}

func (h *Hub) handleLevelUp(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}
	payload, err := decodePayload[events.LevelUpPayload](env)
	if err != nil {
		h.rejectPayload(connID, room, err)
		return
	}

	room.State.LevelUp(*payload.Level, payload.NewTable)
	h.broadcast(room, EventLevelUp, env.Data)
}

func (h *Hub) handleGameWon(connID string, env Envelope) {
	room, ok := h.resolve(connID, env.Type)
	if !ok {
		return
	}

	result := results.GameResult{
		RoomID:    room.ID,
		RoomCode:  room.Code,
		Level:     room.State.Level,
		TeamScore: room.State.TeamScore,
		Tables:    len(room.State.Tables),
		Players:   len(room.Players),
		WonAt:     h.clock.Now(),
		Payload:   env.Data,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := h.recorder.Record(ctx, result); err != nil {
			log.Error().Err(err).Str("room_code", result.RoomCode).Msg("failed to record game result")
		}
	}()

	h.broadcast(room, EventGameWon, env.Data)
}

func (h *Hub) handleResetGame(connID string) {
	room, ok := h.resolve(connID, EventResetGame)
	if !ok {
		return
	}

	h.cancelRevivals(room.ID)
	h.registry.ResetGame(room)

	log.Info().Str("room_code", room.Code).Msg("game reset")
	h.broadcast(room, EventResetGame, nil)
}

// disconnect removes connID from its room, deleting the room once empty
func (h *Hub) disconnect(connID string) {
	room, deleted, ok := h.registry.Leave(connID)
	if !ok {
		return
	}

	if deleted {
		h.cancelRevivals(room.ID)
		log.Info().Str("room_code", room.Code).Msg("last player left, room deleted")
		return
	}

	log.Info().
		Str("room_code", room.Code).
		Str("connection_id", connID).
		Msg("player left room")

	h.broadcast(room, EventUpdatePlayers, room.PlayerList())
	h.broadcast(room, EventPlayerLeft, nil)
}

// removeRoom deletes a room and stops its pending revivals
func (h *Hub) removeRoom(room *kitchen.Room) {
	h.cancelRevivals(room.ID)
	h.registry.DeleteRoom(room.Code)
}

// resolve finds the room of the sending connection. Events from connections
// outside any room are ignored.
func (h *Hub) resolve(connID string, eventType EventType) (*kitchen.Room, bool) {
	room, err := h.registry.Resolve(connID)
	if err != nil {
		log.Debug().
			Err(err).
			Str("event_type", string(eventType)).
			Msg("ignoring event")
		return nil, false
	}
	return room, true
}

func (h *Hub) rejectPayload(connID string, room *kitchen.Room, err error) {
	log.Warn().
		Err(err).
		Str("connection_id", connID).
		Str("room_code", room.Code).
		Msg("rejecting client payload")
}

// broadcast sends an event to every player of the room, the sender included
func (h *Hub) broadcast(room *kitchen.Room, eventType EventType, payload any) {
	frame, data, err := encodeFrame(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode event")
		return
	}

	for _, id := range room.ConnectionIDs() {
		h.sender.Send(id, frame)
	}

	log.Debug().
		Str("event_type", string(eventType)).
		Str("room_code", room.Code).
		Int("connections", len(room.Players)).
		Msg("event broadcasted")

	if feedEvents[eventType] {
		h.publish(room, eventType, data)
	}
}

func (h *Hub) sendTo(connID string, eventType EventType, payload any) {
	frame, _, err := encodeFrame(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode event")
		return
	}
	h.sender.Send(connID, frame)
}

func (h *Hub) publish(room *kitchen.Room, eventType EventType, payload any) {
	var data json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		data = p
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal feed payload")
			return
		}
		data = raw
	}

	event := RoomEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		RoomCode:  room.Code,
		Timestamp: h.clock.Now().UTC(),
		Payload:   data,
	}
	if err := h.publisher.Publish(event); err != nil {
		log.Error().Err(err).Str("room_code", room.Code).Msg("failed to publish room event")
	}
}

// encodeFrame marshals an envelope once for every recipient and returns the
// payload bytes for the feed
func encodeFrame(eventType EventType, payload any) ([]byte, json.RawMessage, error) {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		return nil, nil, err
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return nil, nil, err
	}
	return frame, env.Data, nil
}
