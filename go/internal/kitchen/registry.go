package kitchen

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// CodeLength is the number of characters in a room code
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry owns every live room and the connection-to-room index.
// It is not safe for concurrent use; the gateway hub serializes all access.
type Registry struct {
	rooms  map[string]*Room
	byConn map[string]string // connection ID -> room code

	clock       clockwork.Clock
	rng         *rand.Rand
	newCode     func() string
	maxAttempts int
}

// RegistryOption customizes a Registry
type RegistryOption func(*Registry)

// WithRand sets the random source used for codes and orders
func WithRand(rng *rand.Rand) RegistryOption {
	return func(r *Registry) { r.rng = rng }
}

// WithCodeGenerator replaces the random room code generator
func WithCodeGenerator(gen func() string) RegistryOption {
	return func(r *Registry) { r.newCode = gen }
}

// WithMaxCodeAttempts caps how many candidate codes NewCode tries
func WithMaxCodeAttempts(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(clock clockwork.Clock, opts ...RegistryOption) *Registry {
	r := &Registry{
		rooms:       make(map[string]*Room),
		byConn:      make(map[string]string),
		clock:       clock,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxAttempts: DefaultRules().MaxCodeAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newCode == nil {
		r.newCode = r.randomCode
	}
	return r
}

// Rand exposes the registry's random source so order generation outside the
// registry draws from the same stream
func (r *Registry) Rand() *rand.Rand {
	return r.rng
}

// NewCode draws a room code no live room is using. It gives up with
// ErrCodeGenerationExhausted after the configured number of attempts.
func (r *Registry) NewCode() (string, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		code := r.newCode()
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

// OpenRoom registers a fresh room under code with connID seated as the
// creator. connID must not be seated in another room.
func (r *Registry) OpenRoom(code, connID string) (*Room, error) {
	if _, taken := r.rooms[code]; taken {
		return nil, fmt.Errorf("%w: %s", ErrRoomCodeTaken, code)
	}

	room := &Room{
		ID:        uuid.New(),
		Code:      code,
		Players:   []Player{{ID: connID, Slot: SlotCreator}},
		State:     NewGameState(r.clock.Now(), r.rng),
		CreatedAt: r.clock.Now(),
	}
	r.rooms[code] = room
	r.byConn[connID] = code
	return room, nil
}

// JoinRoom seats connID in the room registered under code
func (r *Registry) JoinRoom(code, connID string) (*Room, int, error) {
	room, ok := r.rooms[code]
	if !ok {
		return nil, 0, ErrInvalidRoomCode
	}
	if room.IsFull() {
		return nil, 0, ErrRoomFull
	}

	slot := room.freeSlot()
	room.Players = append(room.Players, Player{ID: connID, Slot: slot})
	r.byConn[connID] = code
	return room, slot, nil
}

// RoomFor resolves the room a connection is seated in
func (r *Registry) RoomFor(connID string) (*Room, bool) {
	code, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[code]
	return room, ok
}

// Resolve is RoomFor for event handlers: a connection outside any room yields
// ErrUnresolvableConnection
func (r *Registry) Resolve(connID string) (*Room, error) {
	room, ok := r.RoomFor(connID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableConnection, connID)
	}
	return room, nil
}

// Leave removes connID from its room and deletes the room once empty.
// It returns the room the connection left and whether that room was deleted.
func (r *Registry) Leave(connID string) (room *Room, deleted bool, ok bool) {
	room, ok = r.RoomFor(connID)
	if !ok {
		return nil, false, false
	}
	room.removePlayer(connID)
	delete(r.byConn, connID)

	if room.IsEmpty() {
		r.DeleteRoom(room.Code)
		return room, true, true
	}
	return room, false, true
}

// DeleteRoom removes a room and unseats its players. Deleting an unknown code
// is a no-op.
func (r *Registry) DeleteRoom(code string) {
	room, ok := r.rooms[code]
	if !ok {
		return
	}
	for _, p := range room.Players {
		if r.byConn[p.ID] == code {
			delete(r.byConn, p.ID)
		}
	}
	delete(r.rooms, code)
}

// ResetGame replaces the room's state with a fresh level 1 game
func (r *Registry) ResetGame(room *Room) {
	room.State = NewGameState(r.clock.Now(), r.rng)
}

// Get returns the room registered under code
func (r *Registry) Get(code string) (*Room, bool) {
	room, ok := r.rooms[code]
	return room, ok
}

// Len returns the number of live rooms
func (r *Registry) Len() int {
	return len(r.rooms)
}

// Rooms returns the live rooms ordered by code
func (r *Registry) Rooms() []*Room {
	out := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// PlayerCount returns the number of seated connections across all rooms
func (r *Registry) PlayerCount() int {
	return len(r.byConn)
}

func (r *Registry) randomCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[r.rng.IntN(len(codeAlphabet))]
	}
	return string(b)
}

// ValidCode reports whether s has the shape of a room code
func ValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
