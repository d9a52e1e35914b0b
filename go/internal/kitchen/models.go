package kitchen

import (
	"time"

	"github.com/google/uuid"
)

// Slots a player can hold inside a room
const (
	SlotCreator = 0
	SlotJoiner  = 1
	MaxPlayers  = 2
)

// Player is a connection seated in a room
type Player struct {
	ID   string `json:"id"`       // Connection ID
	Slot int    `json:"playerId"` // 0 for the creator, 1 for the joiner
}

// Avatar is the initial placement of a player sprite sent on assignment
type Avatar struct {
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	Speed         float64  `json:"speed"`
	CarryingPizza bool     `json:"carryingPizza"`
	PizzaOrder    []string `json:"pizzaOrder"`
}

// DefaultAvatars returns the spawn avatars for slot 0 and slot 1
func DefaultAvatars() []Avatar {
	return []Avatar{
		{X: 150, Y: 150, Speed: 4},
		{X: 200, Y: 150, Speed: 4},
	}
}

// Table is a service point waiting for a pizza delivery.
// Timestamps are unix milliseconds, the unit the clients report in.
type Table struct {
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	HasCustomer   bool     `json:"hasCustomer"`
	CustomerTimer int64    `json:"customerTimer"`
	Order         []string `json:"order"`
}

// Room pairs up to two players around one shared game state
type Room struct {
	ID        uuid.UUID // distinguishes this room from a later one reusing the code
	Code      string
	Players   []Player
	State     *GameState
	CreatedAt time.Time
}

// IsFull reports whether the room has no free slot
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxPlayers
}

// IsEmpty reports whether every player has left
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// ConnectionIDs returns the connections seated in the room, in join order
func (r *Room) ConnectionIDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// PlayerList returns a copy of the players safe to hand to an encoder
func (r *Room) PlayerList() []Player {
	out := make([]Player, len(r.Players))
	copy(out, r.Players)
	return out
}

// freeSlot returns the joiner slot unless only the joiner is left
func (r *Room) freeSlot() int {
	for _, p := range r.Players {
		if p.Slot == SlotJoiner {
			return SlotCreator
		}
	}
	return SlotJoiner
}

func (r *Room) removePlayer(connID string) bool {
	for i, p := range r.Players {
		if p.ID == connID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}
