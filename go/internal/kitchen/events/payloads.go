package events

import (
	"errors"
	"fmt"

	"github.com/mcdev12/pizzeria/go/internal/kitchen"
)

// Payload types shared by the gateway and its tests. Inbound payloads use
// pointers for required numeric fields so a missing field is distinguishable
// from zero.

// ErrMissingField is wrapped by Validate when a required field is absent
var ErrMissingField = errors.New("missing required field")

// JoinRoomPayload is sent by a client asking to join an existing room
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

func (p JoinRoomPayload) Validate() error {
	if p.RoomCode == "" {
		return fmt.Errorf("%w: roomCode", ErrMissingField)
	}
	return nil
}

// IngredientPickedPayload is sent when a player picks up an ingredient
type IngredientPickedPayload struct {
	Ingredient string   `json:"ingredient"`
	Order      []string `json:"order"`
}

func (p IngredientPickedPayload) Validate() error {
	if p.Ingredient == "" {
		return fmt.Errorf("%w: ingredient", ErrMissingField)
	}
	return nil
}

// IngredientPickedBroadcast carries the room's build-in-progress pizza
type IngredientPickedBroadcast struct {
	Ingredient      string   `json:"ingredient"`
	TeamIngredients []string `json:"teamIngredients"`
	IngredientOrder []string `json:"ingredientOrder"`
}

// StartCookingPayload marks when the oven was started (unix ms)
type StartCookingPayload struct {
	StartTime *int64 `json:"startTime"`
}

func (p StartCookingPayload) Validate() error {
	if p.StartTime == nil {
		return fmt.Errorf("%w: startTime", ErrMissingField)
	}
	return nil
}

// PizzaDeliveredPayload reports a delivery and the resulting team score
type PizzaDeliveredPayload struct {
	Score      *int `json:"score"`
	TableIndex *int `json:"tableIndex"`
}

func (p PizzaDeliveredPayload) Validate() error {
	if p.Score == nil {
		return fmt.Errorf("%w: score", ErrMissingField)
	}
	if p.TableIndex == nil {
		return fmt.Errorf("%w: tableIndex", ErrMissingField)
	}
	return nil
}

// NewCustomerPayload seats a customer at a table. The server sends it too
// when it revives a table.
type NewCustomerPayload struct {
	TableIndex    *int     `json:"tableIndex"`
	CustomerTimer *int64   `json:"customerTimer"`
	Order         []string `json:"order"`
}

func (p NewCustomerPayload) Validate() error {
	if p.TableIndex == nil {
		return fmt.Errorf("%w: tableIndex", ErrMissingField)
	}
	if p.CustomerTimer == nil {
		return fmt.Errorf("%w: customerTimer", ErrMissingField)
	}
	return nil
}

// LevelUpPayload raises the level and may unlock another table
type LevelUpPayload struct {
	Level    *int           `json:"level"`
	NewTable *kitchen.Table `json:"newTable,omitempty"`
}

func (p LevelUpPayload) Validate() error {
	if p.Level == nil {
		return fmt.Errorf("%w: level", ErrMissingField)
	}
	if *p.Level < 1 {
		return fmt.Errorf("level must be at least 1, got %d", *p.Level)
	}
	return nil
}

// RoomCreatedPayload tells the creator its room code
type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

// AssignPlayerPayload seats a connection and hands it the current game
type AssignPlayerPayload struct {
	PlayerID  int                `json:"playerId"`
	Players   []kitchen.Avatar   `json:"players"`
	GameState *kitchen.GameState `json:"gameState"`
}

// PizzaBurnedPayload is emitted by the tick when a bake times out
type PizzaBurnedPayload struct {
	Score int `json:"score"`
}

// CustomerLeftPayload is emitted by the tick when a customer runs out of patience
type CustomerLeftPayload struct {
	TableIndex int `json:"tableIndex"`
	Score      int `json:"score"`
}

// ErrorPayload reports a request the server could not fulfil
type ErrorPayload struct {
	Message string `json:"message"`
}
