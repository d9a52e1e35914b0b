package kitchen

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GameState is the authoritative state shared by both players of a room
type GameState struct {
	TeamScore        int      `json:"teamScore"`
	Level            int      `json:"level"`
	TeamIngredients  []string `json:"teamIngredients"`
	IngredientOrder  []string `json:"ingredientOrder"`
	IsCooking        bool     `json:"isCooking"`
	CookingStartTime *int64   `json:"cookingStartTime"`
	Tables           []Table  `json:"tables"`
}

// CustomerDeparture describes a table whose customer ran out of patience
type CustomerDeparture struct {
	TableIndex int
	Score      int // team score right after this departure's penalty
}

// canonical table placements for a new game
var startingTables = [...]struct{ x, y, w, h float64 }{
	{x: 80, y: 280, w: 80, h: 80},
	{x: 280, y: 280, w: 80, h: 80},
}

// NewGameState returns a level 1 game with two freshly seated customers
func NewGameState(now time.Time, rng *rand.Rand) *GameState {
	tables := make([]Table, 0, len(startingTables))
	for _, t := range startingTables {
		tables = append(tables, Table{
			X:             t.x,
			Y:             t.y,
			Width:         t.w,
			Height:        t.h,
			HasCustomer:   true,
			CustomerTimer: now.UnixMilli(),
			Order:         RandomOrder(rng),
		})
	}

	return &GameState{
		TeamScore:       0,
		Level:           1,
		TeamIngredients: []string{},
		IngredientOrder: []string{},
		Tables:          tables,
	}
}

// PickIngredient adds an ingredient to the pizza being built and records the
// recipe order the client reported
func (g *GameState) PickIngredient(ingredient string, order []string) {
	g.TeamIngredients = append(g.TeamIngredients, ingredient)
	g.IngredientOrder = append([]string{}, order...)
}

// StartCooking marks the oven busy from startTime (unix ms)
func (g *GameState) StartCooking(startTime int64) {
	g.IsCooking = true
	g.CookingStartTime = &startTime
}

// ClearCooking empties the oven and the ingredient buffers
func (g *GameState) ClearCooking() {
	g.IsCooking = false
	g.CookingStartTime = nil
	g.TeamIngredients = []string{}
	g.IngredientOrder = []string{}
}

// DeliverPizza records the client-reported score and frees the table
func (g *GameState) DeliverPizza(score, tableIndex int) error {
	if err := g.checkTable(tableIndex); err != nil {
		return err
	}
	g.TeamScore = score
	g.Tables[tableIndex].HasCustomer = false
	return nil
}

// SeatCustomer overwrites the customer fields of a table
func (g *GameState) SeatCustomer(tableIndex int, customerTimer int64, order []string) error {
	if err := g.checkTable(tableIndex); err != nil {
		return err
	}
	t := &g.Tables[tableIndex]
	t.HasCustomer = true
	t.CustomerTimer = customerTimer
	t.Order = append([]string{}, order...)
	return nil
}

// LevelUp sets the level and appends the unlocked table, if any
func (g *GameState) LevelUp(level int, newTable *Table) {
	g.Level = level
	if newTable != nil {
		t := *newTable
		if t.Order == nil {
			t.Order = []string{}
		}
		g.Tables = append(g.Tables, t)
	}
}

// BurnIfOverdue fails a bake that has run for at least timeout and applies
// the penalty. It reports whether the pizza burned.
func (g *GameState) BurnIfOverdue(now time.Time, timeout time.Duration, penalty int) bool {
	if !g.IsCooking || g.CookingStartTime == nil || *g.CookingStartTime == 0 {
		return false
	}
	if now.UnixMilli()-*g.CookingStartTime < timeout.Milliseconds() {
		return false
	}
	g.ClearCooking()
	g.TeamScore -= penalty
	return true
}

// DismissImpatient sends away every customer that has waited longer than
// patience, charging the penalty once per table. A zero customer timer is
// treated as unset, like a zero cooking start time.
func (g *GameState) DismissImpatient(now time.Time, patience time.Duration, penalty int) []CustomerDeparture {
	var departures []CustomerDeparture
	nowMs := now.UnixMilli()
	for i := range g.Tables {
		t := &g.Tables[i]
		// a customer seated without a timer never runs out of patience
		if !t.HasCustomer || t.CustomerTimer == 0 || nowMs-t.CustomerTimer <= patience.Milliseconds() {
			continue
		}
		t.HasCustomer = false
		g.TeamScore -= penalty
		departures = append(departures, CustomerDeparture{TableIndex: i, Score: g.TeamScore})
	}
	return departures
}

// ReviveTable seats a new customer with a fresh random order
func (g *GameState) ReviveTable(tableIndex int, now time.Time, rng *rand.Rand) (Table, error) {
	if err := g.checkTable(tableIndex); err != nil {
		return Table{}, err
	}
	t := &g.Tables[tableIndex]
	t.HasCustomer = true
	t.CustomerTimer = now.UnixMilli()
	t.Order = RandomOrder(rng)
	return *t, nil
}

func (g *GameState) checkTable(tableIndex int) error {
	if tableIndex < 0 || tableIndex >= len(g.Tables) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidTableIndex, tableIndex, len(g.Tables))
	}
	return nil
}
