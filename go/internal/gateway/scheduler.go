package gateway

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pizzeria/go/internal/kitchen/events"
	"github.com/rs/zerolog/log"
)

// revival is a pending one-shot timer that seats a new customer at a table
type revival struct {
	timer clockwork.Timer
}

// tick ages the timers of every live room. It must run on the hub goroutine.
func (h *Hub) tick() {
	now := h.clock.Now()

	for _, room := range h.registry.Rooms() {
		if room.State.BurnIfOverdue(now, h.rules.CookingTimeout, h.rules.Penalty) {
			log.Info().
				Str("room_code", room.Code).
				Int("score", room.State.TeamScore).
				Msg("pizza burned")
			h.broadcast(room, EventPizzaBurned, events.PizzaBurnedPayload{Score: room.State.TeamScore})
		}

		for _, departure := range room.State.DismissImpatient(now, h.rules.CustomerPatience, h.rules.Penalty) {
			log.Info().
				Str("room_code", room.Code).
				Int("table_index", departure.TableIndex).
				Int("score", departure.Score).
				Msg("customer left")
			h.broadcast(room, EventCustomerLeft, events.CustomerLeftPayload{
				TableIndex: departure.TableIndex,
				Score:      departure.Score,
			})
			h.scheduleRevival(room.ID, room.Code, departure.TableIndex)
		}
	}
}

// scheduleRevival arms a one-shot timer that queues the revival of a table on
// the hub goroutine once the revival delay has passed.
func (h *Hub) scheduleRevival(roomID uuid.UUID, code string, tableIndex int) {
	rv := &revival{}
	rv.timer = h.clock.AfterFunc(h.rules.RevivalDelay, func() {
		h.post(func() { h.reviveTable(roomID, code, tableIndex, rv) })
	})

	h.replaceTimer(roomID, tableIndex, rv)

	log.Debug().
		Str("room_code", code).
		Int("table_index", tableIndex).
		Dur("delay", h.rules.RevivalDelay).
		Msg("scheduled table revival")
}

// reviveTable seats a new customer unless the revival was cancelled or the
// room it belonged to is gone.
func (h *Hub) reviveTable(roomID uuid.UUID, code string, tableIndex int, rv *revival) {
	if h.revivals[roomID][tableIndex] != rv {
		log.Debug().Str("room_code", code).Int("table_index", tableIndex).Msg("revival cancelled - skipping")
		return
	}
	h.removeTimer(roomID, tableIndex)

	room, ok := h.registry.Get(code)
	if !ok || room.ID != roomID {
		log.Debug().Str("room_code", code).Msg("room no longer exists - skipping revival")
		return
	}

	table, err := room.State.ReviveTable(tableIndex, h.clock.Now(), h.registry.Rand())
	if err != nil {
		log.Warn().Err(err).Str("room_code", code).Msg("failed to revive table")
		return
	}

	timer := table.CustomerTimer
	h.broadcast(room, EventNewCustomer, events.NewCustomerPayload{
		TableIndex:    &tableIndex,
		CustomerTimer: &timer,
		Order:         table.Order,
	})
}

// replaceTimer stores a revival for a table, cancelling any existing one
func (h *Hub) replaceTimer(roomID uuid.UUID, tableIndex int, rv *revival) {
	tables, ok := h.revivals[roomID]
	if !ok {
		tables = make(map[int]*revival)
		h.revivals[roomID] = tables
	}

	if existing, exists := tables[tableIndex]; exists {
		stopAndDrainTimer(existing.timer)
		log.Debug().Int("table_index", tableIndex).Msg("replaced existing revival")
	}
	tables[tableIndex] = rv
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		// Timer already fired or was stopped, drain the channel
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// cancelRevivals stops every pending revival of a room
func (h *Hub) cancelRevivals(roomID uuid.UUID) {
	for tableIndex, rv := range h.revivals[roomID] {
		stopAndDrainTimer(rv.timer)
		log.Debug().Int("table_index", tableIndex).Msg("cancelled pending revival")
	}
	delete(h.revivals, roomID)
}

// removeTimer forgets a revival once it has fired
func (h *Hub) removeTimer(roomID uuid.UUID, tableIndex int) {
	tables, ok := h.revivals[roomID]
	if !ok {
		return
	}
	delete(tables, tableIndex)
	if len(tables) == 0 {
		delete(h.revivals, roomID)
	}
}

func (h *Hub) cancelAllRevivals() {
	for roomID := range h.revivals {
		h.cancelRevivals(roomID)
	}
}

// pendingRevivals counts armed revival timers
func (h *Hub) pendingRevivals() int {
	n := 0
	for _, tables := range h.revivals {
		n += len(tables)
	}
	return n
}
