// Package game owns seats and the round lifecycle: who draws, who guesses,
// the secret word, and the countdown that ends a round nobody wins.
//
// A Coordinator is not safe for concurrent use. It is driven from a single
// goroutine (the room's lobby loop); the countdown goroutines only report
// ticks through OnTick and never touch room state.
package game

import (
	"context"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

const (
	DefaultRoundTicks   = 60
	DefaultTickInterval = time.Second
)

type Notifier interface {
	Broadcast(roomID string, msg types.ServerMessage)
	Send(connID string, msg types.ServerMessage)
}

type Picker interface {
	Pick() string
}

type Config struct {
	Words        Picker
	Notify       Notifier
	Clock        clockwork.Clock
	RoundTicks   int
	TickInterval time.Duration
	// Live reports whether a connection is still attached. Nil treats
	// everyone as live.
	Live func(connID string) bool
	// OnTick is called from the countdown goroutine once per interval. The
	// owner feeds it back into Tick on the coordinator's goroutine.
	OnTick func(roomID string, gen uint64)
}

type Room struct {
	ID          string
	Seats       Seats
	SecretWord  string
	RoundActive bool
	RoundStart  time.Time
	Remaining   int

	gen  uint64
	stop context.CancelFunc
}

type Coordinator struct {
	cfg      Config
	ctx      context.Context
	rooms    map[string]*Room
	connRoom map[string]string
	connRole map[string]Role
}

func New(ctx context.Context, cfg Config) *Coordinator {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.RoundTicks <= 0 {
		cfg.RoundTicks = DefaultRoundTicks
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Live == nil {
		cfg.Live = func(string) bool { return true }
	}
	if cfg.OnTick == nil {
		cfg.OnTick = func(string, uint64) {}
	}
	return &Coordinator{
		cfg:      cfg,
		ctx:      ctx,
		rooms:    make(map[string]*Room),
		connRoom: make(map[string]string),
		connRole: make(map[string]Role),
	}
}

func (c *Coordinator) room(roomID string) *Room {
	r, ok := c.rooms[roomID]
	if !ok {
		r = &Room{ID: roomID}
		c.rooms[roomID] = r
	}
	return r
}

func (c *Coordinator) sendRole(connID string, role Role) {
	c.cfg.Notify.Send(connID, types.NewMessage(types.EvtRoleAssigned, types.RoleAssigned{Role: string(role)}))
}

// AssignRole seats connID in roomID and tells it its role. Calling it again
// for a seated connection re-sends the same role.
func (c *Coordinator) AssignRole(connID, roomID string) Role {
	if prev, ok := c.connRoom[connID]; ok && prev != roomID {
		c.RemovePlayer(connID)
	}
	r := c.room(roomID)
	seats, role := r.Seats.Assign(connID, c.cfg.Live)
	r.Seats = seats

	c.connRoom[connID] = roomID
	c.connRole[connID] = role
	c.sendRole(connID, role)
	return role
}

// RemovePlayer unseats connID and promotes whoever moves up. Round state is
// left as is, even when the drawer leaves mid-round.
func (c *Coordinator) RemovePlayer(connID string) {
	roomID, ok := c.connRoom[connID]
	if !ok {
		return
	}
	delete(c.connRoom, connID)
	delete(c.connRole, connID)

	r, ok := c.rooms[roomID]
	if !ok {
		return
	}
	seats, promoted := r.Seats.Remove(connID)
	r.Seats = seats
	for _, p := range promoted {
		c.connRole[p.ConnID] = p.Role
		c.sendRole(p.ConnID, p.Role)
	}
}

// StartRound begins a round when both a drawer and a guesser are seated.
// An active round is ended as a timeout first.
func (c *Coordinator) StartRound(roomID string) bool {
	r, ok := c.rooms[roomID]
	if !ok || r.Seats.Drawer == "" || r.Seats.Guesser == "" {
		return false
	}
	if r.RoundActive {
		c.EndRound(roomID, false, "")
	}

	r.SecretWord = c.cfg.Words.Pick()
	r.RoundActive = true
	r.RoundStart = c.cfg.Clock.Now()

	c.cfg.Notify.Send(r.Seats.Drawer, types.NewMessage(types.EvtSecretWord, types.SecretWord{Word: r.SecretWord}))
	c.cfg.Notify.Broadcast(roomID, types.NewMessage(types.EvtRoundStart, types.RoundStart{
		Drawer:  r.Seats.Drawer,
		Guesser: r.Seats.Guesser,
		Seconds: c.cfg.RoundTicks,
	}))
	c.startCountdown(r)
	return true
}

func (c *Coordinator) startCountdown(r *Room) {
	c.stopCountdown(r)
	r.gen++
	r.Remaining = c.cfg.RoundTicks
	c.cfg.Notify.Broadcast(r.ID, timerUpdate(r.Remaining))

	ctx, cancel := context.WithCancel(c.ctx)
	r.stop = cancel

	ticker := c.cfg.Clock.NewTicker(c.cfg.TickInterval)
	roomID, gen, onTick := r.ID, r.gen, c.cfg.OnTick
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				onTick(roomID, gen)
			}
		}
	}()
}

func (c *Coordinator) stopCountdown(r *Room) {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	// any tick already in flight now carries a stale generation
	r.gen++
}

func timerUpdate(remaining int) types.ServerMessage {
	return types.NewMessage(types.EvtTimerUpdate, types.TimerUpdate{SecondsRemaining: remaining})
}

// Tick advances the countdown of roomID. Ticks from a cancelled countdown
// are ignored.
func (c *Coordinator) Tick(roomID string, gen uint64) {
	r, ok := c.rooms[roomID]
	if !ok || !r.RoundActive || gen != r.gen || r.Remaining <= 0 {
		return
	}
	r.Remaining--
	c.cfg.Notify.Broadcast(roomID, timerUpdate(r.Remaining))
	if r.Remaining == 0 {
		c.EndRound(roomID, false, "")
	}
}

func (c *Coordinator) CanGuess(connID string) bool {
	r := c.roomOf(connID)
	return r != nil && r.RoundActive && r.SecretWord != "" && c.connRole[connID] == RoleGuesser
}

// HandleGuess reports whether text matched the secret word, ignoring case
// and surrounding whitespace. A match ends the round as a win.
func (c *Coordinator) HandleGuess(connID, text string) bool {
	if !c.CanGuess(connID) {
		return false
	}
	r := c.roomOf(connID)
	if !strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(r.SecretWord)) {
		return false
	}
	c.EndRound(r.ID, true, connID)
	return true
}

// EndRound is a no-op when no round is active.
func (c *Coordinator) EndRound(roomID string, won bool, winnerID string) {
	r, ok := c.rooms[roomID]
	if !ok || !r.RoundActive {
		return
	}
	c.stopCountdown(r)
	word := r.SecretWord

	r.SecretWord = ""
	r.RoundActive = false
	r.RoundStart = time.Time{}
	r.Remaining = 0

	if won {
		c.cfg.Notify.Broadcast(roomID, types.NewMessage(types.EvtRoundWon, types.RoundWon{WinnerID: winnerID, Word: word}))
		return
	}
	c.cfg.Notify.Broadcast(roomID, types.NewMessage(types.EvtRoundFailed, types.RoundFailed{Word: word}))
}

func (c *Coordinator) roomOf(connID string) *Room {
	roomID, ok := c.connRoom[connID]
	if !ok {
		return nil
	}
	return c.rooms[roomID]
}

func (c *Coordinator) Role(connID string) Role {
	if role, ok := c.connRole[connID]; ok {
		return role
	}
	return RoleSpectator
}

func (c *Coordinator) CanDraw(connID string) bool {
	r := c.roomOf(connID)
	return r != nil && r.RoundActive && c.connRole[connID] == RoleDrawer
}

// CanClear lets anyone clear between rounds and only the drawer during one.
func (c *Coordinator) CanClear(connID string) bool {
	r := c.roomOf(connID)
	if r == nil || !r.RoundActive {
		return true
	}
	return c.connRole[connID] == RoleDrawer
}

// RoomState is the caller's view of its room. Only the drawer sees the word.
func (c *Coordinator) RoomState(connID string) types.RoomState {
	role := c.Role(connID)
	st := types.RoomState{Role: string(role)}
	r := c.roomOf(connID)
	if r == nil {
		return st
	}
	st.RoundActive = r.RoundActive
	st.SecondsRemaining = r.Remaining
	if role == RoleDrawer {
		st.SecretWord = r.SecretWord
	}
	return st
}

// Room returns a copy of the room's state.
func (c *Coordinator) Room(roomID string) (Room, bool) {
	r, ok := c.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	cp := *r
	cp.Seats.Spectators = append([]string(nil), r.Seats.Spectators...)
	cp.stop = nil
	return cp, true
}

// Shutdown stops every running countdown.
func (c *Coordinator) Shutdown() {
	for _, r := range c.rooms {
		c.stopCountdown(r)
	}
}
