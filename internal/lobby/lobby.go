// Package lobby runs one goroutine per room. Every client command, connect,
// disconnect and countdown tick for the room passes through its inbox, so
// the board and the round state are only ever touched from that goroutine.
package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pixlnary-backend/internal/board"
	"github.com/DoyleJ11/pixlnary-backend/internal/game"
	"github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	ClientID string
	Cmd      Command
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage // where this client wants to receive events
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// TimerFired is posted by the round countdown once per tick.
type TimerFired struct{ Gen uint64 }

func (TimerFired) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Code       string
	Version    int
	NumClients int
	Board      types.BoardState
	Round      game.Room
}

// Mirror receives every room broadcast. Private messages are never mirrored.
type Mirror interface {
	Mirror(room string, msg types.ServerMessage)
}

type Config struct {
	Code         string
	BoardSize    int
	Words        game.Picker
	Clock        clockwork.Clock
	RoundTicks   int
	TickInterval time.Duration
	Mirror       Mirror
	Log          *zap.Logger
	// CloseWhenEmpty stops the lobby once its last client has left.
	CloseWhenEmpty bool
}

type Lobby struct {
	code    string
	inbox   chan Msg
	store   *board.Store
	coord   *game.Coordinator
	version int
	clients map[string]chan types.ServerMessage
	dropped []string
	seen    bool
	closing bool
	mirror  Mirror
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	l := &Lobby{
		code:    cfg.Code,
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan types.ServerMessage),
		closing: cfg.CloseWhenEmpty,
		mirror:  cfg.Mirror,
		log:     cfg.Log.Named("lobby").With(zap.String("room", cfg.Code)),
		ctx:     ctx,
		cancel:  cancel,
	}
	l.coord = game.New(ctx, game.Config{
		Words:        cfg.Words,
		Notify:       notifier{l},
		Clock:        cfg.Clock,
		RoundTicks:   cfg.RoundTicks,
		TickInterval: cfg.TickInterval,
		Live:         l.connected,
		OnTick: func(_ string, gen uint64) {
			l.Send(ctx, TimerFired{Gen: gen})
		},
	})
	l.store = board.New(cfg.BoardSize, board.AuthorizerFunc(l.coord.CanDraw))

	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby has stopped.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Send posts m unless ctx or the lobby is finished first.
func (l *Lobby) Send(ctx context.Context, m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-ctx.Done():
		return false
	case <-l.ctx.Done():
		return false
	}
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.join(msg)

			case Leave:
				l.disconnect(msg.ClientID)

			case FromClient:
				if !l.connected(msg.ClientID) {
					break
				}
				l.handle(msg.ClientID, msg.Cmd)

			case TimerFired:
				l.coord.Tick(l.code, msg.Gen)

			case GetState:
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
			l.reap()
			if l.vacant() {
				l.log.Info("room empty, closing")
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) view() View {
	round, _ := l.coord.Room(l.code)
	return View{
		Code:       l.code,
		Version:    l.version,
		NumClients: len(l.clients),
		Board:      l.store.FullState(),
		Round:      round,
	}
}

// vacant reports whether a room that closes when empty has lost the last of
// the clients it once had.
func (l *Lobby) vacant() bool {
	if !l.closing || !l.seen || len(l.clients) > 0 {
		return false
	}
	round, _ := l.coord.Room(l.code)
	return round.Seats.Empty()
}

func (l *Lobby) connected(id string) bool {
	_, ok := l.clients[id]
	return ok
}

func (l *Lobby) join(msg Join) {
	if l.connected(msg.ClientID) {
		return
	}
	l.clients[msg.ClientID] = msg.Outbox
	l.seen = true
	p := l.store.Join(msg.ClientID)
	l.log.Info("client joined", zap.String("conn", msg.ClientID), zap.String("name", p.Name), zap.Int("players", l.store.Count()))

	l.send(msg.ClientID, types.NewMessage(types.EvtIdentity, types.Identity{ConnectionID: p.ID, Username: p.Name}))
	l.send(msg.ClientID, l.fullState())
	l.coord.AssignRole(msg.ClientID, l.code)
	l.broadcast(types.NewMessage(types.EvtUserCount, types.UserCount{Count: len(l.clients)}))
	l.broadcastLeaderboard()
}

// disconnect forgets a client whether it left on its own or was dropped.
func (l *Lobby) disconnect(id string) {
	if ch, ok := l.clients[id]; ok {
		close(ch)
		delete(l.clients, id)
	}
	l.coord.RemovePlayer(id)
	if !l.store.Leave(id) {
		return
	}
	l.log.Info("client left", zap.String("conn", id), zap.Int("players", l.store.Count()))
	l.broadcast(types.NewMessage(types.EvtUserCount, types.UserCount{Count: len(l.clients)}))
	l.broadcastLeaderboard()
}

// reap finishes disconnecting clients dropped for being slow. Their
// departure can itself drop more clients, so loop until none are left.
func (l *Lobby) reap() {
	for len(l.dropped) > 0 {
		id := l.dropped[0]
		l.dropped = l.dropped[1:]
		l.disconnect(id)
	}
}

func (l *Lobby) handle(id string, cmd Command) {
	switch cmd.Type {
	case CmdJoinGame:
		l.coord.AssignRole(id, l.code)

	case CmdPaint:
		upd, err := l.store.Paint(id, cmd.X, cmd.Y, cmd.Color)
		if err != nil {
			// paint rejections are silent
			l.log.Debug("paint dropped", zap.String("conn", id), zap.Error(err))
			return
		}
		l.version++
		l.broadcastBoard(types.NewMessage(types.EvtPixelUpdated, upd))
		l.broadcastLeaderboard()

	case CmdUndo:
		upd, err := l.store.Undo(id)
		if err != nil {
			l.reject(id, err)
			return
		}
		l.version++
		l.broadcastBoard(types.NewMessage(types.EvtPixelUpdated, upd))
		l.broadcastLeaderboard()

	case CmdClear:
		if !l.coord.CanClear(id) {
			l.reject(id, board.ErrUnauthorized)
			return
		}
		l.store.Clear()
		l.version++
		l.broadcastBoard(types.NewMessage(types.EvtBoardCleared, nil))
		l.broadcast(l.fullState())
		l.broadcastLeaderboard()

	case CmdGuess:
		if !l.coord.CanGuess(id) {
			l.reject(id, board.ErrUnauthorized)
			return
		}
		if !l.coord.HandleGuess(id, cmd.Text) {
			l.send(id, types.Reject(types.ReasonWrongGuess))
		}

	case CmdRename:
		change, err := l.store.Rename(id, cmd.Name)
		if err != nil {
			l.reject(id, err)
			return
		}
		l.send(id, types.NewMessage(types.EvtIdentity, types.Identity{ConnectionID: id, Username: change.Next}))
		if change.Previous == change.Next {
			return
		}
		l.version++
		l.broadcast(types.NewMessage(types.EvtNameChanged, change))
		l.broadcastLeaderboard()

	case CmdStartRound:
		if !l.coord.StartRound(l.code) {
			l.send(id, types.Reject(types.ReasonRoundNotReady))
		}

	case CmdRoomState:
		l.send(id, types.NewMessage(types.EvtRoomState, l.coord.RoomState(id)))

	default:
		l.send(id, types.Reject(types.ReasonInvalidInput))
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, board.ErrNothingToUndo):
		return types.ReasonNothingToUndo
	case errors.Is(err, board.ErrUnauthorized):
		return types.ReasonUnauthorized
	case errors.Is(err, board.ErrNameConflict):
		return types.ReasonNameConflict
	default:
		return types.ReasonInvalidInput
	}
}

func (l *Lobby) reject(id string, err error) {
	l.log.Debug("command rejected", zap.String("conn", id), zap.Error(err))
	l.send(id, types.Reject(reason(err)))
}

func (l *Lobby) fullState() types.ServerMessage {
	msg := types.NewMessage(types.EvtFullState, l.store.FullState())
	msg.Version = l.version
	return msg
}

func (l *Lobby) broadcastBoard(msg types.ServerMessage) {
	msg.Version = l.version
	l.broadcast(msg)
}

func (l *Lobby) broadcastLeaderboard() {
	l.broadcast(types.NewMessage(types.EvtLeaderboard, types.Leaderboard{Entries: l.store.Leaderboard()}))
}

func (l *Lobby) shutdown() {
	l.coord.Shutdown()
	for id, ch := range l.clients {
		close(ch) // Tell client no more events
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	if l.mirror != nil {
		l.mirror.Mirror(l.code, msg)
	}
	for id := range l.clients {
		l.send(id, msg)
	}
}

func (l *Lobby) send(id string, msg types.ServerMessage) {
	ch, ok := l.clients[id]
	if !ok {
		return
	}
	select {
	case ch <- msg:
		//ok
	default:
		// Client is slow/full - drop them.
		l.log.Warn("dropping slow client", zap.String("conn", id))
		close(ch)
		delete(l.clients, id)
		l.dropped = append(l.dropped, id)
	}
}

// notifier lets the coordinator reach clients through the lobby.
type notifier struct{ l *Lobby }

func (n notifier) Broadcast(_ string, msg types.ServerMessage) { n.l.broadcast(msg) }

func (n notifier) Send(connID string, msg types.ServerMessage) { n.l.send(connID, msg) }
