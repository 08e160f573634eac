// Package hub keeps the registry of running lobbies, one per room code.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/pixlnary-backend/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby returns the room's lobby, starting it on first use.
type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type ListLobbies struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	base    lobby.Config
	pinned  map[string]bool
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub starts the registry. base is copied into every lobby it creates
// with Code set to the room code. Pinned rooms live until the hub stops;
// every other room closes once its last client leaves.
func NewHub(parent context.Context, base lobby.Config, pinned ...string) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if base.Log == nil {
		base.Log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		base:    base,
		pinned:  make(map[string]bool, len(pinned)),
		log:     base.Log.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, code := range pinned {
		h.pinned[code] = true
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Lobby asks the hub for a room's lobby, creating it when create is set.
// It returns nil when the room does not exist or ctx ends first.
func (h *Hub) Lobby(ctx context.Context, code string, create bool) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	var msg HubMsg = GetLobby{Code: code, Reply: reply}
	if create {
		msg = EnsureLobby{Code: code, Reply: reply}
	}
	select {
	case h.inbox <- msg:
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLobby:
				msg.Reply <- h.live(msg.Code) // May be nil

			case EnsureLobby:
				if lb := h.live(msg.Code); lb != nil {
					msg.Reply <- lb
					break
				}
				cfg := h.base
				cfg.Code = msg.Code
				cfg.CloseWhenEmpty = !h.pinned[msg.Code]
				lb := lobby.NewLobby(h.ctx, cfg)
				h.lobbies[msg.Code] = lb
				h.log.Info("lobby started", zap.String("room", msg.Code))
				msg.Reply <- lb

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					lb.Send(h.ctx, lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
				}

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					if h.live(code) != nil {
						codes = append(codes, code)
					}
				}
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// live returns the registered lobby unless it has already stopped.
func (h *Hub) live(code string) *lobby.Lobby {
	lb := h.lobbies[code]
	if lb == nil {
		return nil
	}
	select {
	case <-lb.Done():
		delete(h.lobbies, code)
		return nil
	default:
		return lb
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		default:
			// inbox full; cancelling h.ctx below stops it anyway
		}
	}
	clear(h.lobbies)
	h.cancel()
}
