package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/pixlnary-backend/internal/hub"
	"github.com/DoyleJ11/pixlnary-backend/internal/lobby"
	"github.com/DoyleJ11/pixlnary-backend/internal/types"
	events "github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

const (
	writeTimeout = 3 * time.Second
	readLimit    = 4096
	maxRoomCode  = 64
)

type Options struct {
	DefaultRoom    string
	AllowedOrigins []string
	InboundRate    float64
	InboundBurst   int
	OutboxSize     int
	PingInterval   time.Duration
	Log            *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.DefaultRoom == "" {
		o.DefaultRoom = "pixlnary"
	}
	if o.InboundRate <= 0 {
		o.InboundRate = 20
	}
	if o.InboundBurst <= 0 {
		o.InboundBurst = 40
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 256
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// acceptOptions turns configured origins ("http://localhost:5173" or "*")
// into the host patterns websocket.Accept checks against.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, o := range origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
			continue
		}
		opts.OriginPatterns = append(opts.OriginPatterns, o)
	}
	return opts
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()
	log := opts.Log.Named("ws")
	accept := acceptOptions(opts.AllowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("room")
		if code == "" {
			code = opts.DefaultRoom
		}
		if len(code) > maxRoomCode {
			http.Error(w, "room code too long", http.StatusBadRequest)
			return
		}

		lb := h.Lobby(r.Context(), code, true)
		if lb == nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, accept)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		clientID := uuid.NewString()
		clog := log.With(zap.String("room", code), zap.String("conn", clientID))
		out := make(chan events.ServerMessage, opts.OutboxSize)

		if !lb.Send(ctx, lobby.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusTryAgainLater, "room closed")
			return
		}
		defer lb.Send(context.Background(), lobby.Leave{ClientID: clientID})

		go writeLoop(ctx, cancel, conn, out, lb.Done(), opts.PingInterval, clog)
		readLoop(ctx, conn, lb, clientID, rate.NewLimiter(rate.Limit(opts.InboundRate), opts.InboundBurst), clog)
	}
}

// writeLoop is the only writer of lobby events to conn. It exits when the
// lobby closes the outbox or stops, or a write fails.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan events.ServerMessage, lobbyDone <-chan struct{}, ping time.Duration, log *zap.Logger) {
	defer cancel()
	ticker := time.NewTicker(ping)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-lobbyDone:
			// the room closed before our join was seen
			conn.Close(websocket.StatusGoingAway, "room closed")
			return

		case msg, ok := <-out:
			if !ok {
				// lobby dropped us or shut down
				conn.Close(websocket.StatusGoingAway, "disconnected")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, msg)
			wcancel()
			if err != nil {
				log.Debug("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				log.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn, lb *lobby.Lobby, clientID string, limiter *rate.Limiter, log *zap.Logger) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Debug("read ended", zap.Error(err))
			}
			return
		}

		if !limiter.Allow() {
			log.Debug("frame dropped by rate limit")
			continue
		}

		var cm types.ClientMessage
		err = json.Unmarshal(data, &cm)
		if err == nil {
			err = cm.Validate()
		}
		if err != nil {
			if frameType(data) == string(lobby.CmdPaint) {
				// bad paints are dropped like any other rejected paint
				log.Debug("paint dropped", zap.Error(err))
				continue
			}
			reject(ctx, conn, events.ReasonInvalidInput)
			continue
		}

		if !lb.Send(ctx, lobby.FromClient{ClientID: clientID, Cmd: toCommand(cm)}) {
			return
		}
	}
}

// frameType reads only the type field, so it survives a frame whose other
// fields fail to decode.
func frameType(data []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(data, &head) != nil {
		return ""
	}
	return head.Type
}

func reject(ctx context.Context, conn *websocket.Conn, reason string) {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = wsjson.Write(wctx, conn, events.Reject(reason))
}

func toCommand(m types.ClientMessage) lobby.Command {
	cmd := lobby.Command{Type: lobby.CommandType(m.Type)}
	switch cmd.Type {
	case lobby.CmdPaint:
		cmd.X, cmd.Y, cmd.Color = *m.X, *m.Y, m.Color
	case lobby.CmdGuess:
		cmd.Text = m.Text
	case lobby.CmdRename:
		cmd.Name = m.Name
	}
	return cmd
}
