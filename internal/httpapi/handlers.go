package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pixlnary-backend/internal/hub"
	"github.com/DoyleJ11/pixlnary-backend/internal/lobby"
	events "github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

const codeLength = 6

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// CreateRoom starts a lobby under a fresh random code.
func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			if h.Lobby(r.Context(), c, false) == nil {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("room", c))
		}

		if h.Lobby(r.Context(), code, true) == nil {
			writeError(w, http.StatusServiceUnavailable, "failed to create room")
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func view(ctx context.Context, h *hub.Hub, code string) (lobby.View, bool) {
	lb := h.Lobby(ctx, code, false)
	if lb == nil {
		return lobby.View{}, false
	}
	reply := make(chan lobby.View, 1)
	if !lb.Send(ctx, lobby.GetState{Reply: reply}) {
		return lobby.View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		return lobby.View{}, false
	case <-lb.Done():
		return lobby.View{}, false
	}
}

// Snapshot returns the room's board in the same shape as the
// full-state-snapshot event.
func Snapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := view(r.Context(), h, chi.URLParam(r, "code"))
		if !ok {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		msg := events.NewMessage(events.EvtFullState, v.Board)
		msg.Version = v.Version
		writeJSON(w, http.StatusOK, msg)
	}
}

type roomStats struct {
	Code             string `json:"code"`
	Clients          int    `json:"clients"`
	Version          int    `json:"version"`
	RoundActive      bool   `json:"roundActive"`
	SecondsRemaining int    `json:"secondsRemaining"`
	HasDrawer        bool   `json:"hasDrawer"`
	HasGuesser       bool   `json:"hasGuesser"`
	Spectators       int    `json:"spectators"`
}

func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := view(r.Context(), h, chi.URLParam(r, "code"))
		if !ok {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeJSON(w, http.StatusOK, roomStats{
			Code:             v.Code,
			Clients:          v.NumClients,
			Version:          v.Version,
			RoundActive:      v.Round.RoundActive,
			SecondsRemaining: v.Round.Remaining,
			HasDrawer:        v.Round.Seats.Drawer != "",
			HasGuesser:       v.Round.Seats.Guesser != "",
			Spectators:       len(v.Round.Seats.Spectators),
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
