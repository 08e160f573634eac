package types

// Client -> Server
//   join-game:   {}
//   paint:       x: number, y: number, color: "#rrggbb"
//   undo:        {}
//   clear:       {}
//   guess:       text: string
//   rename:      name: string
//   start-round: {}
//   room-state:  {}
//
// Server -> Client (every frame is {type, version?, payload?})
//   full-state-snapshot, pixel-updated, board-cleared, leaderboard,
//   role-assigned*, secret-word*, round-start, timer-update, round-won,
//   round-failed, name-changed, rejected*, identity*, user-count, room-state*
//
// * private to one connection

type EventType string

const (
	EvtFullState    EventType = "full-state-snapshot"
	EvtPixelUpdated EventType = "pixel-updated"
	EvtBoardCleared EventType = "board-cleared"
	EvtLeaderboard  EventType = "leaderboard"
	EvtRoleAssigned EventType = "role-assigned"
	EvtSecretWord   EventType = "secret-word"
	EvtRoundStart   EventType = "round-start"
	EvtTimerUpdate  EventType = "timer-update"
	EvtRoundWon     EventType = "round-won"
	EvtRoundFailed  EventType = "round-failed"
	EvtNameChanged  EventType = "name-changed"
	EvtRejected     EventType = "rejected"
	EvtIdentity     EventType = "identity"
	EvtUserCount    EventType = "user-count"
	EvtRoomState    EventType = "room-state"
)

// Reasons carried by a rejected event.
const (
	ReasonInvalidInput  = "INVALID_INPUT"
	ReasonUnauthorized  = "UNAUTHORIZED"
	ReasonNothingToUndo = "NOTHING_TO_UNDO"
	ReasonNameConflict  = "NAME_CONFLICT"
	ReasonWrongGuess    = "WRONG_GUESS"
	ReasonRoundNotReady = "ROUND_NOT_READY"
)

type ServerMessage struct {
	Type    EventType `json:"type"`
	Version int       `json:"version,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

func NewMessage(t EventType, payload any) ServerMessage {
	return ServerMessage{Type: t, Payload: payload}
}

func Reject(reason string) ServerMessage {
	return NewMessage(EvtRejected, Rejected{Reason: reason})
}
