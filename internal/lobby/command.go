package lobby

type CommandType string

const (
	CmdJoinGame   CommandType = "join-game"
	CmdPaint      CommandType = "paint"
	CmdUndo       CommandType = "undo"
	CmdClear      CommandType = "clear"
	CmdGuess      CommandType = "guess"
	CmdRename     CommandType = "rename"
	CmdStartRound CommandType = "start-round"
	CmdRoomState  CommandType = "room-state"
)

// Command is a validated client action. Only the fields its Type needs are
// set.
type Command struct {
	Type  CommandType
	X     int
	Y     int
	Color string
	Text  string
	Name  string
}
