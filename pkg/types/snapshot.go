package types

// BoardState is the full-state-snapshot payload. Empty strings mark cells
// nobody has painted.
type BoardState struct {
	Size        int                `json:"size"`
	Pixels      [][]string         `json:"pixels"`
	Owners      [][]string         `json:"owners"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type PixelUpdate struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
	Owner string `json:"owner"`
}

type LeaderboardEntry struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

type NameChange struct {
	ConnectionID string `json:"connectionId"`
	Previous     string `json:"previous"`
	Next         string `json:"next"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

type RoleAssigned struct {
	Role string `json:"role"`
}

type SecretWord struct {
	Word string `json:"word"`
}

type RoundStart struct {
	Drawer  string `json:"drawer"`
	Guesser string `json:"guesser"`
	Seconds int    `json:"seconds"`
}

type TimerUpdate struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

type RoundWon struct {
	WinnerID string `json:"winnerId"`
	Word     string `json:"word"`
}

type RoundFailed struct {
	Word string `json:"word"`
}

type Rejected struct {
	Reason string `json:"reason"`
}

type Identity struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
}

type UserCount struct {
	Count int `json:"count"`
}

type RoomState struct {
	Role             string `json:"role"`
	RoundActive      bool   `json:"roundActive"`
	SecretWord       string `json:"secretWord,omitempty"`
	SecondsRemaining int    `json:"secondsRemaining"`
}
