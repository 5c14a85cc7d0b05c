/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

// Messages coming from clients
type ClientMessage struct {
	Type        string   `json:"type"`                  // "createRoom", "joinRoom", "startGame", "submitNumber", "playerReady", "leaveRoom"
	Name        string   `json:"name,omitempty"`        // createRoom / joinRoom
	TotalRounds *int     `json:"totalRounds,omitempty"` // createRoom
	Factor      *float64 `json:"factor,omitempty"`      // createRoom
	RoomCode    string   `json:"roomCode,omitempty"`    // everything but createRoom
	Number      *float64 `json:"number,omitempty"`      // submitNumber
}

// Output is what a transition produces: an optional reply to the caller,
// and messages for every connection in the room, in order.
type Output struct {
	Reply     any
	Broadcast []any
	Closed    bool
}

// PlayerView is a player as shown to clients.
type PlayerView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	LastChoice *int    `json:"lastChoice"`
	IsHost     bool    `json:"isHost"`
	Submitted  bool    `json:"submitted"`
	Ready      bool    `json:"ready"`
}

// Snapshot is the full room state sent with roomUpdate and friends.
type Snapshot struct {
	Code         string       `json:"code"`
	HostID       string       `json:"hostId"`
	Factor       float64      `json:"factor"`
	TotalRounds  int          `json:"totalRounds"`
	CurrentRound int          `json:"currentRound"`
	Status       Status       `json:"status"`
	Players      []PlayerView `json:"players"`
}

// Replies, sent only to the connection that asked.

type RoomCreatedMessage struct {
	Type     string   `json:"type"` // "roomCreated"
	PlayerID string   `json:"playerId"`
	RoomCode string   `json:"roomCode"`
	IsHost   bool     `json:"isHost"`
	Room     Snapshot `json:"room"`
}

type RoomJoinedMessage struct {
	Type     string   `json:"type"` // "roomJoined"
	PlayerID string   `json:"playerId"`
	RoomCode string   `json:"roomCode"`
	IsHost   bool     `json:"isHost"`
	Room     Snapshot `json:"room"`
}

type RoomLeftMessage struct {
	Type     string `json:"type"` // "roomLeft"
	RoomCode string `json:"roomCode"`
}

// ErrorMessage is sent to a single client when one of its actions fails.
type ErrorMessage struct {
	Type    string `json:"type"`    // "error"
	Action  string `json:"action"`  // the client message type that failed
	Code    string `json:"code"`    // see Code
	Message string `json:"message"` // user-facing text
}

func NewErrorMessage(action string, err error) ErrorMessage {
	return ErrorMessage{
		Type:    "error",
		Action:  action,
		Code:    Code(err),
		Message: err.Error(),
	}
}

// Broadcasts, sent to every connection in a room.

type RoomUpdateMessage struct {
	Type string   `json:"type"` // "roomUpdate"
	Room Snapshot `json:"room"`
}

type GameStartedMessage struct {
	Type string   `json:"type"` // "gameStarted"
	Room Snapshot `json:"room"`
}

type RoundStartedMessage struct {
	Type         string `json:"type"` // "roundStarted"
	CurrentRound int    `json:"currentRound"`
	TotalRounds  int    `json:"totalRounds"`
}

type BreakdownEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Choice   *int     `json:"choice"`
	Distance *float64 `json:"distance"`
	Loss     float64  `json:"loss"`
	Score    float64  `json:"score"`
}

type RoundResultMessage struct {
	Type            string           `json:"type"` // "roundResult"
	Round           int              `json:"round"`
	Avg             float64          `json:"avg"`
	Target          float64          `json:"target"`
	Factor          float64          `json:"factor"`
	WinnerID        *string          `json:"winnerId"`
	WinnerName      *string          `json:"winnerName"`
	PlayerBreakdown []BreakdownEntry `json:"playerBreakdown"`
}

type ReadyUpdateMessage struct {
	Type         string `json:"type"` // "readyUpdate"
	ReadyCount   int    `json:"readyCount"`
	TotalPlayers int    `json:"totalPlayers"`
}

type LeaderboardEntry struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type GameFinishedMessage struct {
	Type        string             `json:"type"` // "gameFinished"
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type RoomClosedMessage struct {
	Type string `json:"type"` // "roomClosed"
}

func newRoundResultMessage(round int, o Outcome) RoundResultMessage {
	msg := RoundResultMessage{
		Type:            "roundResult",
		Round:           round,
		Avg:             o.Average,
		Target:          o.Target,
		Factor:          o.Factor,
		PlayerBreakdown: make([]BreakdownEntry, 0, len(o.Results)),
	}

	if o.HasWinner() {
		id, name := o.WinnerID, o.WinnerName
		msg.WinnerID = &id
		msg.WinnerName = &name
	}

	for _, r := range o.Results {
		entry := BreakdownEntry{
			ID:    r.PlayerID,
			Name:  r.Name,
			Loss:  round2(r.Loss),
			Score: round2(r.Score),
		}
		if r.Submitted {
			choice := r.Choice
			distance := round2(r.Distance)
			entry.Choice = &choice
			entry.Distance = &distance
		}
		msg.PlayerBreakdown = append(msg.PlayerBreakdown, entry)
	}

	return msg
}
