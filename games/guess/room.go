/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// MaxFactor bounds |factor| so every settled value stays finite on the wire.
const MaxFactor = 1e6

// Config is chosen by the host when the room is created.
type Config struct {
	TotalRounds int
	Factor      float64
}

func (c Config) validate() error {
	if c.TotalRounds < 1 {
		return fmt.Errorf("%w: total rounds must be at least 1, got %d", ErrInvalidInput, c.TotalRounds)
	}
	if math.IsNaN(c.Factor) || math.Abs(c.Factor) > MaxFactor {
		return fmt.Errorf("%w: factor must be between %g and %g, got %v", ErrInvalidInput, -MaxFactor, MaxFactor, c.Factor)
	}
	return nil
}

// Player holds the data we store server-side
type Player struct {
	ID         string
	Name       string
	Score      float64
	LastChoice *int
}

// Room is a single game session. All exported methods are safe for
// concurrent use; each runs as one indivisible transition.
type Room struct {
	mu sync.Mutex

	code   string
	hostID string
	cfg    Config

	status Status
	round  int

	order   []string // player IDs in join order
	players map[string]*Player

	choices   map[string]int
	submitted *Barrier[string]
	ready     *Barrier[string]
	settled   bool

	closed     bool
	lastActive time.Time

	now  func() time.Time
	logf func(format string, args ...any)
}

func newRoom(code, hostID, hostName string, cfg Config, now func() time.Time, logf func(string, ...any)) *Room {
	r := &Room{
		code:       code,
		hostID:     hostID,
		cfg:        cfg,
		status:     StatusWaiting,
		players:    make(map[string]*Player),
		choices:    make(map[string]int),
		submitted:  NewBarrier[string](),
		ready:      NewBarrier[string](),
		lastActive: now(),
		now:        now,
		logf:       logf,
	}
	r.addPlayerLocked(hostID, hostName)

	return r
}

func (r *Room) Code() string { return r.code }

func (r *Room) HostID() string { return r.hostID }

func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastActive
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

// Player returns a copy of the player with the given id.
func (r *Room) Player(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}

	return *p, true
}

func (r *Room) createdLocked() Output {
	snap := r.snapshotLocked()

	return Output{
		Reply: RoomCreatedMessage{
			Type:     "roomCreated",
			PlayerID: r.hostID,
			RoomCode: r.code,
			IsHost:   true,
			Room:     snap,
		},
		Broadcast: []any{RoomUpdateMessage{Type: "roomUpdate", Room: snap}},
	}
}

// Join adds a player. Joining after the game has started is allowed; the
// newcomer sits out until the next round begins.
func (r *Room) Join(id, name string) (Output, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Output{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Output{}, ErrRoomNotFound
	}
	if r.status == StatusFinished {
		return Output{}, fmt.Errorf("%w: game has already finished", ErrInvalidState)
	}
	if _, ok := r.players[id]; ok {
		return Output{}, fmt.Errorf("%w: already in this room", ErrInvalidState)
	}

	r.touchLocked()
	r.addPlayerLocked(id, name)

	r.logf("GAMES: Player %q joined %s", name, r.code)

	snap := r.snapshotLocked()

	return Output{
		Reply: RoomJoinedMessage{
			Type:     "roomJoined",
			PlayerID: id,
			RoomCode: r.code,
			IsHost:   id == r.hostID,
			Room:     snap,
		},
		Broadcast: []any{RoomUpdateMessage{Type: "roomUpdate", Room: snap}},
	}, nil
}

// Start moves a waiting room into its first round.
func (r *Room) Start(requesterID string) (Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Output{}, ErrRoomNotFound
	}
	if requesterID != r.hostID {
		return Output{}, ErrNotHost
	}
	if r.status != StatusWaiting {
		return Output{}, fmt.Errorf("%w: game has already started", ErrInvalidState)
	}
	if len(r.order) < 2 {
		return Output{}, ErrInsufficientPlayers
	}

	r.touchLocked()
	r.status = StatusInProgress
	r.round = 1
	r.beginRoundLocked()

	r.logf("GAMES: Started %s with %d players", r.code, len(r.order))

	return Output{
		Broadcast: []any{
			GameStartedMessage{Type: "gameStarted", Room: r.snapshotLocked()},
			r.roundStartedLocked(),
		},
	}, nil
}

// Submit records a player's number for the current round, replacing any
// earlier one. The submission that completes the round settles it.
func (r *Room) Submit(id string, number int) (Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Output{}, ErrRoomNotFound
	}
	if r.status != StatusInProgress {
		return Output{}, fmt.Errorf("%w: game is not in progress", ErrInvalidState)
	}
	if r.settled {
		return Output{}, fmt.Errorf("%w: round %d is already settled", ErrInvalidState, r.round)
	}
	if number < MinChoice || number > MaxChoice {
		return Output{}, fmt.Errorf("%w: number must be between %d and %d, got %d", ErrInvalidInput, MinChoice, MaxChoice, number)
	}

	fired, err := r.submitted.Signal(id)
	if err != nil {
		return Output{}, err
	}

	r.touchLocked()
	r.choices[id] = number
	choice := number
	r.players[id].LastChoice = &choice

	out := Output{
		Broadcast: []any{RoomUpdateMessage{Type: "roomUpdate", Room: r.snapshotLocked()}},
	}

	if fired {
		out.Broadcast = append(out.Broadcast, r.settleLocked())
	}

	return out, nil
}

// Ready marks a player as ready to move past the current round's results.
// Once everyone is ready the next round starts, or the game ends.
func (r *Room) Ready(id string) (Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Output{}, ErrRoomNotFound
	}
	if r.status != StatusInProgress || !r.settled {
		return Output{}, fmt.Errorf("%w: no round results to confirm", ErrInvalidState)
	}

	fired, err := r.ready.Signal(id)
	if err != nil {
		return Output{}, err
	}

	r.touchLocked()

	out := Output{
		Broadcast: []any{ReadyUpdateMessage{
			Type:         "readyUpdate",
			ReadyCount:   r.ready.Count(),
			TotalPlayers: r.ready.Size(),
		}},
	}

	if !fired {
		return out, nil
	}

	if r.round >= r.cfg.TotalRounds {
		r.status = StatusFinished
		r.logf("GAMES: Finished %s after %d rounds", r.code, r.round)
		out.Broadcast = append(out.Broadcast, GameFinishedMessage{
			Type:        "gameFinished",
			Leaderboard: r.leaderboardLocked(),
		})

		return out, nil
	}

	r.round++
	r.beginRoundLocked()
	out.Broadcast = append(out.Broadcast, r.roundStartedLocked())

	return out, nil
}

// Leave removes a player. The room closes when the host leaves or nobody
// is left; Output.Closed is set and the registry should drop it.
func (r *Room) Leave(id string) (Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Output{}, ErrRoomNotFound
	}

	p, ok := r.players[id]
	if !ok {
		return Output{}, ErrNotMember
	}

	r.touchLocked()

	delete(r.players, id)
	r.order = slices.DeleteFunc(r.order, func(pid string) bool { return pid == id })
	delete(r.choices, id)
	r.submitted.Remove(id)
	r.ready.Remove(id)

	r.logf("GAMES: Player %q left %s", p.Name, r.code)

	reply := RoomLeftMessage{Type: "roomLeft", RoomCode: r.code}

	if id == r.hostID || len(r.order) == 0 {
		return Output{
			Reply:     reply,
			Broadcast: r.closeLocked(),
			Closed:    true,
		}, nil
	}

	return Output{
		Reply:     reply,
		Broadcast: []any{RoomUpdateMessage{Type: "roomUpdate", Room: r.snapshotLocked()}},
	}, nil
}

// Close tears the room down regardless of its state.
func (r *Room) Close() Output {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Output{Closed: true}
	}

	return Output{Broadcast: r.closeLocked(), Closed: true}
}

func (r *Room) closeLocked() []any {
	r.closed = true
	r.logf("GAMES: Closed %s", r.code)

	return []any{RoomClosedMessage{Type: "roomClosed"}}
}

func (r *Room) touchLocked() {
	r.lastActive = r.now()
}

func (r *Room) addPlayerLocked(id, name string) {
	r.order = append(r.order, id)
	r.players[id] = &Player{
		ID:    id,
		Name:  name,
		Score: StartingScore,
	}
}

// beginRoundLocked freezes the current roster as the round's participants.
func (r *Room) beginRoundLocked() {
	clear(r.choices)
	r.settled = false
	r.submitted.Reset(r.order...)
	r.ready.Reset()
}

// participantsLocked lists the round's participants still in the room, in join order.
func (r *Room) participantsLocked() []string {
	ids := make([]string, 0, r.submitted.Size())
	for _, id := range r.order {
		if r.submitted.Has(id) {
			ids = append(ids, id)
		}
	}

	return ids
}

func (r *Room) roundStartedLocked() RoundStartedMessage {
	return RoundStartedMessage{
		Type:         "roundStarted",
		CurrentRound: r.round,
		TotalRounds:  r.cfg.TotalRounds,
	}
}

func (r *Room) settleLocked() RoundResultMessage {
	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		choice, ok := r.choices[id]
		entries = append(entries, Entry{
			PlayerID:  id,
			Name:      p.Name,
			Score:     p.Score,
			Choice:    choice,
			Submitted: ok,
		})
	}

	outcome := Settle(r.cfg.Factor, entries)
	for _, res := range outcome.Results {
		r.players[res.PlayerID].Score = res.Score
	}

	r.settled = true
	r.ready.Reset(r.participantsLocked()...)

	r.logf("GAMES: Settled round %d of %s (target %.2f, winner %q)", r.round, r.code, outcome.Target, outcome.WinnerName)

	return newRoundResultMessage(r.round, outcome)
}

func (r *Room) leaderboardLocked() []LeaderboardEntry {
	ranked := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		ranked = append(ranked, r.players[id])
	}

	slices.SortStableFunc(ranked, func(a, b *Player) int {
		return cmp.Compare(round2(b.Score), round2(a.Score))
	})

	board := make([]LeaderboardEntry, 0, len(ranked))
	for _, p := range ranked {
		board = append(board, LeaderboardEntry{
			ID:    p.ID,
			Name:  p.Name,
			Score: round2(p.Score),
		})
	}

	return board
}

func (r *Room) snapshotLocked() Snapshot {
	players := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]

		// Picks stay hidden until the round settles.
		hidden := r.status == StatusInProgress && !r.settled && r.submitted.Signaled(id)

		var last *int
		if p.LastChoice != nil && !hidden {
			v := *p.LastChoice
			last = &v
		}

		players = append(players, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Score:      round2(p.Score),
			LastChoice: last,
			IsHost:     id == r.hostID,
			Submitted:  r.status == StatusInProgress && r.submitted.Signaled(id),
			Ready:      r.status == StatusInProgress && r.ready.Signaled(id),
		})
	}

	return Snapshot{
		Code:         r.code,
		HostID:       r.hostID,
		Factor:       r.cfg.Factor,
		TotalRounds:  r.cfg.TotalRounds,
		CurrentRound: r.round,
		Status:       r.status,
		Players:      players,
	}
}
