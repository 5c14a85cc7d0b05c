/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Registry holds every live room, keyed by code.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	generate func() (string, error)
	now      func() time.Time
	logf     func(format string, args ...any)
}

type Option func(*Registry)

// WithCodeGenerator replaces RandomCode.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(r *Registry) { r.generate = fn }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger sets the printf-style function rooms log through.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(r *Registry) { r.logf = logf }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:    make(map[string]*Room),
		generate: RandomCode,
		now:      time.Now,
		logf:     func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Create opens a new room hosted by hostID. Picking the code and inserting
// the room happen under one lock, so concurrent creates never share a code.
func (r *Registry) Create(hostID, hostName string, cfg Config) (*Room, Output, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, Output{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if err := cfg.validate(); err != nil {
		return nil, Output{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := r.generate()
		if err != nil {
			return nil, Output{}, err
		}

		if _, exists := r.rooms[code]; exists {
			continue
		}

		room := newRoom(code, hostID, hostName, cfg, r.now, r.logf)
		r.rooms[code] = room

		r.logf("GAMES: Created room %s (%d rounds, factor %g) for %q", code, cfg.TotalRounds, cfg.Factor, hostName)

		room.mu.Lock()
		out := room.createdLocked()
		room.mu.Unlock()

		return room, out, nil
	}

	return nil, Output{}, ErrCodeSpaceExhausted
}

func (r *Registry) Get(code string) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[NormalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room, nil
}

// Remove drops a room. Removing an unknown code is a no-op.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, NormalizeCode(code))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}

// Idle returns the codes of rooms with no activity since cutoff.
func (r *Registry) Idle(cutoff time.Time) []string {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	var idle []string
	for _, room := range rooms {
		if room.LastActive().Before(cutoff) {
			idle = append(idle, room.Code())
		}
	}

	return idle
}
