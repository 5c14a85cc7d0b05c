// Beautycontest game server
//
// Every browser tab holds a single websocket to /ws. The first message
// either creates a room (the sender becomes its host) or joins one by its
// 5-character code. After that the tab starts the game, submits numbers
// and confirms round results for that room.
//
// Features:
// - One Hub goroutine per room, serialising its actions and fanning out results
// - Players identified per connection by a random UUID
// - Errors are sent only to the connection whose action failed
// - Slow clients are disconnected rather than stalling a room
// - Rooms auto-reaped after a configurable idle timeout
// - Share a room with the QR code at /qr/:code, backed by go-qrcode

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/beautycontest/games/guess"
)

const (
	maxMessageSize = 4096
	sendBuffer     = 32
	writeWait      = 10 * time.Second
)

type Client struct {
	conn *websocket.Conn
	send chan any
	id   string

	// Only touched by readPump.
	hub *Hub
}

type request struct {
	client  *Client
	msg     guess.ClientMessage
	number  int
	created *guess.Output // createRoom only
	quiet   bool          // leaveRoom without a reply, on disconnect
	ack     chan bool
}

type Hub struct {
	room    *guess.Room
	clients map[*Client]bool

	requests chan request
	expire   chan struct{}
	done     chan struct{}
}

func newHub(room *guess.Room) *Hub {
	return &Hub{
		room:     room,
		clients:  make(map[*Client]bool),
		requests: make(chan request),
		expire:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (h *Hub) run(cfg *Config, gm *GameManager) {
	defer close(h.done)

	for {
		select {
		case req := <-h.requests:
			if h.handle(req) {
				gm.remove(h.room.Code())
				return
			}

		case <-h.expire:
			h.deliver(nil, h.room.Close())
			h.clients = nil
			gm.remove(h.room.Code())
			logf(cfg, "GAMES: Reaped idle room %s", h.room.Code())
			return
		}
	}
}

// handle applies one request to the room. It reports whether the room closed.
func (h *Hub) handle(req request) bool {
	c := req.client
	action := req.msg.Type

	var (
		out guess.Output
		err error
	)

	switch action {
	case "createRoom":
		h.clients[c] = true
		out = *req.created

	case "joinRoom":
		out, err = h.room.Join(c.id, req.msg.Name)
		if err == nil {
			h.clients[c] = true
		}

	case "leaveRoom":
		delete(h.clients, c)
		out, err = h.room.Leave(c.id)
		if req.quiet {
			out.Reply = nil
		}

	case "startGame":
		out, err = h.room.Start(c.id)

	case "submitNumber":
		out, err = h.room.Submit(c.id, req.number)

	case "playerReady":
		out, err = h.room.Ready(c.id)
	}

	if err != nil {
		if !req.quiet {
			h.sendTo(c, guess.NewErrorMessage(action, err))
		}
	} else {
		h.deliver(c, out)
	}

	if req.ack != nil {
		req.ack <- err == nil
	}

	if out.Closed {
		h.clients = nil
		return true
	}

	return false
}

// deliver sends the reply to c and the broadcasts to everyone in the room.
func (h *Hub) deliver(c *Client, out guess.Output) {
	if c != nil && out.Reply != nil {
		h.sendTo(c, out.Reply)
	}

	for _, msg := range out.Broadcast {
		for client := range h.clients {
			h.sendTo(client, msg)
		}
	}
}

func (h *Hub) sendTo(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		// Dropping the connection makes its readPump leave the room.
		delete(h.clients, c)
		_ = c.conn.Close()
	}
}

// call hands req to the hub and waits until it has been handled.
func (h *Hub) call(req request) bool {
	req.ack = make(chan bool, 1)

	select {
	case h.requests <- req:
	case <-h.done:
		return false
	}

	select {
	case ok := <-req.ack:
		return ok
	case <-h.done:
		select {
		case ok := <-req.ack:
			return ok
		default:
			return false
		}
	}
}

// closed reports whether the hub has stopped serving its room.
func (h *Hub) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// post hands req to the hub without waiting for it to be handled.
func (h *Hub) post(req request) bool {
	select {
	case h.requests <- req:
		return true
	case <-h.done:
		return false
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds a hub for every live room, keyed by room code.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	registry    *guess.Registry
	idleTimeout time.Duration
}

func newGameManager(cfg *Config, opts ...guess.Option) *GameManager {
	opts = append([]guess.Option{
		guess.WithLogger(func(format string, args ...any) {
			logf(cfg, format, args...)
		}),
	}, opts...)

	return &GameManager{
		hubs:        make(map[string]*Hub),
		registry:    guess.NewRegistry(opts...),
		idleTimeout: cfg.sessionTimeout,
	}
}

func (gm *GameManager) create(cfg *Config, hostID, name string, rcfg guess.Config) (*Hub, guess.Output, error) {
	if rcfg.TotalRounds > cfg.maxRounds {
		return nil, guess.Output{}, fmt.Errorf("%w: total rounds must be at most %d, got %d", guess.ErrInvalidInput, cfg.maxRounds, rcfg.TotalRounds)
	}

	room, out, err := gm.registry.Create(hostID, name, rcfg)
	if err != nil {
		return nil, guess.Output{}, err
	}

	hub := newHub(room)

	gm.mu.Lock()
	gm.hubs[room.Code()] = hub
	gm.mu.Unlock()

	go hub.run(cfg, gm)

	return hub, out, nil
}

func (gm *GameManager) lookup(code string) (*Hub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[guess.NormalizeCode(code)]

	return hub, ok
}

func (gm *GameManager) remove(code string) {
	gm.mu.Lock()
	delete(gm.hubs, code)
	gm.mu.Unlock()

	gm.registry.Remove(code)
}

// reaperLoop periodically closes rooms that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			gm.reap(now.Add(-gm.idleTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	for _, code := range gm.registry.Idle(cutoff) {
		hub, ok := gm.lookup(code)
		if !ok {
			continue
		}

		select {
		case hub.expire <- struct{}{}:
		default:
		}
	}
}

func serveWS(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, sendBuffer),
			id:   uuid.NewString(),
		}

		logf(cfg, "SERVE: Player %s connected from %s", client.id, realIP(r))

		go client.writePump(cfg)
		client.readPump(cfg, gm)

		logf(cfg, "SERVE: Player %s disconnected", client.id)
	}
}

func (c *Client) readPump(cfg *Config, gm *GameManager) {
	defer func() {
		c.leave(true)
		close(c.send)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.playerTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.playerTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(cfg.playerTimeout))

		var msg guess.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.fail("", fmt.Errorf("%w: malformed message", guess.ErrInvalidInput))
			continue
		}

		c.dispatch(cfg, gm, msg)
	}
}

func (c *Client) dispatch(cfg *Config, gm *GameManager, msg guess.ClientMessage) {
	switch msg.Type {
	case "createRoom":
		rcfg := guess.Config{
			TotalRounds: cfg.defaultRounds,
			Factor:      cfg.defaultFactor,
		}
		if msg.TotalRounds != nil {
			rcfg.TotalRounds = *msg.TotalRounds
		}
		if msg.Factor != nil {
			rcfg.Factor = *msg.Factor
		}

		hub, out, err := gm.create(cfg, c.id, msg.Name, rcfg)
		if err != nil {
			c.fail(msg.Type, err)
			return
		}

		c.leave(false)

		if hub.call(request{client: c, msg: msg, created: &out}) {
			c.hub = hub
		}

	case "joinRoom":
		hub, ok := gm.lookup(msg.RoomCode)
		if !ok {
			c.fail(msg.Type, guess.ErrRoomNotFound)
			return
		}

		if c.hub != hub {
			c.leave(false)
		}

		switch {
		case hub.call(request{client: c, msg: msg}):
			c.hub = hub
		case hub.closed():
			c.fail(msg.Type, guess.ErrRoomNotFound)
		}

	case "startGame", "playerReady":
		hub := c.current(msg.RoomCode)
		if hub == nil || !hub.post(request{client: c, msg: msg}) {
			c.fail(msg.Type, guess.ErrRoomNotFound)
		}

	case "submitNumber":
		hub := c.current(msg.RoomCode)
		if hub == nil {
			c.fail(msg.Type, guess.ErrRoomNotFound)
			return
		}

		number, err := parseChoice(msg.Number)
		if err != nil {
			c.fail(msg.Type, err)
			return
		}

		if !hub.post(request{client: c, msg: msg, number: number}) {
			c.fail(msg.Type, guess.ErrRoomNotFound)
		}

	case "leaveRoom":
		if c.current(msg.RoomCode) == nil {
			c.fail(msg.Type, guess.ErrRoomNotFound)
			return
		}

		c.leave(false)

	default:
		c.fail(msg.Type, fmt.Errorf("%w: unknown message type %q", guess.ErrInvalidInput, msg.Type))
	}
}

// parseChoice accepts only whole numbers in the playable range.
func parseChoice(n *float64) (int, error) {
	switch {
	case n == nil:
		return 0, fmt.Errorf("%w: number is required", guess.ErrInvalidInput)
	case *n != math.Trunc(*n):
		return 0, fmt.Errorf("%w: number must be a whole number, got %v", guess.ErrInvalidInput, *n)
	case *n < guess.MinChoice || *n > guess.MaxChoice:
		return 0, fmt.Errorf("%w: number must be between %d and %d, got %v", guess.ErrInvalidInput, guess.MinChoice, guess.MaxChoice, *n)
	}

	return int(*n), nil
}

// current returns the hub for code if this client is in that room.
func (c *Client) current(code string) *Hub {
	if c.hub == nil || c.hub.room.Code() != guess.NormalizeCode(code) {
		return nil
	}

	return c.hub
}

// leave takes the client out of its current room, if any.
func (c *Client) leave(quiet bool) {
	if c.hub == nil {
		return
	}

	hub := c.hub
	c.hub = nil

	hub.call(request{
		client: c,
		msg:    guess.ClientMessage{Type: "leaveRoom", RoomCode: hub.room.Code()},
		quiet:  quiet,
	})
}

func (c *Client) fail(action string, err error) {
	select {
	case c.send <- guess.NewErrorMessage(action, err):
	default:
		_ = c.conn.Close()
	}
}

func (c *Client) writePump(cfg *Config) {
	ticker := time.NewTicker(cfg.playerTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// registerGame sets up routes so that:
//   - $prefix/ws         → WebSocket carrying every room action
//   - $prefix/qr/:code   → PNG QR code linking to a room
func registerGame(ctx context.Context, cfg *Config, mux *httprouter.Router) *GameManager {
	gm := newGameManager(cfg)

	if gm.idleTimeout > 0 {
		go gm.reaperLoop(ctx)
	}

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, gm))
	mux.GET(cfg.prefix+"/qr/:code", serveQR(cfg, gm))

	return gm
}
