package session

import (
	"encoding/json"
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"chessroom/internal/domain/event"
	domain "chessroom/internal/domain/room"
	"chessroom/internal/engine"
	"chessroom/internal/errors"
	"chessroom/internal/rules"
	"chessroom/internal/statuses"
)

// Directory is the session directory owning the room records.
type Directory interface {
	Create(hostConnID, hostColor string, mode domain.Mode, depth int) (domain.Room, error)
	Join(code, guestConnID string) (domain.Room, error)
	Get(code string) (domain.Room, bool)
	RemoveByConnection(connID string) (domain.Room, string, bool)
	WaitingRooms() []domain.Room
}

// Notifier is the outbound side of the relay.
type Notifier interface {
	Subscribe(connID, code string)
	DropRoom(code string)
	Broadcast(code string, env event.Envelope, excludeConnID string)
	Send(connID string, env event.Envelope)
}

// Scheduler runs engine searches off the event path.
type Scheduler interface {
	ClampDepth(depth int) int
	Submit(task func())
}

// engineGame is the controller-owned position of a single-player room.
// Its mutex serializes the human's moves against the engine's worker.
type engineGame struct {
	mu     sync.Mutex
	pos    *rules.Position
	closed bool
}

// Controller drives the event protocol. Every inbound event mutates
// room state through the directory and notifies affected peers through
// the relay; it never touches connections directly.
type Controller struct {
	dir   Directory
	relay Notifier
	sched Scheduler
	eng   *engine.Engine
	log   *zap.SugaredLogger

	mu    sync.Mutex
	games map[string]*engineGame
}

func NewController(dir Directory, relay Notifier, sched Scheduler, eng *engine.Engine, log *zap.SugaredLogger) *Controller {
	return &Controller{
		dir:   dir,
		relay: relay,
		sched: sched,
		eng:   eng,
		log:   log,
		games: make(map[string]*engineGame),
	}
}

// HandleEvent dispatches one inbound envelope from the given connection.
func (c *Controller) HandleEvent(connID string, env event.Envelope) {
	switch env.Type {
	case event.TypeCreateRoom:
		c.handleCreateRoom(connID, env.Payload)
	case event.TypeJoinRoom:
		c.handleJoinRoom(connID, env.Payload)
	case event.TypeMakeMove:
		c.handleMakeMove(connID, env.Payload)
	default:
		c.log.Warnw("unknown event type", "type", env.Type, "conn", connID)
		c.sendError(connID, event.ReasonBadRequest)
	}
}

// HandleDisconnect reconciles a closed connection against the room (if
// any) referencing it. The remaining participant gets exactly one
// playerDisconnected; the room becomes unreachable.
func (c *Controller) HandleDisconnect(connID string) {
	rm, other, ok := c.dir.RemoveByConnection(connID)
	if !ok {
		return
	}

	c.closeEngineGame(rm.Code)

	if other != "" {
		c.relay.Send(other, event.Make(event.TypePlayerDisconnected, struct{}{}))
	}
	c.relay.DropRoom(rm.Code)
}

// WaitingRooms lists rooms still open for a guest (lobby listing).
func (c *Controller) WaitingRooms() []domain.Room {
	return c.dir.WaitingRooms()
}

func (c *Controller) handleCreateRoom(connID string, payload json.RawMessage) {
	var req event.CreateRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil || !domain.ValidColor(req.Color) {
		c.sendError(connID, event.ReasonBadRequest)
		return
	}

	mode := domain.ModePvP
	if req.Opponent == string(domain.ModeEngine) {
		mode = domain.ModeEngine
	}

	rm, err := c.dir.Create(connID, req.Color, mode, c.sched.ClampDepth(req.Depth))
	if err != nil {
		c.log.Errorw("create room failed", "conn", connID, "error", err)
		c.sendError(connID, reasonFor(err))
		return
	}

	c.relay.Subscribe(connID, rm.Code)
	c.relay.Send(connID, event.Make(event.TypeRoomCreated, event.RoomCreated{Code: rm.Code}))

	if mode == domain.ModeEngine {
		c.startEngineGame(rm)
	}
}

func (c *Controller) handleJoinRoom(connID string, payload json.RawMessage) {
	var req event.JoinRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(connID, event.ReasonBadRequest)
		return
	}

	rm, err := c.dir.Join(req.Code, connID)
	if err != nil {
		c.relay.Send(connID, event.Make(event.TypeJoinedRoomFailed, event.JoinedRoomFailed{Reason: reasonFor(err)}))
		return
	}

	c.relay.Subscribe(connID, rm.Code)
	c.relay.Broadcast(rm.Code, event.Make(event.TypeStartGame, event.StartGame{
		RoomCode:  rm.Code,
		HostColor: rm.HostColor,
	}), "")
}

func (c *Controller) handleMakeMove(connID string, payload json.RawMessage) {
	var req event.MakeMoveRequest
	if err := json.Unmarshal(payload, &req); err != nil || len(req.Move) == 0 {
		c.sendError(connID, event.ReasonBadRequest)
		return
	}

	rm, ok := c.dir.Get(req.Code)
	if !ok {
		c.sendError(connID, event.ReasonNotFound)
		return
	}
	if !rm.Participates(connID) || rm.Status != statuses.StatusActive {
		c.sendError(connID, event.ReasonBadRequest)
		return
	}

	if rm.Mode == domain.ModeEngine {
		c.handleEngineMove(connID, rm, req.Move)
		return
	}

	// Pure forwarding: the move payload reaches the other participant
	// byte-for-byte and is never echoed back to the sender. Legality is
	// the clients' business, validated against their own rules engine.
	c.relay.Broadcast(rm.Code, event.Make(event.TypeMoveMade, event.MoveMade{Move: req.Move}), connID)
}

// startEngineGame sets up the controller-owned position for a
// single-player room and, when the engine holds white, schedules its
// opening move.
func (c *Controller) startEngineGame(rm domain.Room) {
	c.mu.Lock()
	c.games[rm.Code] = &engineGame{pos: rules.NewPosition()}
	c.mu.Unlock()

	c.relay.Broadcast(rm.Code, event.Make(event.TypeStartGame, event.StartGame{
		RoomCode:  rm.Code,
		HostColor: rm.HostColor,
	}), "")

	if rm.HostColor == domain.ColorBlack {
		c.scheduleEngineMove(rm)
	}
}

func (c *Controller) handleEngineMove(connID string, rm domain.Room, raw json.RawMessage) {
	st := c.engineGame(rm.Code)
	if st == nil {
		c.sendError(connID, event.ReasonBadRequest)
		return
	}

	var mv event.Move
	if err := json.Unmarshal(raw, &mv); err != nil {
		c.sendError(connID, event.ReasonBadRequest)
		return
	}

	st.mu.Lock()
	err := st.pos.ApplyWire(mv)
	over := err == nil && st.pos.GameOver()
	st.mu.Unlock()

	if err != nil {
		c.sendError(connID, event.ReasonIllegalMove)
		return
	}
	if over {
		return
	}
	c.scheduleEngineMove(rm)
}

// scheduleEngineMove runs the search on a worker slot and delivers the
// engine's reply through the relay. The room's position lock is held
// for the whole search, so a second human move cannot interleave.
func (c *Controller) scheduleEngineMove(rm domain.Room) {
	st := c.engineGame(rm.Code)
	if st == nil {
		return
	}

	c.sched.Submit(func() {
		st.mu.Lock()
		defer st.mu.Unlock()

		if st.closed || st.pos.GameOver() {
			return
		}

		move, err := c.eng.BestMove(st.pos, rm.Depth)
		if err != nil {
			if !stderrors.Is(err, errors.ErrNoMoveFound) {
				c.log.Errorw("engine search failed", "code", rm.Code, "error", err)
			}
			return
		}
		if err := st.pos.ApplyWire(move); err != nil {
			c.log.Errorw("engine produced an illegal move", "code", rm.Code, "move", move, "error", err)
			return
		}

		raw, err := json.Marshal(move)
		if err != nil {
			c.log.Errorw("failed to marshal engine move", "code", rm.Code, "error", err)
			return
		}
		c.relay.Send(rm.HostConnectionID, event.Make(event.TypeMoveMade, event.MoveMade{Move: raw}))
	})
}

func (c *Controller) engineGame(code string) *engineGame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.games[code]
}

func (c *Controller) closeEngineGame(code string) {
	c.mu.Lock()
	st := c.games[code]
	delete(c.games, code)
	c.mu.Unlock()

	if st != nil {
		st.mu.Lock()
		st.closed = true
		st.mu.Unlock()
	}
}

func (c *Controller) sendError(connID, reason string) {
	c.relay.Send(connID, event.Make(event.TypeError, event.ErrorEvent{Reason: reason}))
}

func reasonFor(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrRoomNotFound):
		return event.ReasonNotFound
	case stderrors.Is(err, errors.ErrRoomFull):
		return event.ReasonFull
	case stderrors.Is(err, errors.ErrIllegalMove):
		return event.ReasonIllegalMove
	default:
		return event.ReasonBadRequest
	}
}
