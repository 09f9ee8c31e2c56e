package room

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"go.uber.org/zap"

	domain "chessroom/internal/domain/room"
	"chessroom/internal/errors"
	"chessroom/internal/statuses"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// Registry is the in-memory session directory. It exclusively owns the
// room records; callers receive copies so a record never escapes the
// lock. All operations serialize behind one mutex, which makes a join
// racing a teardown deterministic: whoever takes the lock second sees
// the other's completed state.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
	log   *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		rooms: make(map[string]*domain.Room),
		log:   log,
	}
}

// Create stores a new room under a freshly drawn code and returns a
// copy of the record. Engine rooms are active from the start; pvp rooms
// wait for a guest.
func (r *Registry) Create(hostConnID, hostColor string, mode domain.Mode, depth int) (domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.referencedLocked(hostConnID) {
		return domain.Room{}, errors.ErrAlreadyInRoom
	}

	code, err := r.generateCode()
	if err != nil {
		return domain.Room{}, err
	}

	rm := &domain.Room{
		Code:             code,
		HostColor:        hostColor,
		Status:           statuses.StatusWaiting,
		Mode:             mode,
		Depth:            depth,
		HostConnectionID: hostConnID,
	}
	if mode == domain.ModeEngine {
		rm.Status = statuses.StatusActive
	}

	r.rooms[code] = rm
	r.log.Infow("room created", "code", code, "mode", mode, "host_color", hostColor)
	return *rm, nil
}

// Join seats a guest in a waiting room and flips it to active. On
// failure nothing is mutated. Codes are matched case-insensitively.
func (r *Registry) Join(code, guestConnID string) (domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	if rm.Mode == domain.ModeEngine || rm.GuestConnectionID != "" {
		return domain.Room{}, errors.ErrRoomFull
	}
	if r.referencedLocked(guestConnID) {
		return domain.Room{}, errors.ErrAlreadyInRoom
	}

	rm.GuestConnectionID = guestConnID
	rm.Status = statuses.StatusActive
	r.log.Infow("guest joined room", "code", rm.Code)
	return *rm, nil
}

// Get returns a copy of the live room with the given code.
func (r *Registry) Get(code string) (domain.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return domain.Room{}, false
	}
	return *rm, true
}

// RemoveByConnection tears down the at most one room referencing connID
// as host or guest. It returns the closed room and the connection id of
// the remaining participant, so the caller can notify them.
func (r *Registry) RemoveByConnection(connID string) (domain.Room, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, rm := range r.rooms {
		if !rm.Participates(connID) {
			continue
		}
		rm.Status = statuses.StatusClosed
		delete(r.rooms, code)
		r.log.Infow("room closed", "code", code)
		return *rm, rm.Other(connID), true
	}
	return domain.Room{}, "", false
}

// WaitingRooms lists rooms still waiting for an opponent.
func (r *Registry) WaitingRooms() []domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	waiting := make([]domain.Room, 0)
	for _, rm := range r.rooms {
		if rm.Status == statuses.StatusWaiting {
			waiting = append(waiting, *rm)
		}
	}
	return waiting
}

// generateCode draws codes until one misses every live room. Caller
// must hold the registry lock, so two concurrent creates can never be
// handed the same code.
func (r *Registry) generateCode() (string, error) {
	for {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("failed to draw room code: %w", err)
		}
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
}

// referencedLocked enforces the invariant that at most one live room
// references a given connection.
func (r *Registry) referencedLocked(connID string) bool {
	for _, rm := range r.rooms {
		if rm.Participates(connID) {
			return true
		}
	}
	return false
}

func randomCode() (string, error) {
	var b strings.Builder
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
