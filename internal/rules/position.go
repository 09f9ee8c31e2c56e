package rules

import (
	"strings"

	"github.com/notnil/chess"

	"chessroom/internal/domain/event"
	"chessroom/internal/errors"
)

// Position is a snapshot of a single game backed by the external rules
// library. Apply pushes the successor position onto a stack and Undo
// pops it, so the search can walk a line and rewind it completely; the
// position a caller handed in is never mutated in place.
type Position struct {
	stack []*chess.Position
}

func NewPosition() *Position {
	return &Position{stack: []*chess.Position{chess.NewGame().Position()}}
}

func PositionFromFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return &Position{stack: []*chess.Position{chess.NewGame(opt).Position()}}, nil
}

func (p *Position) current() *chess.Position {
	return p.stack[len(p.stack)-1]
}

func (p *Position) Turn() chess.Color {
	return p.current().Turn()
}

// LegalMoves enumerates every legal move for the side to move.
func (p *Position) LegalMoves() []*chess.Move {
	return p.current().ValidMoves()
}

func (p *Position) Apply(m *chess.Move) {
	p.stack = append(p.stack, p.current().Update(m))
}

// Undo rewinds the last Apply. The root position cannot be popped.
func (p *Position) Undo() {
	if len(p.stack) > 1 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

// Ply reports how many applied moves are currently on the stack.
func (p *Position) Ply() int {
	return len(p.stack) - 1
}

// GameOver reports whether the rules engine sees no continuation
// (checkmate or stalemate) from the current position.
func (p *Position) GameOver() bool {
	return p.current().Status() != chess.NoMethod
}

func (p *Position) FEN() string {
	return p.current().String()
}

func (p *Position) SquareMap() map[chess.Square]chess.Piece {
	return p.current().Board().SquareMap()
}

// ApplyWire validates a protocol move against the current position and
// applies it. The rules engine is the sole authority on legality.
func (p *Position) ApplyWire(m event.Move) error {
	uci := strings.ToLower(m.From + m.To + m.Promotion)
	mv, err := chess.UCINotation{}.Decode(p.current(), uci)
	if err != nil {
		return errors.ErrIllegalMove
	}
	p.Apply(mv)
	return nil
}

// WireMove encodes a legal move of the current position for the wire.
func (p *Position) WireMove(m *chess.Move) event.Move {
	uci := chess.UCINotation{}.Encode(p.current(), m)
	w := event.Move{From: uci[0:2], To: uci[2:4]}
	if len(uci) > 4 {
		w.Promotion = uci[4:]
	}
	return w
}
