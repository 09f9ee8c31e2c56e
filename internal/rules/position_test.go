package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chessroom/internal/domain/event"
	"chessroom/internal/errors"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestNewPositionStartsAtInitialPosition(t *testing.T) {
	pos := NewPosition()
	require.Equal(t, startFEN, pos.FEN())
	require.Equal(t, 0, pos.Ply())
	require.False(t, pos.GameOver())
}

func TestApplyUndoRestoresPosition(t *testing.T) {
	pos := NewPosition()
	before := pos.FEN()

	moves := pos.LegalMoves()
	require.NotEmpty(t, moves)

	pos.Apply(moves[0])
	require.Equal(t, 1, pos.Ply())
	require.NotEqual(t, before, pos.FEN())

	pos.Undo()
	require.Equal(t, 0, pos.Ply())
	require.Equal(t, before, pos.FEN())
}

func TestUndoNeverPopsRoot(t *testing.T) {
	pos := NewPosition()
	pos.Undo()
	require.Equal(t, startFEN, pos.FEN())
}

func TestApplyWireValidMove(t *testing.T) {
	pos := NewPosition()
	err := pos.ApplyWire(event.Move{From: "e2", To: "e4"})
	require.NoError(t, err)
	require.Equal(t, 1, pos.Ply())
}

func TestApplyWireIllegalMove(t *testing.T) {
	pos := NewPosition()
	err := pos.ApplyWire(event.Move{From: "e2", To: "e5"})
	require.ErrorIs(t, err, errors.ErrIllegalMove)
	require.Equal(t, 0, pos.Ply())
}

func TestApplyWirePromotion(t *testing.T) {
	pos, err := PositionFromFEN("8/4P3/8/8/8/8/7k/K7 w - - 0 1")
	require.NoError(t, err)

	err = pos.ApplyWire(event.Move{From: "e7", To: "e8", Promotion: "q"})
	require.NoError(t, err)
	require.Equal(t, 1, pos.Ply())
}

func TestWireMoveEncodesPromotion(t *testing.T) {
	pos, err := PositionFromFEN("8/4P3/8/8/8/8/7k/K7 w - - 0 1")
	require.NoError(t, err)

	found := false
	for _, m := range pos.LegalMoves() {
		w := pos.WireMove(m)
		if w.From == "e7" && w.To == "e8" && w.Promotion == "q" {
			found = true
		}
	}
	require.True(t, found, "expected a queen promotion among the wire moves")
}

func TestGameOverDetectsCheckmate(t *testing.T) {
	pos, err := PositionFromFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 0 3")
	require.NoError(t, err)
	require.True(t, pos.GameOver())
	require.Empty(t, pos.LegalMoves())
}

func TestPositionFromFENRejectsGarbage(t *testing.T) {
	_, err := PositionFromFEN("not a fen")
	require.Error(t, err)
}
