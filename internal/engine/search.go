package engine

import (
	"math/rand"
	"sync"

	"github.com/notnil/chess"

	"chessroom/internal/domain/event"
	"chessroom/internal/errors"
	"chessroom/internal/rules"
)

const infinity = 1 << 30

// Engine selects moves with depth-limited minimax plus alpha-beta
// pruning over the rules engine's legal move lists. Depth is the sole
// difficulty knob (1-5). The random source only reorders candidate
// moves before the search, so play varies between games while a fixed
// seed keeps it reproducible.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// BestMove picks a move for the side to move in pos. The position is
// fully rewound before returning, whatever path the search takes.
func (e *Engine) BestMove(pos *rules.Position, depth int) (event.Move, error) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return event.Move{}, errors.ErrNoMoveFound
	}

	e.mu.Lock()
	e.rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
	e.mu.Unlock()

	maximizing := pos.Turn() == chess.White
	alpha, beta := -infinity, infinity

	var best *chess.Move
	bestScore := -infinity
	if !maximizing {
		bestScore = infinity
	}

	for _, m := range moves {
		pos.Apply(m)
		score := minimax(pos, depth-1, alpha, beta, !maximizing)
		pos.Undo()

		if maximizing {
			if best == nil || score > bestScore {
				best, bestScore = m, score
			}
			if score > alpha {
				alpha = score
			}
		} else {
			if best == nil || score < bestScore {
				best, bestScore = m, score
			}
			if score < beta {
				beta = score
			}
		}
	}

	return pos.WireMove(best), nil
}

// minimax returns the fail-soft alpha-beta value of pos. Scores are
// from White's perspective; White maximizes, Black minimizes. Every
// explored move is undone before the frame returns, including on a
// beta cutoff.
func minimax(pos *rules.Position, depth, alpha, beta int, maximizing bool) int {
	if depth == 0 || pos.GameOver() {
		return Evaluate(pos)
	}

	if maximizing {
		best := -infinity
		for _, m := range pos.LegalMoves() {
			pos.Apply(m)
			score := minimax(pos, depth-1, alpha, beta, false)
			pos.Undo()
			if score > best {
				best = score
			}
			if score > alpha {
				alpha = score
			}
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := infinity
	for _, m := range pos.LegalMoves() {
		pos.Apply(m)
		score := minimax(pos, depth-1, alpha, beta, true)
		pos.Undo()
		if score < best {
			best = score
		}
		if score < beta {
			beta = score
		}
		if beta <= alpha {
			break
		}
	}
	return best
}
