package engine

import (
	"context"

	"go.uber.org/zap"

	"chessroom/internal/domain/event"
	"chessroom/internal/engine"
	"chessroom/internal/rules"
)

// Worker runs searches off the caller's goroutine behind a counting
// semaphore, so one session's thinking engine cannot stall another
// session's move relay. The search itself has no cancellation: depth is
// bounded, so runtime is too.
type Worker struct {
	eng      *engine.Engine
	sem      chan struct{}
	maxDepth int
	log      *zap.SugaredLogger
}

func NewWorker(eng *engine.Engine, workers, maxDepth int, log *zap.SugaredLogger) *Worker {
	if workers < 1 {
		workers = 1
	}
	return &Worker{
		eng:      eng,
		sem:      make(chan struct{}, workers),
		maxDepth: maxDepth,
		log:      log,
	}
}

// ClampDepth bounds the client-requested difficulty.
func (w *Worker) ClampDepth(depth int) int {
	if depth < 1 {
		return 1
	}
	if depth > w.maxDepth {
		return w.maxDepth
	}
	return depth
}

// Suggest searches the position given as FEN and blocks until the move
// is found or ctx ends. The context is honored while queued and while
// waiting for the result.
func (w *Worker) Suggest(ctx context.Context, fen string, depth int) (event.Move, error) {
	pos, err := rules.PositionFromFEN(fen)
	if err != nil {
		return event.Move{}, err
	}
	depth = w.ClampDepth(depth)

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return event.Move{}, ctx.Err()
	}

	type result struct {
		move event.Move
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() { <-w.sem }()
		move, err := w.eng.BestMove(pos, depth)
		done <- result{move: move, err: err}
	}()

	select {
	case res := <-done:
		return res.move, res.err
	case <-ctx.Done():
		return event.Move{}, ctx.Err()
	}
}

// Submit schedules task on a worker slot. Used by the session
// controller for engine-room moves, where the result is delivered
// through the relay instead of a return value.
func (w *Worker) Submit(task func()) {
	go func() {
		w.sem <- struct{}{}
		defer func() { <-w.sem }()
		task()
	}()
}
