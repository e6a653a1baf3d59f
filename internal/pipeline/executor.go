package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"washboard/internal/domain"
	"washboard/internal/metrics"

	"github.com/rs/zerolog"
)

var (
	// ErrTransitionInFlight means another transition for the same booking id
	// is still outstanding.
	ErrTransitionInFlight = errors.New("transition already in flight for booking")

	// ErrNotInStage means the booking was not found in the source collection.
	ErrNotInStage = errors.New("booking not found in source collection")
)

// Executor moves exactly one booking between stage collections, keeping the
// board consistent with the server even under failure: optimistic removal,
// server update, destination re-fetch, rollback (append at end) on rejection.
//
// The executor is precondition-agnostic. Photo-evidence gating belongs to the
// calling layer; any (from, to) pair the caller supplies is forwarded to the
// server, which stays the authority on allowed transitions.
type Executor struct {
	board  *Board
	api    domain.BookingAPI
	logger *zerolog.Logger

	mu     sync.Mutex
	moving map[string]struct{}
}

func NewExecutor(board *Board, api domain.BookingAPI, logger *zerolog.Logger) *Executor {
	return &Executor{
		board:  board,
		api:    api,
		logger: logger,
		moving: make(map[string]struct{}),
	}
}

// IsMoving reports whether a transition for the id is outstanding, so the UI
// can disable the card's action control.
func (e *Executor) IsMoving(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.moving[id]
	return ok
}

// Transition moves the booking with id from one collection to another.
//
// Single-flight per booking id: a second call for the same id while the first
// is pending returns ErrTransitionInFlight. Transitions on different ids run
// independently. Once the server call is issued there is no abort path; the
// status set is idempotent, so an abandoned request is harmless.
//
// On success to a non-terminal status the destination collection is replaced
// wholesale with a fresh server fetch, never appended locally. Terminal
// statuses (completed, cancelled) have no destination column; those bookings
// surface in the drawer on its next fetch.
//
// On server rejection the removed snapshot is appended back to the source
// collection and the error is returned without retrying. Поля из снапшота
// могут быть устаревшими, если карточку параллельно правил другой оператор;
// это принятое ограничение.
func (e *Executor) Transition(ctx context.Context, id, from, to string) error {
	if !e.acquire(id) {
		return ErrTransitionInFlight
	}
	defer e.release(id)

	snapshot, ok := e.board.Remove(from, id)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotInStage, from, id)
	}

	if err := e.api.UpdateBookingStatus(ctx, id, to); err != nil {
		e.board.Append(from, snapshot)
		metrics.IncTransition(from, to, "rolled_back")
		e.logger.Error().Err(err).
			Str("booking_id", id).
			Str("from", from).
			Str("to", to).
			Msg("status update rejected, booking restored")
		return fmt.Errorf("update booking status: %w", err)
	}

	if IsTerminal(to) {
		metrics.IncTransition(from, to, "ok")
		e.logger.Info().Str("booking_id", id).Str("from", from).Str("to", to).Msg("booking left the board")
		return nil
	}

	list, err := e.api.ListBookingsByStatusAndDate(ctx, to, e.board.Date())
	if err != nil {
		// The server already accepted the move; re-inserting the stale
		// snapshot would contradict it. The destination column stays as-is
		// until the next reload.
		metrics.IncTransition(from, to, "refetch_failed")
		e.logger.Warn().Err(err).
			Str("booking_id", id).
			Str("to", to).
			Msg("destination re-fetch failed after confirmed update")
		return fmt.Errorf("refetch %s collection: %w", to, err)
	}
	e.board.Replace(to, list)
	metrics.IncTransition(from, to, "ok")

	return nil
}

func (e *Executor) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.moving[id]; ok {
		return false
	}
	e.moving[id] = struct{}{}
	return true
}

func (e *Executor) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.moving, id)
}
