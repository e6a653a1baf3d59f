package pipeline

import (
	"context"
	"sync"
	"time"

	"washboard/internal/domain"
	"washboard/internal/metrics"
	"washboard/internal/models"

	"github.com/rs/zerolog"
)

// Board holds the six stage collections for one business date. A booking id
// lives in at most one collection; the keyed map makes that structural rather
// than a convention across parallel slices.
//
// Ordering inside a collection is server-defined. The board never re-sorts.
type Board struct {
	api    domain.BookingAPI
	logger *zerolog.Logger

	mu    sync.RWMutex
	date  time.Time
	lists map[string][]models.Booking
}

func NewBoard(api domain.BookingAPI, logger *zerolog.Logger) *Board {
	lists := make(map[string][]models.Booking, len(AllStatuses))
	for _, status := range AllStatuses {
		lists[status] = nil
	}
	return &Board{
		api:    api,
		logger: logger,
		lists:  lists,
	}
}

// Load populates all six collections for the date with independent parallel
// fetches. A failed fetch empties its own collection and is reported in the
// returned map; sibling collections still populate.
func (b *Board) Load(ctx context.Context, date time.Time) map[string]error {
	results := make(map[string][]models.Booking, len(AllStatuses))
	failures := make(map[string]error)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, status := range AllStatuses {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			list, err := b.api.ListBookingsByStatusAndDate(ctx, status, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Error().Err(err).Str("status", status).Msg("load stage collection")
				metrics.IncStageLoadFailure(status)
				results[status] = nil
				failures[status] = err
				return
			}
			results[status] = list
		}(status)
	}
	wg.Wait()

	b.mu.Lock()
	b.date = date
	for status, list := range results {
		b.lists[status] = list
	}
	b.mu.Unlock()

	if len(failures) == 0 {
		return nil
	}
	return failures
}

// Date returns the business date the board was last loaded for.
func (b *Board) Date() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.date
}

// List returns a copy of one collection in server order.
func (b *Board) List(status string) []models.Booking {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Booking(nil), b.lists[status]...)
}

// Counts returns per-column sizes, the one piece of derived state the UI needs.
func (b *Board) Counts() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	counts := make(map[string]int, len(b.lists))
	for status, list := range b.lists {
		counts[status] = len(list)
	}
	return counts
}

// Find locates a booking and the collection it currently sits in.
func (b *Board) Find(id string) (models.Booking, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for status, list := range b.lists {
		for _, booking := range list {
			if booking.ID == id {
				return booking, status, true
			}
		}
	}
	return models.Booking{}, "", false
}

// Remove takes a booking out of one collection and returns the removed
// snapshot. Used for the optimistic step of a transition.
func (b *Board) Remove(status, id string) (models.Booking, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.lists[status]
	for i, booking := range list {
		if booking.ID == id {
			b.lists[status] = append(append([]models.Booking(nil), list[:i]...), list[i+1:]...)
			return booking, true
		}
	}
	return models.Booking{}, false
}

// Append adds a booking at the end of a collection. Rollback path only;
// исходная позиция карточки не восстанавливается.
func (b *Board) Append(status string, booking models.Booking) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[status] = append(b.lists[status], booking)
}

// Replace swaps a collection wholesale with a server-fetched list, so the
// column reflects server-side ordering and filtering exactly.
func (b *Board) Replace(status string, list []models.Booking) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[status] = append([]models.Booking(nil), list...)
}

// Snapshot returns copies of every collection, keyed by status.
func (b *Board) Snapshot() map[string][]models.Booking {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := make(map[string][]models.Booking, len(b.lists))
	for status, list := range b.lists {
		snap[status] = append([]models.Booking(nil), list...)
	}
	return snap
}
