package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"washboard/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListBookingsByStatusAndDate(ctx context.Context, status string, date time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, status, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockAPI) UpdateBookingStatus(ctx context.Context, id string, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockAPI) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func testDate() time.Time {
	return time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
}

func booking(id, status string) models.Booking {
	return models.Booking{
		ID:     id,
		Status: status,
		Customer: models.Customer{
			ID:   "c-" + id,
			Name: "Customer " + id,
		},
		Car: models.Car{ID: "car-" + id, Plate: "A" + id, Model: "Sedan"},
	}
}

// assertAtMostOnce verifies the board invariant: an id lives in at most one
// of the six collections.
func assertAtMostOnce(t *testing.T, b *Board) {
	t.Helper()
	seen := make(map[string]string)
	for status, list := range b.Snapshot() {
		for _, bk := range list {
			if prev, ok := seen[bk.ID]; ok {
				t.Fatalf("booking %s present in both %s and %s", bk.ID, prev, status)
			}
			seen[bk.ID] = status
		}
	}
}

func TestBoardLoad(t *testing.T) {
	logger := zerolog.New(io.Discard)
	date := testDate()

	t.Run("AllCollectionsPopulate", func(t *testing.T) {
		api := new(mockAPI)
		board := NewBoard(api, &logger)

		for _, status := range AllStatuses {
			api.On("ListBookingsByStatusAndDate", mock.Anything, status, date).
				Return([]models.Booking{booking(status+"-1", status)}, nil).Once()
		}

		failures := board.Load(context.Background(), date)
		assert.Nil(t, failures)
		assert.Equal(t, date, board.Date())

		for _, status := range AllStatuses {
			list := board.List(status)
			require.Len(t, list, 1)
			assert.Equal(t, status+"-1", list[0].ID)
		}
		assertAtMostOnce(t, board)
		api.AssertExpectations(t)
	})

	t.Run("PartialFailureIsolated", func(t *testing.T) {
		api := new(mockAPI)
		board := NewBoard(api, &logger)

		for _, status := range AllStatuses {
			if status == models.StatusStageTwo {
				api.On("ListBookingsByStatusAndDate", mock.Anything, status, date).
					Return(nil, errors.New("boom")).Once()
				continue
			}
			api.On("ListBookingsByStatusAndDate", mock.Anything, status, date).
				Return([]models.Booking{booking(status+"-1", status)}, nil).Once()
		}

		failures := board.Load(context.Background(), date)
		require.NotNil(t, failures)
		require.Len(t, failures, 1)
		assert.Error(t, failures[models.StatusStageTwo])

		assert.Empty(t, board.List(models.StatusStageTwo))
		assert.Len(t, board.List(models.StatusScheduled), 1)
		assert.Len(t, board.List(models.StatusCompleted), 1)
		api.AssertExpectations(t)
	})

	t.Run("ServerOrderPreserved", func(t *testing.T) {
		api := new(mockAPI)
		board := NewBoard(api, &logger)

		// Намеренно не отсортировано: порядок задает сервер
		scheduled := []models.Booking{
			booking("z9", models.StatusScheduled),
			booking("a1", models.StatusScheduled),
			booking("m5", models.StatusScheduled),
		}
		api.On("ListBookingsByStatusAndDate", mock.Anything, models.StatusScheduled, date).
			Return(scheduled, nil)
		for _, status := range AllStatuses[1:] {
			api.On("ListBookingsByStatusAndDate", mock.Anything, status, date).
				Return([]models.Booking{}, nil)
		}

		board.Load(context.Background(), date)

		got := board.List(models.StatusScheduled)
		require.Len(t, got, 3)
		assert.Equal(t, "z9", got[0].ID)
		assert.Equal(t, "a1", got[1].ID)
		assert.Equal(t, "m5", got[2].ID)
	})

	t.Run("ReloadIsIdempotent", func(t *testing.T) {
		api := new(mockAPI)
		board := NewBoard(api, &logger)

		for _, status := range AllStatuses {
			api.On("ListBookingsByStatusAndDate", mock.Anything, status, date).
				Return([]models.Booking{booking(status+"-x", status)}, nil).Twice()
		}

		require.Nil(t, board.Load(context.Background(), date))
		first := board.Snapshot()
		require.Nil(t, board.Load(context.Background(), date))
		second := board.Snapshot()

		assert.Equal(t, first, second)
		api.AssertExpectations(t)
	})
}

func TestBoardMutations(t *testing.T) {
	logger := zerolog.New(io.Discard)
	api := new(mockAPI)
	board := NewBoard(api, &logger)

	board.Replace(models.StatusScheduled, []models.Booking{
		booking("b1", models.StatusScheduled),
		booking("b2", models.StatusScheduled),
	})

	t.Run("Counts", func(t *testing.T) {
		counts := board.Counts()
		assert.Equal(t, 2, counts[models.StatusScheduled])
		assert.Equal(t, 0, counts[models.StatusStageOne])
	})

	t.Run("Find", func(t *testing.T) {
		got, status, ok := board.Find("b2")
		require.True(t, ok)
		assert.Equal(t, models.StatusScheduled, status)
		assert.Equal(t, "b2", got.ID)

		_, _, ok = board.Find("missing")
		assert.False(t, ok)
	})

	t.Run("RemoveAndAppend", func(t *testing.T) {
		removed, ok := board.Remove(models.StatusScheduled, "b1")
		require.True(t, ok)
		assert.Equal(t, "b1", removed.ID)
		assert.Len(t, board.List(models.StatusScheduled), 1)

		_, ok = board.Remove(models.StatusScheduled, "b1")
		assert.False(t, ok)

		// Rollback path appends at the end, not the original position
		board.Append(models.StatusScheduled, removed)
		list := board.List(models.StatusScheduled)
		require.Len(t, list, 2)
		assert.Equal(t, "b2", list[0].ID)
		assert.Equal(t, "b1", list[1].ID)
		assertAtMostOnce(t, board)
	})

	t.Run("ReplaceIsWholesale", func(t *testing.T) {
		board.Replace(models.StatusStageOne, []models.Booking{booking("n1", models.StatusStageOne)})
		board.Replace(models.StatusStageOne, []models.Booking{booking("n2", models.StatusStageOne)})
		list := board.List(models.StatusStageOne)
		require.Len(t, list, 1)
		assert.Equal(t, "n2", list[0].ID)
	})

	t.Run("ListReturnsCopy", func(t *testing.T) {
		list := board.List(models.StatusScheduled)
		require.NotEmpty(t, list)
		list[0].ID = "mutated"
		fresh := board.List(models.StatusScheduled)
		assert.NotEqual(t, "mutated", fresh[0].ID)
	})
}
