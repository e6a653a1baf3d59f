package domain

import (
	"context"
	"time"

	"washboard/internal/models"
)

// BookingAPI is the dashboard's view of the backend REST surface. All business
// rules (pricing, transition validation, technician assignment, subscription
// activation) live behind it.
type BookingAPI interface {
	ListBookingsByStatusAndDate(ctx context.Context, status string, date time.Time) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status string) error
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
}

// CatalogAPI serves read-only reference data.
type CatalogAPI interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	ListAddOns(ctx context.Context) ([]models.AddOn, error)
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
	GetSubscriptionByCode(ctx context.Context, code string) (*models.Subscription, error)
}

// StateRepository stores per-operator dashboard state.
type StateRepository interface {
	GetState(ctx context.Context, operatorID int64) (*models.OperatorState, error)
	SetState(ctx context.Context, state *models.OperatorState) error
	ClearState(ctx context.Context, operatorID int64) error
	CheckRateLimit(ctx context.Context, operatorID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// TransitionJournal keeps a local audit trail of transition attempts.
type TransitionJournal interface {
	Record(ctx context.Context, entry *models.TransitionRecord) error
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.TransitionRecord, error)
}

// Notifier delivers operational notifications to managers.
type Notifier interface {
	NotifyTransition(booking models.Booking, from, to string)
	NotifyRollback(booking models.Booking, stage string, cause error)
}

// ScheduleWriter mirrors the day's pipeline snapshot to an external sheet.
type ScheduleWriter interface {
	UpdateScheduleSheet(ctx context.Context, date time.Time, lists map[string][]models.Booking) error
}

// SyncWorker schedules background schedule mirroring.
type SyncWorker interface {
	EnqueueSyncSchedule(ctx context.Context, date time.Time) error
}
