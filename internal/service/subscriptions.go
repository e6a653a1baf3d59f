package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"washboard/internal/domain"
	"washboard/internal/events"
	"washboard/internal/models"
	"washboard/internal/schedule"

	"github.com/rs/zerolog"
)

// RegisterSubscribers attaches the side-effect consumers to the event bus:
// the notifier reacts to transitions, the sync worker mirrors the schedule
// after reloads and successful moves. Nil consumers are skipped, so the
// wiring degrades the same way the optional integrations do.
func RegisterSubscribers(bus *events.EventBus, notifier domain.Notifier, worker domain.SyncWorker, logger *zerolog.Logger) {
	if bus == nil {
		return
	}

	if notifier != nil {
		bus.Subscribe(events.EventBookingTransitioned, func(e *events.Event) error {
			payload, err := decodePayload(e, logger)
			if err != nil {
				return err
			}
			notifier.NotifyTransition(bookingFromPayload(payload), payload.FromStatus, payload.ToStatus)
			return nil
		})

		bus.Subscribe(events.EventTransitionFailed, func(e *events.Event) error {
			payload, err := decodePayload(e, logger)
			if err != nil {
				return err
			}
			// Уведомляем только об откатах: после refetch_failed карточка
			// с доски ушла и возвращать оператору нечего
			if payload.Outcome != models.OutcomeRolledBack {
				return nil
			}
			notifier.NotifyRollback(bookingFromPayload(payload), payload.FromStatus, errors.New(payload.Error))
			return nil
		})
	}

	if worker != nil {
		enqueue := func(e *events.Event) error {
			payload, err := decodePayload(e, logger)
			if err != nil {
				return err
			}
			date, err := time.Parse(schedule.DayFormat, payload.BusinessDate)
			if err != nil {
				logger.Error().Str("business_date", payload.BusinessDate).Str("event_type", e.Type).
					Msg("malformed business date in event")
				return err
			}
			return worker.EnqueueSyncSchedule(context.Background(), date)
		}
		bus.Subscribe(events.EventBoardReloaded, enqueue)
		bus.Subscribe(events.EventBookingTransitioned, enqueue)
	}
}

func decodePayload(e *events.Event, logger *zerolog.Logger) (events.TransitionEventPayload, error) {
	var payload events.TransitionEventPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		logger.Error().Err(err).Str("event_type", e.Type).Msg("malformed event payload")
		return payload, err
	}
	return payload, nil
}

// bookingFromPayload rebuilds the projection the notifier renders. The event
// carries the displayed fields only; the full record stays server-side.
func bookingFromPayload(p events.TransitionEventPayload) models.Booking {
	return models.Booking{
		ID:       p.BookingID,
		Customer: models.Customer{Name: p.CustomerName},
		Car:      models.Car{Plate: p.CarPlate},
		Service:  models.ServiceRef{Name: p.ServiceName},
	}
}
