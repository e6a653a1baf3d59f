package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"washboard/internal/domain"
	"washboard/internal/events"
	"washboard/internal/models"
	"washboard/internal/pipeline"
	"washboard/internal/schedule"

	"github.com/rs/zerolog"
)

var (
	// ErrBookingNotOnBoard means the id is in none of the stage collections.
	ErrBookingNotOnBoard = errors.New("booking not found on board")

	// ErrPhotoRequired is the local precondition gate: the current stage
	// requires photo evidence and none is attached. Rejected before any
	// network call.
	ErrPhotoRequired = errors.New("photo evidence required before advancing")

	// ErrNoNextStage means the booking sits in a terminal column.
	ErrNoNextStage = errors.New("stage has no next stage")
)

// sessionOperatorID keys the dashboard terminal's own session state. The
// terminal is single-seat; per-operator ids matter only when several
// dashboards share one state store.
const sessionOperatorID int64 = 1

// BoardService is the layer the dashboard screens talk to. It consults the
// stage table, enforces the photo-evidence gate, delegates the actual move to
// the executor (which stays precondition-agnostic), journals every attempt and
// publishes events; the notifier and the sync worker consume those events via
// RegisterSubscribers.
type BoardService struct {
	board    *pipeline.Board
	executor *pipeline.Executor
	api      domain.BookingAPI
	catalog  domain.CatalogAPI
	eventBus domain.EventPublisher
	journal  domain.TransitionJournal
	state    domain.StateRepository
	logger   *zerolog.Logger
}

func NewBoardService(
	board *pipeline.Board,
	executor *pipeline.Executor,
	api domain.BookingAPI,
	catalog domain.CatalogAPI,
	eventBus domain.EventPublisher,
	journal domain.TransitionJournal,
	state domain.StateRepository,
	logger *zerolog.Logger,
) *BoardService {
	return &BoardService{
		board:    board,
		executor: executor,
		api:      api,
		catalog:  catalog,
		eventBus: eventBus,
		journal:  journal,
		state:    state,
		logger:   logger,
	}
}

// Reload refreshes all six collections for the business date. Failed
// collections come back empty; siblings still populate. The returned map is
// nil when every fetch succeeded.
func (s *BoardService) Reload(ctx context.Context, date time.Time) map[string]error {
	failures := s.board.Load(ctx, date)
	s.saveSession(ctx, date, false)
	s.publishEvent(events.EventBoardReloaded, events.TransitionEventPayload{
		BusinessDate: date.Format(schedule.DayFormat),
		At:           time.Now(),
	})
	return failures
}

// Advance moves a booking to its next stage per the stage table.
//
// The photo gate is enforced here, not in the executor: when the current
// stage requires evidence and the booking has no photo for it, the advance is
// rejected locally with ErrPhotoRequired and no network call is made.
func (s *BoardService) Advance(ctx context.Context, id string) error {
	booking, stage, ok := s.board.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBookingNotOnBoard, id)
	}

	cfg, ok := pipeline.Config(stage)
	if !ok || cfg.Next == "" {
		return fmt.Errorf("%w: %s", ErrNoNextStage, stage)
	}

	if cfg.RequiresPhoto && !booking.HasImageForStage(stage) {
		s.record(ctx, booking, stage, cfg.Next, models.OutcomeRejected, ErrPhotoRequired)
		return ErrPhotoRequired
	}

	return s.transition(ctx, booking, stage, cfg.Next)
}

// Cancel exits a booking to the cancelled drawer from whatever stage it is
// in. No photo gate applies.
func (s *BoardService) Cancel(ctx context.Context, id string) error {
	booking, stage, ok := s.board.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBookingNotOnBoard, id)
	}
	return s.transition(ctx, booking, stage, models.StatusCancelled)
}

func (s *BoardService) transition(ctx context.Context, booking models.Booking, from, to string) error {
	err := s.executor.Transition(ctx, booking.ID, from, to)

	switch {
	case err == nil:
		s.record(ctx, booking, from, to, models.OutcomeOK, nil)
		s.publishEvent(events.EventBookingTransitioned,
			transitionPayload(booking, from, to, models.OutcomeOK, s.board.Date(), nil))
		return nil

	case errors.Is(err, pipeline.ErrTransitionInFlight):
		// Вторая попытка по той же карточке; не журналируем
		return err

	case errors.Is(err, pipeline.ErrNotInStage):
		// Карточка исчезла из исходной колонки между Find и переводом;
		// сетевых вызовов не было, откатывать нечего
		s.record(ctx, booking, from, to, models.OutcomeRejected, err)
		return err

	default:
		// Rolled back means the card snapped back to its source column;
		// otherwise only the destination re-fetch failed after a confirmed
		// update and the card left the board until the next reload.
		outcome := models.OutcomeRefetchFailed
		if _, status, found := s.board.Find(booking.ID); found && status == from {
			outcome = models.OutcomeRolledBack
		}
		s.record(ctx, booking, from, to, outcome, err)
		s.publishEvent(events.EventTransitionFailed,
			transitionPayload(booking, from, to, outcome, s.board.Date(), err))
		return err
	}
}

// CreateBooking creates a booking server-side and refreshes the scheduled
// column so the new card shows up in server order.
func (s *BoardService) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	booking, err := s.api.CreateBooking(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	list, err := s.api.ListBookingsByStatusAndDate(ctx, models.StatusScheduled, s.board.Date())
	if err != nil {
		s.logger.Warn().Err(err).Msg("scheduled re-fetch failed after create")
	} else {
		s.board.Replace(models.StatusScheduled, list)
	}

	s.publishEvent(events.EventBookingCreated,
		transitionPayload(*booking, "", models.StatusScheduled, "", s.board.Date(), nil))
	return booking, nil
}

// Drawer refreshes and returns the completed and cancelled collections. The
// drawer has its own fetch; transitions never insert into these lists.
func (s *BoardService) Drawer(ctx context.Context, date time.Time) (completed, cancelled []models.Booking, err error) {
	completed, err = s.api.ListBookingsByStatusAndDate(ctx, models.StatusCompleted, date)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch completed: %w", err)
	}
	cancelled, err = s.api.ListBookingsByStatusAndDate(ctx, models.StatusCancelled, date)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch cancelled: %w", err)
	}
	s.board.Replace(models.StatusCompleted, completed)
	s.board.Replace(models.StatusCancelled, cancelled)
	s.saveSession(ctx, date, true)
	return completed, cancelled, nil
}

// BookingFormOptions собирает справочники для формы новой записи.
func (s *BoardService) BookingFormOptions(ctx context.Context) ([]models.Service, []models.AddOn, []models.Technician, error) {
	services, err := s.catalog.ListServices(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch services: %w", err)
	}
	addOns, err := s.catalog.ListAddOns(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch add-ons: %w", err)
	}
	technicians, err := s.catalog.ListTechnicians(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch technicians: %w", err)
	}
	return services, addOns, technicians, nil
}

// ResolveSubscription разрешает отсканированный QR код абонемента.
func (s *BoardService) ResolveSubscription(ctx context.Context, code string) (*models.Subscription, error) {
	sub, err := s.catalog.GetSubscriptionByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve subscription %s: %w", code, err)
	}
	return sub, nil
}

// Counts exposes per-column sizes for the header badges.
func (s *BoardService) Counts() map[string]int {
	return s.board.Counts()
}

// RestoreSession returns the session persisted by a previous run, nil when
// there is none or the state store is not configured.
func (s *BoardService) RestoreSession(ctx context.Context) *models.OperatorState {
	if s.state == nil {
		return nil
	}
	state, err := s.state.GetState(ctx, sessionOperatorID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("restore session state")
		return nil
	}
	return state
}

func (s *BoardService) saveSession(ctx context.Context, date time.Time, drawerOpen bool) {
	if s.state == nil {
		return
	}
	err := s.state.SetState(ctx, &models.OperatorState{
		OperatorID:   sessionOperatorID,
		BusinessDate: date.Format(schedule.DayFormat),
		DrawerOpen:   drawerOpen,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("persist session state")
	}
}

func (s *BoardService) record(ctx context.Context, booking models.Booking, from, to, outcome string, cause error) {
	if s.journal == nil {
		return
	}
	entry := &models.TransitionRecord{
		BookingID:  booking.ID,
		FromStatus: from,
		ToStatus:   to,
		Outcome:    outcome,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("journal transition")
	}
}

func (s *BoardService) publishEvent(eventType string, payload events.TransitionEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

func transitionPayload(booking models.Booking, from, to, outcome string, date time.Time, cause error) events.TransitionEventPayload {
	payload := events.TransitionEventPayload{
		BookingID:    booking.ID,
		CustomerName: booking.Customer.Name,
		CarPlate:     booking.Car.Plate,
		ServiceName:  booking.Service.Name,
		FromStatus:   from,
		ToStatus:     to,
		Outcome:      outcome,
		BusinessDate: date.Format(schedule.DayFormat),
		At:           time.Now(),
	}
	if cause != nil {
		payload.Error = cause.Error()
	}
	return payload
}
