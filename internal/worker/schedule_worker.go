package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"washboard/internal/domain"
	"washboard/internal/models"
	"washboard/internal/pipeline"
	"washboard/internal/schedule"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// scheduleTask is persisted in the Redis queue as JSON.
type scheduleTask struct {
	Date    string `json:"date"`
	Attempt int    `json:"attempt"`
}

// ScheduleWorker drains sync requests and mirrors the board snapshot to the
// schedule sheet. Tasks go through Redis when it is available, so a restart
// does not drop them; otherwise an in-memory queue is used. Tasks that
// exhaust retries land in a dead-letter list.
type ScheduleWorker struct {
	sheets      domain.ScheduleWriter
	board       *pipeline.Board
	redisClient *redis.Client
	retryPolicy RetryPolicy
	queue       chan scheduleTask
	queueKey    string
	deadKey     string
	logger      *zerolog.Logger
}

func NewScheduleWorker(sheets domain.ScheduleWriter, board *pipeline.Board, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *ScheduleWorker {
	if retry.MaxRetries == 0 {
		retry = DefaultRetryPolicy
	}

	return &ScheduleWorker{
		sheets:      sheets,
		board:       board,
		redisClient: redisClient,
		retryPolicy: retry,
		queue:       make(chan scheduleTask, models.WorkerQueueSize),
		queueKey:    "schedule:queue",
		deadKey:     "schedule:deadletter",
		logger:      logger,
	}
}

// EnqueueSyncSchedule schedules a mirror of the given business date.
func (w *ScheduleWorker) EnqueueSyncSchedule(ctx context.Context, date time.Time) error {
	task := scheduleTask{Date: date.Format(schedule.DayFormat)}

	if w.redisClient != nil {
		data, err := json.Marshal(task)
		if err != nil {
			return err
		}
		if err := w.redisClient.LPush(ctx, w.queueKey, data).Err(); err == nil {
			return nil
		}
		// Redis недоступен, падаем на очередь в памяти
	}

	select {
	case w.queue <- task:
		return nil
	default:
		return errors.New("schedule queue is full")
	}
}

// Run processes tasks until the context is done.
func (w *ScheduleWorker) Run(ctx context.Context) {
	for {
		task, ok := w.nextTask(ctx)
		if !ok {
			return
		}
		w.process(ctx, task)
	}
}

func (w *ScheduleWorker) nextTask(ctx context.Context) (scheduleTask, bool) {
	for {
		if ctx.Err() != nil {
			return scheduleTask{}, false
		}

		if w.redisClient != nil {
			res, err := w.redisClient.BRPop(ctx, 2*time.Second, w.queueKey).Result()
			if err == nil && len(res) == 2 {
				var task scheduleTask
				if jsonErr := json.Unmarshal([]byte(res[1]), &task); jsonErr == nil {
					return task, true
				}
				w.logger.Error().Str("raw", res[1]).Msg("malformed schedule task dropped")
				continue
			}
			if err != nil && err != redis.Nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("pop schedule task")
			}
			// Дополнительно проверяем очередь в памяти
			select {
			case task := <-w.queue:
				return task, true
			case <-ctx.Done():
				return scheduleTask{}, false
			default:
				continue
			}
		}

		select {
		case task := <-w.queue:
			return task, true
		case <-time.After(time.Second):
		case <-ctx.Done():
			return scheduleTask{}, false
		}
	}
}

func (w *ScheduleWorker) process(ctx context.Context, task scheduleTask) {
	date, err := time.Parse(schedule.DayFormat, task.Date)
	if err != nil {
		w.logger.Error().Str("date", task.Date).Msg("malformed schedule task date")
		return
	}

	if err := w.sheets.UpdateScheduleSheet(ctx, date, w.board.Snapshot()); err == nil {
		w.logger.Debug().Str("date", task.Date).Msg("schedule sheet updated")
		return
	} else if ctx.Err() != nil {
		return
	} else {
		task.Attempt++
		if task.Attempt > w.retryPolicy.MaxRetries {
			w.deadLetter(ctx, task, err)
			return
		}
		delay := w.retryPolicy.NextDelay(task.Attempt)
		w.logger.Warn().Err(err).Int("attempt", task.Attempt).Dur("delay", delay).Msg("schedule sync failed, will retry")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		w.requeue(ctx, task)
	}
}

func (w *ScheduleWorker) requeue(ctx context.Context, task scheduleTask) {
	if w.redisClient != nil {
		if data, err := json.Marshal(task); err == nil {
			if err := w.redisClient.LPush(ctx, w.queueKey, data).Err(); err == nil {
				return
			}
		}
	}
	select {
	case w.queue <- task:
	default:
		w.logger.Error().Str("date", task.Date).Msg("schedule queue full, task dropped")
	}
}

func (w *ScheduleWorker) deadLetter(ctx context.Context, task scheduleTask, cause error) {
	w.logger.Error().Err(cause).Str("date", task.Date).Int("attempts", task.Attempt).Msg("schedule sync gave up")
	if w.redisClient == nil {
		return
	}
	if data, err := json.Marshal(task); err == nil {
		_ = w.redisClient.LPush(ctx, w.deadKey, data).Err()
	}
}
