package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playcafe/internal/domain"
	"playcafe/internal/events"
	"playcafe/internal/metrics"
	"playcafe/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert = "upsert"
	TaskDelete = "delete"
)

// syncTaskPayload is persisted in SyncTask.Payload as JSON.
type syncTaskPayload struct {
	BookingID string          `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
}

// SyncWorker drains the sync_queue into the spreadsheet mirror. Tasks are
// handed over through Redis when available, an in-memory channel otherwise,
// and the database is polled for retries and anything the fast paths missed.
type SyncWorker struct {
	queue         domain.SyncQueue
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	local         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewSyncWorker(queue domain.SyncQueue, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SyncWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SyncWorker{
		queue:         queue,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		local:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// Attach enqueues a task for every booking change published on bus.
func (w *SyncWorker) Attach(bus *events.EventBus) {
	handler := func(event *events.Event) error {
		change, err := event.Change()
		if err != nil {
			w.logger.Error().Err(err).Str("event", event.Type).Msg("Decode booking change")
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		taskType, booking := TaskUpsert, change.New
		if change.Type == models.ChangeDelete {
			taskType, booking = TaskDelete, change.Old
		}
		if err := w.EnqueueTask(ctx, taskType, booking); err != nil {
			w.logger.Error().Err(err).Str("booking_id", change.BookingID()).Msg("Enqueue sync task")
			return err
		}
		return nil
	}
	bus.SubscribeBookings(handler)
}

// EnqueueTask persists the task and schedules it via redis or the in-memory queue.
func (w *SyncWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if booking == nil || booking.ID == "" {
		return errors.New("booking id is required")
	}

	payload := syncTaskPayload{BookingID: booking.ID}
	if taskType == TaskUpsert {
		payload.Booking = booking
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{
		TaskType:  taskType,
		BookingID: booking.ID,
		Payload:   string(payloadBytes),
		Status:    "pending",
	}
	if err := w.queue.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, task); err != nil {
			w.logger.Warn().Err(err).Msg("Redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.local <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("In-memory queue full, task left to polling")
	}
	return nil
}

// Start runs the main loop until ctx is done.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Sync worker started")
	defer w.logger.Info().Msg("Sync worker stopped")
	w.reportDeadLetters(ctx)

	for ctx.Err() == nil {
		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}
		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.queue.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("Fetch pending sync tasks")
			}
			w.wait(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.wait(ctx)
			continue
		}
		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

// reportDeadLetters logs tasks that exhausted their retries in earlier runs.
// They stay in the queue table for manual replay.
func (w *SyncWorker) reportDeadLetters(ctx context.Context) int {
	failed, err := w.queue.GetFailedSyncTasks(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("List failed sync tasks")
		return 0
	}
	if len(failed) > 0 {
		var ids []string
		for i := 0; i < len(failed) && i < 10; i++ {
			ids = append(ids, failed[i].BookingID)
		}
		w.logger.Warn().Int("count", len(failed)).Strs("booking_ids", ids).Msg("Sheets sync has dead-lettered tasks")
	}
	return len(failed)
}

// wait sleeps for the poll interval, waking early for local work or shutdown.
func (w *SyncWorker) wait(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case t := <-w.local:
		w.processTask(ctx, &t)
	}
}

func (w *SyncWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.local:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SyncWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			w.logger.Error().Err(err).Msg("Redis BRPOP failed")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SyncWorker) processTask(ctx context.Context, task *models.SyncTask) {
	payload, err := decodePayload(task.Payload)
	if err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Mark sync task completed")
	}
	metrics.IncSyncTask("completed")
}

func (w *SyncWorker) handleTask(ctx context.Context, taskType string, payload syncTaskPayload) error {
	switch taskType {
	case TaskUpsert:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, payload.Booking)
	case TaskDelete:
		if payload.BookingID == "" {
			return errors.New("booking id missing")
		}
		return w.sheets.DeleteBooking(ctx, payload.BookingID)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SyncWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.failTask(ctx, task, cause)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Mark sync task retry")
	}
	metrics.IncSyncTask("retry")
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", nextTime).Msg("Sync task will retry")
}

func (w *SyncWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.queue.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Mark sync task failed")
	}
	metrics.IncSyncTask("failed")
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("booking_id", task.BookingID).Msg("Sync task moved to dead letter")
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.deadLetterKey, *task); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Dead letter push failed")
		}
	}
}

func decodePayload(raw string) (syncTaskPayload, error) {
	var payload syncTaskPayload
	err := json.Unmarshal([]byte(raw), &payload)
	return payload, err
}

func (w *SyncWorker) pushRedis(ctx context.Context, key string, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}
