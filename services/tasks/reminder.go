package tasks

import (
	"context"
	"encoding/json"
	"time"

	"artisanhub/models"

	"github.com/hibiken/asynq"
)

const TypeBookingReminder = "booking:reminder"

// ReminderPayload is the task body for a deferred booking reminder.
type ReminderPayload struct {
	BookingID     string `json:"bookingId"`
	UserID        string `json:"userId"`
	ArtisanID     string `json:"artisanId"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
}

// NewBookingReminderTask builds the asynq task and its process-at option.
func NewBookingReminderTask(payload ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

// AsynqReminderScheduler enqueues reminders on booking confirmation.
type AsynqReminderScheduler struct {
	client *asynq.Client
	lead   time.Duration
}

// NewAsynqReminderScheduler constructs a scheduler over the given Redis
// connection. lead is how far before the scheduled start the reminder fires.
func NewAsynqReminderScheduler(redisOpt asynq.RedisClientOpt, lead time.Duration) *AsynqReminderScheduler {
	return &AsynqReminderScheduler{
		client: asynq.NewClient(redisOpt),
		lead:   lead,
	}
}

// ScheduleReminder queues a reminder task ahead of the booking start. When
// the start is already inside the lead window, no reminder is queued.
func (s *AsynqReminderScheduler) ScheduleReminder(ctx context.Context, booking *models.Booking) error {
	start, err := booking.StartAt(time.Local)
	if err != nil {
		return err
	}
	fireAt := start.Add(-s.lead)
	if fireAt.Before(time.Now()) {
		return nil
	}

	task, opts, err := NewBookingReminderTask(ReminderPayload{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		ArtisanID:     booking.ArtisanID,
		ScheduledDate: booking.ScheduledDate,
		ScheduledTime: booking.ScheduledTime,
	}, fireAt)
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, task, opts...)
	return err
}

// Close releases the underlying asynq client.
func (s *AsynqReminderScheduler) Close() error {
	return s.client.Close()
}
