package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"artisanhub/config"
	bookingRepo "artisanhub/database/repository/booking"
	"artisanhub/models"
	"artisanhub/services/notify"
	"artisanhub/services/tasks"

	"github.com/hibiken/asynq"
)

// InitReminderWorker runs the async worker in background. Reminders are
// best-effort pushes through the fan-out router: an offline party simply
// misses the reminder.
func InitReminderWorker(flows *notify.Flows, bookings bookingRepo.BookingRepository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingReminder, handleReminderTask(flows, bookings))

	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		if err := srv.Run(mux); err != nil {
			log.Printf("[ReminderWorker] worker stopped: %v", err)
		}
	}()
}

func handleReminderTask(flows *notify.Flows, bookings bookingRepo.BookingRepository) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload tasks.ReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to decode reminder payload: %w", err)
		}

		// The booking may have been cancelled since the reminder was queued.
		b, err := bookings.GetByID(ctx, payload.BookingID)
		if err != nil || b.CurrentStatus != models.StatusConfirmed {
			return nil
		}

		flows.Router.NotifyMany([]string{b.UserID, b.ArtisanID}, models.EventNotification, map[string]any{
			"type":      "booking_reminder",
			"bookingId": b.ID,
			"date":      b.ScheduledDate,
			"time":      b.ScheduledTime,
		})
		return nil
	}
}
