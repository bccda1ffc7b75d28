package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"craftlink/config"
	"craftlink/models"
	"craftlink/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeBookingReminder = "booking:reminder"

// reminderLead is how long before the scheduled slot the reminder fires.
const reminderLead = time.Hour

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

// InitReminderWorker runs the async reminder worker in the background.
func InitReminderWorker() {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingReminder, handleReminderTask(logger))

	go func() {
		logger.Info("starting booking reminder worker")
		if err := srv.Run(mux); err != nil {
			logger.Error("reminder worker stopped", zap.Error(err))
		}
	}()
}

func handleReminderTask(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return err
		}
		logger.Info("booking reminder due",
			zap.String("bookingId", p.BookingID),
			zap.String("scheduledDate", p.ScheduledDate),
			zap.String("scheduledTime", p.ScheduledTime),
			zap.String("title", p.Title))
		return nil
	}
}

// ScheduleReminder enqueues a reminder for a confirmed booking, to fire one
// hour before the scheduled slot. Slots closer than the lead time get the
// reminder immediately.
func ScheduleReminder(booking *models.Booking) error {
	slot, err := time.ParseInLocation("2006-01-02 15:04",
		booking.ScheduledDate+" "+booking.ScheduledTime, time.Local)
	if err != nil {
		return fmt.Errorf("unparseable booking slot: %w", err)
	}

	payload, err := json.Marshal(models.ReminderPayload{
		BookingID:     booking.ID,
		ArtisanID:     booking.ArtisanID,
		ScheduledDate: booking.ScheduledDate,
		ScheduledTime: booking.ScheduledTime,
		Title:         "Upcoming booking",
		Body:          fmt.Sprintf("Your artisan arrives at %s on %s.", booking.ScheduledTime, booking.ScheduledDate),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reminder payload: %w", err)
	}

	client := asynq.NewClient(redisOpts())
	defer client.Close()

	fireAt := slot.Add(-reminderLead)
	opts := []asynq.Option{asynq.TaskID("reminder:" + booking.ID)}
	if fireAt.After(time.Now()) {
		opts = append(opts, asynq.ProcessAt(fireAt))
	}
	if _, err := client.Enqueue(asynq.NewTask(TypeBookingReminder, payload), opts...); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	return nil
}
