package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pitchbook/config"
	"pitchbook/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitNotifyWorker runs the async notification worker in background.
func InitNotifyWorker() {
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
	mux.HandleFunc(tasks.TypeBookingNotify, handleBookingNotifyTask)

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[NotifyWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NotifyWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NotifyWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// handleBookingNotifyTask hands the transition to the delivery channel.
// Actual delivery (email/push) lives outside this service; the worker logs
// the dispatch so the transition trail is observable.
func handleBookingNotifyTask(ctx context.Context, task *asynq.Task) error {
	var p tasks.BookingNotifyPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		log.Printf("[NotifyHandler] Invalid payload: %v", err)
		return err
	}

	log.Printf("[NotifyHandler] Dispatching %s for booking %s (user %s, status %s/%s)",
		p.Event, p.BookingID, p.UserID, p.Status, p.PaymentStatus)
	return nil
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[NotifyWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
