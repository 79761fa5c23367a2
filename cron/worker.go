package cron

import (
	"context"
	"fmt"
	"time"

	"vendora/config"
	invoiceRepo "vendora/database/repository/invoice"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeOverdueSweep = "invoice:overdue_sweep"

// InitOverdueSweeper runs the async worker and scheduler in the background.
// The sweep marks untouched PENDING invoices past their due date as OVERDUE;
// it never cancels or refunds anything.
func InitOverdueSweeper(invoices invoiceRepo.InvoiceRepository, logger *zap.Logger) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOverdueSweep, handleOverdueSweep(invoices, logger))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	interval := config.AppConfig.OverdueSweepMinutes
	if interval <= 0 {
		interval = 60
	}
	spec := fmt.Sprintf("@every %dm", interval)
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeOverdueSweep, nil)); err != nil {
		logger.Error("failed to register overdue sweep schedule", zap.Error(err))
		return
	}

	go func() {
		logger.Info("starting overdue sweep worker")
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("overdue sweep worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Fatal("overdue sweep worker exhausted retries")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("overdue sweep scheduler stopped", zap.Error(err))
		}
	}()
}

func handleOverdueSweep(invoices invoiceRepo.InvoiceRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := invoices.SweepOverdue(ctx, time.Now())
		if err != nil {
			logger.Error("overdue sweep failed", zap.Error(err))
			return err
		}
		if n > 0 {
			logger.Info("overdue sweep completed", zap.Int64("invoices_marked", n))
		}
		return nil
	}
}
