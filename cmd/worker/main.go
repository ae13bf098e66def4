package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"comercio/internal/delivery"
	"comercio/internal/infra"
	"comercio/internal/infra/credentials"
	"comercio/internal/providers/whatsapp"
)

const stalledSweepInterval = 30 * time.Second

type deliveryWorker struct {
	ctx    context.Context
	queue  *delivery.Queue
	sender delivery.MessageSender
	logger infra.Logger

	pollInterval time.Duration
	stalledAfter time.Duration
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	accountSID := strings.TrimSpace(cfg.WhatsAppAccountSID)
	authToken := strings.TrimSpace(cfg.WhatsAppAuthToken)
	from := strings.TrimSpace(cfg.WhatsAppFrom)
	if accountSID == "" || authToken == "" {
		credStore := credentials.NewStore(runner)
		stored, err := credStore.WhatsAppCredentials(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load whatsapp credentials from store")
		} else {
			if accountSID == "" {
				accountSID = stored.AccountSID
			}
			if authToken == "" {
				authToken = stored.AuthToken
			}
			if from == "" {
				from = stored.From
			}
		}
	}

	client, err := whatsapp.NewClient(whatsapp.Options{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    cfg.WhatsAppBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure whatsapp client")
	}

	queue := delivery.NewQueue(runner, delivery.QueueOptions{
		MaxAttempts: cfg.DeliveryMaxAttempts,
		BackoffBase: cfg.DeliveryBackoffBase,
		Logger:      &logger,
	})

	worker := &deliveryWorker{
		ctx:          ctx,
		queue:        queue,
		sender:       &delivery.WhatsAppSender{Client: client},
		logger:       logger,
		pollInterval: delivery.DefaultPollInterval,
		stalledAfter: delivery.DefaultStalledAfter,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *deliveryWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	lastSweep := time.Now()
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		if time.Since(lastSweep) >= stalledSweepInterval {
			if rescued, err := w.queue.RequeueStalled(w.ctx, w.stalledAfter); err != nil {
				w.logger.Error().Err(err).Msg("worker: requeue stalled failed")
			} else if rescued > 0 {
				w.logger.Warn().Int("jobs", rescued).Msg("worker: requeued stalled deliveries")
			}
			lastSweep = time.Now()
		}

		claim, err := w.queue.Claim(w.ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			time.Sleep(w.pollInterval)
			continue
		}
		if claim == nil {
			time.Sleep(w.pollInterval)
			continue
		}

		w.handleJob(claim)
	}
}

func (w *deliveryWorker) handleJob(claim *delivery.ClaimedJob) {
	w.logger.Info().
		Str("job_id", claim.ID).
		Str("recipient", claim.Job.Recipient).
		Int("attempt", claim.Attempt).
		Msg("worker: picked job")

	sendErr := w.sender.SendMedia(w.ctx, claim.Job)
	if err := w.queue.Resolve(w.ctx, claim, sendErr); err != nil {
		w.logger.Error().Err(err).Str("job_id", claim.ID).Msg("worker: resolve failed")
		return
	}
	if sendErr == nil {
		w.logger.Info().
			Str("job_id", claim.ID).
			Str("correlation_id", claim.Job.CorrelationID).
			Msg("worker: delivery sent")
	}
}
