// The notifier is a run-to-completion job fired by an external
// scheduler once a day. One invocation performs one fan-out sweep and
// prints a JSON run summary on stdout.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/dspatel44/daily-quotes/internal/config"
	"github.com/dspatel44/daily-quotes/internal/notify"
	"github.com/dspatel44/daily-quotes/internal/secrets"
	"github.com/dspatel44/daily-quotes/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.URL == "" {
		logger.Error("QOTD_REDIS_URL is required for the notifier")
		os.Exit(1)
	}

	ctx := context.Background()

	pgStore, err := store.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	redisStore, err := store.NewRedis(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()

	// Claim the day before doing anything else. A second trigger on
	// the same day must not send the notification twice.
	lock := notify.NewRunLock(redisStore.Client())
	today := time.Now().UTC()
	acquired, err := lock.Acquire(ctx, today)
	if err != nil {
		logger.Error("failed to acquire run lock", "error", err)
		os.Exit(1)
	}
	if !acquired {
		logger.Info("notification already sent today, nothing to do")
		printSummary(&notify.RunSummary{Status: "already_sent"})
		return
	}

	// The webhook URL is secret material, resolved at run time.
	webhookURL, err := secrets.Resolve(cfg.Webhook.URL, cfg.Webhook.File)
	if err != nil {
		logger.Warn("failed to resolve webhook URL, skipping chat post", "error", err)
		webhookURL = ""
	}
	var chat notify.ChatPoster
	if webhookURL != "" {
		chat = notify.NewSlackChat(webhookURL)
	}

	mailer := &notify.SMTPMailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Sender:   cfg.SMTP.Sender,
	}

	deliverer := notify.NewDeliverer(
		mailer,
		notify.NewRateLimiter(redisStore.Client(), logger),
		notify.NewSuppression(redisStore.Client(), logger),
		pgStore,
		cfg.Notify.RateLimit,
		logger,
	)

	notifier := notify.New(notify.Config{
		Quotes:      pgStore,
		Subscribers: pgStore,
		Runs:        pgStore,
		Deliverer:   deliverer,
		Chat:        chat,
		Subject:     cfg.Notify.Subject,
		Workers:     cfg.Notify.Workers,
		Logger:      logger,
	})

	summary, err := notifier.Run(ctx)
	if err != nil {
		// Nothing was delivered; free the day so a retried trigger
		// can still send.
		logger.Error("notification run failed", "error", err)
		if relErr := lock.Release(ctx, today); relErr != nil {
			logger.Error("failed to release run lock", "error", relErr)
		}
		os.Exit(1)
	}

	printSummary(summary)
}

// printSummary writes the run outcome to stdout as the job's exit
// body, statusCode included for the scheduler's benefit.
func printSummary(summary *notify.RunSummary) {
	out := struct {
		StatusCode int                `json:"statusCode"`
		Body       *notify.RunSummary `json:"body"`
	}{
		StatusCode: 200,
		Body:       summary,
	}
	json.NewEncoder(os.Stdout).Encode(out)
}
