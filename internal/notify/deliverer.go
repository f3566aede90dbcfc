package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/dspatel44/daily-quotes/internal/domain"
	"github.com/dspatel44/daily-quotes/internal/store"
)

// emailTransport keys the shared rate limit for the mail relay.
const emailTransport = "email"

// RunRecorder persists per-recipient outcomes as the fan-out runs.
type RunRecorder interface {
	RecordEmailDelivery(ctx context.Context, rec store.EmailDeliveryRecord) error
}

// Delivery is one recipient's share of a notification run.
type Delivery struct {
	RunID     string
	Recipient string
	Subject   string
	Body      string
}

// Result is the outcome of one delivery attempt.
type Result struct {
	Recipient string
	Status    string
}

// Deliverer handles one email delivery: suppression check, pacing,
// send, and attempt recording. A failure never escapes past the
// recipient it belongs to.
type Deliverer struct {
	mailer      Mailer
	limiter     *RateLimiter
	suppression *Suppression
	recorder    RunRecorder
	logger      *slog.Logger
	rateLimit   int
}

// NewDeliverer creates a deliverer. limiter and suppression may be nil
// to disable pacing and bounce suppression.
func NewDeliverer(mailer Mailer, limiter *RateLimiter, suppression *Suppression, recorder RunRecorder, rateLimit int, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		mailer:      mailer,
		limiter:     limiter,
		suppression: suppression,
		recorder:    recorder,
		logger:      logger,
		rateLimit:   rateLimit,
	}
}

// Deliver attempts one email and records the attempt.
func (d *Deliverer) Deliver(ctx context.Context, job Delivery) Result {
	start := time.Now()

	if d.suppression != nil {
		if state, ok := d.suppression.Allow(ctx, job.Recipient); !ok {
			d.logger.Info("delivery skipped",
				"recipient", job.Recipient,
				"state", state,
			)
			d.recordAttempt(ctx, job, start, domain.DeliverySkipped, "recipient suppressed")
			return Result{Recipient: job.Recipient, Status: domain.DeliverySkipped}
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, emailTransport, d.rateLimit); err != nil {
			d.recordAttempt(ctx, job, start, domain.DeliveryFailed, "cancelled while pacing: "+err.Error())
			return Result{Recipient: job.Recipient, Status: domain.DeliveryFailed}
		}
	}

	err := d.mailer.Send(ctx, job.Recipient, job.Subject, job.Body)
	if err != nil {
		if d.suppression != nil {
			d.suppression.RecordFailure(ctx, job.Recipient)
		}
		d.recordAttempt(ctx, job, start, domain.DeliveryFailed, err.Error())
		return Result{Recipient: job.Recipient, Status: domain.DeliveryFailed}
	}

	if d.suppression != nil {
		d.suppression.RecordSuccess(ctx, job.Recipient)
	}
	d.recordAttempt(ctx, job, start, domain.DeliverySent, "")
	return Result{Recipient: job.Recipient, Status: domain.DeliverySent}
}

// recordAttempt logs the delivery result and persists it.
func (d *Deliverer) recordAttempt(ctx context.Context, job Delivery, start time.Time, status, errMsg string) {
	elapsed := time.Since(start).Milliseconds()

	if d.recorder != nil {
		err := d.recorder.RecordEmailDelivery(ctx, store.EmailDeliveryRecord{
			RunID:        job.RunID,
			Recipient:    job.Recipient,
			Status:       status,
			DurationMs:   int(elapsed),
			ErrorMessage: errMsg,
		})
		if err != nil {
			d.logger.Error("failed to record email delivery",
				"error", err,
				"run_id", job.RunID,
				"recipient", job.Recipient,
			)
		}
	}

	if status == domain.DeliverySent {
		d.logger.Info("delivery successful",
			"run_id", job.RunID,
			"recipient", job.Recipient,
			"duration_ms", elapsed,
		)
	} else {
		d.logger.Warn("delivery not sent",
			"run_id", job.RunID,
			"recipient", job.Recipient,
			"status", status,
			"error", errMsg,
			"duration_ms", elapsed,
		)
	}
}
