package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/model"
	"github.com/libraworks/library-api/internal/notify"
)

type Config struct {
	Message string `yaml:"message" envconfig:"OVERDUE_MESSAGE" default:"You have an overdue book loan. Please return it to the library."`
	RunAt   string `yaml:"runAt" envconfig:"OVERDUE_RUN_AT" default:"00:00"`
}

// LoanSource yields the open loans that are overdue at now.
type LoanSource interface {
	Overdue(ctx context.Context, now time.Time) ([]model.Loan, error)
}

// Job notifies customers of overdue loans once per day. There is no
// notified-state tracking: a loan stays in the batch until it is returned.
type Job struct {
	loans  LoanSource
	sender notify.Sender
	cfg    Config
	log    *zap.Logger
}

func New(loans LoanSource, sender notify.Sender, cfg Config, log *zap.Logger) *Job {
	return &Job{
		loans:  loans,
		sender: sender,
		cfg:    cfg,
		log:    log.Named("overdue-job"),
	}
}

// Run fires the job at the configured wall-clock time every day until ctx is
// canceled. A failed run is logged and terminal for that run only.
func (j *Job) Run(ctx context.Context) {
	for {
		next := nextRun(time.Now(), j.cfg.RunAt)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := j.RunOnce(ctx, time.Now()); err != nil {
			j.log.Error("overdue notification run", zap.Error(err))
		}
	}
}

// RunOnce collects overdue loans and dispatches one batched notice.
func (j *Job) RunOnce(ctx context.Context, now time.Time) error {
	loans, err := j.loans.Overdue(ctx, now)
	if err != nil {
		return err
	}

	recipients := make([]string, 0, len(loans))
	for _, loan := range loans {
		if loan.CustomerEmail == "" {
			continue
		}
		recipients = append(recipients, loan.CustomerEmail)
	}
	j.log.Debug("overdue loans", zap.Int("loans", len(loans)), zap.Int("recipients", len(recipients)))
	if len(recipients) == 0 {
		return nil
	}

	return j.sender.Send(ctx, j.cfg.Message, recipients)
}

// nextRun is the first instant after now matching the "15:04" run-at time.
func nextRun(now time.Time, runAt string) time.Time {
	at, err := time.Parse("15:04", runAt)
	if err != nil {
		at = time.Time{} // midnight
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
