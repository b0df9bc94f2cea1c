package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"BreakoutScreener/internal/notifier"
	"BreakoutScreener/internal/scanner"
)

// Runner performs one scan.
type Runner interface {
	Run(ctx context.Context) (*scanner.Report, error)
}

// Scheduler triggers the daily scan on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier notifier.Sender // optional
	Ctx      context.Context
}

// NewScheduler creates a Scheduler evaluating cron expressions (with seconds) in loc.
// Overlapping runs are skipped so the store update always has exclusive access.
func NewScheduler(ctx context.Context, runner Runner, sender notifier.Sender, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cron.VerbosePrintfLogger(logrus.StandardLogger())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
		),
		Runner:   runner,
		Notifier: sender,
		Ctx:      ctx,
	}
}

// RegisterDaily registers the scan at dailyCron.
func (s *Scheduler) RegisterDaily(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyScan); err != nil {
		return fmt.Errorf("register daily scan: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logrus.Info("scheduler started")
}

// Stop stops the scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logrus.Info("scheduler stopped")
}

// RunNow executes the scan immediately (for -once / RUN_ON_START).
func (s *Scheduler) RunNow() (*scanner.Report, error) {
	return s.scan()
}

func (s *Scheduler) dailyScan() {
	_, _ = s.scan()
}

func (s *Scheduler) scan() (*scanner.Report, error) {
	logrus.Info("running daily scan")
	report, err := s.Runner.Run(s.Ctx)
	switch {
	case report != nil:
		if err != nil {
			logrus.Errorf("daily scan: %v", err)
		}
		s.trySend(notifier.FormatScanReport(report))
	case err != nil:
		logrus.Errorf("daily scan aborted: %v", err)
		if s.Ctx.Err() == nil {
			s.trySend(notifier.FormatFailure(err))
		}
	}
	return report, err
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := notifier.SendWithRetry(s.Ctx, s.Notifier, text, 3); err != nil {
		logrus.Errorf("send notification: %v", err)
	}
}
