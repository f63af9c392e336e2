package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prcodex/codexsage/internal/ports"
	"github.com/prcodex/codexsage/pkg/logger"
)

// CronScheduler drives recurring pipeline runs from a cron expression.
type CronScheduler struct {
	spec    string
	verbose bool
	runner  *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, verbose bool) *CronScheduler {
	return &CronScheduler{spec: spec, verbose: verbose}
}

// Start registers the job and begins the cron loop. The job also fires once
// immediately so a restart never waits a full interval.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if c.runner != nil {
		return nil
	}

	opts := []cron.Option{}
	if c.verbose {
		opts = append(opts, cron.WithLogger(cron.VerbosePrintfLogger(logger.New("cron"))))
	}

	runner := cron.New(opts...)
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now()) }); err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}

	c.runner = runner
	runner.Start()
	go job(time.Now())

	go func() {
		<-ctx.Done()
		runner.Stop()
	}()

	return nil
}

// Stop halts the cron loop, waiting for a running job to finish or the
// context to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.runner == nil {
		return nil
	}

	done := c.runner.Stop()
	c.runner = nil

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown: %w", ctx.Err())
	}
}
