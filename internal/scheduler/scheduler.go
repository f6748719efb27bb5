// Package scheduler runs periodic jobs on cron expressions in the server's
// local time zone.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work.  It receives a context bounded by the
// job's timeout.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner.  Runs of the same job never overlap; a
// tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	c   *cron.Cron
	log *log.Logger
}

func New(logger *log.Logger) *Scheduler {
	return &Scheduler{
		c: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		log: logger,
	}
}

// Add registers job under name on the five-field spec.
func (s *Scheduler) Add(name, spec string, timeout time.Duration, job Job) error {
	_, err := s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Errorf("job %s failed after %s: %v", name, time.Since(start), err)
			return
		}
		s.log.Infof("job %s finished in %s", name, time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() { s.c.Start() }

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts gommon to cron.Logger.
type cronLogger struct{ l *log.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debugj(log.JSON{"msg": msg, "kv": fmt.Sprint(kv...)})
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Errorj(log.JSON{"msg": msg, "error": err.Error(), "kv": fmt.Sprint(kv...)})
}
