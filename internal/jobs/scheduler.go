// Package jobs runs the backend's periodic housekeeping.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is a named task run on a fixed interval
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs until its context is cancelled
type Scheduler struct {
	log  logrus.FieldLogger
	jobs []Job
	wg   sync.WaitGroup
}

// NewScheduler creates a scheduler. Jobs with a non-positive interval are skipped.
func NewScheduler(log logrus.FieldLogger, jobs ...Job) *Scheduler {
	s := &Scheduler{log: log}
	for _, j := range jobs {
		if j.Interval <= 0 {
			log.WithField("job", j.Name).Info("job disabled")
			continue
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

// Start launches one goroutine per job. Each job runs once immediately and
// then on every tick.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(j)
	}
}

// Wait blocks until every job goroutine has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	s.runOnce(ctx, j)
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	entry := s.log.WithField("job", j.Name)
	if err := j.Run(runCtx); err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.WithField("duration", time.Since(start).String()).Debug("job finished")
}
