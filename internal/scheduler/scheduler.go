// Package scheduler repeats scanning sessions on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Runs never overlap: a tick that arrives while
// the previous session is still going is skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	job  Job
	mu   sync.Mutex
	wg   sync.WaitGroup
}

// New creates a Scheduler for spec, e.g. "@every 2h" or "0 9-18 * * 1-5".
func New(spec string, job Job) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		spec: spec,
		job:  job,
	}
}

// Start registers the job, starts the cron loop and runs once right away.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("⏰ Scheduler started, spec: %s", s.spec)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunNow(ctx)
	}()
	return nil
}

// RunNow runs the job unless a run is already in progress and reports
// whether it ran.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	if !s.mu.TryLock() {
		log.Println("⏭️ Previous session still running, skipping this tick")
		return false
	}
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}
	if err := s.job(ctx); err != nil {
		log.Printf("❌ Scheduled session failed: %v", err)
	}
	return true
}

// Stop stops new ticks and waits for a running session to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("⏰ Scheduler stopped")
}
