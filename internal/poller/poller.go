// Package poller runs periodic refresh jobs on a gocron scheduler. Leaderboard sessions
// that cannot get a live change feed register a job here and keep their standings fresh
// by polling until the feed comes back.
package poller

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"

	"github.com/trentd187/golf-tournaments/internal/leaderboard"
)

var _ leaderboard.Refresher = (*Poller)(nil)

// Poller schedules one duration job per key.
type Poller struct {
	sched    gocron.Scheduler
	interval time.Duration
	logger   *log.Logger

	mu   sync.Mutex
	jobs map[string]gocron.Job
}

// New creates and starts a scheduler that runs every job once per interval.
func New(interval time.Duration, logger *log.Logger) (*Poller, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	sched.Start()
	return &Poller{
		sched:    sched,
		interval: interval,
		logger:   logger,
		jobs:     make(map[string]gocron.Job),
	}, nil
}

// Schedule runs fn every interval until cancel is called. Scheduling a key that is
// already registered replaces the old job.
func (p *Poller) Schedule(key string, fn func()) (cancel func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.jobs[key]; ok {
		p.remove(key, old)
	}

	job, err := p.sched.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(fn),
		gocron.WithTags(key),
		// A slow refresh must not pile up behind itself.
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", key, err)
	}
	p.jobs[key] = job
	p.logger.Debug("polling job scheduled", "key", key, "interval", p.interval)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if current, ok := p.jobs[key]; ok && current.ID() == job.ID() {
				p.remove(key, job)
			}
		})
	}, nil
}

func (p *Poller) remove(key string, job gocron.Job) {
	delete(p.jobs, key)
	if err := p.sched.RemoveJob(job.ID()); err != nil {
		p.logger.Warn("could not remove polling job", "key", key, "err", err)
	}
}

// Jobs reports how many polling jobs are registered.
func (p *Poller) Jobs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

// Shutdown stops the scheduler and waits for running jobs to finish.
func (p *Poller) Shutdown() error {
	return p.sched.Shutdown()
}
