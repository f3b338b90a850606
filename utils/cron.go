package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/providers"
	"gopkg.in/robfig/cron.v2"
)

// Scheduler for polling and refresh jobs.
type cronProvider struct {
	sync.Mutex
	cron    *cron.Cron
	stopped bool
}

// NewCron creates a new scheduler and starts it.
func NewCron() providers.ICronProvider {
	p := &cronProvider{
		cron: cron.New(),
	}

	p.cron.Start()
	return p
}

// EverySpec returns spec of a job repeated with the given interval.
// Interval is truncated to seconds.
func EverySpec(interval time.Duration) string {
	return fmt.Sprintf("@every %ds", int(interval/time.Second))
}

// AddFunc schedules a new job.
// Returned ID is used to cancel the job.
func (p *cronProvider) AddFunc(spec string, cmd func()) (int, error) {
	p.Lock()
	defer p.Unlock()

	if p.stopped {
		return -1, &ErrSchedulerStopped{}
	}

	id, err := p.cron.AddFunc(spec, cmd)
	if err != nil {
		return -1, err
	}

	return int(id), nil
}

// RemoveFunc cancels scheduled job.
func (p *cronProvider) RemoveFunc(id int) {
	if id < 0 {
		return
	}

	p.cron.Remove(cron.EntryID(id))
}

// Stop halts the scheduler. Jobs which are already running are not interrupted.
func (p *cronProvider) Stop() {
	p.Lock()
	defer p.Unlock()

	if p.stopped {
		return
	}

	p.stopped = true
	p.cron.Stop()
}
