//+build !release

package mocks

import "sync"

// FakeCron records scheduled jobs, so tests could trigger them manually.
type FakeCron struct {
	sync.Mutex
	Specs   map[int]string
	Stopped bool
	jobs    map[int]func()
	counter int
}

// AddFunc records a new job.
func (f *FakeCron) AddFunc(spec string, cmd func()) (int, error) {
	f.Lock()
	defer f.Unlock()
	f.counter++
	f.Specs[f.counter] = spec
	f.jobs[f.counter] = cmd
	return f.counter, nil
}

// RemoveFunc removes recorded job.
func (f *FakeCron) RemoveFunc(id int) {
	f.Lock()
	defer f.Unlock()
	delete(f.Specs, id)
	delete(f.jobs, id)
}

// Stop marks scheduler as stopped.
func (f *FakeCron) Stop() {
	f.Lock()
	defer f.Unlock()
	f.Stopped = true
}

// RunAll invokes every recorded job.
func (f *FakeCron) RunAll() {
	f.Lock()
	jobs := make([]func(), 0, len(f.jobs))
	for _, v := range f.jobs {
		jobs = append(jobs, v)
	}
	f.Unlock()

	for _, v := range jobs {
		v()
	}
}

// FakeNewCron creates a fake cron provider.
func FakeNewCron() *FakeCron {
	return &FakeCron{
		Specs: make(map[int]string),
		jobs:  make(map[int]func()),
	}
}
