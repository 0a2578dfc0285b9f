// Package scheduler runs keyed, cancellable one-shot tasks on an injectable
// clock. Tests drive it with a fake clock instead of sleeping.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zoobzio/clockz"
)

// Task runs once when its delay elapses. The context is cancelled on Stop.
type Task func(ctx context.Context)

type entry struct {
	cancel chan struct{}
}

type Scheduler struct {
	clock clockz.Clock
	log   logrus.FieldLogger
	ctx   context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup
	mu    sync.Mutex
	tasks map[string]*entry
}

func New(clock clockz.Clock, log logrus.FieldLogger) *Scheduler {
	if clock == nil {
		clock = clockz.RealClock
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Scheduler{
		clock: clock,
		log:   log,
		ctx:   ctx,
		stop:  stop,
		tasks: make(map[string]*entry),
	}
}

// Schedule runs task after delay. A task already scheduled under the same
// key is replaced.
func (s *Scheduler) Schedule(key string, delay time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	if existing, ok := s.tasks[key]; ok {
		close(existing.cancel)
	}

	e := &entry{cancel: make(chan struct{})}
	s.tasks[key] = e
	fire := s.clock.After(delay)

	s.wg.Add(1)
	go s.run(key, e, fire, task)
}

// Cancel drops a scheduled task and reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[key]
	if !ok {
		return false
	}
	close(e.cancel)
	delete(s.tasks, key)
	return true
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every pending task and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stop()
	for key, e := range s.tasks {
		close(e.cancel)
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) run(key string, e *entry, fire <-chan time.Time, task Task) {
	defer s.wg.Done()

	select {
	case <-fire:
	case <-e.cancel:
		return
	case <-s.ctx.Done():
		return
	}

	s.mu.Lock()
	if s.tasks[key] != e {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("task", key).Errorf("Scheduled task panicked: %v", r)
		}
	}()
	task(s.ctx)
}
