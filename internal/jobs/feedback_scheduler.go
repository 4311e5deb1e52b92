package jobs

import (
	"context"
	"sync"
	"time"

	"pizzeria/internal/core/domain/model/session"
)

// pendingTask is one armed feedback prompt.
type pendingTask struct {
	identity session.Identity
	dueAt    time.Time
	payload  string
}

// FeedbackScheduler is the in-process deadline table behind the scheduler
// port. At most one task is pending per identity; scheduling again replaces
// the previous one. The feedback prompt job sweeps due tasks every second.
//
// Tasks do not survive a restart. The engine tolerates that: a lost prompt
// leaves the conversation in the feedback state, and the begin command
// always gets the customer out.
type FeedbackScheduler struct {
	mu    sync.Mutex
	tasks map[session.Identity]pendingTask
	now   func() time.Time
}

// NewFeedbackScheduler creates an empty scheduler.
func NewFeedbackScheduler() *FeedbackScheduler {
	return &FeedbackScheduler{
		tasks: make(map[session.Identity]pendingTask),
		now:   time.Now,
	}
}

// ScheduleOnce arms the payload to fire once after delay, replacing any
// pending task of the identity.
func (s *FeedbackScheduler) ScheduleOnce(
	_ context.Context, identity session.Identity, delay time.Duration, payload string,
) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks[identity] = pendingTask{
		identity: identity,
		dueAt:    s.now().Add(delay),
		payload:  payload,
	}
	s.mu.Unlock()
	return nil
}

// Cancel drops the pending task of the identity, if any.
func (s *FeedbackScheduler) Cancel(_ context.Context, identity session.Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.tasks, identity)
	s.mu.Unlock()
	return nil
}

// popDue removes and returns every task whose deadline has passed.
func (s *FeedbackScheduler) popDue() []pendingTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []pendingTask
	for identity, task := range s.tasks {
		if !task.dueAt.After(now) {
			due = append(due, task)
			delete(s.tasks, identity)
		}
	}
	return due
}
