package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// Mutation is a client-side intent applied optimistically before the store
// confirms it.
type Mutation struct {
	TaskID   string
	Event    domain.TransitionEvent
	Actor    string
	PhotoURL *string
}

// Notice is a non-fatal message surfaced to the UI when a local optimistic
// mutation lost a race against the authoritative store.
type Notice struct {
	TaskID      string
	CompletedBy string
	Message     string
}

type entry struct {
	authoritative domain.Task
	optimistic    *domain.Task
	pending       *Mutation
}

// Coordinator reconciles locally optimistic task views against authoritative
// store updates. Authority is decided by store revision, never wall clock:
// a remote row with a higher revision always replaces the local base, and a
// pending optimistic mutation is discarded when the remote state shows the
// race was lost.
type Coordinator struct {
	tasks   ports.TaskRepository
	mu      sync.Mutex
	entries map[string]*entry
	notices chan Notice
	now     func() time.Time
}

func NewCoordinator(tasks ports.TaskRepository) *Coordinator {
	return &Coordinator{
		tasks:   tasks,
		entries: make(map[string]*entry),
		notices: make(chan Notice, 16),
		now:     time.Now,
	}
}

// Notices exposes the race-loss messages for the UI layer to drain.
func (c *Coordinator) Notices() <-chan Notice {
	return c.notices
}

// Track seeds the coordinator with an authoritative snapshot of a task.
func (c *Coordinator) Track(task domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[task.ID]; ok {
		if task.Revision >= e.authoritative.Revision {
			e.authoritative = task
		}
		return
	}
	c.entries[task.ID] = &entry{authoritative: task}
}

// Get returns the task as the local client should currently render it: the
// optimistic view when a mutation is in flight, otherwise the authoritative
// one.
func (c *Coordinator) Get(taskID string) (domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[taskID]
	if !ok {
		return domain.Task{}, false
	}
	if e.optimistic != nil {
		return *e.optimistic, true
	}
	return e.authoritative, true
}

// ApplyLocal applies a mutation to the local view without waiting for the
// store. The same transition table used by the state machine decides whether
// the intent is valid against what the client can currently see.
func (c *Coordinator) ApplyLocal(mutation Mutation) (domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[mutation.TaskID]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	base := e.authoritative
	if e.optimistic != nil {
		base = *e.optimistic
	}

	patch, noop, err := domain.BuildTransitionPatch(base, mutation.Event, mutation.Actor, mutation.PhotoURL, c.now().UTC())
	if err != nil {
		return base, err
	}
	if noop {
		return base, nil
	}

	next := base.WithPatch(patch)
	e.optimistic = &next
	e.pending = &mutation
	return next, nil
}

// Reconcile folds an authoritative store update into the local view. Stale
// updates (older revision) are dropped. A pending optimistic complete that
// the remote shows was won by someone else is discarded and surfaced as an
// "already completed by X" notice rather than an error.
func (c *Coordinator) Reconcile(remote domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[remote.ID]
	if !ok {
		c.entries[remote.ID] = &entry{authoritative: remote}
		return
	}
	if remote.Revision < e.authoritative.Revision {
		return
	}
	e.authoritative = remote

	if e.pending == nil {
		e.optimistic = nil
		return
	}

	if e.pending.Event == domain.EventComplete && remote.Status == domain.TaskStatusCompleted {
		if remote.CompletedBy != nil && *remote.CompletedBy != e.pending.Actor {
			c.pushNotice(Notice{
				TaskID:      remote.ID,
				CompletedBy: *remote.CompletedBy,
				Message:     "task was already completed by another member",
			})
		}
		// Either way the task converged to completed; the optimistic copy has
		// nothing left to say.
		e.optimistic = nil
		e.pending = nil
		return
	}

	if remote.Status.IsTerminal() || mutationReflected(*e.pending, remote) {
		e.optimistic = nil
		e.pending = nil
		return
	}

	// The remote moved but our intent is still in flight: rebase the
	// optimistic view on the new authoritative state if it is still valid.
	patch, noop, err := domain.BuildTransitionPatch(remote, e.pending.Event, e.pending.Actor, e.pending.PhotoURL, c.now().UTC())
	if err != nil || noop {
		e.optimistic = nil
		e.pending = nil
		return
	}
	rebased := remote.WithPatch(patch)
	e.optimistic = &rebased
}

// Subscribe keeps the coordinator's authoritative snapshots current by
// re-fetching each task whose transition committed.
func (c *Coordinator) Subscribe(bus ports.EventBus) {
	bus.Subscribe(func(event domain.TaskTransitioned) {
		task, err := c.tasks.Get(context.Background(), event.TaskID)
		if err != nil {
			zap.L().Warn("failed to refresh task after transition",
				zap.String("task_id", event.TaskID),
				zap.Error(err),
			)
			return
		}
		c.Reconcile(task)
	})
}

func (c *Coordinator) pushNotice(notice Notice) {
	select {
	case c.notices <- notice:
	default:
		// A UI that never drains notices should not wedge reconciliation.
		zap.L().Warn("dropping sync notice", zap.String("task_id", notice.TaskID))
	}
}

func mutationReflected(m Mutation, remote domain.Task) bool {
	switch m.Event {
	case domain.EventStart:
		return remote.Status == domain.TaskStatusInProgress
	case domain.EventComplete:
		return remote.Status == domain.TaskStatusCompleted
	case domain.EventCancel:
		return remote.Status == domain.TaskStatusCancelled
	case domain.EventReopen:
		return remote.Status == domain.TaskStatusPending
	}
	return false
}
