package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"typeb/internal/adapter/db/memory"
	"typeb/internal/app/events"
	"typeb/internal/core/domain"
)

func snapshot(revision int64) domain.Task {
	return domain.Task{
		ID:         "task-1",
		FamilyID:   "family-1",
		Title:      "Walk the dog",
		AssignedTo: "kid-1",
		Status:     domain.TaskStatusPending,
		Priority:   domain.TaskPriorityMedium,
		Revision:   revision,
	}
}

func TestGet_PrefersOptimisticView(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())
	c.Track(snapshot(1))

	local, err := c.ApplyLocal(Mutation{TaskID: "task-1", Event: domain.EventStart, Actor: "kid-1"})
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusInProgress, local.Status)

	view, ok := c.Get("task-1")
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusInProgress, view.Status)
}

func TestApplyLocal_UnknownTask(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())

	_, err := c.ApplyLocal(Mutation{TaskID: "missing", Event: domain.EventStart, Actor: "kid-1"})
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestApplyLocal_InvalidIntentLeavesViewUntouched(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())
	task := snapshot(1)
	task.Status = domain.TaskStatusCancelled
	c.Track(task)

	_, err := c.ApplyLocal(Mutation{TaskID: "task-1", Event: domain.EventComplete, Actor: "kid-1"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	view, ok := c.Get("task-1")
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusCancelled, view.Status)
}

func TestReconcile_DropsStaleUpdates(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())
	c.Track(snapshot(5))

	stale := snapshot(3)
	stale.Status = domain.TaskStatusInProgress
	c.Reconcile(stale)

	view, ok := c.Get("task-1")
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusPending, view.Status)
	require.EqualValues(t, 5, view.Revision)
}

func TestReconcile_LostCompletionRaceSurfacesNotice(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())
	c.Track(snapshot(1))

	_, err := c.ApplyLocal(Mutation{TaskID: "task-1", Event: domain.EventComplete, Actor: "kid-1"})
	require.NoError(t, err)

	winner := "kid-2"
	completedAt := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	remote := snapshot(2)
	remote.Status = domain.TaskStatusCompleted
	remote.CompletedBy = &winner
	remote.CompletedAt = &completedAt
	c.Reconcile(remote)

	select {
	case notice := <-c.Notices():
		require.Equal(t, "task-1", notice.TaskID)
		require.Equal(t, "kid-2", notice.CompletedBy)
		require.Equal(t, "task was already completed by another member", notice.Message)
	default:
		t.Fatal("expected a sync notice")
	}

	// The local view converged to the winner's state.
	view, ok := c.Get("task-1")
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusCompleted, view.Status)
	require.Equal(t, "kid-2", *view.CompletedBy)
}

func TestReconcile_OwnCompletionConfirmedWithoutNotice(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())
	c.Track(snapshot(1))

	_, err := c.ApplyLocal(Mutation{TaskID: "task-1", Event: domain.EventComplete, Actor: "kid-1"})
	require.NoError(t, err)

	self := "kid-1"
	remote := snapshot(2)
	remote.Status = domain.TaskStatusCompleted
	remote.CompletedBy = &self
	c.Reconcile(remote)

	select {
	case notice := <-c.Notices():
		t.Fatalf("unexpected notice: %+v", notice)
	default:
	}

	view, ok := c.Get("task-1")
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusCompleted, view.Status)
}

func TestReconcile_RebasesPendingIntentOnNewRemoteState(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())
	c.Track(snapshot(1))

	_, err := c.ApplyLocal(Mutation{TaskID: "task-1", Event: domain.EventStart, Actor: "kid-1"})
	require.NoError(t, err)

	// A reminder bump moved the row without changing the lifecycle; the local
	// start intent stays applied on top of the fresher base.
	sentAt := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	remote := snapshot(2)
	remote.LastReminderSent = &sentAt
	remote.EscalationLevel = 1
	c.Reconcile(remote)

	view, ok := c.Get("task-1")
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusInProgress, view.Status)
	require.NotNil(t, view.LastReminderSent)
	require.Equal(t, 1, view.EscalationLevel)
}

func TestReconcile_RemoteCancellationDiscardsPendingIntent(t *testing.T) {
	c := NewCoordinator(memory.NewTaskRepo())
	c.Track(snapshot(1))

	_, err := c.ApplyLocal(Mutation{TaskID: "task-1", Event: domain.EventStart, Actor: "kid-1"})
	require.NoError(t, err)

	remote := snapshot(2)
	remote.Status = domain.TaskStatusCancelled
	c.Reconcile(remote)

	view, ok := c.Get("task-1")
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusCancelled, view.Status)
}

func TestSubscribe_RefreshesFromStoreOnTransition(t *testing.T) {
	repo := memory.NewTaskRepo()
	task, err := repo.Create(context.Background(), snapshot(0))
	require.NoError(t, err)

	c := NewCoordinator(repo)
	c.Track(task)

	status := domain.TaskStatusInProgress
	updated, err := repo.Update(context.Background(), task.ID, task.Revision, domain.TaskPatch{Status: &status})
	require.NoError(t, err)

	bus := events.NewBus()
	c.Subscribe(bus)
	bus.Publish(domain.TaskTransitioned{
		TaskID:   task.ID,
		FamilyID: task.FamilyID,
		ToStatus: updated.Status,
		Revision: updated.Revision,
	})

	view, ok := c.Get(task.ID)
	require.True(t, ok)
	require.Equal(t, domain.TaskStatusInProgress, view.Status)
	require.Equal(t, updated.Revision, view.Revision)
}
