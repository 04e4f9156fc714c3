package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/relay/store"
)

func newPendingTask(id string) *store.Task {
	return &store.Task{
		TaskID:  id,
		ChainID: 31337,
		Target:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1111",
		Data:    "0x",
		User:    "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222",
		Status:  store.StatusPending,
	}
}

func TestMemoryCreateAndGet(t *testing.T) {
	ctx := t.Context()
	s := store.NewMemory()

	task := newPendingTask("task-1")
	require.NoError(t, s.Create(ctx, task))
	require.False(t, task.CreatedAt.IsZero())

	require.ErrorIs(t, s.Create(ctx, newPendingTask("task-1")), store.ErrDuplicateTask)

	got, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, store.StatusPending, got.Status)
	require.EqualValues(t, 31337, got.ChainID)

	_, err = s.Get(ctx, "unknown")
	require.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestMemoryStatusTransitions(t *testing.T) {
	ctx := t.Context()
	s := store.NewMemory()
	require.NoError(t, s.Create(ctx, newPendingTask("task-1")))

	require.NoError(t, s.UpdateStatus(ctx, "task-1", store.StatusUpdate{
		Status:          store.StatusSubmitted,
		TransactionHash: "0xdeadbeef",
		GasLimit:        25200,
		GasPrice:        "20000000000",
	}))

	got, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, store.StatusSubmitted, got.Status)
	require.Equal(t, "0xdeadbeef", got.TransactionHash)
	require.EqualValues(t, 25200, got.GasLimit)

	// SUBMITTED tasks cannot be cancelled
	require.ErrorIs(t, s.UpdateStatus(ctx, "task-1", store.StatusUpdate{Status: store.StatusCancelled}), store.ErrTaskFinalized)

	require.NoError(t, s.UpdateStatus(ctx, "task-1", store.StatusUpdate{
		Status:            store.StatusSuccess,
		BlockNumber:       100,
		GasUsed:           21000,
		EffectiveGasPrice: "20000000000",
	}))

	got, err = s.Get(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, store.StatusSuccess, got.Status)
	require.EqualValues(t, 100, got.BlockNumber)

	// terminal states are immutable
	require.ErrorIs(t, s.UpdateStatus(ctx, "task-1", store.StatusUpdate{Status: store.StatusFailed}), store.ErrTaskFinalized)

	require.ErrorIs(t, s.UpdateStatus(ctx, "unknown", store.StatusUpdate{Status: store.StatusFailed}), store.ErrTaskNotFound)
}

func TestMemoryGetReturnsSnapshot(t *testing.T) {
	ctx := t.Context()
	s := store.NewMemory()
	require.NoError(t, s.Create(ctx, newPendingTask("task-1")))

	first, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	first.Status = store.StatusFailed

	second, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, store.StatusPending, second.Status)
}

func TestMemoryListByUser(t *testing.T) {
	ctx := t.Context()
	s := store.NewMemory()

	taskA := newPendingTask("task-a")
	taskB := newPendingTask("task-b")
	taskB.ChainID = 1
	taskC := newPendingTask("task-c")
	taskC.User = "0xcccccccccccccccccccccccccccccccccccc3333"

	require.NoError(t, s.Create(ctx, taskA))
	require.NoError(t, s.Create(ctx, taskB))
	require.NoError(t, s.Create(ctx, taskC))

	tasks, err := s.ListByUser(ctx, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222", 0, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	tasks, err = s.ListByUser(ctx, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222", 1, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "task-b", tasks[0].TaskID)

	tasks, err = s.ListByUser(ctx, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222", 0, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}
