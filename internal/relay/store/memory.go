package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and local development. It
// applies the same transition rules as the Postgres store.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tasks: make(map[string]*Task)}
}

func (m *Memory) Create(_ context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[task.TaskID]; exists {
		return ErrDuplicateTask
	}

	now := time.Now().UTC()
	stored := *task
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.tasks[task.TaskID] = &stored
	task.CreatedAt = now
	task.UpdatedAt = now

	return nil
}

func (m *Memory) Get(_ context.Context, taskID string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}

	snapshot := *task
	return &snapshot, nil
}

func (m *Memory) UpdateStatus(_ context.Context, taskID string, update StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if !task.Status.CanTransitionTo(update.Status) {
		return ErrTaskFinalized
	}

	task.Status = update.Status
	task.UpdatedAt = time.Now().UTC()

	if update.GasLimit > 0 {
		task.GasLimit = update.GasLimit
	}
	if update.GasPrice != "" {
		task.GasPrice = update.GasPrice
	}
	if update.MaxFeePerGas != "" {
		task.MaxFeePerGas = update.MaxFeePerGas
	}
	if update.MaxPriorityFeePerGas != "" {
		task.MaxPriorityFeePerGas = update.MaxPriorityFeePerGas
	}
	if update.TransactionHash != "" {
		task.TransactionHash = update.TransactionHash
	}
	if update.BlockNumber > 0 {
		task.BlockNumber = update.BlockNumber
	}
	if update.GasUsed > 0 {
		task.GasUsed = update.GasUsed
	}
	if update.EffectiveGasPrice != "" {
		task.EffectiveGasPrice = update.EffectiveGasPrice
	}
	if update.Error != "" {
		task.Error = update.Error
	}

	return nil
}

func (m *Memory) ListByUser(_ context.Context, user string, chainID int64, limit int) ([]*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]*Task, 0)
	for _, task := range m.tasks {
		if task.User != user {
			continue
		}
		if chainID > 0 && task.ChainID != chainID {
			continue
		}
		snapshot := *task
		tasks = append(tasks, &snapshot)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	return tasks, nil
}

func (m *Memory) HealthProbe(_ context.Context) bool {
	return true
}

func (m *Memory) Close() error {
	return nil
}
