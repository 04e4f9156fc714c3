package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

// Postgres persists relay tasks in a single relay_tasks table.
type Postgres struct {
	db *sql.DB
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS relay_tasks (
	task_id UUID PRIMARY KEY,
	chain_id BIGINT NOT NULL,
	target TEXT NOT NULL,
	data TEXT NOT NULL,
	"user" TEXT NOT NULL,
	gas_limit BIGINT NOT NULL DEFAULT 0,
	gas_price TEXT NOT NULL DEFAULT '',
	max_fee_per_gas TEXT NOT NULL DEFAULT '',
	max_priority_fee_per_gas TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	transaction_hash TEXT UNIQUE,
	block_number BIGINT NOT NULL DEFAULT 0,
	gas_used BIGINT NOT NULL DEFAULT 0,
	effective_gas_price TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relay_tasks_user ON relay_tasks ("user", chain_id);
CREATE INDEX IF NOT EXISTS idx_relay_tasks_status ON relay_tasks (status);`

// NewPostgres opens the database, verifies connectivity and ensures the
// schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize relay_tasks schema")
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Create(ctx context.Context, task *Task) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	const stmt = `INSERT INTO relay_tasks
		(task_id, chain_id, target, data, "user", gas_limit, gas_price, max_fee_per_gas, max_priority_fee_per_gas,
		 status, block_number, gas_used, effective_gas_price, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := p.db.ExecContext(ctx, stmt,
		task.TaskID,
		task.ChainID,
		task.Target,
		task.Data,
		task.User,
		int64(task.GasLimit),
		task.GasPrice,
		task.MaxFeePerGas,
		task.MaxPriorityFeePerGas,
		string(task.Status),
		task.BlockNumber,
		int64(task.GasUsed),
		task.EffectiveGasPrice,
		task.Error,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateTask
		}
		return errors.Wrap(err, "failed to insert relay task")
	}

	return nil
}

func (p *Postgres) Get(ctx context.Context, taskID string) (*Task, error) {
	const stmt = `SELECT task_id, chain_id, target, data, "user", gas_limit, gas_price, max_fee_per_gas,
		max_priority_fee_per_gas, status, COALESCE(transaction_hash, ''), block_number, gas_used,
		effective_gas_price, error, created_at, updated_at
		FROM relay_tasks WHERE task_id = $1`

	task, err := scanTask(p.db.QueryRowContext(ctx, stmt, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, errors.Wrap(err, "failed to get relay task")
	}

	return task, nil
}

// UpdateStatus applies the transition with a status guard in the WHERE
// clause, so concurrent writers (monitor vs. cancel) cannot move a task
// backward or out of a terminal state.
func (p *Postgres) UpdateStatus(ctx context.Context, taskID string, update StatusUpdate) error {
	allowed := previousStatuses(update.Status)
	if len(allowed) == 0 {
		return errors.Errorf("invalid target status %q", update.Status)
	}

	set := []string{"status = $2", "updated_at = $3"}
	args := []interface{}{taskID, string(update.Status), time.Now().UTC()}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.GasLimit > 0 {
		appendSet("gas_limit", int64(update.GasLimit))
	}
	if update.GasPrice != "" {
		appendSet("gas_price", update.GasPrice)
	}
	if update.MaxFeePerGas != "" {
		appendSet("max_fee_per_gas", update.MaxFeePerGas)
	}
	if update.MaxPriorityFeePerGas != "" {
		appendSet("max_priority_fee_per_gas", update.MaxPriorityFeePerGas)
	}
	if update.TransactionHash != "" {
		appendSet("transaction_hash", update.TransactionHash)
	}
	if update.BlockNumber > 0 {
		appendSet("block_number", update.BlockNumber)
	}
	if update.GasUsed > 0 {
		appendSet("gas_used", int64(update.GasUsed))
	}
	if update.EffectiveGasPrice != "" {
		appendSet("effective_gas_price", update.EffectiveGasPrice)
	}
	if update.Error != "" {
		appendSet("error", update.Error)
	}

	statusList := make([]string, 0, len(allowed))
	for _, status := range allowed {
		args = append(args, string(status))
		statusList = append(statusList, fmt.Sprintf("$%d", len(args)))
	}

	stmt := fmt.Sprintf("UPDATE relay_tasks SET %s WHERE task_id = $1 AND status IN (%s)",
		strings.Join(set, ", "), strings.Join(statusList, ", "))

	result, err := p.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update relay task status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		// Distinguish unknown id from an impermissible transition.
		if _, getErr := p.Get(ctx, taskID); getErr != nil {
			return getErr
		}
		return ErrTaskFinalized
	}

	return nil
}

func (p *Postgres) ListByUser(ctx context.Context, user string, chainID int64, limit int) ([]*Task, error) {
	stmt := `SELECT task_id, chain_id, target, data, "user", gas_limit, gas_price, max_fee_per_gas,
		max_priority_fee_per_gas, status, COALESCE(transaction_hash, ''), block_number, gas_used,
		effective_gas_price, error, created_at, updated_at
		FROM relay_tasks WHERE "user" = $1`
	args := []interface{}{user}

	if chainID > 0 {
		args = append(args, chainID)
		stmt += fmt.Sprintf(" AND chain_id = $%d", len(args))
	}

	args = append(args, limit)
	stmt += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list relay tasks")
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan relay task")
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate relay tasks")
	}

	return tasks, nil
}

func (p *Postgres) HealthProbe(ctx context.Context) bool {
	if err := p.db.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("Task store health probe failed")
		return false
	}

	return true
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// previousStatuses returns the set of statuses a task may be in for the
// given transition target, mirroring Status.CanTransitionTo.
func previousStatuses(next Status) []Status {
	switch next {
	case StatusSubmitted:
		return []Status{StatusPending}
	case StatusCancelled:
		return []Status{StatusPending}
	case StatusSuccess:
		return []Status{StatusSubmitted}
	case StatusFailed:
		return []Status{StatusPending, StatusSubmitted}
	default:
		return nil
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*Task, error) {
	var task Task
	var status string
	var gasLimit, gasUsed int64

	err := row.Scan(
		&task.TaskID,
		&task.ChainID,
		&task.Target,
		&task.Data,
		&task.User,
		&gasLimit,
		&task.GasPrice,
		&task.MaxFeePerGas,
		&task.MaxPriorityFeePerGas,
		&status,
		&task.TransactionHash,
		&task.BlockNumber,
		&gasUsed,
		&task.EffectiveGasPrice,
		&task.Error,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = Status(status)
	task.GasLimit = uint64(gasLimit)
	task.GasUsed = uint64(gasUsed)

	return &task, nil
}
