package runs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/pkg/repository"
)

type repo struct {
	db     *sql.DB
	retain int
	logger *slog.Logger
}

// New creates a PostgreSQL-backed run history. retain <= 0 uses DefaultRetain.
func New(db *sql.DB, retain int, logger *slog.Logger) System {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &repo{
		db:     db,
		retain: retain,
		logger: logger.With("system", "runs"),
	}
}

func (r *repo) Record(ctx context.Context, run Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	insert := `
		INSERT INTO training_runs(id, model_id, model_name, status, error, sample_count, label_count,
			epochs, loss, accuracy, val_loss, val_accuracy, duration_ms, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	prune := `
		DELETE FROM training_runs
		WHERE id NOT IN (
			SELECT id FROM training_runs ORDER BY started_at DESC LIMIT $1
		)`

	pruned, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		if err := repository.ExecExpectOne(ctx, tx, insert, insertArgs(run)...); err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, prune, r.retain)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		return fmt.Errorf("record run: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	r.logger.Debug("training run recorded", "id", run.ID, "status", run.Status, "pruned", pruned)
	return nil
}

func (r *repo) List(ctx context.Context, limit int) ([]Run, error) {
	q := projection + " ORDER BY started_at DESC"
	var args []any
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}

	list, err := repository.QueryMany(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return list, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := repository.QueryOne(ctx, r.db, projection+" WHERE id = $1", []any{id}, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}
