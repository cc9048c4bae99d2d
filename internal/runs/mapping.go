package runs

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/JaimeStill/mimic/pkg/repository"
)

const projection = `
	SELECT id, model_id, model_name, status, error, sample_count, label_count,
		epochs, loss, accuracy, val_loss, val_accuracy, duration_ms, started_at, completed_at
	FROM training_runs`

func scanRun(s repository.Scanner) (Run, error) {
	var (
		r           Run
		modelID     uuid.NullUUID
		errText     sql.NullString
		valLoss     sql.NullFloat64
		valAccuracy sql.NullFloat64
	)

	err := s.Scan(
		&r.ID, &modelID, &r.ModelName, &r.Status, &errText,
		&r.SampleCount, &r.LabelCount, &r.Epochs, &r.Loss, &r.Accuracy,
		&valLoss, &valAccuracy, &r.DurationMs, &r.StartedAt, &r.CompletedAt,
	)
	if err != nil {
		return Run{}, err
	}

	if modelID.Valid {
		r.ModelID = &modelID.UUID
	}
	r.Error = errText.String
	if valLoss.Valid {
		r.ValLoss = &valLoss.Float64
	}
	if valAccuracy.Valid {
		r.ValAccuracy = &valAccuracy.Float64
	}
	return r, nil
}

func insertArgs(r Run) []any {
	var modelID uuid.NullUUID
	if r.ModelID != nil {
		modelID = uuid.NullUUID{UUID: *r.ModelID, Valid: true}
	}
	errText := sql.NullString{String: r.Error, Valid: r.Error != ""}

	var valLoss, valAccuracy sql.NullFloat64
	if r.ValLoss != nil {
		valLoss = sql.NullFloat64{Float64: *r.ValLoss, Valid: true}
	}
	if r.ValAccuracy != nil {
		valAccuracy = sql.NullFloat64{Float64: *r.ValAccuracy, Valid: true}
	}

	return []any{
		r.ID, modelID, r.ModelName, r.Status, errText,
		r.SampleCount, r.LabelCount, r.Epochs, r.Loss, r.Accuracy,
		valLoss, valAccuracy, r.DurationMs, r.StartedAt, r.CompletedAt,
	}
}
