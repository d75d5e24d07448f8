package ticket

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

// SequenceRepository hands out per-clinic ticket numbers. Next must return a
// value strictly greater than every number previously allocated for the
// clinic, for any level of concurrency; numbers are never reused even when
// the ticket that held one is reassigned away.
type SequenceRepository interface {
	Next(ctx context.Context, clinicID int64, tx *sql.Tx) (int64, error)
}

type sequenceRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewSequenceRepository(logger *logrus.Logger, db *sql.DB) SequenceRepository {
	return &sequenceRepository{
		logger: logger,
		db:     db,
	}
}

// Next implements SequenceRepository. The upsert increments the counter row
// atomically, so two concurrent admissions to the same clinic serialize on
// the row lock and never see the same value.
func (r *sequenceRepository) Next(ctx context.Context, clinicID int64, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO clinic_sequence (clinic_id, value)
		VALUES ($1, 1)
		ON CONFLICT (clinic_id)
		DO UPDATE SET value = clinic_sequence.value + 1
		RETURNING value
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusServiceUnavailable, status.SERVICE_UNAVAILABLE, "sequence storage is unavailable")
	}
	defer stmt.Close()

	var value int64
	if err := stmt.QueryRowContext(ctx, clinicID).Scan(&value); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusServiceUnavailable, status.SERVICE_UNAVAILABLE, "sequence storage is unavailable")
	}

	return value, nil
}
