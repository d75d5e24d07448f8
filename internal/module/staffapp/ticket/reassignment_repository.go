package ticket

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

// ReassignmentRepository appends and reads the reassignment audit trail.
// Records are append-only; there is no update or delete.
type ReassignmentRepository interface {
	Save(ctx context.Context, record ReassignmentRecord, tx *sql.Tx) (ReassignmentRecord, error)
	FindManyByTicketID(ctx context.Context, ticketID string, tx *sql.Tx) ([]ReassignmentRecord, error)
}

type reassignmentRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewReassignmentRepository(logger *logrus.Logger, db *sql.DB) ReassignmentRepository {
	return &reassignmentRepository{
		logger: logger,
		db:     db,
	}
}

// Save implements ReassignmentRepository.
func (r *reassignmentRepository) Save(ctx context.Context, record ReassignmentRecord, tx *sql.Tx) (ReassignmentRecord, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO ticket_reassignment
		(
			ticket_id, from_clinic_id, to_clinic_id, reason, actor_id, created_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6
		)
		RETURNING id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return ReassignmentRecord{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving reassignment record")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, record.TicketID, record.FromClinicID, record.ToClinicID, record.Reason, record.ActorID, record.CreatedAt)

	if err := row.Scan(&record.ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return ReassignmentRecord{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving reassignment record")
	}

	return record, nil
}

// FindManyByTicketID implements ReassignmentRepository.
func (r *reassignmentRepository) FindManyByTicketID(ctx context.Context, ticketID string, tx *sql.Tx) ([]ReassignmentRecord, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, ticket_id, from_clinic_id, to_clinic_id, reason, actor_id, created_at
		FROM ticket_reassignment
		WHERE
			ticket_id = $1
		ORDER BY id ASC
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of reassignment records")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, ticketID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of reassignment records")
	}

	defer rows.Close()

	var data = make([]ReassignmentRecord, 0)

	for rows.Next() {
		var record ReassignmentRecord

		if err := rows.Scan(&record.ID, &record.TicketID, &record.FromClinicID, &record.ToClinicID, &record.Reason, &record.ActorID, &record.CreatedAt); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of reassignment records")
		}

		data = append(data, record)
	}

	return data, nil
}
