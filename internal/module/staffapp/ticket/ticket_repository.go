package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type TicketRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, t Ticket, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error)
	FindManyByClinicAndStates(ctx context.Context, clinicID int64, states []State, tx *sql.Tx) ([]Ticket, error)
	UpdateState(ctx context.Context, ID string, from State, to State, updatedAt time.Time, tx *sql.Tx) (bool, error)
	UpdateForReassignment(ctx context.Context, ID string, clinicID int64, sequenceNumber int64, updatedAt time.Time, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type ticketRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTicketRepository(logger *logrus.Logger, db *sql.DB) TicketRepository {
	return &ticketRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements TicketRepository.
func (r *ticketRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements TicketRepository.
func (r *ticketRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements TicketRepository.
func (r *ticketRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

// Save implements TicketRepository.
func (r *ticketRepository) Save(ctx context.Context, t Ticket, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO ticket
		(
			id, clinic_id, sequence_number, state, priority, patient_id, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, t.ID, t.ClinicID, t.SequenceNumber, t.State, t.Priority, t.PatientID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket's properties")
	}

	return nil
}

// FindByID implements TicketRepository.
func (r *ticketRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error) {
	query := `
		SELECT
			id, clinic_id, sequence_number, state, priority, patient_id, created_at, updated_at
		FROM ticket
		WHERE
			id = $1
		LIMIT 1
	`

	return r.findOne(ctx, query, ID, tx)
}

// FindByIDForUpdate implements TicketRepository. The row lock serializes
// concurrent mutations of the same ticket; operations on other tickets are
// unaffected.
func (r *ticketRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error) {
	query := `
		SELECT
			id, clinic_id, sequence_number, state, priority, patient_id, created_at, updated_at
		FROM ticket
		WHERE
			id = $1
		FOR UPDATE
	`

	return r.findOne(ctx, query, ID, tx)
}

func (r *ticketRepository) findOne(ctx context.Context, query string, ID string, tx *sql.Tx) (Ticket, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	var data Ticket

	err = row.Scan(&data.ID, &data.ClinicID, &data.SequenceNumber, &data.State, &data.Priority, &data.PatientID, &data.CreatedAt, &data.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Ticket{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket's properties")
	}

	return data, nil
}

// FindManyByClinicAndStates implements TicketRepository. Results are ordered
// by priority descending, then sequence number ascending.
func (r *ticketRepository) FindManyByClinicAndStates(ctx context.Context, clinicID int64, states []State, tx *sql.Tx) ([]Ticket, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	placeholders := make([]string, len(states))
	args := make([]interface{}, 0, len(states)+1)
	args = append(args, clinicID)
	for i, s := range states {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, s)
	}

	query := fmt.Sprintf(`
		SELECT
			id, clinic_id, sequence_number, state, priority, patient_id, created_at, updated_at
		FROM ticket
		WHERE
			clinic_id = $1
		AND
			state IN (%s)
		ORDER BY priority DESC, sequence_number ASC
	`, strings.Join(placeholders, ", "))

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket's properties")
	}

	defer rows.Close()

	var data = make([]Ticket, 0)

	for rows.Next() {
		var t Ticket

		if err := rows.Scan(&t.ID, &t.ClinicID, &t.SequenceNumber, &t.State, &t.Priority, &t.PatientID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket's properties")
		}

		data = append(data, t)
	}

	return data, nil
}

// UpdateState implements TicketRepository as a check-and-set: the update
// only lands when the ticket is still in the expected prior state. A false
// return means the caller lost the race and must treat the transition as
// invalid.
func (r *ticketRepository) UpdateState(ctx context.Context, ID string, from State, to State, updatedAt time.Time, tx *sql.Tx) (bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket
		SET
			state = $1,
			updated_at = $2
		WHERE id = $3 AND state = $4
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket's state")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, to, updatedAt, ID, from)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket's state")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket's state")
	}

	return affected > 0, nil
}

// UpdateForReassignment implements TicketRepository. The ticket re-enters
// the destination clinic's queue as waiting with its freshly allocated
// sequence number.
func (r *ticketRepository) UpdateForReassignment(ctx context.Context, ID string, clinicID int64, sequenceNumber int64, updatedAt time.Time, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket
		SET
			clinic_id = $1,
			sequence_number = $2,
			state = $3,
			updated_at = $4
		WHERE id = $5
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reassigning ticket")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, clinicID, sequenceNumber, StateWaiting, updatedAt, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reassigning ticket")
	}

	return nil
}
