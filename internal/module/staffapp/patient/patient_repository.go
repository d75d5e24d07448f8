package patient

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type PatientRepository interface {
	Save(ctx context.Context, p Patient, tx *sql.Tx) (Patient, error)
	FindByNationalID(ctx context.Context, nationalID string, tx *sql.Tx) (Patient, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type patientRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewPatientRepository(logger *logrus.Logger, db *sql.DB) PatientRepository {
	return &patientRepository{
		logger: logger,
		db:     db,
	}
}

// Save implements PatientRepository.
func (r *patientRepository) Save(ctx context.Context, p Patient, tx *sql.Tx) (Patient, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO patient
		(
			national_id, first_name, last_name, created_at
		)
		VALUES
		(
			$1, $2, $3, $4
		)
		RETURNING id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Patient{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving patient's properties")
	}
	defer stmt.Close()

	var nationalID sql.NullString
	var lastName sql.NullString

	if p.NationalID != nil {
		nationalID.String = *p.NationalID
		nationalID.Valid = true
	}
	if p.LastName != nil {
		lastName.String = *p.LastName
		lastName.Valid = true
	}

	row := stmt.QueryRowContext(ctx, nationalID, p.FirstName, lastName, p.CreatedAt)

	if err := row.Scan(&p.ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Patient{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving patient's properties")
	}

	return p, nil
}

// FindByNationalID implements PatientRepository.
func (r *patientRepository) FindByNationalID(ctx context.Context, nationalID string, tx *sql.Tx) (Patient, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, national_id, first_name, last_name, created_at
		FROM patient
		WHERE
			national_id = $1
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Patient{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting patient's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, nationalID)

	var data Patient
	var storedNationalID sql.NullString
	var lastName sql.NullString

	err = row.Scan(&data.ID, &storedNationalID, &data.FirstName, &lastName, &data.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Patient{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("patient with national id '%s' is not found", nationalID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Patient{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting patient's properties")
	}

	if storedNationalID.Valid {
		data.NationalID = &storedNationalID.String
	}
	if lastName.Valid {
		data.LastName = &lastName.String
	}

	return data, nil
}
