package clinic

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type ClinicRepository interface {
	FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Clinic, error)
	FindManyActive(ctx context.Context, tx *sql.Tx) ([]Clinic, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type clinicRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewClinicRepository(logger *logrus.Logger, db *sql.DB) ClinicRepository {
	return &clinicRepository{
		logger: logger,
		db:     db,
	}
}

// FindByID implements ClinicRepository.
func (r *clinicRepository) FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Clinic, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, name, description, active, created_at, updated_at
		FROM clinic
		WHERE
			id = $1
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Clinic{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting clinic's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	var data Clinic

	err = row.Scan(&data.ID, &data.Name, &data.Description, &data.Active, &data.CreatedAt, &data.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Clinic{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("clinic with id '%d' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Clinic{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting clinic's properties")
	}

	return data, nil
}

// FindManyActive implements ClinicRepository.
func (r *clinicRepository) FindManyActive(ctx context.Context, tx *sql.Tx) ([]Clinic, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, name, description, active, created_at, updated_at
		FROM clinic
		WHERE
			active = TRUE
		ORDER BY name ASC
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of clinic's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of clinic's properties")
	}

	defer rows.Close()

	var data = make([]Clinic, 0)

	for rows.Next() {
		var c Clinic

		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of clinic's properties")
		}

		data = append(data, c)
	}

	return data, nil
}
