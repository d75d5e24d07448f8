package ticket

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func ticketColumns() []string {
	return []string{"id", "clinic_id", "sequence_number", "state", "priority", "patient_id", "created_at", "updated_at"}
}

func TestTicketRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectPrepare("INSERT INTO ticket").
		ExpectExec().
		WithArgs("TQ1", int64(5), int64(1), StateWaiting, int64(0), int64(10), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), Ticket{
		ID:             "TQ1",
		ClinicID:       5,
		SequenceNumber: 1,
		State:          StateWaiting,
		PatientID:      10,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectPrepare("SELECT(.|\n)+FROM ticket(.|\n)+LIMIT 1").
		ExpectQuery().
		WithArgs("TQ1").
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow("TQ1", int64(5), int64(3), "called", int64(2), int64(10), now, now))

	found, err := repo.FindByID(context.Background(), "TQ1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.SequenceNumber)
	assert.Equal(t, StateCalled, found.State)
	assert.Equal(t, int64(2), found.Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	mock.ExpectPrepare("SELECT(.|\n)+FROM ticket").
		ExpectQuery().
		WithArgs("TQ404").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "TQ404", nil)
	assert.True(t, errors.MatchStatus(err, status.NOT_FOUND))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_FindByIDForUpdate_AcquiresRowLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectPrepare("SELECT(.|\n)+FROM ticket(.|\n)+FOR UPDATE").
		ExpectQuery().
		WithArgs("TQ1").
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow("TQ1", int64(5), int64(1), "waiting", int64(0), int64(10), now, now))

	found, err := repo.FindByIDForUpdate(context.Background(), "TQ1", nil)
	require.NoError(t, err)
	assert.Equal(t, StateWaiting, found.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_FindManyByClinicAndStates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectPrepare("SELECT(.|\n)+FROM ticket(.|\n)+ORDER BY priority DESC, sequence_number ASC").
		ExpectQuery().
		WithArgs(int64(5), StateCalled, StateInService).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow("TQ2", int64(5), int64(2), "in_service", int64(1), int64(11), now, now).
			AddRow("TQ1", int64(5), int64(1), "called", int64(0), int64(10), now, now))

	found, err := repo.FindManyByClinicAndStates(context.Background(), 5, []State{StateCalled, StateInService}, nil)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "TQ2", found[0].ID)
	assert.Equal(t, "TQ1", found[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_FindManyByClinicAndStates_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	mock.ExpectPrepare("SELECT(.|\n)+FROM ticket").
		ExpectQuery().
		WithArgs(int64(5), StateWaiting).
		WillReturnRows(sqlmock.NewRows(ticketColumns()))

	found, err := repo.FindManyByClinicAndStates(context.Background(), 5, []State{StateWaiting}, nil)
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateState_Applied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectPrepare("UPDATE ticket").
		ExpectExec().
		WithArgs(StateCalled, now, "TQ1", StateWaiting).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.UpdateState(context.Background(), "TQ1", StateWaiting, StateCalled, now, nil)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateState_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	// Zero rows affected: the ticket already left the expected state.
	mock.ExpectPrepare("UPDATE ticket").
		ExpectExec().
		WithArgs(StateCalled, now, "TQ1", StateWaiting).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.UpdateState(context.Background(), "TQ1", StateWaiting, StateCalled, now, nil)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateForReassignment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectPrepare("UPDATE ticket").
		ExpectExec().
		WithArgs(int64(2), int64(7), StateWaiting, now, "TQ1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateForReassignment(context.Background(), "TQ1", 2, 7, now, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UsesTransactionWhenGiven(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO ticket").
		ExpectExec().
		WithArgs("TQ1", int64(5), int64(1), StateWaiting, int64(0), int64(10), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)

	err = repo.Save(context.Background(), Ticket{
		ID:             "TQ1",
		ClinicID:       5,
		SequenceNumber: 1,
		State:          StateWaiting,
		PatientID:      10,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, tx)
	require.NoError(t, err)

	require.NoError(t, repo.CommitTx(context.Background(), tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepository_Next(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSequenceRepository(quietLogger(), db)

	mock.ExpectPrepare("INSERT INTO clinic_sequence(.|\n)+ON CONFLICT(.|\n)+RETURNING value").
		ExpectQuery().
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(42)))

	value, err := repo.Next(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepository_Next_StoreUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSequenceRepository(quietLogger(), db)

	mock.ExpectPrepare("INSERT INTO clinic_sequence").
		ExpectQuery().
		WithArgs(int64(5)).
		WillReturnError(sql.ErrConnDone)

	_, err = repo.Next(context.Background(), 5, nil)
	require.Error(t, err)
	assert.True(t, errors.MatchStatus(err, status.SERVICE_UNAVAILABLE))

	destructed := errors.Destruct(err)
	require.NotNil(t, destructed)
	assert.Equal(t, 503, destructed.HTTPStatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReassignmentRepository_SaveAndFind(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReassignmentRepository(quietLogger(), db)

	now := time.Now()

	mock.ExpectPrepare("INSERT INTO ticket_reassignment").
		ExpectQuery().
		WithArgs("TQ1", int64(5), int64(2), "wrong department", int64(7), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	record, err := repo.Save(context.Background(), ReassignmentRecord{
		TicketID:     "TQ1",
		FromClinicID: 5,
		ToClinicID:   2,
		Reason:       "wrong department",
		ActorID:      7,
		CreatedAt:    now,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.ID)

	mock.ExpectPrepare("SELECT(.|\n)+FROM ticket_reassignment").
		ExpectQuery().
		WithArgs("TQ1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "from_clinic_id", "to_clinic_id", "reason", "actor_id", "created_at"}).
			AddRow(int64(1), "TQ1", int64(5), int64(2), "wrong department", int64(7), now))

	records, err := repo.FindManyByTicketID(context.Background(), "TQ1", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "wrong department", records[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
