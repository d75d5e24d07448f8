package ticket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

func TestNowServingRepository_Set(t *testing.T) {
	client, mock := redismock.NewClientMock()

	repo := NewNowServingRepository(quietLogger(), client)

	ns := NowServing{
		TicketID:       "TQ1",
		SequenceNumber: 3,
		State:          StateCalled,
		CalledAt:       time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}

	buff, err := json.Marshal(ns)
	require.NoError(t, err)

	mock.ExpectSet("now-serving:5", buff, nowServingTTL).SetVal("OK")

	err = repo.Set(context.Background(), 5, ns)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNowServingRepository_Find(t *testing.T) {
	client, mock := redismock.NewClientMock()

	repo := NewNowServingRepository(quietLogger(), client)

	ns := NowServing{
		TicketID:       "TQ1",
		SequenceNumber: 3,
		State:          StateCalled,
		CalledAt:       time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}

	buff, err := json.Marshal(ns)
	require.NoError(t, err)

	mock.ExpectGet("now-serving:5").SetVal(string(buff))

	found, err := repo.Find(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, ns, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNowServingRepository_Find_EmptyClinic(t *testing.T) {
	client, mock := redismock.NewClientMock()

	repo := NewNowServingRepository(quietLogger(), client)

	mock.ExpectGet("now-serving:5").RedisNil()

	_, err := repo.Find(context.Background(), 5)
	assert.True(t, errors.MatchStatus(err, status.NOT_FOUND))
	assert.NoError(t, mock.ExpectationsWereMet())
}
