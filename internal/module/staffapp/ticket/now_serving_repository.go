package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

// NowServingRepository caches the last called ticket per clinic for the
// public displays. The cache is advisory; losing it only blanks a display
// until the next call action.
type NowServingRepository interface {
	Set(ctx context.Context, clinicID int64, ns NowServing) error
	Find(ctx context.Context, clinicID int64) (NowServing, error)
}

const nowServingTTL = 12 * time.Hour

type nowServingRepository struct {
	logger *logrus.Logger
	client *goredis.Client
}

func NewNowServingRepository(logger *logrus.Logger, client *goredis.Client) NowServingRepository {
	return &nowServingRepository{
		logger: logger,
		client: client,
	}
}

func nowServingKey(clinicID int64) string {
	return fmt.Sprintf("now-serving:%d", clinicID)
}

// Set implements NowServingRepository.
func (r *nowServingRepository) Set(ctx context.Context, clinicID int64, ns NowServing) error {
	buff, _ := json.Marshal(ns)

	if err := r.client.Set(ctx, nowServingKey(clinicID), buff, nowServingTTL).Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while caching now-serving snapshot")
	}

	return nil
}

// Find implements NowServingRepository.
func (r *nowServingRepository) Find(ctx context.Context, clinicID int64) (NowServing, error) {
	buff, err := r.client.Get(ctx, nowServingKey(clinicID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return NowServing{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("no ticket is being served at clinic '%d'", clinicID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return NowServing{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting now-serving snapshot")
	}

	var ns NowServing
	if err := json.Unmarshal(buff, &ns); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return NowServing{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while decoding now-serving snapshot")
	}

	return ns, nil
}
