package session

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

// Account is the staff identity attached to every authenticated request.
// ClinicID is the staff member's assigned clinic; nil when the account has
// no clinic assignment (reception, administrators).
type Account struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	ClinicID *int64 `json:"clinic_id"`
}

type contextKey struct{}

var accountContextKey = contextKey{}

func SetAccountToCtx(ctx context.Context, acc Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acc)
}

func GetAccountFromCtx(ctx context.Context) (Account, error) {
	acc, ok := ctx.Value(accountContextKey).(Account)
	if !ok {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "no account attached to the request")
	}

	return acc, nil
}

type Store interface {
	Save(ctx context.Context, acc Account, expiration time.Duration) error
	Find(ctx context.Context, email string) (Account, error)
	Delete(ctx context.Context, email string) error
}

type redisSessionStore struct {
	logger *logrus.Logger
	client *goredis.Client
}

func NewRedisSessionStore(logger *logrus.Logger, client *goredis.Client) Store {
	return &redisSessionStore{
		logger: logger,
		client: client,
	}
}

func sessionKey(email string) string {
	return fmt.Sprintf("session:%s", email)
}

// Save implements Store.
func (s *redisSessionStore) Save(ctx context.Context, acc Account, expiration time.Duration) error {
	buff, _ := json.Marshal(acc)

	if err := s.client.Set(ctx, sessionKey(acc.Email), buff, expiration).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving the session")
	}

	return nil
}

// Find implements Store.
func (s *redisSessionStore) Find(ctx context.Context, email string) (Account, error) {
	buff, err := s.client.Get(ctx, sessionKey(email)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session has expired")
		}
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting the session")
	}

	var acc Account
	if err := json.Unmarshal(buff, &acc); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while decoding the session")
	}

	return acc, nil
}

// Delete implements Store.
func (s *redisSessionStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, sessionKey(email)).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting the session")
	}

	return nil
}
