package redis

import (
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"github.com/turnosalud/ts-queue/config"
)

var (
	once   sync.Once
	client *goredis.Client
)

// GetClient returns the shared redis client configured from the application
// config.
func GetClient() *goredis.Client {
	once.Do(func() {
		c := config.Get()

		client = goredis.NewClient(&goredis.Options{
			Addr:     c.Redis.Address,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
	})

	return client
}
