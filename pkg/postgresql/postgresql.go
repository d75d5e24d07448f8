package postgresql

import (
	"database/sql"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/turnosalud/ts-queue/config"
)

var (
	once sync.Once
	db   *sql.DB
)

// GetDatabase returns the shared *sql.DB over the pgx stdlib driver,
// configured from the application config.
func GetDatabase() *sql.DB {
	once.Do(func() {
		c := config.Get()

		conn, err := sql.Open("pgx", c.Postgres.DSN())
		if err != nil {
			panic(err)
		}

		conn.SetMaxOpenConns(c.Postgres.MaxOpenConns)
		conn.SetMaxIdleConns(c.Postgres.MaxIdleConns)
		conn.SetConnMaxLifetime(c.Postgres.ConnMaxLifetime)

		db = conn
	})

	return db
}
