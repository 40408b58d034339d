package database

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const EmbeddedHost = "embedded"

type Database struct {
	host     string
	username string
	password string
	database string
	port     uint32
	embedded *embeddedpostgres.EmbeddedPostgres
	orm      *gorm.DB
}

// NewDatabase connects to a postgres instance. When host is "embedded" an
// embedded postgres is started with its data directory under dataPath. The
// returned close function stops the embedded instance unless keepAlive is
// set.
func NewDatabase(username, password, database string, port uint32, dataPath, host string, keepAlive bool) (*Database, func() error, error) {
	db := &Database{
		host:     host,
		username: username,
		password: password,
		database: database,
		port:     port,
	}

	if host == EmbeddedHost {
		db.embedded = embeddedpostgres.NewDatabase(
			embeddedpostgres.DefaultConfig().
				Username(username).
				Password(password).
				Database(database).
				Port(port).
				DataPath(dataPath),
		)
		if err := db.embedded.Start(); err != nil {
			return nil, nil, fmt.Errorf("failed to start embedded database: %w", err)
		}
	}

	if err := db.ping(); err != nil {
		return nil, nil, err
	}

	orm, err := gorm.Open(postgres.Open(db.dsn()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect GORM: %w", err)
	}
	db.orm = orm

	log.Info("✅ DB started")

	closeDb := func() error {
		if db.embedded != nil && !keepAlive {
			if err := db.embedded.Stop(); err != nil {
				return fmt.Errorf("failed to stop embedded database: %w", err)
			}
		}

		return nil
	}

	return db, closeDb, nil
}

func (d *Database) dsn() string {
	host := d.host
	if host == EmbeddedHost {
		host = "localhost"
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=disable", host, d.port, d.username, d.password, d.database)
}

func (d *Database) ping() error {
	conn, err := sql.Open("postgres", d.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer conn.Close()

	conn.SetConnMaxLifetime(time.Minute)
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (d *Database) ORM() *gorm.DB {
	return d.orm
}
