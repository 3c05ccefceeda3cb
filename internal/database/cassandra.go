package database

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"rusithink-backend/internal/config"
)

// DefaultCassandraQueryTimeout is the default timeout for Cassandra queries
const DefaultCassandraQueryTimeout = 5 * time.Second

// CassandraDB wraps the gocql Session
type CassandraDB struct {
	Session *gocql.Session
}

// NewCassandraDB creates a new CassandraDB instance with full configuration
func NewCassandraDB(cfg *config.CassandraConfig) (*CassandraDB, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum

	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	} else {
		cluster.Timeout = DefaultCassandraQueryTimeout
	}

	if cfg.Username != "" && cfg.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Cassandra session: %w", err)
	}
	return &CassandraDB{Session: session}, nil
}

// Close closes the Cassandra session
func (c *CassandraDB) Close() {
	c.Session.Close()
}

// EnsureSchema creates the message tables when they do not exist yet.
// messages is partitioned per client conversation; messages_by_id resolves a
// message id back to its partition for point reads, updates, and deletes.
func (c *CassandraDB) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			client_id     uuid,
			created_at    timestamp,
			message_id    uuid,
			sender_id     uuid,
			sender_name   text,
			sender_role   text,
			recipient_id  uuid,
			content       text,
			message_type  text,
			task_id       uuid,
			file_name     text,
			file_url      text,
			file_size     bigint,
			is_read       boolean,
			PRIMARY KEY ((client_id), created_at, message_id)
		) WITH CLUSTERING ORDER BY (created_at ASC, message_id ASC)`,
		`CREATE TABLE IF NOT EXISTS messages_by_id (
			message_id  uuid PRIMARY KEY,
			client_id   uuid,
			created_at  timestamp
		)`,
	}

	for _, stmt := range statements {
		if err := c.Session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("failed to apply message schema: %w", err)
		}
	}
	return nil
}
