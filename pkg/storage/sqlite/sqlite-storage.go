package sqlite

import (
	"database/sql"

	"github.com/sirupsen/logrus"
)

// Storage wraps the single SQLite connection pool shared by all repositories.
type Storage struct {
	Connection *sql.DB
	logger     logrus.FieldLogger
}

// New opens, or creates, the SQLite database found at the given path and ensures the
// expected schema exists. The schema relies on "IF NOT EXISTS" clauses throughout, making
// initialisation idempotent across restarts.
func New(logger logrus.FieldLogger, path string) (*Storage, error) {

	logger.Println("initialising SQLite DB")

	// mind the explicit need to enable foreign keys constraints
	connection, err := sql.Open("sqlite3", getConnectionString(path))
	if err != nil {
		logger.WithError(err).Error("error while opening database")
		return nil, err
	}

	if _, err = connection.Exec(schema); err != nil {
		logger.WithError(err).Error("error while building database schema")
		return nil, err
	}

	// opening the DB will fail silently when the package is compiled without CGO_ENABLED
	if err = connection.Ping(); err != nil {
		return nil, err
	}

	return &Storage{Connection: connection, logger: logger}, nil
}

// getConnectionString provides a configuration string that enables foreign keys constraints.
func getConnectionString(path string) string {
	return path + "?_fk=on"
}

func (s *Storage) Close() {
	s.logger.Debug("database stopping")
	if err := s.Connection.Close(); err != nil {
		s.logger.WithError(err).Warning("error while closing the database connection")
	}
}
