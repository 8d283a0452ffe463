package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/ddldump/internal/errs"
)

// groupConcatMaxLen lifts MySQL's 1024-byte GROUP_CONCAT default so long
// table and index definitions are not silently truncated
const groupConcatMaxLen = "1048576"

// MySQL server error numbers for access control failures
const (
	mysqlErrDBAccessDenied     = 1044
	mysqlErrAccessDenied       = 1045
	mysqlErrTableAccessDenied  = 1142
	mysqlErrColumnAccessDenied = 1143
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db *sql.DB
	Querier
}

// NewMySQLClient creates a new MySQL client and pings it
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	dsn, err := tuneMySQLDSN(connString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open database", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, mapMySQLError(err, "failed to ping database")
	}

	return &MySQLClient{
		db:      db,
		Querier: &sqlQuerier{db: db, mapErr: mapMySQLError},
	}, nil
}

// Ping verifies the server is reachable
func (c *MySQLClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return mapMySQLError(err, "ping failed")
	}
	return nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// ParseDatabaseName extracts the database name from a MySQL DSN
func ParseDatabaseName(connString string) (string, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("no database name in MySQL DSN")
	}
	return cfg.DBName, nil
}

// tuneMySQLDSN sets group_concat_max_len as a session variable unless the
// caller already chose a value
func tuneMySQLDSN(connString string) (string, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid MySQL DSN", err)
	}
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	if _, ok := cfg.Params["group_concat_max_len"]; !ok {
		cfg.Params["group_concat_max_len"] = groupConcatMaxLen
	}
	return cfg.FormatDSN(), nil
}

// mapMySQLError translates go-sql-driver/mysql errors into *errs.Error
func mapMySQLError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrDBAccessDenied, mysqlErrAccessDenied, mysqlErrTableAccessDenied, mysqlErrColumnAccessDenied:
			return errs.Wrap(errs.ErrKindPermissionDenied, fmt.Sprintf("%s: %s", msg, myErr.Message), err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %s", msg, myErr.Message), err)
	}

	// dial, handshake and mysql.ErrInvalidConn failures
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
