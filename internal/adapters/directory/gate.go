package directory

// Package directory implements the email allow-list gate backed by an
// external directory database. The directory schema is deployment-owned, so
// the table and email column names are configurable.

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"

	"github.com/openboard/auth-api/internal/data/pgxutil"
	apperrors "github.com/openboard/auth-api/internal/errors"
)

// identifierPattern restricts configurable identifiers to plain SQL names.
// The table and column names come from configuration, not user input, but
// they are interpolated into SQL and must never carry quoting or spaces.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Gate checks email membership against the external directory database.
// A missing row is a plain denial; any database failure is a transport
// error, reported distinctly so a directory outage is never mistaken for a
// revoked account.
type Gate struct {
	db    *sql.DB
	query string
}

// NewGate constructs a Gate querying the given table and email column.
func NewGate(db *sql.DB, table, emailField string) (*Gate, error) {
	if !identifierPattern.MatchString(table) {
		return nil, apperrors.Config(fmt.Sprintf("invalid directory table name %q", table))
	}
	if !identifierPattern.MatchString(emailField) {
		return nil, apperrors.Config(fmt.Sprintf("invalid directory email field %q", emailField))
	}
	return &Gate{
		db:    db,
		query: fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)`, table, emailField),
	}, nil
}

// Allowed reports whether the email has a row in the directory.
func (g *Gate) Allowed(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var allowed bool
	err := pgxutil.WithPgxConn(ctx, g.db, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, g.query, email).Scan(&allowed)
	})
	if err != nil {
		return false, apperrors.AuthzTransport(err)
	}
	return allowed, nil
}
