package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/openboard/auth-api/internal/data/pgxutil"
	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
)

// BoardRepo answers board membership questions for the default-board hook.
type BoardRepo struct {
	DB *sql.DB
}

// NewBoardRepo creates a new BoardRepo.
func NewBoardRepo(db *sql.DB) *BoardRepo {
	return &BoardRepo{DB: db}
}

// BoardExists reports whether the board is present.
func (r *BoardRepo) BoardExists(ctx context.Context, boardID string) (bool, error) {
	var exists bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM boards WHERE id = $1)`, boardID,
		).Scan(&exists)
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return exists, nil
}

// IsMember reports whether the user is already a member of the board.
func (r *BoardRepo) IsMember(ctx context.Context, boardID, userID string) (bool, error) {
	var member bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM board_members WHERE board_id = $1 AND user_id = $2)`,
			boardID, userID,
		).Scan(&member)
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return member, nil
}

// AddMember adds the user to the board with the given permission flags.
// A concurrent duplicate add is treated as success.
func (r *BoardRepo) AddMember(ctx context.Context, userID string, spec domainauth.BoardJoinSpec) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO board_members (
				board_id, user_id, is_admin, is_no_comments, is_comments_only, is_worker
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (board_id, user_id) DO NOTHING
		`, spec.BoardID, userID, spec.IsAdmin, spec.IsNoComments, spec.IsCommentsOnly, spec.IsWorker)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
