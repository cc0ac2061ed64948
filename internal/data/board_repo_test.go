package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	"github.com/openboard/auth-api/internal/testutil"
)

func TestBoardRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewBoardRepo(db)
	users := NewUserRepo(db)
	ctx := context.Background()

	user, err := users.Upsert(ctx, domainauth.Identity{
		ID: "provider-b1", Username: "bob", Email: "bob@example.com",
	})
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO boards (id, title) VALUES ('b1', 'Main Board')")
	require.NoError(t, err)

	t.Run("board existence", func(t *testing.T) {
		exists, err := repo.BoardExists(ctx, "b1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.BoardExists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("add member with flags", func(t *testing.T) {
		member, err := repo.IsMember(ctx, "b1", user.ID)
		require.NoError(t, err)
		assert.False(t, member)

		spec := domainauth.BoardJoinSpec{BoardID: "b1", IsAdmin: true, IsWorker: true}
		require.NoError(t, repo.AddMember(ctx, user.ID, spec))

		member, err = repo.IsMember(ctx, "b1", user.ID)
		require.NoError(t, err)
		assert.True(t, member)

		var isAdmin, isWorker, isNoComments bool
		require.NoError(t, db.QueryRowContext(ctx, `
			SELECT is_admin, is_worker, is_no_comments
			FROM board_members WHERE board_id = 'b1' AND user_id = $1
		`, user.ID).Scan(&isAdmin, &isWorker, &isNoComments))
		assert.True(t, isAdmin)
		assert.True(t, isWorker)
		assert.False(t, isNoComments)
	})

	t.Run("duplicate add is a no-op", func(t *testing.T) {
		err := repo.AddMember(ctx, user.ID, domainauth.BoardJoinSpec{BoardID: "b1"})
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			"SELECT count(*) FROM board_members WHERE board_id = 'b1'").Scan(&count))
		assert.Equal(t, 1, count)
	})
}
