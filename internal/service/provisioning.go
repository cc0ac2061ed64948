package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/ports"
)

// Provisioner runs the post-authorization hooks: group/profile sync and the
// default-board auto-join. Both hooks are idempotent and best-effort; a hook
// failure is logged and reported but never rolls back the login.
type Provisioner struct {
	users  ports.UserStore
	boards ports.BoardStore
	logger *slog.Logger

	// PropagateData gates the group/profile sync hook.
	propagateData bool
	boardJoin     domainauth.BoardJoinSpec
}

// NewProvisioner constructs a Provisioner. boardJoin may be the zero value,
// which disables the board-join hook.
func NewProvisioner(
	users ports.UserStore,
	boards ports.BoardStore,
	propagateData bool,
	boardJoin domainauth.BoardJoinSpec,
	logger *slog.Logger,
) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		users:         users,
		boards:        boards,
		logger:        logger,
		propagateData: propagateData,
		boardJoin:     boardJoin,
	}
}

// Run executes both hooks concurrently and returns the hook errors, if any.
// Callers treat a non-nil result as a warning, not a login failure.
func (p *Provisioner) Run(ctx context.Context, identity domainauth.Identity) []error {
	var (
		g        errgroup.Group
		hookErrs = make([]error, 2)
	)
	g.Go(func() error {
		hookErrs[0] = p.SyncGroups(ctx, identity)
		return nil
	})
	g.Go(func() error {
		hookErrs[1] = p.JoinDefaultBoard(ctx, identity)
		return nil
	})
	_ = g.Wait()

	var errs []error
	for _, err := range hookErrs {
		if err != nil {
			p.logger.Warn("provisioning hook failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// SyncGroups upserts the identity's group memberships and profile fields on
// the local user. No-op when propagation is disabled or no local user exists
// yet for the identity's provider id.
func (p *Provisioner) SyncGroups(ctx context.Context, identity domainauth.Identity) error {
	if !p.propagateData {
		return nil
	}
	user, err := p.users.GetByProviderID(ctx, identity.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return apperrors.Provisioning("group_sync", err)
	}

	if len(identity.Groups) > 0 {
		if err := p.users.ReplaceGroups(ctx, user.ID, identity.Groups); err != nil {
			return apperrors.Provisioning("group_sync", err)
		}
	}
	if err := p.users.SyncProfile(ctx, user.ID, identity); err != nil {
		return apperrors.Provisioning("profile_sync", err)
	}
	return nil
}

// JoinDefaultBoard adds the local user to the configured default board with
// the configured permission flags. No-op when unconfigured, when the board
// does not exist, when no local user is resolvable, or when the user is
// already a member.
func (p *Provisioner) JoinDefaultBoard(ctx context.Context, identity domainauth.Identity) error {
	if !p.boardJoin.Enabled() {
		return nil
	}
	exists, err := p.boards.BoardExists(ctx, p.boardJoin.BoardID)
	if err != nil {
		return apperrors.Provisioning("board_join", err)
	}
	if !exists {
		p.logger.Warn("default board not found, skipping auto-join", "board_id", p.boardJoin.BoardID)
		return nil
	}

	user, err := p.users.GetByProviderID(ctx, identity.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return apperrors.Provisioning("board_join", err)
	}

	member, err := p.boards.IsMember(ctx, p.boardJoin.BoardID, user.ID)
	if err != nil {
		return apperrors.Provisioning("board_join", err)
	}
	if member {
		return nil
	}

	if err := p.boards.AddMember(ctx, user.ID, p.boardJoin); err != nil {
		return apperrors.Provisioning("board_join", err)
	}
	p.logger.Info("added user to default board", "board_id", p.boardJoin.BoardID, "user_id", user.ID)
	return nil
}
