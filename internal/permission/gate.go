// Package permission resolves a caller's role and decides whether it may run
// a command.
package permission

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/role"
	"github.com/keshon/rbot/internal/storage"
)

// Gate answers authorization questions. Roles are cached per user in front of
// the store; the cache is only ever written after the store accepted the value.
type Gate struct {
	store        storage.Store
	dir          chat.Directory
	memberRoleID string
	log          zerolog.Logger

	mu    sync.RWMutex
	cache map[string]role.Role
	// overrides are process-local roles that are never persisted.
	overrides map[string]role.Role
}

// NewGate builds a gate. dir and memberRoleID may be empty, in which case
// Guest/User tiers are never re-derived from guild membership.
func NewGate(store storage.Store, dir chat.Directory, memberRoleID string, logger zerolog.Logger) *Gate {
	return &Gate{
		store:        store,
		dir:          dir,
		memberRoleID: memberRoleID,
		log:          logger.With().Str("component", "permission").Logger(),
		cache:        make(map[string]role.Role),
		overrides:    make(map[string]role.Role),
	}
}

// Role returns the stored role of userID, registering unknown users as Guest.
func (g *Gate) Role(ctx context.Context, userID string) (role.Role, error) {
	g.mu.RLock()
	r, ok := g.overrides[userID]
	if !ok {
		r, ok = g.cache[userID]
	}
	g.mu.RUnlock()
	if ok {
		return r, nil
	}

	r, found, err := g.store.UserRole(ctx, userID)
	if err != nil {
		return role.Guest, fmt.Errorf("load role of %s: %w", userID, err)
	}
	if !found {
		if err := g.store.SetUserRole(ctx, userID, role.Guest); err != nil {
			return role.Guest, fmt.Errorf("register %s: %w", userID, err)
		}
		r = role.Guest
	}

	g.mu.Lock()
	g.cache[userID] = r
	g.mu.Unlock()
	return r, nil
}

// SetRole persists r for userID and refreshes the cache.
func (g *Gate) SetRole(ctx context.Context, userID string, r role.Role) error {
	if !r.Valid() {
		return fmt.Errorf("invalid role %d", int(r))
	}
	if err := g.store.SetUserRole(ctx, userID, r); err != nil {
		return fmt.Errorf("store role of %s: %w", userID, err)
	}

	g.mu.Lock()
	g.cache[userID] = r
	delete(g.overrides, userID)
	g.mu.Unlock()
	return nil
}

// Assume makes userID act as r for the lifetime of the gate without touching
// the store. A later SetRole for the same user replaces it.
func (g *Gate) Assume(userID string, r role.Role) error {
	if !r.Valid() {
		return fmt.Errorf("invalid role %d", int(r))
	}
	g.mu.Lock()
	g.overrides[userID] = r
	g.mu.Unlock()
	return nil
}

// Authorize reports whether userID may run a command requiring required,
// along with the role that decision was based on.
//
// Only the Guest and User tiers are corrected from live guild membership;
// Moderator and Admin are never promoted or demoted here.
func (g *Gate) Authorize(ctx context.Context, userID, guildID string, required role.Role) (bool, role.Role, error) {
	current, err := g.Role(ctx, userID)
	if err != nil {
		return false, role.Guest, err
	}

	if current <= role.User {
		current = g.reconcile(ctx, userID, guildID, current)
	}

	return current.AtLeast(required), current, nil
}

// SeedAdmins makes sure every listed user is at least Admin.
func (g *Gate) SeedAdmins(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		current, err := g.Role(ctx, id)
		if err != nil {
			return err
		}
		if current == role.Admin {
			continue
		}
		if err := g.SetRole(ctx, id, role.Admin); err != nil {
			return err
		}
		g.log.Info().Str("user", id).Msg("seeded admin")
	}
	return nil
}

func (g *Gate) reconcile(ctx context.Context, userID, guildID string, current role.Role) role.Role {
	if g.dir == nil || g.memberRoleID == "" || guildID == "" {
		return current
	}

	roles, err := g.dir.MemberRoles(ctx, guildID, userID)
	if err != nil {
		g.log.Warn().Err(err).Str("user", userID).Msg("membership lookup failed, keeping stored role")
		return current
	}

	derived := role.Guest
	if slices.Contains(roles, g.memberRoleID) {
		derived = role.User
	}
	if derived == current {
		return current
	}

	if err := g.SetRole(ctx, userID, derived); err != nil {
		g.log.Error().Err(err).Str("user", userID).Msg("failed to persist corrected role")
		return current
	}
	g.log.Info().Str("user", userID).Stringer("from", current).Stringer("to", derived).Msg("role corrected from membership")
	return derived
}
