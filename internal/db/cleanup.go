package db

import (
	"context"
	"log/slog"
	"time"
)

const DefaultCleanupInterval = 1 * time.Hour

// CleanupService periodically deletes rows that can no longer be used:
// tokens past their absolute or rolling window and registration
// invitations past their TTL. Expiry is still checked lazily at use
// time; this only keeps the tables from growing without bound.
type CleanupService struct {
	db              *DB
	tokenTTL        time.Duration
	tokenRollingTTL time.Duration
	invitationTTL   time.Duration
	interval        time.Duration
}

func NewCleanupService(db *DB, tokenTTL, tokenRollingTTL, invitationTTL time.Duration) *CleanupService {
	return &CleanupService{
		db:              db,
		tokenTTL:        tokenTTL,
		tokenRollingTTL: tokenRollingTTL,
		invitationTTL:   invitationTTL,
		interval:        DefaultCleanupInterval,
	}
}

func (s *CleanupService) Start(ctx context.Context) {
	slog.Info("starting cleanup service", "component", "cleanup", "interval", s.interval)

	s.runCleanup(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping cleanup service", "component", "cleanup")
			return
		case <-ticker.C:
			s.runCleanup(ctx)
		}
	}
}

func (s *CleanupService) runCleanup(ctx context.Context) {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE created_at <= ? OR last_used_at <= ?`,
		now.Add(-s.tokenTTL), now.Add(-s.tokenRollingTTL),
	)
	if err != nil {
		slog.Error("error deleting expired tokens", "component", "cleanup", "error", err)
	} else if n, _ := result.RowsAffected(); n > 0 {
		slog.Info("deleted expired tokens", "component", "cleanup", "count", n)
	}

	result, err = s.db.ExecContext(ctx,
		`DELETE FROM registration_invitations WHERE status != 'pending' OR created_at <= ?`,
		now.Add(-s.invitationTTL),
	)
	if err != nil {
		slog.Error("error deleting dead registration invitations", "component", "cleanup", "error", err)
	} else if n, _ := result.RowsAffected(); n > 0 {
		slog.Info("deleted dead registration invitations", "component", "cleanup", "count", n)
	}
}
