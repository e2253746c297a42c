package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"parlor/internal/models"
	"parlor/internal/store"
)

func TestCleanupDeletesExpiredRows(t *testing.T) {
	database := openTestDB(t)
	repo := NewUserRepository(database)
	user := createTestUser(t, database, "alice")

	now := time.Now().UTC()
	tokens := []struct {
		id, hash          string
		created, lastUsed time.Time
	}{
		{"tok_live", "hash_live", now.Add(-time.Hour), now.Add(-time.Minute)},
		{"tok_old", "hash_old", now.Add(-800 * time.Hour), now.Add(-time.Minute)},
		{"tok_idle", "hash_idle", now.Add(-time.Hour), now.Add(-200 * time.Hour)},
	}
	for _, tok := range tokens {
		err := repo.CreateToken(context.Background(), &models.AuthToken{
			ID:         tok.id,
			UserID:     user.ID,
			TokenHash:  tok.hash,
			CreatedAt:  tok.created,
			LastUsedAt: tok.lastUsed,
		})
		if err != nil {
			t.Fatalf("CreateToken() error = %v", err)
		}
	}

	invitations := []struct {
		code    string
		status  models.InvitationStatus
		created time.Time
	}{
		{"code-live", models.InvitationPending, now.Add(-time.Hour)},
		{"code-stale", models.InvitationPending, now.Add(-48 * time.Hour)},
		{"code-used", models.InvitationAccepted, now.Add(-time.Hour)},
	}
	for _, inv := range invitations {
		err := repo.CreateRegistrationInvitation(context.Background(), &models.RegistrationInvitation{
			Code:      inv.code,
			Status:    inv.status,
			CreatedAt: inv.created,
		})
		if err != nil {
			t.Fatalf("CreateRegistrationInvitation() error = %v", err)
		}
	}

	cleanup := NewCleanupService(database, 720*time.Hour, 168*time.Hour, 24*time.Hour)
	cleanup.runCleanup(context.Background())

	if _, err := repo.GetTokenByHash(context.Background(), "hash_live"); err != nil {
		t.Errorf("live token removed: %v", err)
	}
	for _, hash := range []string{"hash_old", "hash_idle"} {
		if _, err := repo.GetTokenByHash(context.Background(), hash); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("token %s not cleaned up, err = %v", hash, err)
		}
	}

	if _, err := repo.GetRegistrationInvitation(context.Background(), "code-live"); err != nil {
		t.Errorf("live invitation removed: %v", err)
	}
	for _, code := range []string{"code-stale", "code-used"} {
		if _, err := repo.GetRegistrationInvitation(context.Background(), code); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("invitation %s not cleaned up, err = %v", code, err)
		}
	}
}
