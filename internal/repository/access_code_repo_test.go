package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

func TestAccessCodeIssueDisplacesPriorCode(t *testing.T) {
	db := setupTestDB(t, &models.AccessCode{})
	repo := NewAccessCodeRepository(db)
	now := time.Now()

	first := models.AccessCode{StudentID: 1, Code: "111111", ExpiresAt: now.Add(24 * time.Hour)}
	require.NoError(t, repo.Issue(context.Background(), &first, now))

	second := models.AccessCode{StudentID: 1, Code: "222222", ExpiresAt: now.Add(24 * time.Hour)}
	require.NoError(t, repo.Issue(context.Background(), &second, now))

	live, err := repo.LatestUnused(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "222222", live.Code)

	var displaced models.AccessCode
	require.NoError(t, db.First(&displaced, first.ID).Error)
	require.NotNil(t, displaced.UsedAt, "issuing a new code must retire the old one")
}

func TestAccessCodeConsumeIsSingleUse(t *testing.T) {
	db := setupTestDB(t, &models.AccessCode{})
	repo := NewAccessCodeRepository(db)
	now := time.Now()

	code := models.AccessCode{StudentID: 2, Code: "333333", ExpiresAt: now.Add(24 * time.Hour)}
	require.NoError(t, repo.Issue(context.Background(), &code, now))

	won, err := repo.Consume(context.Background(), code.ID, now)
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.Consume(context.Background(), code.ID, now)
	require.NoError(t, err)
	require.False(t, won, "a consumed code can never be redeemed again")
}

func TestAccessCodeInvalidateActive(t *testing.T) {
	db := setupTestDB(t, &models.AccessCode{})
	repo := NewAccessCodeRepository(db)
	now := time.Now()

	code := models.AccessCode{StudentID: 3, Code: "444444", ExpiresAt: now.Add(24 * time.Hour)}
	require.NoError(t, repo.Issue(context.Background(), &code, now))

	revoked, err := repo.InvalidateActive(context.Background(), 3, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), revoked)

	_, err = repo.LatestUnused(context.Background(), 3)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	revoked, err = repo.InvalidateActive(context.Background(), 3, now)
	require.NoError(t, err)
	require.Zero(t, revoked)
}
