package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/strategen/strategen/internal/clock"
	historydomain "github.com/strategen/strategen/internal/history/domain"
	"github.com/strategen/strategen/internal/history/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, fake *clock.FakeClock) (historydomain.Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&historydomain.StrategyDocument{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		Repo:  repository.NewRepository(db),
		Node:  node,
		Clock: fake,
		Log:   zap.NewNop(),
	})
	return svc, db
}

func sampleDoc(userID, goal string) *historydomain.StrategyDocument {
	return &historydomain.StrategyDocument{
		UserID:      userID,
		Goal:        goal,
		Audience:    "founders",
		Industry:    "saas",
		Platform:    "linkedin",
		ContentType: "post",
		Experience:  "beginner",
		Fingerprint: "fp-" + goal,
		Payload:     datatypes.JSONMap{"title": goal},
	}
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)

	doc := sampleDoc("user-1", "grow audience")
	require.NoError(t, svc.Save(ctx, doc))
	assert.NotZero(t, doc.ID)
	assert.Equal(t, fake.Now(), doc.CreatedAt)

	got, err := svc.Get(ctx, "user-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "grow audience", got.Goal)
	assert.Equal(t, "grow audience", got.Payload["title"])
}

func TestListIsNewestFirstAndScopedToUser(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Save(ctx, sampleDoc("user-1", fmt.Sprintf("goal-%d", i))))
		fake.Advance(time.Minute)
	}
	require.NoError(t, svc.Save(ctx, sampleDoc("user-2", "other")))

	docs, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "goal-2", docs[0].Goal)
	assert.Equal(t, "goal-0", docs[2].Goal)
}

func TestDeleteIsSoftAndScopedToOwner(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := newTestService(t, fake)

	doc := sampleDoc("user-1", "grow audience")
	require.NoError(t, svc.Save(ctx, doc))

	// Another user cannot delete it.
	assert.ErrorIs(t, svc.Delete(ctx, "user-2", doc.ID), historydomain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "user-1", doc.ID))
	_, err := svc.Get(ctx, "user-1", doc.ID)
	assert.ErrorIs(t, err, historydomain.ErrNotFound)

	// Deleting twice reports not found.
	assert.ErrorIs(t, svc.Delete(ctx, "user-1", doc.ID), historydomain.ErrNotFound)

	// The row survives as a soft-deleted record.
	var count int64
	require.NoError(t, db.Unscoped().
		Model(&historydomain.StrategyDocument{}).
		Where("id = ?", doc.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestValidationErrors(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, fake)

	assert.ErrorIs(t, svc.Save(ctx, sampleDoc(" ", "x")), historydomain.ErrInvalidUser)
	_, err := svc.List(ctx, "")
	assert.ErrorIs(t, err, historydomain.ErrInvalidUser)
	_, err = svc.Get(ctx, "user-1", 12345)
	assert.ErrorIs(t, err, historydomain.ErrNotFound)
}
