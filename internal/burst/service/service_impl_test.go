package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"github.com/strategen/strategen/internal/burst/repository"
	"github.com/strategen/strategen/internal/clock"
	"github.com/strategen/strategen/internal/config"
	"github.com/strategen/strategen/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, fake *clock.FakeClock) burstdomain.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&burstdomain.Event{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParam{
		Store:    repository.NewGormStore(db, node),
		Policies: tier.NewPolicies(config.Config{}),
		Clock:    fake,
		Log:      zap.NewNop(),
	})
}

func TestAdmitsExactlyLimitWithinWindow(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	for i := 1; i <= 10; i++ {
		snap, err := svc.Check(ctx, "user-1", "free")
		require.NoError(t, err)
		assert.True(t, snap.Allowed, "attempt %d", i)
		assert.Equal(t, int64(i), snap.Used)
		fake.Advance(time.Minute)
	}

	snap, err := svc.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.False(t, snap.Allowed)
	assert.Equal(t, int64(10), snap.Used)
	assert.Equal(t, 10, snap.Limit)
	assert.True(t, snap.ResetAt.After(fake.Now()), "reset_at must be strictly in the future")
}

func TestRejectionDoesNotConsumeBudget(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	for i := 0; i < 10; i++ {
		_, err := svc.Check(ctx, "user-1", "free")
		require.NoError(t, err)
	}

	// Repeated rejections report the same used count; no event is appended.
	for i := 0; i < 3; i++ {
		snap, err := svc.Check(ctx, "user-1", "free")
		require.NoError(t, err)
		assert.False(t, snap.Allowed)
		assert.Equal(t, int64(10), snap.Used)
	}
}

func TestWindowSlidesOpenAgain(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	for i := 0; i < 10; i++ {
		_, err := svc.Check(ctx, "user-1", "free")
		require.NoError(t, err)
	}

	snap, err := svc.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	require.False(t, snap.Allowed)

	// All ten events fall out once the window passes them.
	fake.Advance(5*time.Hour + time.Second)
	snap, err = svc.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.True(t, snap.Allowed)
	assert.Equal(t, int64(1), snap.Used)
}

func TestTierLimitsDiffer(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	for i := 0; i < 50; i++ {
		snap, err := svc.Check(ctx, "user-1", "pro")
		require.NoError(t, err)
		require.True(t, snap.Allowed, "attempt %d", i+1)
	}

	snap, err := svc.Check(ctx, "user-1", "pro")
	require.NoError(t, err)
	assert.False(t, snap.Allowed)
	assert.Equal(t, 50, snap.Limit)

	// A different user is unaffected.
	snap, err = svc.Check(ctx, "user-2", "pro")
	require.NoError(t, err)
	assert.True(t, snap.Allowed)
}

func TestEventAtWindowBoundaryStillCounts(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	for i := 0; i < 10; i++ {
		_, err := svc.Check(ctx, "user-1", "free")
		require.NoError(t, err)
	}

	// Exactly window-aged events satisfy timestamp >= window_start.
	fake.Advance(5 * time.Hour)
	snap, err := svc.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.False(t, snap.Allowed)
	assert.True(t, snap.ResetAt.After(fake.Now()))
}

func TestCheckRejectsEmptyUser(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	_, err := svc.Check(ctx, "  ", "free")
	assert.ErrorIs(t, err, burstdomain.ErrInvalidUser)
}
