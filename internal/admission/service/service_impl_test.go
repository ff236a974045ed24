package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/strategen/strategen/internal/activity"
	admissiondomain "github.com/strategen/strategen/internal/admission/domain"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	burstrepo "github.com/strategen/strategen/internal/burst/repository"
	burstservice "github.com/strategen/strategen/internal/burst/service"
	"github.com/strategen/strategen/internal/cache"
	"github.com/strategen/strategen/internal/clock"
	"github.com/strategen/strategen/internal/config"
	"github.com/strategen/strategen/internal/generation"
	historydomain "github.com/strategen/strategen/internal/history/domain"
	historyrepo "github.com/strategen/strategen/internal/history/repository"
	historyservice "github.com/strategen/strategen/internal/history/service"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
	quotarepo "github.com/strategen/strategen/internal/quota/repository"
	quotaservice "github.com/strategen/strategen/internal/quota/service"
	"github.com/strategen/strategen/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubBackend struct {
	mu    sync.Mutex
	calls int
	fail  error
	block bool
}

func (b *stubBackend) Generate(ctx context.Context, in generation.Input) (generation.Document, error) {
	b.mu.Lock()
	fail, block := b.fail, b.block
	b.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail != nil {
		return nil, fail
	}
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()
	return generation.Document{"goal": in.Goal, "call": n}, nil
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *stubBackend) setFail(err error) {
	b.mu.Lock()
	b.fail = err
	b.mu.Unlock()
}

type pipeline struct {
	svc     admissiondomain.Service
	quota   quotadomain.Service
	history historydomain.Service
	backend *stubBackend
	clock   *clock.FakeClock
	db      *gorm.DB
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&quotadomain.UsageRecord{},
		&burstdomain.Event{},
		&historydomain.StrategyDocument{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	policies := tier.NewPolicies(config.Config{})
	log := zap.NewNop()

	quotaSvc := quotaservice.NewService(quotaservice.ServiceParam{
		Store:    quotarepo.NewGormStore(db),
		Policies: policies,
		Clock:    fake,
		Log:      log,
	})
	burstSvc := burstservice.NewService(burstservice.ServiceParam{
		Store:    burstrepo.NewGormStore(db, node),
		Policies: policies,
		Clock:    fake,
		Log:      log,
	})
	historySvc := historyservice.NewService(historyservice.ServiceParam{
		Repo:  historyrepo.NewRepository(db),
		Node:  node,
		Clock: fake,
		Log:   log,
	})

	backend := &stubBackend{}
	svc := NewService(ServiceParam{
		Quota:   quotaSvc,
		Burst:   burstSvc,
		Cache:   cache.NewMemory(),
		History: historySvc,
		Backend: backend,
		Hub:     activity.NewHub(),
		Clock:   fake,
		Config: config.Config{
			Cache:      config.CacheConfig{TTL: 24 * time.Hour},
			Generation: config.GenerationConfig{Timeout: 50 * time.Millisecond},
		},
		Log: log,
	})

	return &pipeline{
		svc:     svc,
		quota:   quotaSvc,
		history: historySvc,
		backend: backend,
		clock:   fake,
		db:      db,
	}
}

func request(userID, tierName, goal string) admissiondomain.Request {
	return admissiondomain.Request{
		UserID: userID,
		Tier:   tierName,
		Input: generation.Input{
			Goal:        goal,
			Audience:    "founders",
			Industry:    "saas",
			Platform:    "linkedin",
			ContentType: "post",
			Experience:  "beginner",
		},
	}
}

func TestFreeTierMonthlyScenario(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	// Three distinct requests admit and the counter progresses 1, 2, 3.
	for i := 1; i <= 3; i++ {
		res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", fmt.Sprintf("goal-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, admissiondomain.StatusAdmitted, res.Status)
		assert.False(t, res.Cached)
		assert.Equal(t, int64(i), res.Monthly.Used)
		assert.NotZero(t, res.DocumentID)
	}

	// Fourth distinct request hits the monthly wall.
	res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", "goal-4"))
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusRejected, res.Status)
	assert.Equal(t, admissiondomain.ReasonMonthlyExceeded, res.Reason)
	assert.Equal(t, "Free tier limit (3 strategies/month) reached.", res.Message)
	assert.Equal(t, int64(3), res.Monthly.Used)
	require.NotNil(t, res.Monthly.Limit)
	assert.Equal(t, 3, *res.Monthly.Limit)

	// Resubmitting the first request's exact input is served from cache:
	// no backend call, no quota change.
	calls := p.backend.callCount()
	res, err = p.svc.RequestGeneration(ctx, request("user-1", "free", "goal-1"))
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusAdmitted, res.Status)
	assert.True(t, res.Cached)
	assert.Zero(t, res.GenerationTime)
	assert.Equal(t, calls, p.backend.callCount())

	snap, err := p.quota.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Used)
}

func TestProBurstScenario(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	// 51 distinct inputs inside one hour: first 50 admit, the 51st is
	// burst-rejected even though the monthly quota is unlimited.
	for i := 1; i <= 50; i++ {
		res, err := p.svc.RequestGeneration(ctx, request("user-1", "pro", fmt.Sprintf("goal-%d", i)))
		require.NoError(t, err)
		require.Equal(t, admissiondomain.StatusAdmitted, res.Status, "request %d", i)
		p.clock.Advance(time.Minute)
	}

	res, err := p.svc.RequestGeneration(ctx, request("user-1", "pro", "goal-51"))
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusRejected, res.Status)
	assert.Equal(t, admissiondomain.ReasonBurstExceeded, res.Reason)
	assert.Equal(t, 50, res.Burst.Limit)
	assert.True(t, res.ResetAt.After(p.clock.Now()))
	assert.Contains(t, res.Message, "Pro tier limit (50) reached. Resets in")
}

func TestBackendFailureCostsBurstNotQuota(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.backend.setFail(errors.New("backend down"))

	// Failures consume the whole burst budget without charging the month.
	for i := 0; i < 10; i++ {
		res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", fmt.Sprintf("goal-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, admissiondomain.StatusFailed, res.Status)
		assert.Equal(t, admissiondomain.ReasonBackendUnavailable, res.Reason)
	}

	snap, err := p.quota.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Used)

	res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", "goal-x"))
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusRejected, res.Status)
	assert.Equal(t, admissiondomain.ReasonBurstExceeded, res.Reason)
}

func TestGenerationTimeoutFailsRecoverably(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.backend.mu.Lock()
	p.backend.block = true
	p.backend.mu.Unlock()

	res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", "slow goal"))
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusFailed, res.Status)
	assert.Equal(t, admissiondomain.ReasonBackendUnavailable, res.Reason)

	snap, err := p.quota.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Used)
}

func TestCacheHitSkipsBackendAndQuota(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", "grow audience"))
	require.NoError(t, err)
	require.Equal(t, admissiondomain.StatusAdmitted, res.Status)
	require.False(t, res.Cached)

	// Identical input, different casing and padding: same fingerprint.
	req := request("user-1", "free", "  GROW audience ")
	res, err = p.svc.RequestGeneration(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusAdmitted, res.Status)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, p.backend.callCount())

	// The hit still consumed a burst slot at check time but no quota.
	assert.Equal(t, int64(2), res.Burst.Used)
	snap, err := p.quota.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Used)
}

func TestPersistenceFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	require.NoError(t, p.db.Migrator().DropTable(&historydomain.StrategyDocument{}))

	res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", "grow audience"))
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusFailed, res.Status)
	assert.Equal(t, admissiondomain.ReasonPersistenceFailure, res.Reason)

	snap, err := p.quota.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Used)
}

func TestSoftDeleteNeverRefundsQuota(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", "grow audience"))
	require.NoError(t, err)
	require.Equal(t, admissiondomain.StatusAdmitted, res.Status)
	require.NotZero(t, res.DocumentID)

	require.NoError(t, p.history.Delete(ctx, "user-1", res.DocumentID))

	snap, err := p.quota.Check(ctx, "user-1", "free")
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Used)
}

func TestMonthRolloverReopensAdmission(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	for i := 1; i <= 3; i++ {
		res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", fmt.Sprintf("goal-%d", i)))
		require.NoError(t, err)
		require.Equal(t, admissiondomain.StatusAdmitted, res.Status)
	}
	res, err := p.svc.RequestGeneration(ctx, request("user-1", "free", "goal-4"))
	require.NoError(t, err)
	require.Equal(t, admissiondomain.ReasonMonthlyExceeded, res.Reason)

	// Next calendar month, and past the burst window.
	p.clock.Set(time.Date(2025, 4, 1, 0, 5, 0, 0, time.UTC))
	res, err = p.svc.RequestGeneration(ctx, request("user-1", "free", "goal-4"))
	require.NoError(t, err)
	assert.Equal(t, admissiondomain.StatusAdmitted, res.Status)
	assert.Equal(t, int64(1), res.Monthly.Used)
}

func TestInvalidInputIsAnError(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	_, err := p.svc.RequestGeneration(ctx, admissiondomain.Request{Tier: "free"})
	assert.ErrorIs(t, err, admissiondomain.ErrInvalidUser)

	req := request("user-1", "free", "grow audience")
	req.Input.Goal = "  "
	_, err = p.svc.RequestGeneration(ctx, req)
	assert.ErrorIs(t, err, generation.ErrInvalidGoal)

	req = request("user-1", "free", "grow audience")
	req.Input.Audience = ""
	_, err = p.svc.RequestGeneration(ctx, req)
	assert.ErrorIs(t, err, generation.ErrInvalidAudience)
}
