package service

import (
	"context"
	"strings"

	"github.com/strategen/strategen/internal/clock"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
	"github.com/strategen/strategen/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Store    quotadomain.Store
	Policies *tier.Policies
	Clock    clock.Clock
	Log      *zap.Logger
}

type Service struct {
	store    quotadomain.Store
	policies *tier.Policies
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(p ServiceParam) quotadomain.Service {
	return &Service{
		store:    p.Store,
		policies: p.Policies,
		clock:    p.Clock,
		log:      p.Log.Named("quota.service"),
	}
}

// Check reports whether the user is under the tier's monthly allowance.
// Unlimited tiers are always allowed with used=0 and a nil limit.
func (s *Service) Check(ctx context.Context, userID, tierName string) (quotadomain.Snapshot, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return quotadomain.Snapshot{}, quotadomain.ErrInvalidUser
	}

	policy := s.policies.Lookup(tierName)
	month := quotadomain.MonthKey(s.clock.Now())
	if policy.Unlimited() {
		return quotadomain.Snapshot{
			Allowed: true,
			Used:    0,
			Limit:   nil,
			Month:   month,
		}, nil
	}

	used, err := s.store.Current(ctx, userID, month)
	if err != nil {
		return quotadomain.Snapshot{}, err
	}

	limit := *policy.MonthlyLimit
	return quotadomain.Snapshot{
		Allowed: used < int64(limit),
		Used:    used,
		Limit:   policy.MonthlyLimit,
		Month:   month,
	}, nil
}

// Increment charges one successful generation against the current month.
func (s *Service) Increment(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return quotadomain.ErrInvalidUser
	}

	month := quotadomain.MonthKey(s.clock.Now())
	count, err := s.store.Increment(ctx, userID, month)
	if err != nil {
		return err
	}

	s.log.Debug("monthly usage incremented",
		zap.String("user_id", userID),
		zap.String("month", month),
		zap.Int64("usage_count", count),
	)
	return nil
}
