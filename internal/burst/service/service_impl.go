package service

import (
	"context"
	"strings"
	"time"

	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"github.com/strategen/strategen/internal/clock"
	"github.com/strategen/strategen/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Store    burstdomain.Store
	Policies *tier.Policies
	Clock    clock.Clock
	Log      *zap.Logger
}

type Service struct {
	store    burstdomain.Store
	policies *tier.Policies
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(p ServiceParam) burstdomain.Service {
	return &Service{
		store:    p.Store,
		policies: p.Policies,
		clock:    p.Clock,
		log:      p.Log.Named("burst.service"),
	}
}

// Check counts attempts in the trailing window and, when under the limit,
// records this attempt before anything downstream runs. Exactly-at-limit
// rejects: strict < admits.
func (s *Service) Check(ctx context.Context, userID, tierName string) (burstdomain.Snapshot, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return burstdomain.Snapshot{}, burstdomain.ErrInvalidUser
	}

	policy := s.policies.Lookup(tierName)
	now := s.clock.Now()
	windowStart := now.Add(-policy.BurstWindow)

	used, err := s.store.CountSince(ctx, userID, windowStart)
	if err != nil {
		return burstdomain.Snapshot{}, err
	}

	if used >= int64(policy.BurstLimit) {
		resetAt := windowStart.Add(policy.BurstWindow)
		// Never report a reset in the past; capacity frees as soon as the
		// oldest event slides out, so signal one minute.
		if !resetAt.After(now) {
			resetAt = now.Add(time.Minute)
		}
		s.log.Info("burst limit exceeded",
			zap.String("user_id", userID),
			zap.String("tier", policy.Name),
			zap.Int64("used", used),
			zap.Int("limit", policy.BurstLimit),
			zap.Time("reset_at", resetAt),
		)
		return burstdomain.Snapshot{
			Allowed: false,
			Used:    used,
			Limit:   policy.BurstLimit,
			ResetAt: resetAt,
		}, nil
	}

	if err := s.store.Append(ctx, userID, now); err != nil {
		return burstdomain.Snapshot{}, err
	}
	return burstdomain.Snapshot{
		Allowed: true,
		Used:    used + 1,
		Limit:   policy.BurstLimit,
	}, nil
}

// Usage reports the current window consumption without recording anything.
func (s *Service) Usage(ctx context.Context, userID, tierName string) (burstdomain.Snapshot, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return burstdomain.Snapshot{}, burstdomain.ErrInvalidUser
	}

	policy := s.policies.Lookup(tierName)
	now := s.clock.Now()
	used, err := s.store.CountSince(ctx, userID, now.Add(-policy.BurstWindow))
	if err != nil {
		return burstdomain.Snapshot{}, err
	}
	return burstdomain.Snapshot{
		Allowed: used < int64(policy.BurstLimit),
		Used:    used,
		Limit:   policy.BurstLimit,
	}, nil
}
