package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strategen/strategen/internal/activity"
	admissiondomain "github.com/strategen/strategen/internal/admission/domain"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"github.com/strategen/strategen/internal/cache"
	"github.com/strategen/strategen/internal/clock"
	"github.com/strategen/strategen/internal/config"
	"github.com/strategen/strategen/internal/generation"
	historydomain "github.com/strategen/strategen/internal/history/domain"
	"github.com/strategen/strategen/internal/observability/logger"
	"github.com/strategen/strategen/internal/observability/metrics"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Quota   quotadomain.Service
	Burst   burstdomain.Service
	Cache   cache.ResultCache
	History historydomain.Service
	Backend generation.Backend
	Hub     *activity.Hub      `optional:"true"`
	Metrics *metrics.Metrics   `optional:"true"`
	Clock   clock.Clock
	Config  config.Config
	Log     *zap.Logger
}

type Service struct {
	quota    quotadomain.Service
	burst    burstdomain.Service
	cache    cache.ResultCache
	history  historydomain.Service
	backend  generation.Backend
	hub      *activity.Hub
	metrics  *metrics.Metrics
	clock    clock.Clock
	cacheTTL time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewService(p ServiceParam) admissiondomain.Service {
	return &Service{
		quota:    p.Quota,
		burst:    p.Burst,
		cache:    p.Cache,
		history:  p.History,
		backend:  p.Backend,
		hub:      p.Hub,
		metrics:  p.Metrics,
		clock:    p.Clock,
		cacheTTL: p.Config.Cache.TTL,
		timeout:  p.Config.Generation.Timeout,
		log:      p.Log.Named("admission.service"),
	}
}

// RequestGeneration runs one request through the pipeline: monthly check,
// burst check, cache probe, generation, persistence, then finalization.
// Limiter rejections and downstream failures come back as a Result, not an
// error; errors are reserved for invalid input and store breakage during
// the checks themselves.
func (s *Service) RequestGeneration(ctx context.Context, req admissiondomain.Request) (admissiondomain.Result, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return admissiondomain.Result{}, admissiondomain.ErrInvalidUser
	}
	input := req.Input.Normalize()
	if err := input.Validate(); err != nil {
		return admissiondomain.Result{}, err
	}
	tierName := strings.ToLower(strings.TrimSpace(req.Tier))
	if tierName == "" {
		tierName = "free"
	}
	log := logger.WithContext(ctx, s.log)

	fingerprint := cache.Fingerprint(input)

	monthly, err := s.quota.Check(ctx, userID, tierName)
	if err != nil {
		return admissiondomain.Result{}, err
	}
	if !monthly.Allowed {
		// A cached result costs neither quota nor a generation, so an
		// exhausted user can still retrieve documents they already paid
		// for. Only a miss turns into the rejection.
		if doc, ok := s.cache.Get(ctx, fingerprint); ok {
			s.metrics.RecordCacheProbe(ctx, true)
			s.metrics.RecordAdmission(ctx, tierName, true)
			s.publish(userID, activity.Event{Kind: activity.KindAdmitted, Tier: tierName, Cached: true})
			return admissiondomain.Result{
				Status:  admissiondomain.StatusAdmitted,
				Payload: doc,
				Cached:  true,
				Monthly: monthly,
			}, nil
		}
		return s.reject(ctx, userID, tierName, admissiondomain.Result{
			Status: admissiondomain.StatusRejected,
			Reason: admissiondomain.ReasonMonthlyExceeded,
			Message: fmt.Sprintf("%s tier limit (%d strategies/month) reached.",
				capitalize(tierName), derefLimit(monthly.Limit)),
			Monthly: monthly,
		}), nil
	}

	// The burst check records the attempt on the allowed path, so from here
	// on this request has consumed burst budget even if it fails.
	burst, err := s.burst.Check(ctx, userID, tierName)
	if err != nil {
		return admissiondomain.Result{}, err
	}
	if !burst.Allowed {
		now := s.clock.Now()
		remaining := burst.ResetAt.Sub(now)
		return s.reject(ctx, userID, tierName, admissiondomain.Result{
			Status: admissiondomain.StatusRejected,
			Reason: admissiondomain.ReasonBurstExceeded,
			Message: fmt.Sprintf("%s tier limit (%d) reached. Resets in %dh %dm",
				capitalize(tierName), burst.Limit,
				int(remaining.Hours()), int(remaining.Minutes())%60),
			Monthly: monthly,
			Burst:   burst,
			ResetAt: burst.ResetAt,
		}), nil
	}

	if doc, ok := s.cache.Get(ctx, fingerprint); ok {
		s.metrics.RecordCacheProbe(ctx, true)
		s.metrics.RecordAdmission(ctx, tierName, true)
		s.publish(userID, activity.Event{Kind: activity.KindAdmitted, Tier: tierName, Cached: true})
		log.Debug("admission served from cache",
			zap.String("user_id", userID),
			zap.String("fingerprint", fingerprint),
		)
		return admissiondomain.Result{
			Status:  admissiondomain.StatusAdmitted,
			Payload: doc,
			Cached:  true,
			Monthly: monthly,
			Burst:   burst,
		}, nil
	}
	s.metrics.RecordCacheProbe(ctx, false)

	started := s.clock.Now()
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	doc, genErr := s.backend.Generate(genCtx, input)
	cancel()
	if genErr != nil {
		s.metrics.RecordFailure(ctx, tierName, string(admissiondomain.ReasonBackendUnavailable))
		s.publish(userID, activity.Event{
			Kind:   activity.KindFailed,
			Tier:   tierName,
			Reason: string(admissiondomain.ReasonBackendUnavailable),
		})
		log.Error("generation backend failed",
			zap.String("user_id", userID),
			zap.String("fingerprint", fingerprint),
			zap.Error(genErr),
		)
		// A failed generation costs burst budget but never monthly quota.
		return admissiondomain.Result{
			Status:  admissiondomain.StatusFailed,
			Reason:  admissiondomain.ReasonBackendUnavailable,
			Message: "Strategy generation is temporarily unavailable. Please try again.",
			Monthly: monthly,
			Burst:   burst,
		}, nil
	}
	generationTime := s.clock.Now().Sub(started)
	s.metrics.RecordGenerationDuration(ctx, tierName, generationTime)

	record := &historydomain.StrategyDocument{
		UserID:         userID,
		Goal:           input.Goal,
		Audience:       input.Audience,
		Industry:       input.Industry,
		Platform:       input.Platform,
		ContentType:    input.ContentType,
		Experience:     input.Experience,
		Fingerprint:    fingerprint,
		Payload:        datatypes.JSONMap(doc),
		GenerationTime: generationTime.Seconds(),
	}
	if err := s.history.Save(ctx, record); err != nil {
		s.metrics.RecordFailure(ctx, tierName, string(admissiondomain.ReasonPersistenceFailure))
		s.publish(userID, activity.Event{
			Kind:   activity.KindFailed,
			Tier:   tierName,
			Reason: string(admissiondomain.ReasonPersistenceFailure),
		})
		log.Error("strategy document persistence failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return admissiondomain.Result{
			Status:  admissiondomain.StatusFailed,
			Reason:  admissiondomain.ReasonPersistenceFailure,
			Message: "Could not save the generated strategy. Please try again.",
			Monthly: monthly,
			Burst:   burst,
		}, nil
	}

	// Finalize: best-effort cache store, then charge the month. The result
	// is already persisted, so an increment failure is logged and the
	// request still admits rather than punishing the user twice.
	s.cache.Put(ctx, fingerprint, doc, s.cacheTTL)
	if err := s.quota.Increment(ctx, userID); err != nil {
		log.Error("monthly usage increment failed after persist",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	} else if monthly.Limit != nil {
		monthly.Used++
	}

	s.metrics.RecordAdmission(ctx, tierName, false)
	s.publish(userID, activity.Event{Kind: activity.KindAdmitted, Tier: tierName})
	return admissiondomain.Result{
		Status:         admissiondomain.StatusAdmitted,
		Payload:        doc,
		DocumentID:     record.ID,
		GenerationTime: generationTime.Seconds(),
		Monthly:        monthly,
		Burst:          burst,
	}, nil
}

func (s *Service) reject(ctx context.Context, userID, tierName string, result admissiondomain.Result) admissiondomain.Result {
	s.metrics.RecordRejection(ctx, tierName, string(result.Reason))
	s.publish(userID, activity.Event{
		Kind:   activity.KindRejected,
		Tier:   tierName,
		Reason: string(result.Reason),
	})
	logger.WithContext(ctx, s.log).Info("generation request rejected",
		zap.String("user_id", userID),
		zap.String("tier", tierName),
		zap.String("reason", string(result.Reason)),
	)
	return result
}

func (s *Service) publish(userID string, event activity.Event) {
	if s.hub == nil {
		return
	}
	event.OccurredAt = s.clock.Now()
	s.hub.Publish(userID, event)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func derefLimit(limit *int) int {
	if limit == nil {
		return 0
	}
	return *limit
}
