// Package tier holds the static entitlement table. Policies are immutable
// configuration looked up by tier name; unknown tiers resolve to free.
package tier

import (
	"strings"
	"time"

	"github.com/strategen/strategen/internal/config"
)

const (
	Free   = "free"
	Pro    = "pro"
	Expert = "expert"
)

// Policy describes one tier's monthly and burst entitlements. A nil
// MonthlyLimit means unlimited monthly generations.
type Policy struct {
	Name         string
	MonthlyLimit *int
	BurstLimit   int
	BurstWindow  time.Duration
}

// Unlimited reports whether the tier has no monthly cap.
func (p Policy) Unlimited() bool { return p.MonthlyLimit == nil }

// Policies resolves tier names to entitlements.
type Policies struct {
	byName map[string]Policy
}

// NewPolicies builds the tier table from configuration.
func NewPolicies(cfg config.Config) *Policies {
	freeMonthly := cfg.Quota.FreeMonthlyLimit
	if freeMonthly <= 0 {
		freeMonthly = 3
	}
	window := cfg.Burst.Window
	if window <= 0 {
		window = 5 * time.Hour
	}

	return &Policies{
		byName: map[string]Policy{
			Free: {
				Name:         Free,
				MonthlyLimit: &freeMonthly,
				BurstLimit:   positiveOr(cfg.Burst.FreeLimit, 10),
				BurstWindow:  window,
			},
			Pro: {
				Name:        Pro,
				BurstLimit:  positiveOr(cfg.Burst.ProLimit, 50),
				BurstWindow: window,
			},
			Expert: {
				Name:        Expert,
				BurstLimit:  positiveOr(cfg.Burst.ExpertLimit, 100),
				BurstWindow: window,
			},
		},
	}
}

// Lookup returns the policy for a tier name, falling back to free.
func (p *Policies) Lookup(name string) Policy {
	policy, ok := p.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return p.byName[Free]
	}
	return policy
}

func positiveOr(value, def int) int {
	if value <= 0 {
		return def
	}
	return value
}
