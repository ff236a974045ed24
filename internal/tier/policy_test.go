package tier

import (
	"testing"
	"time"

	"github.com/strategen/strategen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Quota: config.QuotaConfig{FreeMonthlyLimit: 3},
		Burst: config.BurstConfig{
			Window:      5 * time.Hour,
			FreeLimit:   10,
			ProLimit:    50,
			ExpertLimit: 100,
		},
	}
}

func TestLookup(t *testing.T) {
	policies := NewPolicies(testConfig())

	free := policies.Lookup("free")
	require.NotNil(t, free.MonthlyLimit)
	assert.Equal(t, 3, *free.MonthlyLimit)
	assert.Equal(t, 10, free.BurstLimit)
	assert.Equal(t, 5*time.Hour, free.BurstWindow)
	assert.False(t, free.Unlimited())

	pro := policies.Lookup("pro")
	assert.True(t, pro.Unlimited())
	assert.Equal(t, 50, pro.BurstLimit)

	expert := policies.Lookup("Expert")
	assert.True(t, expert.Unlimited())
	assert.Equal(t, 100, expert.BurstLimit)
}

func TestLookupUnknownFallsBackToFree(t *testing.T) {
	policies := NewPolicies(testConfig())

	for _, name := range []string{"", "  ", "platinum", "FREE "} {
		policy := policies.Lookup(name)
		assert.Equal(t, Free, policy.Name, "tier %q", name)
		assert.False(t, policy.Unlimited())
	}
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	policies := NewPolicies(config.Config{})

	free := policies.Lookup("free")
	require.NotNil(t, free.MonthlyLimit)
	assert.Equal(t, 3, *free.MonthlyLimit)
	assert.Equal(t, 10, free.BurstLimit)
	assert.Equal(t, 5*time.Hour, free.BurstWindow)
}
