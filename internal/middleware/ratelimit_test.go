// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

func TestLocalBucketsFallback(t *testing.T) {
	l := &localBuckets{}
	limit := PerMinute(60, 2)

	for range 2 {
		assert.Equal(t, 1, l.allow("k", limit).Allowed)
	}

	res := l.allow("k", limit)
	assert.Equal(t, 0, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	assert.Equal(t, 1, l.allow("other", limit).Allowed)
}

func TestKeyByIPIgnoresClientForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "ratelimit:ip:10.0.0.1", KeyByIP(req))

	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	req.Header.Set("X-Real-IP", "3.3.3.3")
	assert.Equal(t, "ratelimit:ip:10.0.0.1", KeyByIP(req))

	req.RemoteAddr = "10.0.0.2"
	assert.Equal(t, "ratelimit:ip:10.0.0.2", KeyByIP(req))
}

func TestByRolePicksBudget(t *testing.T) {
	policy := ByRole(DefaultRoleLimits)

	req := httptest.NewRequest("GET", "/v1/leads", nil)
	req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{
		UserID: 5,
		Role:   string(visibility.RoleManager),
	}))

	key, limit, ok := policy(req)
	assert.True(t, ok)
	assert.Equal(t, "ratelimit:user:5", key)
	assert.Equal(t, 300, limit.Rate)
	assert.Equal(t, 50, limit.Burst)
}
