package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Anermers95/SWE5006/internal/config"
)

func rateCtx(userID uint64) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/rooms", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/rooms")
	if userID != 0 {
		c.Set(CtxUserID, userID)
	}
	return c
}

func TestBuildRateKey(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}

	// The default strategy never carries a user component, so it
	// behaves the same before and after authentication.
	anon := rateCtx(0)
	assert.Equal(t, "rl:ip:192.0.2.1:route:GET /v1/rooms", buildRateKey(cfg, anon))
	authed := rateCtx(42)
	assert.Equal(t, buildRateKey(cfg, anon), buildRateKey(cfg, authed))

	cfg.KeyStrategy = "ip_user_route"
	assert.Equal(t, "rl:ip:192.0.2.1:user:anon:route:GET /v1/rooms", buildRateKey(cfg, anon))
	assert.Equal(t, "rl:ip:192.0.2.1:user:42:route:GET /v1/rooms", buildRateKey(cfg, authed))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, authed))
}
