package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-service-booking/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

// cacheKeyFor computes the key a given request would be stored under,
// so expectations can be registered before the request runs.
func cacheKeyFor(cfg config.CacheConfig, target, auth string) string {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())
	return cacheKeyFrom(cfg, c)
}

func TestCacheMissCallsHandlerAndStores(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := cacheTestConfig()
	key := cacheKeyFor(cfg, "/v1/events", "")

	mock.ExpectGet(key).RedisNil()
	mock.Regexp().ExpectSetEx(key, `(?s).*`, cfg.TTL).SetVal("OK")

	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb))
	e.GET("/v1/events", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"events": []string{}})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheHitSkipsHandler(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := cacheTestConfig()
	key := cacheKeyFor(cfg, "/v1/events", "")

	hdr := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"events":[]}`)
	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb))
	e.GET("/v1/events", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"events": []string{}})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, calls, "cached response must not reach the handler")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, string(body), rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheSkipsNonCacheableMethod(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := cacheTestConfig()

	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb))
	e.POST("/v1/events", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusCreated, echo.Map{"id": 1})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/events", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKeyVariesByPathParam(t *testing.T) {
	cfg := cacheTestConfig()
	assert.NotEqual(t,
		cacheKeyFor(cfg, "/v1/events/1", ""),
		cacheKeyFor(cfg, "/v1/events/2", ""),
		"resources under the same route must not share a cache entry")
}

func TestCacheNeverSharesEntriesAcrossCallers(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := cacheTestConfig()
	const (
		authAlice = "Bearer token-alice"
		authBob   = "Bearer token-bob"
	)
	keyAlice := cacheKeyFor(cfg, "/v1/bookings/my", authAlice)
	keyBob := cacheKeyFor(cfg, "/v1/bookings/my", authBob)
	require.NotEqual(t, keyAlice, keyBob, "keys must be scoped to the caller's credential")

	mock.ExpectGet(keyAlice).RedisNil()
	mock.Regexp().ExpectSetEx(keyAlice, `(?s).*`, cfg.TTL).SetVal("OK")
	mock.ExpectGet(keyBob).RedisNil()
	mock.Regexp().ExpectSetEx(keyBob, `(?s).*`, cfg.TTL).SetVal("OK")

	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb))
	e.GET("/v1/bookings/my", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"owner": c.Request().Header.Get("Authorization")})
	})

	serve := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/bookings/my", nil)
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	recAlice := serve(authAlice)
	recBob := serve(authBob)

	assert.Equal(t, 2, calls, "each caller must reach the handler")
	assert.Equal(t, "MISS", recBob.Header().Get("X-Cache"))
	assert.Contains(t, recAlice.Body.String(), "token-alice")
	assert.Contains(t, recBob.Body.String(), "token-bob")
	assert.NotContains(t, recBob.Body.String(), "token-alice",
		fmt.Sprintf("caller %q must never see another caller's response", authBob))
	require.NoError(t, mock.ExpectationsWereMet())
}
