package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, 1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")
	rl.limiter("10.0.0.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(30 * time.Second)
	rl.limiter("10.0.0.2")
	assert.Equal(t, 2, rl.size(), "no sweep before the idle TTL elapses")

	now = now.Add(45 * time.Second)
	rl.limiter("10.0.0.3")
	assert.Equal(t, 2, rl.size(), "10.0.0.1 idle for 75s is evicted")

	now = now.Add(2 * time.Minute)
	rl.limiter("10.0.0.3")
	assert.Equal(t, 1, rl.size())
}

func TestRateLimiter_KeepsActiveClientState(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(0.001, 1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.limiter("10.0.0.1").Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, rl.limiter("10.0.0.1").Allow())
}

func TestRateLimit_ForwardedForIgnoredWithoutTrustedProxy(t *testing.T) {
	m := new(MockURLUseCase)
	m.On("Now").Return(time.Now()).Maybe()
	m.On("ShortenURL", mock.Anything, usecase.ShortenInput{OriginalURL: "https://example.com"}).
		Once().
		Return(&entity.URL{ShortCode: "abc123", OriginalURL: "https://example.com"}, nil)

	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	server := httptest.NewServer(NewRouter(logger, m, Options{RequestsPerSecond: 0.001, Burst: 1}))
	t.Cleanup(server.Close)

	e := httpexpect.Default(t, server.URL)
	body := map[string]string{"original_url": "https://example.com"}

	e.POST("/api/v1/shorten").WithJSON(body).
		WithHeader("X-Forwarded-For", "203.0.113.1").
		Expect().Status(http.StatusCreated)
	e.POST("/api/v1/shorten").WithJSON(body).
		WithHeader("X-Forwarded-For", "203.0.113.2").
		Expect().Status(http.StatusTooManyRequests)

	m.AssertExpectations(t)
}
