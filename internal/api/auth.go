package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"kortovik/internal/config"
	"kortovik/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	apiKeyHeaderDefault = "x-api-key"

	PermReadCourts       = "read:courts"
	PermReadAvailability = "read:availability"
	PermReadBookings     = "read:bookings"
	PermWriteBookings    = "write:bookings"
	PermManageBookings   = "manage:bookings"
	PermManageSlots      = "manage:slots"

	clientKeyUnknown = "unknown"
)

var (
	errUnauthenticated  = errors.New("invalid or missing api key")
	errPermissionDenied = errors.New("permission denied")
	errRateLimited      = errors.New("rate limit exceeded")
)

// HTTPAuth проверяет ключ API и ограничивает частоту запросов. Локальный
// лимитер сглаживает всплески в рамках процесса, лимит в redis общий для
// всех инстансов; при недоступном redis запрос пропускается.
type HTTPAuth struct {
	cfg      config.APIConfig
	clients  []config.APIClientKey
	limiters sync.Map // map[string]*rate.Limiter
	cache    domain.SlotCache
	logger   *zerolog.Logger
}

func NewHTTPAuth(cfg config.APIConfig, cache domain.SlotCache, logger *zerolog.Logger) *HTTPAuth {
	return &HTTPAuth{
		cfg:     cfg,
		clients: cfg.Auth.APIKeys,
		cache:   cache,
		logger:  logger,
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) apiKeyHeader() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		h = apiKeyHeaderDefault
	}
	return h
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader()))
	if apiKey == "" {
		return errUnauthenticated
	}

	client, ok := a.lookupClient(apiKey)
	if !ok {
		return errUnauthenticated
	}

	return a.checkPermissions(client, r)
}

// lookupClient сравнивает ключи за постоянное время.
func (a *HTTPAuth) lookupClient(apiKey string) (config.APIClientKey, bool) {
	var found config.APIClientKey
	var ok bool
	for _, c := range a.clients {
		if subtle.ConstantTimeCompare([]byte(c.Key), []byte(apiKey)) == 1 {
			found = c
			ok = true
		}
	}
	return found, ok
}

func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" {
		return nil
	}
	// Пустой список разрешений означает полный доступ.
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/api/v1/availability"):
		return PermReadAvailability
	case strings.HasPrefix(path, "/api/v1/courts"):
		if r.Method == http.MethodPost {
			return PermManageSlots
		}
		return PermReadCourts
	case strings.HasPrefix(path, "/api/v1/bookings"):
		if r.Method != http.MethodPost {
			return PermReadBookings
		}
		if strings.HasSuffix(path, "/confirm") || strings.HasSuffix(path, "/reject") || strings.HasSuffix(path, "/payment") {
			return PermManageBookings
		}
		return PermWriteBookings
	default:
		return ""
	}
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	key := a.clientKey(r)
	if !a.getLimiter(key).Allow() {
		return errRateLimited
	}

	if a.cache != nil {
		limit := int(a.cfg.RateLimit.RPS * 60)
		allowed, err := a.cache.CheckRateLimit(r.Context(), key, limit, time.Minute)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
			}
			return nil
		}
		if !allowed {
			return errRateLimited
		}
	}

	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader())); apiKey != "" {
		return apiKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
