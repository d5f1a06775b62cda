package routes

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/oracle"
	"novaperp/core/state"
	"novaperp/core/types"
	"novaperp/gateway/middleware"
	"novaperp/native/engine"
)

type memUserStore struct {
	users map[string]*types.User
}

func (s *memUserStore) LoadUser(authority string) (*types.User, error) {
	u, ok := s.users[authority]
	if !ok {
		return nil, fmt.Errorf("routes: unknown authority %q", authority)
	}
	return u, nil
}

func (s *memUserStore) SaveUser(u *types.User) error {
	s.users[u.Authority] = u
	return nil
}

func newTestConfig() Config {
	e := engine.New(oracle.NewMap(), state.NewPerpMarketMap(nil), state.NewSpotMarketMap(nil), engine.Clock{Slot: 1, Now: 1}, engine.Config{}, nil)
	users := &memUserStore{users: map[string]*types.User{
		"nova1trader": {Authority: "nova1trader"},
	}}
	return Config{
		Engine: e,
		Users:  users,
		CORS:   middleware.CORSConfig{},
	}
}

func TestHealthzDoesNotRequireAuth(t *testing.T) {
	router, err := New(newTestConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAccountReturnsKnownUser(t *testing.T) {
	router, err := New(newTestConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/nova1trader", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "nova1trader"))
}

func TestGetAccountMissingUserReturnsNotFound(t *testing.T) {
	router, err := New(newTestConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/nova1ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceOrderRequiresAuthWhenAuthenticatorConfigured(t *testing.T) {
	cfg := newTestConfig()
	cfg.Authenticator = middleware.NewAuthenticator(middleware.AuthConfig{Enabled: true, HMACSecret: "test-secret"}, nil)
	router, err := New(cfg)
	require.NoError(t, err)

	body := strings.NewReader(`{"authority":"nova1trader","market_index":0,"base_asset_amount":1,"price":100}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/perp", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
